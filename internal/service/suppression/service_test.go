package suppression

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

// mockRepo is an in-memory repository for testing.
type mockRepo struct {
	mu    sync.RWMutex
	store map[string]*domain.Suppression // keyed by email
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[string]*domain.Suppression)}
}

func (m *mockRepo) IsSuppressed(_ context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.store[email]
	return ok, nil
}

func (m *mockRepo) Suppress(_ context.Context, s *domain.Suppression) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[s.Email]; exists {
		return false, nil
	}
	m.store[s.Email] = s
	return true, nil
}

func (m *mockRepo) Remove(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[email]; !ok {
		return ErrNotFound
	}
	delete(m.store, email)
	return nil
}

func (m *mockRepo) Get(_ context.Context, email string) (*domain.Suppression, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[email]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func TestSuppress_NormalizesAndHashes(t *testing.T) {
	repo := newMockRepo()
	s := NewService(repo)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("PHT", 8*3600)) }

	require.NoError(t, s.Suppress(context.Background(), " Juan@Example.COM", domain.ReasonUnsubscribe, domain.SourceOneClick, domain.KindPromotion))

	entry := repo.store["juan@example.com"]
	require.NotNil(t, entry)
	assert.Equal(t, HashEmail("juan@example.com"), entry.MD5Hash)
	assert.Len(t, entry.MD5Hash, 32)
	assert.Equal(t, time.UTC, entry.SuppressedAt.Location())
}

func TestSuppress_EmptyEmail(t *testing.T) {
	s := NewService(newMockRepo())
	assert.ErrorIs(t, s.Suppress(context.Background(), "   ", domain.ReasonManual, domain.SourceManual, ""), ErrEmailRequired)
	assert.ErrorIs(t, s.Remove(context.Background(), ""), ErrEmailRequired)
}

func TestIsSuppressed_EmptyEmailIsNotSuppressed(t *testing.T) {
	s := NewService(newMockRepo())
	ok, err := s.IsSuppressed(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashEmail_CaseInsensitive(t *testing.T) {
	assert.Equal(t, HashEmail("A@B.com"), HashEmail(" a@b.COM "))
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", HashEmail(""))
}
