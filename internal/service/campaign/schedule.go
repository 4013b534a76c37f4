package campaign

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
)

// parseSchedule leniently parses a scheduledFor value. Zone-less values are
// read as UTC. ok is false for empty and unparseable input; the latter is
// logged and the campaign goes out immediately.
func parseSchedule(raw string) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		logger.Warn("unparseable scheduledFor, sending now", "scheduled_for", raw, "error", err)
		return time.Time{}, false
	}
	return t, true
}
