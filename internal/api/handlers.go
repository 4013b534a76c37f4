package api

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

// Dispatcher runs a campaign. *campaign.Service satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, c *domain.Campaign) (*domain.DispatchResult, error)
}

// Handlers contains all HTTP handlers for the campaign API.
type Handlers struct {
	dispatcher Dispatcher
	validate   *validator.Validate
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d Dispatcher) *Handlers {
	v := validator.New()
	// Report JSON field names so clients can match them to their payload.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handlers{dispatcher: d, validate: v}
}
