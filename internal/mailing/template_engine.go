// Package mailing renders campaign emails: the Liquid template engine, the
// per-kind defaults table, the template registry, and per-recipient
// personalization.
package mailing

import (
	"fmt"
	"html"
	"net/url"
	"sync"

	"github.com/osteele/liquid"
)

// TemplateService handles Liquid template compilation with caching
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewTemplateService creates a new template service with custom filters
func NewTemplateService() *TemplateService {
	ts := &TemplateService{engine: liquid.NewEngine()}
	ts.registerCustomFilters()
	return ts
}

// registerCustomFilters adds domain-specific Liquid filters
func (ts *TemplateService) registerCustomFilters() {
	// Default value filter: {{ first_name | default: "Friend" }}
	ts.engine.RegisterFilter("default", func(value interface{}, defaultVal interface{}) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strVal == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	// HTML escape: {{ name | escape }}
	ts.engine.RegisterFilter("escape", func(value interface{}) string {
		if value == nil {
			return ""
		}
		return html.EscapeString(fmt.Sprintf("%v", value))
	})

	// URL encode: {{ email | urlencode }}
	ts.engine.RegisterFilter("urlencode", func(s string) string {
		return url.QueryEscape(s)
	})

	// Truncate with ellipsis: {{ intro | truncate: 50 }}
	ts.engine.RegisterFilter("truncate", func(s string, length int) string {
		r := []rune(s)
		if len(r) <= length {
			return s
		}
		if length <= 3 {
			return string(r[:length])
		}
		return string(r[:length-3]) + "..."
	})
}

// Compile parses a template and caches it under name. A cached template is
// returned as-is on later calls with the same name.
func (ts *TemplateService) Compile(name, source string) (*liquid.Template, error) {
	if cached, ok := ts.cache.Load(name); ok {
		return cached.(*liquid.Template), nil
	}

	tpl, err := ts.engine.ParseString(source)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	actual, _ := ts.cache.LoadOrStore(name, tpl)
	return actual.(*liquid.Template), nil
}

// Execute renders a compiled template against bindings.
func (ts *TemplateService) Execute(tpl *liquid.Template, bindings map[string]interface{}) (string, error) {
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ClearCacheKey removes a specific cached template
func (ts *TemplateService) ClearCacheKey(name string) {
	ts.cache.Delete(name)
}
