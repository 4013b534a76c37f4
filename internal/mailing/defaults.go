package mailing

import (
	"embed"
	"fmt"
	"maps"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

//go:embed templates/*.liquid templates/defaults.yaml
var templateFS embed.FS

// listFields are fields templates iterate over; scalars are wrapped.
var listFields = map[string]bool{"benefits": true, "features": true, "highlights": true}

// DefaultsTable holds the fallback value of every template field, shared by
// all kinds (Common) and per kind (Kinds).
type DefaultsTable struct {
	Common map[string]any            `yaml:"common"`
	Kinds  map[string]map[string]any `yaml:"kinds"`
}

// LoadDefaults parses the embedded defaults table.
func LoadDefaults() (*DefaultsTable, error) {
	data, err := templateFS.ReadFile("templates/defaults.yaml")
	if err != nil {
		return nil, err
	}
	var t DefaultsTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse defaults: %w", err)
	}
	if _, ok := t.Kinds[string(domain.KindGeneric)]; !ok {
		return nil, fmt.Errorf("defaults: missing %q kind", domain.KindGeneric)
	}
	return &t, nil
}

// For returns a fresh copy of the defaults for kind, with common values
// underneath. Unknown kinds get the generic defaults.
func (t *DefaultsTable) For(kind domain.TemplateKind) map[string]any {
	kindDefaults, ok := t.Kinds[string(kind)]
	if !ok {
		kindDefaults = t.Kinds[string(domain.KindGeneric)]
	}
	out := make(map[string]any, len(t.Common)+len(kindDefaults))
	maps.Copy(out, t.Common)
	maps.Copy(out, kindDefaults)
	return out
}

// Subject returns the default subject line for kind.
func (t *DefaultsTable) Subject(kind domain.TemplateKind) string {
	s, _ := t.For(kind)["subject"].(string)
	return s
}

// KindNames lists the kinds that have their own defaults, sorted.
func (t *DefaultsTable) KindNames() []string {
	names := make([]string, 0, len(t.Kinds))
	for k := range t.Kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Merge layers data over the defaults for kind. Nil and empty-string values
// in data do not replace a default.
func (t *DefaultsTable) Merge(kind domain.TemplateKind, data map[string]any) map[string]any {
	out := t.For(kind)
	for k, v := range data {
		if isBlank(v) {
			continue
		}
		out[k] = v
	}
	for field := range listFields {
		if v, ok := out[field]; ok {
			out[field] = asList(v)
		}
	}
	return out
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}

func asList(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case nil:
		return nil
	default:
		return []any{x}
	}
}
