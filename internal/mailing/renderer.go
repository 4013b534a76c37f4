package mailing

import (
	"fmt"
	"maps"
	"sync"

	"github.com/osteele/liquid"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

// RenderFunc renders one template kind. data already carries the
// unsubscribe link; per-kind defaults are the function's concern.
type RenderFunc func(data map[string]any) (string, error)

// Renderer maps template kinds to render functions. Built-in kinds share a
// layout (header, footer, unsubscribe link, tracking pixel) around a
// kind-specific body. Rendering is pure: identical input gives identical
// output.
type Renderer struct {
	engine         *TemplateService
	defaults       *DefaultsTable
	layout         *liquid.Template
	unsubscribeURL string

	mu       sync.RWMutex
	registry map[domain.TemplateKind]RenderFunc
}

// NewRenderer compiles the embedded templates and registers every built-in
// kind, including the generic fallback.
func NewRenderer(unsubscribeURL string) (*Renderer, error) {
	defaults, err := LoadDefaults()
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		engine:         NewTemplateService(),
		defaults:       defaults,
		unsubscribeURL: unsubscribeURL,
		registry:       make(map[domain.TemplateKind]RenderFunc),
	}

	layoutSrc, err := templateFS.ReadFile("templates/layout.liquid")
	if err != nil {
		return nil, err
	}
	if r.layout, err = r.engine.Compile("layout", string(layoutSrc)); err != nil {
		return nil, err
	}

	kinds := append([]domain.TemplateKind{domain.KindGeneric}, domain.TemplateKinds...)
	for _, kind := range kinds {
		src, err := templateFS.ReadFile("templates/" + string(kind) + ".liquid")
		if err != nil {
			return nil, fmt.Errorf("template for %s: %w", kind, err)
		}
		if err := r.RegisterSource(kind, string(src)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register installs fn as the renderer for kind, replacing any existing one.
func (r *Renderer) Register(kind domain.TemplateKind, fn RenderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[kind] = fn
}

// RegisterSource compiles a Liquid body for kind and registers it inside the
// shared layout.
func (r *Renderer) RegisterSource(kind domain.TemplateKind, body string) error {
	name := "body:" + string(kind)
	r.engine.ClearCacheKey(name)
	tpl, err := r.engine.Compile(name, body)
	if err != nil {
		return err
	}
	r.Register(kind, r.layoutFunc(kind, tpl))
	return nil
}

func (r *Renderer) layoutFunc(kind domain.TemplateKind, body *liquid.Template) RenderFunc {
	return func(data map[string]any) (string, error) {
		bindings := r.defaults.Merge(kind, data)
		bindings["kind"] = string(kind)

		content, err := r.engine.Execute(body, bindings)
		if err != nil {
			return "", fmt.Errorf("render %s body: %w", kind, err)
		}
		bindings["body"] = content

		out, err := r.engine.Execute(r.layout, bindings)
		if err != nil {
			return "", fmt.Errorf("render %s layout: %w", kind, err)
		}
		return out, nil
	}
}

// Render produces the complete HTML document for kind. Kinds without a
// registered renderer use the generic message template. When data has no
// unsubscribe_link one is built from data["email"] and kind.
func (r *Renderer) Render(kind domain.TemplateKind, data map[string]any) (string, error) {
	r.mu.RLock()
	fn, ok := r.registry[kind]
	if !ok {
		fn = r.registry[domain.KindGeneric]
	}
	r.mu.RUnlock()

	bindings := make(map[string]any, len(data)+1)
	maps.Copy(bindings, data)
	if isBlank(bindings["unsubscribe_link"]) {
		email, _ := bindings["email"].(string)
		bindings["unsubscribe_link"] = UnsubscribeURL(r.unsubscribeURL, email, kind)
	}
	return fn(bindings)
}

// Defaults returns the fallback field values for kind, for previews.
func (r *Renderer) Defaults(kind domain.TemplateKind) map[string]any {
	return r.defaults.For(kind)
}

// DefaultSubject returns the default subject line for kind.
func (r *Renderer) DefaultSubject(kind domain.TemplateKind) string {
	return r.defaults.Subject(kind)
}

// Kinds lists every kind with a registered renderer that callers may request.
func (r *Renderer) Kinds() []domain.TemplateKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.TemplateKind
	for _, k := range domain.TemplateKinds {
		if _, ok := r.registry[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
