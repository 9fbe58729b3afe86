package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// TemplComponent matches templ.Component.
type TemplComponent interface {
	Render(ctx context.Context, w io.Writer) error
}

// TemplOption is an alias for datastar's PatchElementOption.
type TemplOption = datastar.PatchElementOption

// WithTarget sets the selector the component is patched into.
func WithTarget(selector string) TemplOption {
	return datastar.WithSelector(selector)
}

// WithPatchMode sets how the component is merged into the DOM.
func WithPatchMode(mode datastar.ElementPatchMode) TemplOption {
	return datastar.WithMode(mode)
}

type templResponse struct {
	status    int
	component TemplComponent
	options   []TemplOption
}

// Render patches the component over SSE for DataStar requests and writes HTML otherwise.
func (t templResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		return NewSSE(w, r).PatchElementTempl(t.component, t.options...)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if t.status != 0 {
		w.WriteHeader(t.status)
	}
	return t.component.Render(r.Context(), w)
}

// Templ creates a response from a templ component.
//
//	return handler.Templ(views.Queue(groups), handler.WithTarget("#uploads"))
func Templ(component TemplComponent, opts ...TemplOption) Response {
	return templResponse{component: component, options: opts}
}

// TemplWithStatus is Templ with an explicit HTTP status for plain HTML responses.
// DataStar responses always use 200 since SSE has no per-event status.
func TemplWithStatus(status int, component TemplComponent, opts ...TemplOption) Response {
	return templResponse{status: status, component: component, options: opts}
}
