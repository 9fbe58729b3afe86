package handler

import (
	"encoding/json"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// SSEHandler runs for the lifetime of a Server-Sent Events connection.
// The connection closes when it returns or the client disconnects.
type SSEHandler func(ctx StreamContext) error

// StreamContext extends Context with DataStar streaming.
type StreamContext interface {
	Context

	// SendComponent patches a templ component into the page.
	SendComponent(component TemplComponent, opts ...TemplOption) error

	// SendSignal updates a single frontend signal.
	SendSignal(name string, value any) error

	// SendSignals updates several signals in one event.
	SendSignals(signals map[string]any) error
}

type sseResponse struct {
	handler SSEHandler
}

func (s sseResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if !IsDataStar(r) {
		return NewHTTPError(http.StatusBadRequest, "datastar_required")
	}
	ctx := &streamContext{
		Context: NewContext(w, r),
		sse:     NewSSE(w, r),
	}
	return s.handler(ctx)
}

// SSE creates a response that streams through handler.
//
//	return handler.SSE(func(stream handler.StreamContext) error {
//		for ev := range sub.Events() {
//			if err := stream.SendSignals(map[string]any{"progress": ev.Task.Progress}); err != nil {
//				return err
//			}
//		}
//		return nil
//	})
func SSE(handler SSEHandler) Response {
	return sseResponse{handler: handler}
}

type streamContext struct {
	Context
	sse *datastar.ServerSentEventGenerator
}

func (c *streamContext) SendComponent(component TemplComponent, opts ...TemplOption) error {
	return c.sse.PatchElementTempl(component, opts...)
}

func (c *streamContext) SendSignal(name string, value any) error {
	return c.SendSignals(map[string]any{name: value})
}

func (c *streamContext) SendSignals(signals map[string]any) error {
	data, err := json.Marshal(signals)
	if err != nil {
		return err
	}
	return c.sse.PatchSignals(data)
}
