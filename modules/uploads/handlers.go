package uploads

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/text/message"

	"github.com/dmitrymomot/polaris/handler"
	"github.com/dmitrymomot/polaris/pkg/logger"
	"github.com/dmitrymomot/polaris/pkg/uploader"
	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// enqueue spools every posted file and adds them to the queue in form order.
// Either all files are enqueued or none is.
func (m *Module) enqueue(ctx handler.Context, req enqueueRequest) handler.Response {
	payloads := make([]uploadqueue.Payload, 0, len(req.Files))
	spooled := make([]*uploader.FilePayload, 0, len(req.Files))
	discard := func() {
		for _, p := range spooled {
			if err := p.Release(); err != nil {
				m.log.WarnContext(ctx, "failed to release spooled file", logger.Error(err))
			}
		}
	}

	for _, fh := range req.Files {
		p, err := uploader.SpoolMultipart(ctx, m.spoolDir, fh, m.maxFileSize)
		if err != nil {
			discard()
			if errors.Is(err, uploader.ErrFileTooLarge) {
				verr := handler.NewValidationError()
				verr.Add(m.formField, fmt.Sprintf("%s exceeds the %s limit",
					uploader.SanitizeFilename(fh.Filename), FormatSize(m.printer(ctx.Request()), m.maxFileSize)))
				return handler.Error(verr)
			}
			return handler.Error(fmt.Errorf("spool %q: %w", fh.Filename, err))
		}
		spooled = append(spooled, p)
		payloads = append(payloads, p)
	}

	ids, err := m.queue.Enqueue(ctx, payloads...)
	if err != nil {
		discard()
		if errors.Is(err, uploadqueue.ErrSchedulerClosed) {
			return handler.Error(fmt.Errorf("%w: %v", handler.ErrServiceUnavailable, err))
		}
		return handler.Error(err)
	}

	m.log.InfoContext(ctx, "files enqueued", slog.Int("count", len(ids)))

	if handler.IsDataStar(ctx.Request()) {
		return m.fragment(ctx.Request())
	}

	tasks := make([]uploadqueue.Task, 0, len(ids))
	for _, id := range ids {
		if t, err := m.queue.Get(id); err == nil {
			tasks = append(tasks, t)
		}
	}
	return handler.JSON(tasks,
		handler.WithJSONStatus(http.StatusAccepted),
		handler.WithJSONMeta(map[string]any{"count": len(ids)}),
	)
}

func (m *Module) list(ctx handler.Context, _ struct{}) handler.Response {
	tasks := m.queue.Snapshot()
	return handler.JSON(tasks, handler.WithJSONMeta(map[string]any{"total": len(tasks)}))
}

// view returns the grouped queue: an HTML fragment for browsers and DataStar,
// the JSON groups otherwise.
func (m *Module) view(ctx handler.Context, _ struct{}) handler.Response {
	if wantsHTML(ctx.Request()) {
		return m.fragment(ctx.Request())
	}
	groups := m.queue.View()
	return handler.JSON(groups, handler.WithJSONMeta(countsMeta(groups)))
}

func (m *Module) get(ctx handler.Context, req taskRequest) handler.Response {
	task, err := m.queue.Get(req.ID)
	if err != nil {
		return handler.Error(notFound(err))
	}
	return handler.JSON(task)
}

// remove deletes a task in any state. An unknown id changes nothing and yields 404.
func (m *Module) remove(ctx handler.Context, req taskRequest) handler.Response {
	if err := m.queue.Remove(req.ID); err != nil {
		return handler.Error(notFound(err))
	}
	if handler.IsDataStar(ctx.Request()) {
		return m.fragment(ctx.Request())
	}
	return handler.Empty()
}

func (m *Module) clear(ctx handler.Context, _ struct{}) handler.Response {
	removed := m.queue.ClearTerminal()
	if handler.IsDataStar(ctx.Request()) {
		return m.fragment(ctx.Request())
	}
	return handler.JSON(map[string]int{"removed": removed})
}

func (m *Module) fragment(r *http.Request) handler.Response {
	return handler.Templ(QueueView(m.queue.View(), m.printer(r), m.basePath))
}

func (m *Module) printer(r *http.Request) *message.Printer {
	return printerFor(m.matcher, r.Header.Get("Accept-Language"))
}

func notFound(err error) error {
	if errors.Is(err, uploadqueue.ErrNotFound) {
		return fmt.Errorf("%w: %v", handler.ErrNotFound, err)
	}
	return err
}

func wantsHTML(r *http.Request) bool {
	return handler.IsDataStar(r) || strings.Contains(r.Header.Get("Accept"), "text/html")
}

func countsMeta(g uploadqueue.Groups) map[string]any {
	return map[string]any{
		"uploading": len(g.Uploading),
		"queued":    len(g.Queued),
		"completed": len(g.Completed),
		"total":     g.Len(),
	}
}
