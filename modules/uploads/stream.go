package uploads

import (
	"errors"
	"log/slog"

	"github.com/dmitrymomot/polaris/handler"
	"github.com/dmitrymomot/polaris/pkg/logger"
	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// stream pushes the queue to a DataStar client: count signals plus the
// re-rendered fragment after every batch of events. Bursts of progress events
// collapse into one push. A subscriber dropped for falling behind resubscribes
// and starts again from a full push.
func (m *Module) stream(ctx handler.Context, _ struct{}) handler.Response {
	return handler.SSE(func(stream handler.StreamContext) error {
		p := m.printer(stream.Request())
		push := func() error {
			groups := m.queue.View()
			if err := stream.SendSignals(map[string]any{ViewID: countsMeta(groups)}); err != nil {
				return err
			}
			return stream.SendComponent(QueueView(groups, p, m.basePath))
		}

		for {
			sub := m.queue.Subscribe(stream)
			if err := push(); err != nil {
				_ = sub.Close()
				return err
			}

			for open := true; open; {
				if _, open = <-sub.Events(); !open {
					break
				}
				open = drainPending(sub.Events())
				if err := push(); err != nil {
					_ = sub.Close()
					return err
				}
			}

			_ = sub.Close()
			if !errors.Is(sub.Err(), uploadqueue.ErrSubscriberTooSlow) {
				return nil
			}
			m.log.LogAttrs(stream, slog.LevelDebug, "stream subscriber fell behind, resubscribing",
				logger.Event("stream_resubscribe"),
			)
		}
	})
}

// drainPending consumes events already buffered on ch without blocking.
// It reports false once ch is closed.
func drainPending(ch <-chan uploadqueue.Event) bool {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}
