package uploads

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/polaris/handler"
	"github.com/dmitrymomot/polaris/pkg/logger"
	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// Queue is the part of the scheduler the HTTP module drives.
type Queue interface {
	Enqueue(ctx context.Context, payloads ...uploadqueue.Payload) ([]string, error)
	Snapshot() []uploadqueue.Task
	Get(id string) (uploadqueue.Task, error)
	View() uploadqueue.Groups
	Remove(id string) error
	ClearTerminal() int
	Subscribe(ctx context.Context) *uploadqueue.Subscription
}

const (
	DefaultBasePath       = "/uploads"
	DefaultSpoolDir       = "./data/spool"
	DefaultFormField      = "files"
	DefaultMaxMemory      = 32 << 20
	DefaultMaxRequestSize = 1 << 30
)

// Module serves the upload queue over HTTP.
type Module struct {
	queue          Queue
	log            *slog.Logger
	errorHandler   handler.ErrorHandler
	basePath       string
	spoolDir       string
	formField      string
	maxFileSize    int64
	maxMemory      int64
	maxRequestSize int64
	matcher        language.Matcher
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the module logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.log = l
		}
	}
}

// WithErrorHandler replaces the default error handler.
func WithErrorHandler(h handler.ErrorHandler) Option {
	return func(m *Module) {
		if h != nil {
			m.errorHandler = h
		}
	}
}

// WithBasePath sets the path the module is mounted on. Rendered links use it.
func WithBasePath(path string) Option {
	return func(m *Module) {
		if path != "" {
			m.basePath = path
		}
	}
}

// WithSpoolDir sets where uploaded files are kept until their task leaves the queue.
func WithSpoolDir(dir string) Option {
	return func(m *Module) {
		if dir != "" {
			m.spoolDir = dir
		}
	}
}

// WithFormField sets the multipart field carrying files.
func WithFormField(name string) Option {
	return func(m *Module) {
		if name != "" {
			m.formField = name
		}
	}
}

// WithMaxFileSize limits each file. Zero or less disables the limit.
func WithMaxFileSize(n int64) Option {
	return func(m *Module) {
		m.maxFileSize = n
	}
}

// WithMaxRequestSize limits the whole multipart body. Zero or less disables the limit.
func WithMaxRequestSize(n int64) Option {
	return func(m *Module) {
		m.maxRequestSize = n
	}
}

// WithLanguages sets the locales used for labels and sizes. The first one is the fallback.
func WithLanguages(tags ...language.Tag) Option {
	return func(m *Module) {
		if len(tags) > 0 {
			m.matcher = language.NewMatcher(tags)
		}
	}
}

// New creates the module on top of q.
func New(q Queue, opts ...Option) *Module {
	m := &Module{
		queue:          q,
		log:            logger.Discard(),
		basePath:       DefaultBasePath,
		spoolDir:       DefaultSpoolDir,
		formField:      DefaultFormField,
		maxMemory:      DefaultMaxMemory,
		maxRequestSize: DefaultMaxRequestSize,
		matcher:        language.NewMatcher([]language.Tag{language.English}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("uploads"))
	if m.errorHandler == nil {
		m.errorHandler = handler.NewErrorHandler(m.log)
	}
	return m
}

// Handle returns the module router. Mount it on the base path:
//
//	r.Mount("/uploads", uploads.New(scheduler).Handle())
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.With(m.limitBody).Post("/", handler.Wrap(m.enqueue,
		handler.WithBinders[enqueueRequest](m.bindFiles),
		handler.WithErrorHandler[enqueueRequest](m.errorHandler),
	))
	r.Get("/", handler.Wrap(m.list,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))
	r.Get("/view", handler.Wrap(m.view,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))
	r.Get("/stream", handler.Wrap(m.stream,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))
	r.Delete("/completed", handler.Wrap(m.clear,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))
	r.Get("/{id}", handler.Wrap(m.get,
		handler.WithBinders[taskRequest](bindTaskID),
		handler.WithErrorHandler[taskRequest](m.errorHandler),
	))
	r.Delete("/{id}", handler.Wrap(m.remove,
		handler.WithBinders[taskRequest](bindTaskID),
		handler.WithErrorHandler[taskRequest](m.errorHandler),
	))

	return r
}

func (m *Module) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.maxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxRequestSize)
		}
		next.ServeHTTP(w, r)
	})
}
