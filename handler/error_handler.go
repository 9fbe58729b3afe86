package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/polaris/pkg/logger"
	"github.com/dmitrymomot/polaris/pkg/requestid"
)

// ErrorInfo is the classified form of a handler error.
type ErrorInfo struct {
	StatusCode int
	Code       string
	Message    string
	LogLevel   slog.Level
}

// ClassifyError maps err to a status, a stable code and a client-safe message.
func ClassifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrInternalServerError.Key,
		Message:    http.StatusText(http.StatusInternalServerError),
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
		info.Code = httpErr.Key
		info.Message = http.StatusText(httpErr.Code)
	}

	var valErr ValidationError
	if errors.As(err, &valErr) {
		info.StatusCode = http.StatusUnprocessableEntity
		info.Code = "validation_error"
		info.Message = valErr.Error()
	}

	info.LogLevel = slog.LevelError
	if info.StatusCode < http.StatusInternalServerError {
		info.LogLevel = slog.LevelWarn
	}
	return info
}

// NewErrorHandler returns the error handler shared by all routes.
// Regular requests get a JSON error envelope. DataStar requests get an
// "error" signal patch, since an SSE stream cannot change its status.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("error_handler"))

	return func(ctx Context, err error) {
		r := ctx.Request()
		info := ClassifyError(err)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Bool("is_datastar", IsDataStar(r)),
		)

		if IsDataStar(r) {
			data, _ := json.Marshal(map[string]any{
				"error": map[string]string{"code": info.Code, "message": info.Message},
			})
			if renderErr := NewSSE(ctx.ResponseWriter(), r).PatchSignals(data); renderErr != nil {
				log.LogAttrs(r.Context(), slog.LevelDebug, "failed to send error signal",
					logger.Error(renderErr),
				)
			}
			return
		}

		if renderErr := JSONError(err).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.LogAttrs(r.Context(), slog.LevelDebug, "failed to write error response",
				logger.Error(renderErr),
			)
		}
	}
}
