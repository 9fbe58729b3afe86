// Package handler is a small typed layer over net/http.
//
// A HandlerFunc receives a Context and a request value filled by binders and
// returns a Response. Responses cover the JSON envelope, empty bodies, templ
// components and DataStar server-sent event streams:
//
//	r.Get("/uploads/{id}", handler.Wrap(getTask,
//		handler.WithBinders[GetTaskRequest](bindID),
//		handler.WithErrorHandler[GetTaskRequest](handler.NewErrorHandler(log)),
//	))
//
// Errors returned while binding or rendering go to the ErrorHandler. HTTPError
// values keep their status, ValidationError becomes 422, and anything else is
// reported as an opaque 500.
package handler
