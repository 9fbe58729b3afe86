package handler

import "net/http"

type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty returns 204 No Content.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

// EmptyWithStatus returns an empty body with status.
func EmptyWithStatus(status int) Response {
	return emptyResponse{status: status}
}

type errorResponse struct {
	err error
}

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error {
	return e.err
}

// Error hands err to the route's ErrorHandler instead of rendering anything itself.
func Error(err error) Response {
	return errorResponse{err: err}
}
