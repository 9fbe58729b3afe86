package uploads

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/polaris/handler"
)

type taskRequest struct {
	ID string
}

type enqueueRequest struct {
	Files []*multipart.FileHeader
}

func bindTaskID(r *http.Request, v any) error {
	req, ok := v.(*taskRequest)
	if !ok {
		return handler.ErrBinderNotApplicable
	}
	req.ID = chi.URLParam(r, "id")
	if req.ID == "" {
		return handler.ErrNotFound
	}
	return nil
}

func (m *Module) bindFiles(r *http.Request, v any) error {
	req, ok := v.(*enqueueRequest)
	if !ok {
		return handler.ErrBinderNotApplicable
	}

	if err := r.ParseMultipartForm(m.maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			return fmt.Errorf("%w: %v", handler.ErrUnsupportedMediaType, err)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: %v", handler.ErrRequestEntityTooLarge, err)
		default:
			return fmt.Errorf("%w: %v", handler.ErrBadRequest, err)
		}
	}

	req.Files = r.MultipartForm.File[m.formField]
	if len(req.Files) == 0 {
		verr := handler.NewValidationError()
		verr.Add(m.formField, "at least one file is required")
		return verr
	}
	return nil
}
