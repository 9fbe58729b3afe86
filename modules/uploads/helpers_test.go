package uploads_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/polaris/handler"
	"github.com/dmitrymomot/polaris/modules/uploads"
	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// gate blocks every upload until its context ends or release is closed.
type gate struct {
	release chan struct{}
	fail    bool
}

func newGate() *gate {
	return &gate{release: make(chan struct{})}
}

func (g *gate) Upload(ctx context.Context, _ uploadqueue.Payload, onProgress uploadqueue.ProgressFunc) error {
	onProgress(10)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.release:
	}
	if g.fail {
		return uploadqueue.ErrTransferFailed
	}
	return nil
}

type env struct {
	sched    *uploadqueue.Scheduler
	spoolDir string
	handler  http.Handler
}

func newEnv(t *testing.T, u uploadqueue.Uploader, opts ...uploads.Option) *env {
	t.Helper()

	sched, err := uploadqueue.New(u)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Close() })

	spool := t.TempDir()
	opts = append([]uploads.Option{uploads.WithSpoolDir(spool)}, opts...)

	return &env{
		sched:    sched,
		spoolDir: spool,
		handler:  uploads.New(sched, opts...).Handle(),
	}
}

func (e *env) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func (e *env) spooled(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(e.spoolDir)
	require.NoError(t, err)
	return len(entries)
}

type file struct {
	name string
	data string
}

func multipartRequest(t *testing.T, field string, files ...file) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		fw, err := mw.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) (T, handler.JSONResponse) {
	t.Helper()

	var raw struct {
		Data  json.RawMessage      `json:"data"`
		Meta  map[string]any       `json:"meta"`
		Error *handler.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))

	var data T
	if len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, &data))
	}
	return data, handler.JSONResponse{Meta: raw.Meta, Error: raw.Error}
}
