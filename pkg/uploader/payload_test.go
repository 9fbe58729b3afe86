package uploader_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/polaris/pkg/uploader"
)

func createFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := &http.Request{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": []string{writer.FormDataContentType()}},
		Body:   io.NopCloser(body),
	}
	require.NoError(t, req.ParseMultipartForm(32<<20))
	t.Cleanup(func() { _ = req.MultipartForm.RemoveAll() })

	return req.MultipartForm.File["files"][0]
}

func readAll(t *testing.T, p uploader.Source) []byte {
	t.Helper()
	rc, err := p.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func spoolEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestSpool(t *testing.T) {
	t.Parallel()

	t.Run("writes content", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		p, err := uploader.Spool(context.Background(), dir, "../secret/report.json", strings.NewReader(`{"ok":true}`), 0)
		require.NoError(t, err)

		assert.Equal(t, "report.json", p.Name())
		assert.Equal(t, int64(11), p.Size())
		assert.Equal(t, "application/json", p.ContentType())
		assert.FileExists(t, p.Path())

		assert.Equal(t, []byte(`{"ok":true}`), readAll(t, p))
		assert.Equal(t, []byte(`{"ok":true}`), readAll(t, p))

		require.NoError(t, p.Release())
		assert.NoFileExists(t, p.Path())
		require.NoError(t, p.Release())
	})

	t.Run("size limit", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		_, err := uploader.Spool(context.Background(), dir, "big.bin", bytes.NewReader(make([]byte, 100)), 10)
		require.ErrorIs(t, err, uploader.ErrFileTooLarge)
		assert.Empty(t, spoolEntries(t, dir))
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := uploader.Spool(ctx, dir, "a.txt", strings.NewReader("a"), 0)
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, spoolEntries(t, dir))
	})
}

func TestSpoolMultipart(t *testing.T) {
	t.Parallel()

	t.Run("spools form file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		fh := createFileHeader(t, "C:\\Users\\me\\photo.png", []byte("\x89PNG\r\n\x1a\nrest"))

		p, err := uploader.SpoolMultipart(context.Background(), dir, fh, 1<<20)
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Release() })

		assert.Equal(t, "photo.png", p.Name())
		assert.Equal(t, "image/png", p.ContentType())
		assert.Equal(t, fh.Size, p.Size())
	})

	t.Run("rejects oversized header", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		fh := createFileHeader(t, "a.txt", []byte("0123456789"))

		_, err := uploader.SpoolMultipart(context.Background(), dir, fh, 5)
		require.ErrorIs(t, err, uploader.ErrFileTooLarge)
	})

	t.Run("nil header", func(t *testing.T) {
		t.Parallel()
		_, err := uploader.SpoolMultipart(context.Background(), t.TempDir(), nil, 0)
		require.ErrorIs(t, err, uploader.ErrFailedToOpenFile)
	})
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"report.pdf":            "report.pdf",
		"../../../etc/passwd":   "passwd",
		"C:\\Windows\\file.txt": "file.txt",
		"bad\x00name.txt":       "badname.txt",
		"":                      "unnamed",
		"..":                    "unnamed",
		"/":                     "unnamed",
	}
	for in, want := range tests {
		assert.Equal(t, want, uploader.SanitizeFilename(in), "input %q", in)
	}
}

func TestDetectContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "image/png", uploader.DetectContentType("x.bin", []byte("\x89PNG\r\n\x1a\n")))
	assert.Equal(t, "application/pdf", uploader.DetectContentType("doc.pdf", []byte("not really")))
	assert.Equal(t, "text/plain; charset=utf-8", uploader.DetectContentType("notes", []byte("hello")))
	assert.Equal(t, "application/octet-stream", uploader.DetectContentType("blob", []byte{0x00, 0x01, 0x02}))
}

func TestBytesPayload(t *testing.T) {
	t.Parallel()

	p := uploader.NewBytesPayload("dir/data.bin", []byte{1, 2, 3})
	assert.Equal(t, "data.bin", p.Name())
	assert.Equal(t, int64(3), p.Size())
	assert.Equal(t, []byte{1, 2, 3}, readAll(t, p))
}
