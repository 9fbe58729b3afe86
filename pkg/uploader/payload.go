package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Source is a payload whose content can be read, possibly more than once.
// Every upload attempt opens a fresh reader.
type Source interface {
	Name() string
	Size() int64
	Open() (io.ReadSeekCloser, error)
}

// ContentTyper is implemented by payloads that know their MIME type.
type ContentTyper interface {
	ContentType() string
}

// FilePayload is an upload payload spooled to a local file.
// The file is deleted by Release.
type FilePayload struct {
	name        string
	path        string
	size        int64
	contentType string

	once       sync.Once
	releaseErr error
}

func (p *FilePayload) Name() string        { return p.name }
func (p *FilePayload) Size() int64         { return p.size }
func (p *FilePayload) ContentType() string { return p.contentType }

// Path returns the location of the spool file.
func (p *FilePayload) Path() string { return p.path }

// Open opens the spool file for reading.
func (p *FilePayload) Open() (io.ReadSeekCloser, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToOpenFile, err)
	}
	return f, nil
}

// Release deletes the spool file. Subsequent calls return the first result.
func (p *FilePayload) Release() error {
	p.once.Do(func() {
		if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.releaseErr = fmt.Errorf("%w: %v", ErrFailedToDeleteFile, err)
		}
	})
	return p.releaseErr
}

// Spool copies r into a new file under dir so it can be uploaded after the
// request that carried it is gone. maxBytes <= 0 disables the size limit.
// The partial file is removed on any error.
func Spool(ctx context.Context, dir, name string, r io.Reader, maxBytes int64) (*FilePayload, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	dst, err := os.CreateTemp(dir, "spool-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateFile, err)
	}
	path := dst.Name()
	fail := func(err error) (*FilePayload, error) {
		_ = dst.Close()
		_ = os.Remove(path)
		return nil, err
	}

	var (
		written int64
		sniff   = make([]byte, 0, 512)
		buf     = make([]byte, 32*1024)
	)
	for {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		default:
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if maxBytes > 0 && written+int64(n) > maxBytes {
				return fail(fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxBytes))
			}
			if len(sniff) < cap(sniff) {
				sniff = append(sniff, buf[:min(n, cap(sniff)-len(sniff))]...)
			}
			nw, writeErr := dst.Write(buf[:n])
			if writeErr != nil {
				return fail(fmt.Errorf("%w: %v", ErrFailedToWriteFile, writeErr))
			}
			written += int64(nw)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fail(fmt.Errorf("%w: %v", ErrFailedToReadFile, readErr))
		}
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}

	name = SanitizeFilename(name)
	return &FilePayload{
		name:        name,
		path:        path,
		size:        written,
		contentType: DetectContentType(name, sniff),
	}, nil
}

// SpoolMultipart spools one uploaded form file.
func SpoolMultipart(ctx context.Context, dir string, fh *multipart.FileHeader, maxBytes int64) (*FilePayload, error) {
	if fh == nil {
		return nil, fmt.Errorf("%w: nil file header", ErrFailedToOpenFile)
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, fmt.Errorf("file size %d bytes exceeds %d bytes limit: %w", fh.Size, maxBytes, ErrFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToOpenFile, err)
	}
	defer func() { _ = src.Close() }()

	return Spool(ctx, dir, fh.Filename, src, maxBytes)
}

// BytesPayload is an in-memory payload.
type BytesPayload struct {
	name string
	data []byte
}

// NewBytesPayload wraps data as a payload named name.
func NewBytesPayload(name string, data []byte) *BytesPayload {
	return &BytesPayload{name: SanitizeFilename(name), data: data}
}

func (p *BytesPayload) Name() string        { return p.name }
func (p *BytesPayload) Size() int64         { return int64(len(p.data)) }
func (p *BytesPayload) ContentType() string { return DetectContentType(p.name, p.data) }

func (p *BytesPayload) Open() (io.ReadSeekCloser, error) {
	return nopCloser{bytes.NewReader(p.data)}, nil
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }

// SanitizeFilename removes any path components and dangerous characters from a filename.
// Returns "unnamed" for empty or special directory references.
//
// Example:
//
//	safe := uploader.SanitizeFilename("../../../etc/passwd") // Returns "passwd"
//	safe = uploader.SanitizeFilename("C:\\Windows\\file.txt") // Returns "file.txt"
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	if filename == "." || filename == ".." || filename == "" || filename == "/" {
		filename = "unnamed"
	}

	return filename
}

// DetectContentType sniffs the MIME type from the first bytes of content and
// falls back to the file extension when sniffing is inconclusive.
func DetectContentType(name string, head []byte) string {
	sniffed := http.DetectContentType(head)
	if sniffed != "application/octet-stream" && !strings.HasPrefix(sniffed, "text/plain") {
		return sniffed
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	return sniffed
}
