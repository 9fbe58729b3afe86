package uploader

import (
	"errors"
	"io"

	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// progressReader reports the share of total read so far. Seeking moves the
// counter with the offset so a rewound body starts counting from zero again.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report uploadqueue.ProgressFunc
}

func newProgressReader(r io.Reader, total int64, report uploadqueue.ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if p.total > 0 && p.report != nil {
			p.report(int(min(p.read*100/p.total, 100)))
		}
	}
	return n, err
}

func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	s, ok := p.r.(io.Seeker)
	if !ok {
		return 0, errors.New("progress reader: underlying reader is not seekable")
	}
	pos, err := s.Seek(offset, whence)
	if err == nil {
		p.read = pos
	}
	return pos, err
}

func openSource(p uploadqueue.Payload) (io.ReadSeekCloser, error) {
	src, ok := p.(Source)
	if !ok {
		return nil, ErrUnsupportedPayload
	}
	return src.Open()
}

func contentType(p uploadqueue.Payload) string {
	if ct, ok := p.(ContentTyper); ok && ct.ContentType() != "" {
		return ct.ContentType()
	}
	return "application/octet-stream"
}
