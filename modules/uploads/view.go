package uploads

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

// ViewID is the element id of the queue fragment. DataStar patches morph it in place.
const ViewID = "uploads"

// QueueView renders the grouped queue: Uploading, In Queue, Completed.
// Empty groups are omitted. Remove and clear buttons issue DataStar requests
// against basePath.
func QueueView(groups uploadqueue.Groups, p *message.Printer, basePath string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div id="` + ViewID + `" class="uploads">`)

		writeSection(&b, p, basePath, "uploading", p.Sprintf("Uploading"), groups.Uploading)
		writeSection(&b, p, basePath, "queued", p.Sprintf("In Queue"), groups.Queued)
		writeSection(&b, p, basePath, "completed", p.Sprintf("Completed"), groups.Completed)

		if len(groups.Completed) > 0 {
			b.WriteString(`<button type="button" class="uploads-clear" data-on-click="@delete('`)
			b.WriteString(templ.EscapeString(basePath + "/completed"))
			b.WriteString(`')">`)
			b.WriteString(templ.EscapeString(p.Sprintf("Clear Completed")))
			b.WriteString(`</button>`)
		}

		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeSection(b *strings.Builder, p *message.Printer, basePath, group, title string, tasks []uploadqueue.Task) {
	if len(tasks) == 0 {
		return
	}

	b.WriteString(`<section class="uploads-group" data-group="` + group + `"><h3>`)
	b.WriteString(templ.EscapeString(title))
	b.WriteString(`</h3><ul>`)
	for _, t := range tasks {
		writeItem(b, p, basePath, t)
	}
	b.WriteString(`</ul></section>`)
}

func writeItem(b *strings.Builder, p *message.Printer, basePath string, t uploadqueue.Task) {
	id := templ.EscapeString(t.ID)

	b.WriteString(`<li id="upload-` + id + `" class="upload" data-status="` + string(t.Status) + `">`)
	b.WriteString(`<span class="upload-name">` + templ.EscapeString(t.Name) + `</span>`)
	b.WriteString(`<span class="upload-size">` + templ.EscapeString(FormatSize(p, t.Size)) + `</span>`)

	if t.Status == uploadqueue.StatusUploading {
		progress := strconv.Itoa(t.Progress)
		b.WriteString(`<progress value="` + progress + `" max="100"></progress>`)
		b.WriteString(`<span class="upload-progress">` + progress + `%</span>`)
	} else {
		b.WriteString(`<span class="upload-badge">` + templ.EscapeString(StatusLabel(p, t)) + `</span>`)
	}
	if t.Status == uploadqueue.StatusError && t.LastError != "" {
		b.WriteString(`<span class="upload-error">` + templ.EscapeString(t.LastError) + `</span>`)
	}

	b.WriteString(`<button type="button" class="upload-remove" data-on-click="@delete('`)
	b.WriteString(templ.EscapeString(basePath + "/" + t.ID))
	b.WriteString(`')">&times;</button></li>`)
}
