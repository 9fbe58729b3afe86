package uploads

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/dmitrymomot/polaris/pkg/uploadqueue"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with binary multiples and up to two
// fraction digits, using p's locale for the number itself.
func FormatSize(p *message.Printer, size int64) string {
	if size <= 0 {
		return p.Sprintf("%v %s", number.Decimal(0), sizeUnits[0])
	}

	value := float64(size)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return p.Sprintf("%v %s", number.Decimal(value, number.MaxFractionDigits(2)), sizeUnits[unit])
}

// StatusLabel is the badge text for a task.
func StatusLabel(p *message.Printer, t uploadqueue.Task) string {
	switch t.Status {
	case uploadqueue.StatusQueued:
		if t.IsRetry() {
			return p.Sprintf("Queued (Retry %d)", t.Attempt)
		}
		return p.Sprintf("Queued")
	case uploadqueue.StatusUploading:
		return p.Sprintf("Uploading")
	case uploadqueue.StatusSuccess:
		return p.Sprintf("Success")
	case uploadqueue.StatusError:
		return p.Sprintf("Failed")
	}
	return string(t.Status)
}

// printerFor picks the best supported language for an Accept-Language header.
func printerFor(matcher language.Matcher, acceptLanguage string) *message.Printer {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	return message.NewPrinter(tag)
}
