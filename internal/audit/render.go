package audit

import (
	"fmt"
	"strings"
)

// Render produces the backward-compatible processing-notes text block the
// admin collaborator displays. One line per entry, oldest first.
func Render(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Timestamp.Format("2006-01-02 15:04:05"))
		b.WriteString(" ")
		switch e.Kind {
		case KindCost:
			fmt.Fprintf(&b, "%s (EUR %d,%02d)", e.Message, e.AmountCents/100, e.AmountCents%100)
		case KindFailure:
			b.WriteString("FAILED: ")
			b.WriteString(e.Message)
		default:
			b.WriteString(e.Message)
		}
	}
	return b.String()
}
