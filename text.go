package datetimed

import "time"

const (
	dateLayout = "January 2, 2006"
	timeLayout = "15:04"
)

// FormatText renders t as the text for a response to kind.
// Dates read "March 5, 2024", times are zero padded 24 hour "09:05".
func FormatText(kind RequestKind, t time.Time) string {
	if kind == KindTime {
		return t.Format(timeLayout)
	}
	return t.Format(dateLayout)
}
