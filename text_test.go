package datetimed

import (
	"testing"
	"time"
)

func TestText_FormatText(t *testing.T) {
	tests := []struct {
		kind RequestKind
		ts   time.Time
		want string
	}{
		{kind: KindDate, ts: time.Date(2024, time.March, 5, 9, 5, 0, 0, time.UTC), want: "March 5, 2024"},
		{kind: KindDate, ts: time.Date(1999, time.December, 31, 23, 59, 0, 0, time.UTC), want: "December 31, 1999"},
		{kind: KindTime, ts: time.Date(2024, time.March, 5, 9, 5, 0, 0, time.UTC), want: "09:05"},
		{kind: KindTime, ts: time.Date(2024, time.March, 5, 23, 59, 59, 0, time.UTC), want: "23:59"},
		{kind: KindTime, ts: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), want: "00:00"},
	}

	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			if got := FormatText(test.kind, test.ts); got != test.want {
				t.Errorf("wanted %q got %q", test.want, got)
			}
		})
	}
}
