package service

import (
	"fmt"
	"strings"

	"github.com/vinceyvincey/google-calendar-sync/internal/models"
)

var weekdayNames = map[string]string{
	"MO": "Monday",
	"TU": "Tuesday",
	"WE": "Wednesday",
	"TH": "Thursday",
	"FR": "Friday",
	"SA": "Saturday",
	"SU": "Sunday",
}

// FormatRecurrence renders a recurrence rule as the phrase stored in the
// page's recurrence property, e.g. "Every week on Monday, Wednesday and
// Friday". A nil rule or one without a unit yields the empty string.
//
// Codes outside the weekday table pass through unchanged apart from
// whitespace trimming. Pluralization appends a literal "s".
func FormatRecurrence(rec *models.Recurrence) string {
	if rec == nil || rec.Type == "" {
		return ""
	}

	unit := strings.ToLower(rec.Type)
	interval := rec.Interval
	if interval <= 0 {
		interval = 1
	}

	var b strings.Builder
	if interval == 1 {
		fmt.Fprintf(&b, "Every %s", unit)
	} else {
		fmt.Fprintf(&b, "Every %d %ss", interval, unit)
	}

	days := make([]string, 0, len(rec.ByDay))
	for _, code := range rec.ByDay {
		code = strings.TrimSpace(code)
		if name, ok := weekdayNames[code]; ok {
			code = name
		}
		days = append(days, code)
	}

	switch len(days) {
	case 0:
	case 1:
		b.WriteString(" on " + days[0])
	default:
		b.WriteString(" on " + strings.Join(days[:len(days)-1], ", ") + " and " + days[len(days)-1])
	}

	return b.String()
}
