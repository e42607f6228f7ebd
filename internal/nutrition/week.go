package nutrition

import (
	"fmt"
	"time"
)

// Week is an ISO-8601 calendar week. Weeks start on Monday and week 1 is the
// week containing the year's first Thursday, so Year can differ from the
// calendar year near January 1st.
type Week struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// WeekOf returns the ISO week of t's date as seen in t's location.
func WeekOf(t time.Time) Week {
	y, w := t.ISOWeek()
	return Week{Year: y, Week: w}
}

// Before orders weeks chronologically.
func (w Week) Before(o Week) bool {
	if w.Year != o.Year {
		return w.Year < o.Year
	}
	return w.Week < o.Week
}

// String formats the week as "2023-23".
func (w Week) String() string {
	return fmt.Sprintf("%d-%02d", w.Year, w.Week)
}
