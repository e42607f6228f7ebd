package ops

import (
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/mealtrace/internal/errors"
)

// DateLayout is the day format accepted for range bounds.
const DateLayout = "2006-01-02"

// DateRange selects records by the wall-clock date of their start time.
// Both bounds are optional. From is inclusive from 00:00; To includes the
// whole day.
type DateRange struct {
	from time.Time // inclusive
	to   time.Time // exclusive, 00:00 of the day after To
}

// ParseDateRange parses optional YYYY-MM-DD bounds.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	var err error

	if from = strings.TrimSpace(from); from != "" {
		r.from, err = time.Parse(DateLayout, from)
		if err != nil {
			return DateRange{}, errors.NewInvalidRequest(fmt.Sprintf("invalid from date %q (want YYYY-MM-DD)", from))
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		day, err := time.Parse(DateLayout, to)
		if err != nil {
			return DateRange{}, errors.NewInvalidRequest(fmt.Sprintf("invalid to date %q (want YYYY-MM-DD)", to))
		}
		r.to = day.AddDate(0, 0, 1)
	}

	if !r.from.IsZero() && !r.to.IsZero() && !r.from.Before(r.to) {
		return DateRange{}, errors.NewInvalidRequest("from date must not be after to date")
	}
	return r, nil
}

// Contains reports whether the wall-clock time local lies in the range.
// local must carry its wall clock in UTC (see nutrition.WallClock).
func (r DateRange) Contains(local time.Time) bool {
	if !r.from.IsZero() && local.Before(r.from) {
		return false
	}
	if !r.to.IsZero() && !local.Before(r.to) {
		return false
	}
	return true
}

// IsZero reports whether the range is unbounded.
func (r DateRange) IsZero() bool {
	return r.from.IsZero() && r.to.IsZero()
}

// String renders the range as "from..to" with open ends left blank.
func (r DateRange) String() string {
	var from, to string
	if !r.from.IsZero() {
		from = r.from.Format(DateLayout)
	}
	if !r.to.IsZero() {
		to = r.to.AddDate(0, 0, -1).Format(DateLayout)
	}
	return from + ".." + to
}
