package workorders

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var weekPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Week is an ISO 8601 week such as 2026-W07.
type Week struct {
	Year int
	Num  int
}

// ParseWeek accepts the YYYY-Www form and rejects weeks the year does not have.
func ParseWeek(value string) (Week, error) {
	m := weekPattern.FindStringSubmatch(value)
	if m == nil {
		return Week{}, fmt.Errorf("week %q must look like 2026-W07", value)
	}
	year, _ := strconv.Atoi(m[1])
	num, _ := strconv.Atoi(m[2])
	w := Week{Year: year, Num: num}
	if num < 1 || num > 53 {
		return Week{}, fmt.Errorf("week %q out of range", value)
	}
	if y, n := w.Start().ISOWeek(); y != year || n != num {
		return Week{}, fmt.Errorf("year %d has no week %d", year, num)
	}
	return w, nil
}

// WeekOf returns the ISO week containing t.
func WeekOf(t time.Time) Week {
	y, n := t.UTC().ISOWeek()
	return Week{Year: y, Num: n}
}

// Start is Monday 00:00 UTC of the week.
func (w Week) Start() time.Time {
	// January 4th is always in ISO week 1.
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, (w.Num-1)*7)
}

// End is the exclusive upper bound, the following Monday.
func (w Week) End() time.Time { return w.Start().AddDate(0, 0, 7) }

func (w Week) String() string { return fmt.Sprintf("%04d-W%02d", w.Year, w.Num) }
