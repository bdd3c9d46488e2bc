package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidWeekday = errors.New("model: invalid weekday")

// DayStart truncates t to midnight in its own location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween counts calendar days from a to b, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	from := DayStart(a)
	to := DayStart(b.In(a.Location()))
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(raw), loc)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidateWeekdays rejects empty sets, out-of-range values and duplicates.
func ValidateWeekdays(days []time.Weekday) error {
	if len(days) == 0 {
		return fmt.Errorf("%w: no weekday selected", ErrInvalidWeekday)
	}
	seen := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
		}
		if seen[d] {
			return fmt.Errorf("%w: duplicate %s", ErrInvalidWeekday, d)
		}
		seen[d] = true
	}
	return nil
}

func containsWeekday(days []time.Weekday, d time.Weekday) bool {
	for _, item := range days {
		if item == d {
			return true
		}
	}
	return false
}

// ParseWeekdays reads a comma separated list such as "mon,wed,fri", "weekdays",
// "weekends" or "daily". The result is sorted Sunday first.
func ParseWeekdays(raw string) ([]time.Weekday, error) {
	parsed := make(map[time.Weekday]bool)
	for _, token := range strings.Split(strings.ToLower(raw), ",") {
		token = strings.TrimSpace(token)
		switch token {
		case "":
			continue
		case "daily", "all", "everyday":
			for d := time.Sunday; d <= time.Saturday; d++ {
				parsed[d] = true
			}
		case "weekdays", "weekday":
			for d := time.Monday; d <= time.Friday; d++ {
				parsed[d] = true
			}
		case "weekends", "weekend":
			parsed[time.Saturday] = true
			parsed[time.Sunday] = true
		case "sun", "sunday":
			parsed[time.Sunday] = true
		case "mon", "monday":
			parsed[time.Monday] = true
		case "tue", "tuesday":
			parsed[time.Tuesday] = true
		case "wed", "wednesday":
			parsed[time.Wednesday] = true
		case "thu", "thursday":
			parsed[time.Thursday] = true
		case "fri", "friday":
			parsed[time.Friday] = true
		case "sat", "saturday":
			parsed[time.Saturday] = true
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeekday, token)
		}
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: no weekday selected", ErrInvalidWeekday)
	}
	out := make([]time.Weekday, 0, len(parsed))
	for d := range parsed {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// FormatWeekdays renders days as "Mon,Wed,Fri".
func FormatWeekdays(days []time.Weekday) string {
	if len(days) == 7 {
		return "daily"
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, d.String()[:3])
	}
	return strings.Join(parts, ",")
}
