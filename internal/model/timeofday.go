package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTime = errors.New("model: invalid time of day")

var (
	clock24Pattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	clock12Pattern = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(AM|PM)$`)
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "H:MM"/"HH:MM" (24-hour) and "H:MM AM"/"HH:MM PM" (12-hour,
// case-insensitive). Any other shape returns ErrInvalidTime.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return TimeOfDay{}, fmt.Errorf("%w: empty", ErrInvalidTime)
	}

	if m := clock24Pattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
		}
		return TimeOfDay{Hour: hour, Minute: minute}, nil
	}

	if m := clock12Pattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
		}
		switch strings.ToUpper(m[3]) {
		case "AM":
			if hour == 12 {
				hour = 0
			}
		case "PM":
			if hour != 12 {
				hour += 12
			}
		}
		return TimeOfDay{Hour: hour, Minute: minute}, nil
	}

	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
}

// FormatTimeOfDay renders hour/minute as "H:MM AM|PM".
func FormatTimeOfDay(hour, minute int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, period)
}

func (t TimeOfDay) String() string {
	return FormatTimeOfDay(t.Hour, t.Minute)
}

// Canonical is the zero-padded 24-hour form stored on records.
func (t TimeOfDay) Canonical() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On places the time on the calendar day of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// DisplayTime formats a stored time string for display, falling back to the raw text
// when it does not parse.
func DisplayTime(raw string) string {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		return raw
	}
	return t.String()
}
