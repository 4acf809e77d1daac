package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the ISO calendar date format used for every observation.
const DateLayout = "2006-01-02"

const dateLabelLayout = "Mon 2 Jan"

// ParseDate parses an ISO calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as an ISO calendar date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// AddDays shifts an ISO date by n calendar days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// DaysBetween counts the days in [from, to), rounding partial days up. The
// result is never below 1, so an empty or inverted window still yields a day.
func DaysBetween(from, to string) (int, error) {
	start, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	return max(1, days), nil
}

// FormatDateLabel renders an ISO date as a short weekday label such as
// "Tue 3 Jun". Unparseable input is returned unchanged.
func FormatDateLabel(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format(dateLabelLayout)
}
