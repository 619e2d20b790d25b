package domain

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// Nights counts the nights between check-in and check-out.
func Nights(checkIn, checkOut time.Time) int {
	return int(Day(checkOut).Sub(Day(checkIn)).Hours() / 24)
}

// EachNight lists every night of a stay; the check-out date is excluded.
func EachNight(checkIn, checkOut time.Time) []time.Time {
	var out []time.Time
	for d := Day(checkIn); d.Before(Day(checkOut)); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
