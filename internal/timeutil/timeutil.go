// Package timeutil provides helpers for day bucketing and duration
// arithmetic in hours.
package timeutil

import (
	"fmt"
	"math"
	"time"
)

const minutesInAnHour = 60

// RoundHours rounds a floating-point hours value to 2 decimal places. All
// durations are persisted at this precision.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

// HoursBetween returns the elapsed wall-clock time between start and end in
// hours.
func HoursBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// RoundToEnd resets the given time to the end of the day.
func RoundToEnd(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		23,
		59,
		59,
		0,
		t.Location(),
	)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// FormatHoursMinutes expresses a fractional hours value as "{H}h {M}m".
func FormatHoursMinutes(hours float64) string {
	totalMins := int(math.Round(hours * minutesInAnHour))
	h := totalMins / minutesInAnHour
	m := totalMins % minutesInAnHour

	return fmt.Sprintf("%dh %dm", h, m)
}

// DaysBetween returns the number of whole calendar days from a to b,
// comparing day starts so that partial days do not skew the count.
func DaysBetween(a, b time.Time) int {
	start := RoundToStart(a)
	end := RoundToStart(b)

	return int(math.Round(end.Sub(start).Hours() / 24))
}

// ToKey converts a time value to a database key.
func ToKey(t time.Time) []byte {
	return []byte(t.Format(time.RFC3339Nano))
}
