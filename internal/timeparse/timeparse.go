// Package timeparse parses the date, clock and duration cells of a timesheet
// row and joins them into naive wall-clock timestamps.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/sheetload/internal/errors"
)

// Layouts used for parsing and for building identity keys. The key layouts
// are part of the persisted identity scheme and must not change.
const (
	DateLayout      = "1/2/2006"
	ClockLayout     = "3:04 PM"
	KeyDateLayout   = "Mon Jan 2 2006"
	TimestampLayout = "2006-01-02 15:04:05"
	StoreDateLayout = "2006-01-02"
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// String formats the clock the way it appears in the CSV.
func (c Clock) String() string {
	t := time.Date(0, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC)
	return t.Format(ClockLayout)
}

// ParseClock parses "H:MM AM/PM". The hour is 1-12 without a leading zero.
func ParseClock(s string) (Clock, error) {
	trimmed := strings.TrimSpace(s)
	hour, _, ok := strings.Cut(trimmed, ":")
	if !ok || hour == "" || hour[0] == '0' {
		return Clock{}, errors.NewFormat("time", s, "H:MM AM/PM")
	}
	t, err := time.Parse(ClockLayout, trimmed)
	if err != nil {
		return Clock{}, errors.NewFormat("time", s, "H:MM AM/PM")
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ParseDate parses "M/D/YYYY". An empty string yields nil so the caller can
// carry the previous date forward.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, errors.NewFormat("date", s, "M/D/YYYY")
	}
	return &t, nil
}

// ParseDuration parses "HH:MM:SS" into whole minutes. Any non-zero seconds
// round the result up by one minute.
func ParseDuration(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, errors.NewFormat("duration", s, "HH:MM:SS")
	}

	var hms [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, errors.NewFormat("duration", s, "HH:MM:SS")
		}
		hms[i] = n
	}
	if hms[1] > 59 || hms[2] > 59 {
		return 0, errors.NewFormat("duration", s, "HH:MM:SS")
	}

	minutes := hms[0]*60 + hms[1]
	if hms[2] > 0 {
		minutes++
	}
	return time.Duration(minutes) * time.Minute, nil
}

// Combine joins a calendar date and a clock into a naive timestamp.
// No timezone conversion happens; everything is stored as UTC wall-clock.
func Combine(date time.Time, c Clock) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, time.UTC)
}

// DateOnly truncates t to its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatMillis formats a millisecond duration as "1h 40m" or "45m".
func FormatMillis(ms int64) string {
	minutes := ms / int64(time.Minute/time.Millisecond)
	h := minutes / 60
	m := minutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
