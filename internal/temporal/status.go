// Package temporal resolves hackathon and registration state from stored
// date ranges relative to an injected current instant.
package temporal

import (
	"strings"
	"time"

	"hackathon-assistant/internal/domain"
)

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusEnded    Status = "ended"
	StatusUnknown  Status = "unknown"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. A trailing "Z" is rewritten
// to "+00:00" first; values without an offset are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// WindowStatus places now relative to [start, end]. Both bounds are
// inclusive; a missing or unparsable bound yields StatusUnknown.
func WindowStatus(start, end string, now time.Time) Status {
	s, okStart := ParseTimestamp(start)
	e, okEnd := ParseTimestamp(end)
	if !okStart || !okEnd {
		return StatusUnknown
	}
	switch {
	case now.Before(s):
		return StatusUpcoming
	case now.After(e):
		return StatusEnded
	default:
		return StatusOngoing
	}
}

// IsOpen reports start <= now <= end, or fallback when either bound cannot
// be parsed.
func IsOpen(start, end string, now time.Time, fallback bool) bool {
	status := WindowStatus(start, end, now)
	if status == StatusUnknown {
		return fallback
	}
	return status == StatusOngoing
}

// HackathonStatus is the status of the overall event window.
func HackathonStatus(h domain.Hackathon, now time.Time) Status {
	return WindowStatus(string(h.StartDatetime), string(h.EndDatetime), now)
}

// RegistrationOpen evaluates the registration phase window, falling back to
// the stored is_registration_open flag when there is no such phase or its
// dates are unusable.
func RegistrationOpen(h domain.Hackathon, now time.Time) bool {
	fallback := bool(h.IsRegistrationOpen)
	phase, ok := h.RegistrationPhase()
	if !ok {
		return fallback
	}
	return IsOpen(string(phase.StartDatetime), string(phase.EndDatetime), now, fallback)
}
