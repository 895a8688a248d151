package composer

import (
	"fmt"
	"time"
)

const (
	wallClockLayout = "2006-01-02T15:04"
	Granularity     = 30 * time.Minute
)

// ScheduleRequest is what the user picked in the composer.
type ScheduleRequest struct {
	Enabled bool       `json:"enabled"`
	At      *time.Time `json:"at,omitempty"`
}

// Schedule is the normalized publish time. Immediate is true when no
// scheduling was requested.
type Schedule struct {
	Immediate bool
	At        time.Time
}

// Quantize rounds t to the nearest half hour of its own wall clock: minutes
// 0-14 go down to :00, 15-44 to :30 and 45-59 up to the next hour.
// Seconds and below are dropped. Quantize(Quantize(t)) == Quantize(t).
func Quantize(t time.Time) time.Time {
	minute := t.Minute()
	hourStart := t.Add(-time.Duration(minute)*time.Minute -
		time.Duration(t.Second())*time.Second -
		time.Duration(t.Nanosecond()))

	switch {
	case minute < 15:
		return hourStart
	case minute < 45:
		return hourStart.Add(30 * time.Minute)
	default:
		return hourStart.Add(time.Hour)
	}
}

// Normalize turns a schedule request into an immediate publish or a quantized
// instant that is not in the past.
func Normalize(req ScheduleRequest, now time.Time) (Schedule, error) {
	if !req.Enabled {
		return Schedule{Immediate: true}, nil
	}
	if req.At == nil || req.At.IsZero() {
		return Schedule{}, newValidationError("scheduled_at", "scheduling is enabled but no publish time was chosen")
	}

	at := Quantize(*req.At)
	if at.Before(now) {
		return Schedule{}, newValidationError("scheduled_at", "publish time is in the past")
	}
	return Schedule{At: at}, nil
}

// ParseInstant resolves a user supplied publish time. RFC 3339 values carry
// their own offset; wall-clock values ("2006-01-02T15:04") need an IANA
// timezone and are rejected when they fall in a DST gap or overlap.
func ParseInstant(value, timezone string) (time.Time, error) {
	var loc *time.Location
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, newValidationError("timezone", fmt.Sprintf("unknown timezone %q", timezone))
		}
		loc = l
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		if loc != nil {
			t = t.In(loc)
		}
		return t, nil
	}

	wall, err := time.Parse(wallClockLayout, value)
	if err != nil {
		return time.Time{}, newValidationError("scheduled_at", "publish time must be RFC 3339 or YYYY-MM-DDTHH:MM")
	}
	if loc == nil {
		return time.Time{}, newValidationError("timezone", "a timezone is required for wall-clock publish times")
	}

	return resolveWallClock(wall, loc)
}

func resolveWallClock(wall time.Time, loc *time.Location) (time.Time, error) {
	y, mo, d := wall.Date()
	h, mi, _ := wall.Clock()

	t := time.Date(y, mo, d, h, mi, 0, 0, loc)
	if !sameWallClock(t, wall) {
		return time.Time{}, newValidationError("scheduled_at", "publish time does not exist in this timezone")
	}

	_, before := t.Add(-3 * time.Hour).Zone()
	_, after := t.Add(3 * time.Hour).Zone()
	for _, offset := range []int{before, after} {
		candidate := time.Date(y, mo, d, h, mi, 0, 0, time.UTC).Add(-time.Duration(offset) * time.Second)
		if !candidate.Equal(t) && sameWallClock(candidate.In(loc), wall) {
			return time.Time{}, newValidationError("scheduled_at", "publish time is ambiguous in this timezone")
		}
	}

	return t, nil
}

func sameWallClock(t, wall time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := wall.Date()
	return y1 == y2 && m1 == m2 && d1 == d2 && t.Hour() == wall.Hour() && t.Minute() == wall.Minute()
}
