// Package schedule composes calendar dates and wall-clock times into the
// single instant the scheduling core orders and compares by.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar-date wire format.
	DateLayout = "2006-01-02"
	// ClockLayout is the 24-hour wall-clock wire format.
	ClockLayout = "15:04"
)

// ErrInvalidSlot is returned when a date or clock string cannot be parsed.
var ErrInvalidSlot = errors.New("schedule: invalid date or time")

// Slot is a (date, wall-clock) pair together with its composed instant.
type Slot struct {
	Date  string
	Clock string
	At    time.Time
}

// Composer anchors wall-clock times onto calendar dates in a fixed location.
type Composer struct {
	loc *time.Location
}

// NewComposer creates a composer for the given location. A nil location
// means UTC.
func NewComposer(loc *time.Location) *Composer {
	if loc == nil {
		loc = time.UTC
	}
	return &Composer{loc: loc}
}

// Compose merges a "2006-01-02" date and a "15:04" clock into one Slot.
// The clock overwrites the hour and minute of the date, midnight-anchored
// in the composer's location.
func (c *Composer) Compose(date, clock string) (Slot, error) {
	day, err := time.ParseInLocation(DateLayout, date, c.loc)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: date %q", ErrInvalidSlot, date)
	}
	hm, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: time %q", ErrInvalidSlot, clock)
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, c.loc)
	return Slot{Date: day.Format(DateLayout), Clock: at.Format(ClockLayout), At: at}, nil
}

// Location returns the composer's anchor location.
func (c *Composer) Location() *time.Location {
	return c.loc
}
