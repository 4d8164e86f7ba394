package appointments

import (
	"context"

	"github.com/google/uuid"

	"github.com/curaflow/appointment-platform/internal/schedule"
)

// SlotReader answers whether a doctor's slot is occupied by an active
// appointment.
type SlotReader interface {
	SlotTaken(ctx context.Context, doctorID uuid.UUID, date, clock string, exclude uuid.UUID) (bool, error)
}

// AvailabilityChecker answers whether a slot falls inside one of the
// doctor's declared unavailability windows.
type AvailabilityChecker interface {
	IsUnavailable(ctx context.Context, doctorID uuid.UUID, slot schedule.Slot) (bool, error)
}

// ConflictChecker decides whether a doctor can take a candidate slot. The
// booked check runs before the unavailability check, so a slot that fails
// both always reports the booking conflict.
type ConflictChecker struct {
	slots        SlotReader
	availability AvailabilityChecker
}

// NewConflictChecker constructs a conflict checker.
func NewConflictChecker(slots SlotReader, availability AvailabilityChecker) *ConflictChecker {
	if slots == nil {
		panic("appointments: slot reader required")
	}
	if availability == nil {
		panic("appointments: availability checker required")
	}
	return &ConflictChecker{slots: slots, availability: availability}
}

// HasDoctorConflict reports whether an active appointment other than exclude
// already holds the doctor's slot. Pass uuid.Nil to exclude nothing.
func (c *ConflictChecker) HasDoctorConflict(ctx context.Context, doctorID uuid.UUID, slot schedule.Slot, exclude uuid.UUID) (bool, error) {
	return c.slots.SlotTaken(ctx, doctorID, slot.Date, slot.Clock, exclude)
}

// CheckSlot returns ErrDoctorBooked if the slot is occupied, then
// ErrDoctorUnavailable if it falls inside a declared window, and nil when
// the doctor can take it.
func (c *ConflictChecker) CheckSlot(ctx context.Context, doctorID uuid.UUID, slot schedule.Slot, exclude uuid.UUID) error {
	taken, err := c.HasDoctorConflict(ctx, doctorID, slot, exclude)
	if err != nil {
		return err
	}
	if taken {
		return ErrDoctorBooked
	}
	unavailable, err := c.availability.IsUnavailable(ctx, doctorID, slot)
	if err != nil {
		return err
	}
	if unavailable {
		return ErrDoctorUnavailable
	}
	return nil
}
