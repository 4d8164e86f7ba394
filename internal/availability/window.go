// Package availability tracks doctor-declared unavailable periods and
// answers whether a doctor can take a slot on a given date.
package availability

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDoctorNotFound is returned when the doctor does not exist.
	ErrDoctorNotFound = errors.New("availability: doctor not found")

	// ErrWindowNotFound is returned when the window does not exist for the doctor.
	ErrWindowNotFound = errors.New("availability: unavailability window not found")

	// ErrInvalidWindow is returned when the window's date or time range is malformed.
	ErrInvalidWindow = errors.New("availability: invalid unavailability window")
)

// Window is a date-specific interval during which a doctor takes no
// appointments. Windows never recur; each applies to its stored date only.
type Window struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	CreatedAt time.Time `json:"created_at"`
}
