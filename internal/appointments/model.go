// Package appointments implements the appointment lifecycle: creation under
// conflict and availability rules, rescheduling, cancellation, and the
// teleconsultation sub-lifecycle.
package appointments

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the appointment's scheduling state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusPending, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further scheduling mutation.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// PaymentStatus tracks payment independently of scheduling; it never gates
// a booking.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentClear   PaymentStatus = "clear"
	PaymentFailed  PaymentStatus = "failed"
)

// TeleconsultStatus is the video-session sub-lifecycle attached to an
// appointment.
type TeleconsultStatus string

const (
	TeleconsultNotStarted TeleconsultStatus = "not_started"
	TeleconsultInProgress TeleconsultStatus = "in_progress"
	TeleconsultCompleted  TeleconsultStatus = "completed"
	TeleconsultFailed     TeleconsultStatus = "failed"
)

// Type distinguishes in-person visits from video ones.
type Type string

const (
	TypeOnline Type = "online"
	TypeOnsite Type = "onsite"
)

// Valid reports whether the type is one of the known kinds.
func (t Type) Valid() bool {
	return t == TypeOnline || t == TypeOnsite
}

// Appointment is a booked slot between one doctor and one patient. Doctor,
// patient, and hospital are weak references; those entities are owned
// elsewhere.
type Appointment struct {
	ID         uuid.UUID `json:"id"`
	DoctorID   uuid.UUID `json:"doctor_id"`
	PatientID  uuid.UUID `json:"patient_id"`
	HospitalID uuid.UUID `json:"hospital_id"`
	Type       Type      `json:"appointment_type"`

	// Date and Clock are the caller-facing slot ("2006-01-02", "15:04");
	// StartsAt is their composed instant and the only value used for
	// ordering and comparison.
	Date     string    `json:"date"`
	Clock    string    `json:"time"`
	StartsAt time.Time `json:"starts_at"`

	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`

	PatientIssue string `json:"patient_issue,omitempty"`
	DiseaseName  string `json:"disease_name,omitempty"`

	CancelDate *time.Time `json:"cancel_date,omitempty"`

	TeleconsultationStatus TeleconsultStatus `json:"teleconsultation_status"`
	TeleconsultationLink   string            `json:"teleconsultation_link,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the appointment still occupies its slot.
func (a *Appointment) Active() bool {
	return a.Status != StatusCanceled
}

// CreateRequest carries the fields needed to book a slot.
type CreateRequest struct {
	DoctorID   uuid.UUID `json:"doctor_id"`
	PatientID  uuid.UUID `json:"patient_id"`
	HospitalID uuid.UUID `json:"hospital_id"`
	Type       Type      `json:"appointment_type"`
	Date       string    `json:"date"`
	Clock      string    `json:"time"`

	PatientIssue string `json:"patient_issue"`
	DiseaseName  string `json:"disease_name"`

	// InitialStatus may be empty (defaults to scheduled) or pending.
	InitialStatus Status `json:"status,omitempty"`
}

// Validate checks the request's own fields. Slot composition and conflict
// rules are the service's concern.
func (r *CreateRequest) Validate() error {
	if r.DoctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidInput)
	}
	if r.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient_id is required", ErrInvalidInput)
	}
	if r.HospitalID == uuid.Nil {
		return fmt.Errorf("%w: hospital_id is required", ErrInvalidInput)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: appointment_type must be online or onsite", ErrInvalidInput)
	}
	if r.Date == "" || r.Clock == "" {
		return fmt.Errorf("%w: date and time are required", ErrInvalidInput)
	}
	switch r.InitialStatus {
	case "", StatusScheduled, StatusPending:
	default:
		return fmt.Errorf("%w: initial status must be scheduled or pending", ErrInvalidInput)
	}
	return nil
}
