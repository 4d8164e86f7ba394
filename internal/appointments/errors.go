package appointments

import "errors"

var (
	// ErrInvalidInput is returned when a request carries missing or
	// unparsable fields.
	ErrInvalidInput = errors.New("invalid appointment input")

	// ErrNotFound is returned when the appointment does not exist.
	ErrNotFound = errors.New("appointment not found")

	// ErrForbidden is returned when the requester is neither the doctor nor
	// the patient on the appointment.
	ErrForbidden = errors.New("requester may not modify this appointment")

	// ErrPastDate is returned when the composed slot precedes the current time.
	ErrPastDate = errors.New("appointment slot is in the past")

	// ErrDoctorBooked is returned when another active appointment already
	// occupies the slot.
	ErrDoctorBooked = errors.New("doctor already has an appointment at this time")

	// ErrDoctorUnavailable is returned when the slot falls inside a declared
	// unavailability window.
	ErrDoctorUnavailable = errors.New("doctor is unavailable during this time")

	// ErrDoctorNotFound is returned when the referenced doctor does not exist.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrPatientNotFound is returned when the referenced patient does not exist.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrHospitalNotFound is returned when the referenced hospital does not exist.
	ErrHospitalNotFound = errors.New("hospital not found")

	// ErrTeleconsultAlreadyStarted is returned when the video session left
	// the not_started state and cannot be started again.
	ErrTeleconsultAlreadyStarted = errors.New("teleconsultation has already been started or completed")

	// ErrTeleconsultTooEarly is returned when the start request arrives more
	// than the allowed lead time before the appointment.
	ErrTeleconsultTooEarly = errors.New("teleconsultation cannot start this early")

	// ErrDoctorDoubleBooked is returned when a second active appointment for
	// the doctor occupies the identical slot at teleconsultation start.
	ErrDoctorDoubleBooked = errors.New("doctor has another appointment at this time")
)
