package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/curaflow/appointment-platform/internal/accounts"
	"github.com/curaflow/appointment-platform/internal/availability"
	"github.com/curaflow/appointment-platform/internal/observability/metrics"
	"github.com/curaflow/appointment-platform/internal/schedule"
	"github.com/curaflow/appointment-platform/internal/teleconsult"
	"github.com/curaflow/appointment-platform/pkg/logging"
)

var tracer = otel.Tracer("curaflow.internal.appointments")

// AccountDirectory verifies that referenced doctors, patients, and hospitals
// exist. Appointments hold weak references; the accounts store is the owner.
type AccountDirectory interface {
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	HospitalExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AvailabilityManager manages a doctor's unavailability windows and answers
// slot membership queries against them.
type AvailabilityManager interface {
	IsUnavailable(ctx context.Context, doctorID uuid.UUID, slot schedule.Slot) (bool, error)
	AddWindow(ctx context.Context, doctorID uuid.UUID, date, start, end string) (*availability.Window, error)
	RemoveWindow(ctx context.Context, doctorID, windowID uuid.UUID) error
	Windows(ctx context.Context, doctorID uuid.UUID) ([]availability.Window, error)
}

// Requester identifies who is asking for a mutation.
type Requester struct {
	ID   uuid.UUID
	Role accounts.Role
}

func (r Requester) canModify(appt *Appointment) bool {
	switch r.Role {
	case accounts.RoleAdmin:
		return true
	case accounts.RoleDoctor:
		return r.ID == appt.DoctorID
	case accounts.RolePatient:
		return r.ID == appt.PatientID
	}
	return false
}

// ServiceDeps carries the collaborators for NewService.
type ServiceDeps struct {
	Repo         Repository
	Availability AvailabilityManager
	Accounts     AccountDirectory
	Rooms        teleconsult.RoomProvider
	Composer     *schedule.Composer
	Metrics      *metrics.SchedulingMetrics
	Logger       *logging.Logger

	// EarlyStart is how long before the slot a teleconsultation may begin.
	// Non-positive defaults to 10 minutes.
	EarlyStart time.Duration
}

// Service drives the appointment lifecycle: booking under conflict and
// availability rules, rescheduling, cancellation, completion, and the
// teleconsultation sub-lifecycle.
type Service struct {
	repo         Repository
	conflicts    *ConflictChecker
	availability AvailabilityManager
	accounts     AccountDirectory
	rooms        teleconsult.RoomProvider
	composer     *schedule.Composer
	metrics      *metrics.SchedulingMetrics
	logger       *logging.Logger
	earlyStart   time.Duration

	now func() time.Time
}

// NewService constructs the lifecycle service. Metrics may be nil.
func NewService(deps ServiceDeps) *Service {
	if deps.Repo == nil {
		panic("appointments: repository required")
	}
	if deps.Availability == nil {
		panic("appointments: availability manager required")
	}
	if deps.Accounts == nil {
		panic("appointments: account directory required")
	}
	if deps.Rooms == nil {
		panic("appointments: room provider required")
	}
	if deps.Composer == nil {
		deps.Composer = schedule.NewComposer(nil)
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.EarlyStart <= 0 {
		deps.EarlyStart = 10 * time.Minute
	}
	return &Service{
		repo:         deps.Repo,
		conflicts:    NewConflictChecker(deps.Repo, deps.Availability),
		availability: deps.Availability,
		accounts:     deps.Accounts,
		rooms:        deps.Rooms,
		composer:     deps.Composer,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		earlyStart:   deps.EarlyStart,
		now:          time.Now,
	}
}

// Create books a new appointment. The slot must compose to a valid instant
// not in the past, all referenced accounts must exist, and the doctor must
// be free: no active appointment on the slot and no unavailability window
// covering it. The store's uniqueness constraint backs the booked check, so
// a concurrent duplicate still comes back as ErrDoctorBooked.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.create")
	defer span.End()
	started := s.now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	slot, err := s.composer.Compose(req.Date, req.Clock)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if slot.At.Before(s.now()) {
		return nil, ErrPastDate
	}

	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	if err := s.conflicts.CheckSlot(ctx, req.DoctorID, slot, uuid.Nil); err != nil {
		s.observeConflict(err)
		return nil, err
	}

	status := req.InitialStatus
	if status == "" {
		status = StatusScheduled
	}
	appt := &Appointment{
		ID:                     uuid.New(),
		DoctorID:               req.DoctorID,
		PatientID:              req.PatientID,
		HospitalID:             req.HospitalID,
		Type:                   req.Type,
		Date:                   slot.Date,
		Clock:                  slot.Clock,
		StartsAt:               slot.At,
		Status:                 status,
		PaymentStatus:          PaymentPending,
		PatientIssue:           req.PatientIssue,
		DiseaseName:            req.DiseaseName,
		TeleconsultationStatus: TeleconsultNotStarted,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		s.observeConflict(err)
		s.metrics.ObserveBooking("create", "error")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("appointment.id", appt.ID.String()),
		attribute.String("appointment.doctor_id", appt.DoctorID.String()),
	)
	s.metrics.ObserveBooking("create", "ok")
	s.metrics.ObserveBookingLatency("create", s.now().Sub(started).Seconds())
	s.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"patient_id", appt.PatientID,
		"date", appt.Date,
		"time", appt.Clock,
	)
	return appt, nil
}

// Get returns the appointment by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Update reschedules an appointment to a new slot. Both date and time are
// required. Active appointments are revalidated against the past-date,
// booked, and unavailability rules, excluding the appointment's own slot;
// canceled appointments take the edit without revalidation since they hold
// no slot. Completed appointments cannot be rescheduled.
func (s *Service) Update(ctx context.Context, id uuid.UUID, requester Requester, date, clock string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.update")
	defer span.End()

	if date == "" || clock == "" {
		return nil, fmt.Errorf("%w: date and time are required", ErrInvalidInput)
	}
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.canModify(appt) {
		return nil, ErrForbidden
	}
	if appt.Status == StatusCompleted {
		return nil, fmt.Errorf("%w: completed appointment cannot be rescheduled", ErrInvalidInput)
	}

	slot, err := s.composer.Compose(date, clock)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if appt.Active() {
		if slot.At.Before(s.now()) {
			return nil, ErrPastDate
		}
		if err := s.conflicts.CheckSlot(ctx, appt.DoctorID, slot, appt.ID); err != nil {
			s.observeConflict(err)
			return nil, err
		}
	}

	updated, err := s.repo.UpdateSlot(ctx, id, slot.Date, slot.Clock, slot.At)
	if err != nil {
		s.observeConflict(err)
		s.metrics.ObserveBooking("update", "error")
		return nil, err
	}
	span.SetAttributes(attribute.String("appointment.id", id.String()))
	s.metrics.ObserveBooking("update", "ok")
	s.logger.Info("appointment rescheduled", "appointment_id", id, "date", slot.Date, "time", slot.Clock)
	return updated, nil
}

// Cancel moves the appointment to canceled and records when. Cancellation
// is a direct status write: it runs no slot validation and is idempotent.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, requester Requester) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.cancel")
	defer span.End()

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.canModify(appt) {
		return nil, ErrForbidden
	}
	if appt.Status == StatusCanceled {
		return appt, nil
	}

	canceled, err := s.repo.MarkCanceled(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("appointment.id", id.String()))
	s.metrics.ObserveBooking("cancel", "ok")
	s.logger.Info("appointment canceled", "appointment_id", id)
	return canceled, nil
}

// Complete marks the visit as completed. Canceled appointments stay canceled.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, requester Requester) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.canModify(appt) {
		return nil, ErrForbidden
	}
	if appt.Status == StatusCanceled {
		return nil, fmt.Errorf("%w: canceled appointment cannot be completed", ErrInvalidInput)
	}
	completed, err := s.repo.MarkCompleted(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveBooking("complete", "ok")
	s.logger.Info("appointment completed", "appointment_id", id)
	return completed, nil
}

// Delete removes the appointment record outright. Role policy is the
// transport layer's concern.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("appointment deleted", "appointment_id", id)
	return nil
}

// AddUnavailableTime declares a blocked period on the doctor's calendar.
// Existing appointments inside the window are untouched; the window only
// constrains future bookings.
func (s *Service) AddUnavailableTime(ctx context.Context, doctorID uuid.UUID, date, start, end string) (*availability.Window, error) {
	return s.availability.AddWindow(ctx, doctorID, date, start, end)
}

// RemoveUnavailableTime deletes one of the doctor's windows.
func (s *Service) RemoveUnavailableTime(ctx context.Context, doctorID, windowID uuid.UUID) error {
	return s.availability.RemoveWindow(ctx, doctorID, windowID)
}

// UnavailableTimes lists the doctor's declared windows.
func (s *Service) UnavailableTimes(ctx context.Context, doctorID uuid.UUID) ([]availability.Window, error) {
	return s.availability.Windows(ctx, doctorID)
}

// StartTeleconsultation opens the video session for an online appointment
// and returns the join link. Repeating the call while the session is in
// progress returns the same link. The session may start up to the early
// start lead before the slot; at start time the doctor must not hold a
// second active appointment on the identical slot.
func (s *Service) StartTeleconsultation(ctx context.Context, id uuid.UUID, requester Requester) (string, error) {
	ctx, span := tracer.Start(ctx, "appointments.teleconsult_start")
	defer span.End()

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !requester.canModify(appt) {
		return "", ErrForbidden
	}
	if appt.Type != TypeOnline {
		return "", fmt.Errorf("%w: appointment is not an online consultation", ErrInvalidInput)
	}
	if appt.Status == StatusCanceled {
		return "", fmt.Errorf("%w: appointment is canceled", ErrInvalidInput)
	}
	if appt.TeleconsultationStatus == TeleconsultInProgress && appt.TeleconsultationLink != "" {
		return appt.TeleconsultationLink, nil
	}
	if appt.TeleconsultationStatus != TeleconsultNotStarted {
		s.metrics.ObserveTeleconsult("already_started")
		return "", ErrTeleconsultAlreadyStarted
	}
	if s.now().Before(appt.StartsAt.Add(-s.earlyStart)) {
		s.metrics.ObserveTeleconsult("too_early")
		return "", ErrTeleconsultTooEarly
	}
	taken, err := s.repo.SlotTaken(ctx, appt.DoctorID, appt.Date, appt.Clock, appt.ID)
	if err != nil {
		return "", err
	}
	if taken {
		s.metrics.ObserveTeleconsult("double_booked")
		return "", ErrDoctorDoubleBooked
	}

	link, err := s.rooms.CreateOrGetRoom(ctx, appt.ID)
	if err != nil {
		s.metrics.ObserveTeleconsult("room_error")
		return "", fmt.Errorf("appointments: create room: %w", err)
	}
	if err := s.repo.SetTeleconsultation(ctx, id, TeleconsultInProgress, link); err != nil {
		return "", err
	}

	span.SetAttributes(attribute.String("appointment.id", id.String()))
	s.metrics.ObserveTeleconsult("started")
	s.logger.Info("teleconsultation started", "appointment_id", id)
	return link, nil
}

// FinishTeleconsultation closes an in-progress video session. A successful
// finish also completes the appointment; an unsuccessful one records the
// failure and leaves the appointment scheduled.
func (s *Service) FinishTeleconsultation(ctx context.Context, id uuid.UUID, requester Requester, success bool) error {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !requester.canModify(appt) {
		return ErrForbidden
	}
	if appt.TeleconsultationStatus != TeleconsultInProgress {
		return fmt.Errorf("%w: teleconsultation is not in progress", ErrInvalidInput)
	}

	status := TeleconsultFailed
	if success {
		status = TeleconsultCompleted
	}
	if err := s.repo.SetTeleconsultation(ctx, id, status, appt.TeleconsultationLink); err != nil {
		return err
	}
	if success {
		if _, err := s.repo.MarkCompleted(ctx, id); err != nil {
			return err
		}
	}
	s.metrics.ObserveTeleconsult(string(status))
	s.logger.Info("teleconsultation finished", "appointment_id", id, "status", status)
	return nil
}

// AppointmentsForDoctor lists the doctor's appointments, latest slot first.
func (s *Service) AppointmentsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// AppointmentsForPatient lists the patient's appointments, latest slot first.
func (s *Service) AppointmentsForPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// TodayAppointments lists scheduled appointments falling on today's date.
func (s *Service) TodayAppointments(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListToday(ctx, s.now())
}

// UpcomingAppointments lists scheduled appointments after now.
func (s *Service) UpcomingAppointments(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListUpcoming(ctx, s.now())
}

// PreviousAppointments lists past non-canceled appointments.
func (s *Service) PreviousAppointments(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListPrevious(ctx, s.now())
}

// CanceledAppointments lists canceled appointments.
func (s *Service) CanceledAppointments(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListCanceled(ctx)
}

func (s *Service) checkReferences(ctx context.Context, req CreateRequest) error {
	exists, err := s.accounts.DoctorExists(ctx, req.DoctorID)
	if err != nil {
		return fmt.Errorf("appointments: check doctor: %w", err)
	}
	if !exists {
		return ErrDoctorNotFound
	}
	exists, err = s.accounts.PatientExists(ctx, req.PatientID)
	if err != nil {
		return fmt.Errorf("appointments: check patient: %w", err)
	}
	if !exists {
		return ErrPatientNotFound
	}
	exists, err = s.accounts.HospitalExists(ctx, req.HospitalID)
	if err != nil {
		return fmt.Errorf("appointments: check hospital: %w", err)
	}
	if !exists {
		return ErrHospitalNotFound
	}
	return nil
}

func (s *Service) observeConflict(err error) {
	switch {
	case errors.Is(err, ErrDoctorBooked):
		s.metrics.ObserveConflict("booked")
	case errors.Is(err, ErrDoctorUnavailable):
		s.metrics.ObserveConflict("unavailable")
	}
}
