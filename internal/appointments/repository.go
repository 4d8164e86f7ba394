package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for appointment storage. Implementations
// must enforce slot uniqueness per doctor at write time: Create and
// UpdateSlot return ErrDoctorBooked when another active appointment already
// holds the slot, regardless of any check the caller ran beforehand.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateSlot(ctx context.Context, id uuid.UUID, date, clock string, startsAt time.Time) (*Appointment, error)
	MarkCanceled(ctx context.Context, id uuid.UUID, at time.Time) (*Appointment, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) (*Appointment, error)
	SetTeleconsultation(ctx context.Context, id uuid.UUID, status TeleconsultStatus, link string) error
	Delete(ctx context.Context, id uuid.UUID) error

	// SlotTaken reports whether an active appointment other than exclude
	// occupies the doctor's slot. Pass uuid.Nil to exclude nothing.
	SlotTaken(ctx context.Context, doctorID uuid.UUID, date, clock string, exclude uuid.UUID) (bool, error)

	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListToday(ctx context.Context, now time.Time) ([]Appointment, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]Appointment, error)
	ListPrevious(ctx context.Context, now time.Time) ([]Appointment, error)
	ListCanceled(ctx context.Context) ([]Appointment, error)
}

// InMemoryRepository is a Repository backed by process memory, used in tests
// and local development. It mirrors the store-level uniqueness rule so
// service behavior matches production.
type InMemoryRepository struct {
	mu    sync.RWMutex
	appts map[uuid.UUID]*Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{appts: make(map[uuid.UUID]*Appointment)}
}

// Create stores the appointment, rejecting occupied slots.
func (r *InMemoryRepository) Create(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slotTakenLocked(appt.DoctorID, appt.Date, appt.Clock, appt.ID) {
		return ErrDoctorBooked
	}
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	cp := *appt
	r.appts[appt.ID] = &cp
	return nil
}

// GetByID returns the appointment by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *appt
	return &cp, nil
}

// UpdateSlot rewrites the appointment's date, clock, and composed instant.
func (r *InMemoryRepository) UpdateSlot(ctx context.Context, id uuid.UUID, date, clock string, startsAt time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if appt.Active() && r.slotTakenLocked(appt.DoctorID, date, clock, id) {
		return nil, ErrDoctorBooked
	}
	appt.Date = date
	appt.Clock = clock
	appt.StartsAt = startsAt
	appt.UpdatedAt = time.Now().UTC()
	cp := *appt
	return &cp, nil
}

// MarkCanceled sets the canceled status and cancel date directly.
func (r *InMemoryRepository) MarkCanceled(ctx context.Context, id uuid.UUID, at time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	appt.Status = StatusCanceled
	appt.CancelDate = &at
	appt.UpdatedAt = time.Now().UTC()
	cp := *appt
	return &cp, nil
}

// MarkCompleted sets the completed status.
func (r *InMemoryRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	appt.Status = StatusCompleted
	appt.UpdatedAt = time.Now().UTC()
	cp := *appt
	return &cp, nil
}

// SetTeleconsultation updates the sub-lifecycle status and link.
func (r *InMemoryRepository) SetTeleconsultation(ctx context.Context, id uuid.UUID, status TeleconsultStatus, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok {
		return ErrNotFound
	}
	appt.TeleconsultationStatus = status
	appt.TeleconsultationLink = link
	appt.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes the appointment outright.
func (r *InMemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[id]; !ok {
		return ErrNotFound
	}
	delete(r.appts, id)
	return nil
}

// SlotTaken reports whether an active appointment other than exclude holds
// the doctor's slot.
func (r *InMemoryRepository) SlotTaken(ctx context.Context, doctorID uuid.UUID, date, clock string, exclude uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slotTakenLocked(doctorID, date, clock, exclude), nil
}

func (r *InMemoryRepository) slotTakenLocked(doctorID uuid.UUID, date, clock string, exclude uuid.UUID) bool {
	for _, appt := range r.appts {
		if appt.ID == exclude {
			continue
		}
		if appt.DoctorID == doctorID && appt.Date == date && appt.Clock == clock && appt.Active() {
			return true
		}
	}
	return false
}

// ListByDoctor returns the doctor's appointments, latest slot first.
func (r *InMemoryRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.DoctorID == doctorID }), nil
}

// ListByPatient returns the patient's appointments, latest slot first.
func (r *InMemoryRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

// ListToday returns scheduled appointments whose slot falls on now's date.
func (r *InMemoryRepository) ListToday(ctx context.Context, now time.Time) ([]Appointment, error) {
	date := now.Format("2006-01-02")
	return r.list(func(a *Appointment) bool { return a.Status == StatusScheduled && a.Date == date }), nil
}

// ListUpcoming returns scheduled appointments strictly after now.
func (r *InMemoryRepository) ListUpcoming(ctx context.Context, now time.Time) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.Status == StatusScheduled && a.StartsAt.After(now) }), nil
}

// ListPrevious returns non-canceled appointments strictly before now.
func (r *InMemoryRepository) ListPrevious(ctx context.Context, now time.Time) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.Active() && a.StartsAt.Before(now) }), nil
}

// ListCanceled returns canceled appointments.
func (r *InMemoryRepository) ListCanceled(ctx context.Context) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.Status == StatusCanceled }), nil
}

func (r *InMemoryRepository) list(keep func(*Appointment) bool) []Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Appointment
	for _, appt := range r.appts {
		if keep(appt) {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	return out
}
