package availability

import (
	"context"

	"github.com/google/uuid"

	"github.com/curaflow/appointment-platform/internal/schedule"
	"github.com/curaflow/appointment-platform/pkg/logging"
)

// DoctorDirectory answers whether a doctor account exists.
type DoctorDirectory interface {
	DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error)
}

// Service reconciles a doctor's declared unavailability against candidate slots.
type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	composer *schedule.Composer
	logger   *logging.Logger
}

// NewService constructs an availability service.
func NewService(repo Repository, doctors DoctorDirectory, composer *schedule.Composer, logger *logging.Logger) *Service {
	if repo == nil {
		panic("availability: repository required")
	}
	if doctors == nil {
		panic("availability: doctor directory required")
	}
	if composer == nil {
		composer = schedule.NewComposer(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, doctors: doctors, composer: composer, logger: logger}
}

// IsUnavailable reports whether the slot falls inside one of the doctor's
// windows declared for that exact date. Window bounds are half-open:
// a slot at the window's end time is free again.
func (s *Service) IsUnavailable(ctx context.Context, doctorID uuid.UUID, slot schedule.Slot) (bool, error) {
	windows, err := s.repo.ListForDate(ctx, doctorID, slot.Date)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		start, err := s.composer.Compose(slot.Date, w.Start)
		if err != nil {
			s.logger.Warn("skipping malformed unavailability window", "window_id", w.ID, "error", err)
			continue
		}
		end, err := s.composer.Compose(slot.Date, w.End)
		if err != nil {
			s.logger.Warn("skipping malformed unavailability window", "window_id", w.ID, "error", err)
			continue
		}
		if !slot.At.Before(start.At) && slot.At.Before(end.At) {
			return true, nil
		}
	}
	return false, nil
}

// AddWindow declares a new unavailable period for the doctor. Overlap with
// existing windows is not rejected; overlapping windows merely widen the
// blocked range.
func (s *Service) AddWindow(ctx context.Context, doctorID uuid.UUID, date, start, end string) (*Window, error) {
	exists, err := s.doctors.DoctorExists(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrDoctorNotFound
	}

	startSlot, err := s.composer.Compose(date, start)
	if err != nil {
		return nil, ErrInvalidWindow
	}
	endSlot, err := s.composer.Compose(date, end)
	if err != nil {
		return nil, ErrInvalidWindow
	}
	if !startSlot.At.Before(endSlot.At) {
		return nil, ErrInvalidWindow
	}

	window := &Window{
		ID:       uuid.New(),
		DoctorID: doctorID,
		Date:     startSlot.Date,
		Start:    startSlot.Clock,
		End:      endSlot.Clock,
	}
	if err := s.repo.Add(ctx, window); err != nil {
		return nil, err
	}
	s.logger.Info("unavailability window added",
		"doctor_id", doctorID,
		"window_id", window.ID,
		"date", window.Date,
		"start", window.Start,
		"end", window.End,
	)
	return window, nil
}

// RemoveWindow deletes one of the doctor's windows by id.
func (s *Service) RemoveWindow(ctx context.Context, doctorID, windowID uuid.UUID) error {
	exists, err := s.doctors.DoctorExists(ctx, doctorID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrDoctorNotFound
	}
	if err := s.repo.Remove(ctx, doctorID, windowID); err != nil {
		return err
	}
	s.logger.Info("unavailability window removed", "doctor_id", doctorID, "window_id", windowID)
	return nil
}

// Windows lists the doctor's declared windows in insertion order.
func (s *Service) Windows(ctx context.Context, doctorID uuid.UUID) ([]Window, error) {
	exists, err := s.doctors.DoctorExists(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrDoctorNotFound
	}
	return s.repo.ListForDoctor(ctx, doctorID)
}
