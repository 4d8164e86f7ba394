package availability

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Repository defines the interface for unavailability window storage.
type Repository interface {
	Add(ctx context.Context, window *Window) error
	ListForDate(ctx context.Context, doctorID uuid.UUID, date string) ([]Window, error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Window, error)
	Remove(ctx context.Context, doctorID, windowID uuid.UUID) error
}

// InMemoryRepository is a Repository backed by process memory, used in tests
// and local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	windows map[uuid.UUID]Window
	order   []uuid.UUID
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{windows: make(map[uuid.UUID]Window)}
}

// Add stores a window, preserving insertion order.
func (r *InMemoryRepository) Add(ctx context.Context, window *Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[window.ID] = *window
	r.order = append(r.order, window.ID)
	return nil
}

// ListForDate returns the doctor's windows declared for the given date.
func (r *InMemoryRepository) ListForDate(ctx context.Context, doctorID uuid.UUID, date string) ([]Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Window
	for _, id := range r.order {
		w, ok := r.windows[id]
		if ok && w.DoctorID == doctorID && w.Date == date {
			out = append(out, w)
		}
	}
	return out, nil
}

// ListForDoctor returns all of the doctor's windows in insertion order.
func (r *InMemoryRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Window
	for _, id := range r.order {
		if w, ok := r.windows[id]; ok && w.DoctorID == doctorID {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Remove deletes a window by id, scoped to the doctor.
func (r *InMemoryRepository) Remove(ctx context.Context, doctorID, windowID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[windowID]
	if !ok || w.DoctorID != doctorID {
		return ErrWindowNotFound
	}
	delete(r.windows, windowID)
	for i, id := range r.order {
		if id == windowID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
