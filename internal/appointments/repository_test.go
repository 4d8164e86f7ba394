package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredAppointment(doctorID uuid.UUID, date, clock string) *Appointment {
	at, _ := time.Parse("2006-01-02 15:04", date+" "+clock)
	return &Appointment{
		ID:                     uuid.New(),
		DoctorID:               doctorID,
		PatientID:              uuid.New(),
		HospitalID:             uuid.New(),
		Type:                   TypeOnline,
		Date:                   date,
		Clock:                  clock,
		StartsAt:               at,
		Status:                 StatusScheduled,
		PaymentStatus:          PaymentPending,
		TeleconsultationStatus: TeleconsultNotStarted,
	}
}

func TestInMemoryCreateEnforcesSlotUniqueness(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	doctorID := uuid.New()

	first := newStoredAppointment(doctorID, "2026-03-10", "10:00")
	require.NoError(t, repo.Create(ctx, first))

	dupe := newStoredAppointment(doctorID, "2026-03-10", "10:00")
	assert.ErrorIs(t, repo.Create(ctx, dupe), ErrDoctorBooked)

	// Another doctor can hold the identical slot.
	other := newStoredAppointment(uuid.New(), "2026-03-10", "10:00")
	assert.NoError(t, repo.Create(ctx, other))
}

func TestInMemoryCanceledFreesSlot(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	doctorID := uuid.New()

	appt := newStoredAppointment(doctorID, "2026-03-10", "10:00")
	require.NoError(t, repo.Create(ctx, appt))

	_, err := repo.MarkCanceled(ctx, appt.ID, time.Now().UTC())
	require.NoError(t, err)

	taken, err := repo.SlotTaken(ctx, doctorID, "2026-03-10", "10:00", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, taken)

	replacement := newStoredAppointment(doctorID, "2026-03-10", "10:00")
	assert.NoError(t, repo.Create(ctx, replacement))
}

func TestInMemorySlotTakenExcludesSelf(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	doctorID := uuid.New()

	appt := newStoredAppointment(doctorID, "2026-03-10", "10:00")
	require.NoError(t, repo.Create(ctx, appt))

	taken, err := repo.SlotTaken(ctx, doctorID, "2026-03-10", "10:00", appt.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.SlotTaken(ctx, doctorID, "2026-03-10", "10:00", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestInMemoryUpdateSlot(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	doctorID := uuid.New()

	appt := newStoredAppointment(doctorID, "2026-03-10", "10:00")
	require.NoError(t, repo.Create(ctx, appt))
	blocker := newStoredAppointment(doctorID, "2026-03-10", "11:00")
	require.NoError(t, repo.Create(ctx, blocker))

	_, err := repo.UpdateSlot(ctx, appt.ID, "2026-03-10", "11:00", blocker.StartsAt)
	assert.ErrorIs(t, err, ErrDoctorBooked)

	at := time.Date(2026, 3, 12, 14, 30, 0, 0, time.UTC)
	updated, err := repo.UpdateSlot(ctx, appt.ID, "2026-03-12", "14:30", at)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-12", updated.Date)
	assert.Equal(t, "14:30", updated.Clock)
	assert.True(t, updated.StartsAt.Equal(at))
}

func TestInMemoryDelete(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	appt := newStoredAppointment(uuid.New(), "2026-03-10", "10:00")
	require.NoError(t, repo.Create(ctx, appt))
	require.NoError(t, repo.Delete(ctx, appt.ID))

	_, err := repo.GetByID(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, appt.ID), ErrNotFound)
}

func TestInMemoryListsOrderLatestFirst(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	doctorID := uuid.New()

	early := newStoredAppointment(doctorID, "2026-03-10", "09:00")
	late := newStoredAppointment(doctorID, "2026-03-10", "17:00")
	require.NoError(t, repo.Create(ctx, early))
	require.NoError(t, repo.Create(ctx, late))

	appts, err := repo.ListByDoctor(ctx, doctorID)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, late.ID, appts[0].ID)
	assert.Equal(t, early.ID, appts[1].ID)
}
