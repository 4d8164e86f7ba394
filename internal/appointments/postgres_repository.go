package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curaflow/appointment-platform/internal/schedule"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const apptColumns = `id, doctor_id, patient_id, hospital_id, appointment_type,
		appointment_date, appointment_time, starts_at, status, payment_status,
		patient_issue, disease_name, cancel_date,
		teleconsultation_status, teleconsultation_link, created_at, updated_at`

// PostgresRepository stores appointments in the relational database. The
// partial unique index on (doctor_id, appointment_date, appointment_time)
// is the authoritative double-booking guard; this repository translates its
// violations into ErrDoctorBooked.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the appointment row.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, doctor_id, patient_id, hospital_id, appointment_type,
			appointment_date, appointment_time, starts_at, status, payment_status,
			patient_issue, disease_name, teleconsultation_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		appt.ID,
		appt.DoctorID,
		appt.PatientID,
		appt.HospitalID,
		appt.Type,
		appt.Date,
		appt.Clock,
		appt.StartsAt,
		appt.Status,
		appt.PaymentStatus,
		appt.PatientIssue,
		appt.DiseaseName,
		appt.TeleconsultationStatus,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		if isSlotConflict(err) {
			return ErrDoctorBooked
		}
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// GetByID returns the appointment by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: get by id: %w", err)
	}
	return appt, nil
}

// UpdateSlot rewrites the appointment's date, clock, and composed instant.
func (r *PostgresRepository) UpdateSlot(ctx context.Context, id uuid.UUID, date, clock string, startsAt time.Time) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET appointment_date = $2, appointment_time = $3, starts_at = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + apptColumns
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id, date, clock, startsAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isSlotConflict(err) {
			return nil, ErrDoctorBooked
		}
		return nil, fmt.Errorf("appointments: update slot: %w", err)
	}
	return appt, nil
}

// MarkCanceled sets the canceled status and cancel date. The update applies
// unconditionally; cancellation does not revalidate the slot.
func (r *PostgresRepository) MarkCanceled(ctx context.Context, id uuid.UUID, at time.Time) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET status = 'canceled', cancel_date = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + apptColumns
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: mark canceled: %w", err)
	}
	return appt, nil
}

// MarkCompleted sets the completed status.
func (r *PostgresRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET status = 'completed', updated_at = now()
		WHERE id = $1
		RETURNING ` + apptColumns
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: mark completed: %w", err)
	}
	return appt, nil
}

// SetTeleconsultation updates the sub-lifecycle status and link.
func (r *PostgresRepository) SetTeleconsultation(ctx context.Context, id uuid.UUID, status TeleconsultStatus, link string) error {
	query := `
		UPDATE appointments
		SET teleconsultation_status = $2, teleconsultation_link = $3, updated_at = now()
		WHERE id = $1
	`
	ct, err := r.db.Exec(ctx, query, id, status, link)
	if err != nil {
		return fmt.Errorf("appointments: set teleconsultation: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the appointment row outright.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SlotTaken reports whether an active appointment other than exclude holds
// the doctor's slot. Pass uuid.Nil to exclude nothing.
func (r *PostgresRepository) SlotTaken(ctx context.Context, doctorID uuid.UUID, date, clock string, exclude uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3
			  AND status <> 'canceled' AND id <> $4
		)
	`
	var taken bool
	if err := r.db.QueryRow(ctx, query, doctorID, date, clock, exclude).Scan(&taken); err != nil {
		return false, fmt.Errorf("appointments: slot taken: %w", err)
	}
	return taken, nil
}

// ListByDoctor returns the doctor's appointments, latest slot first.
func (r *PostgresRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE doctor_id = $1 ORDER BY starts_at DESC`
	return r.queryList(ctx, "list by doctor", query, doctorID)
}

// ListByPatient returns the patient's appointments, latest slot first.
func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE patient_id = $1 ORDER BY starts_at DESC`
	return r.queryList(ctx, "list by patient", query, patientID)
}

// ListToday returns scheduled appointments whose slot falls on now's date.
func (r *PostgresRepository) ListToday(ctx context.Context, now time.Time) ([]Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments
		WHERE status = 'scheduled' AND appointment_date = $1 ORDER BY starts_at`
	return r.queryList(ctx, "list today", query, now.Format(schedule.DateLayout))
}

// ListUpcoming returns scheduled appointments strictly after now.
func (r *PostgresRepository) ListUpcoming(ctx context.Context, now time.Time) ([]Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments
		WHERE status = 'scheduled' AND starts_at > $1 ORDER BY starts_at`
	return r.queryList(ctx, "list upcoming", query, now)
}

// ListPrevious returns non-canceled appointments strictly before now.
func (r *PostgresRepository) ListPrevious(ctx context.Context, now time.Time) ([]Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments
		WHERE status <> 'canceled' AND starts_at < $1 ORDER BY starts_at DESC`
	return r.queryList(ctx, "list previous", query, now)
}

// ListCanceled returns canceled appointments, latest slot first.
func (r *PostgresRepository) ListCanceled(ctx context.Context) ([]Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE status = 'canceled' ORDER BY starts_at DESC`
	return r.queryList(ctx, "list canceled", query)
}

func (r *PostgresRepository) queryList(ctx context.Context, op, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: %s: %w", op, err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: %s: %w", op, err)
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: %s: %w", op, err)
	}
	return out, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		appt Appointment
		date time.Time
	)
	err := row.Scan(
		&appt.ID,
		&appt.DoctorID,
		&appt.PatientID,
		&appt.HospitalID,
		&appt.Type,
		&date,
		&appt.Clock,
		&appt.StartsAt,
		&appt.Status,
		&appt.PaymentStatus,
		&appt.PatientIssue,
		&appt.DiseaseName,
		&appt.CancelDate,
		&appt.TeleconsultationStatus,
		&appt.TeleconsultationLink,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	appt.Date = date.Format(schedule.DateLayout)
	return &appt, nil
}

func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_appointments_doctor_slot"
}
