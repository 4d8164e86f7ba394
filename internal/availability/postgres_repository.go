package availability

import (
	"context"
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

// PostgresRepository stores unavailability windows in the relational database.
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add inserts a new window row.
func (r *PostgresRepository) Add(ctx context.Context, window *Window) error {
	query := `
		INSERT INTO unavailability_windows (id, doctor_id, window_date, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query,
		window.ID,
		window.DoctorID,
		window.Date,
		window.Start,
		window.End,
	).Scan(&window.CreatedAt); err != nil {
		return fmt.Errorf("availability: insert window: %w", err)
	}
	return nil
}

// ListForDate returns the doctor's windows declared for the given date,
// oldest first.
func (r *PostgresRepository) ListForDate(ctx context.Context, doctorID uuid.UUID, date string) ([]Window, error) {
	query := `
		SELECT id, doctor_id, window_date, start_time, end_time, created_at
		FROM unavailability_windows
		WHERE doctor_id = $1 AND window_date = $2
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("availability: list windows for date: %w", err)
	}
	defer rows.Close()
	return scanWindows(rows)
}

// ListForDoctor returns all of the doctor's windows, oldest first.
func (r *PostgresRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]Window, error) {
	query := `
		SELECT id, doctor_id, window_date, start_time, end_time, created_at
		FROM unavailability_windows
		WHERE doctor_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("availability: list windows: %w", err)
	}
	defer rows.Close()
	return scanWindows(rows)
}

// Remove deletes a window by id, scoped to the doctor.
func (r *PostgresRepository) Remove(ctx context.Context, doctorID, windowID uuid.UUID) error {
	query := `DELETE FROM unavailability_windows WHERE id = $1 AND doctor_id = $2`
	ct, err := r.db.Exec(ctx, query, windowID, doctorID)
	if err != nil {
		return fmt.Errorf("availability: delete window: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func scanWindows(rows pgx.Rows) ([]Window, error) {
	var out []Window
	for rows.Next() {
		var (
			w    Window
			date time.Time
		)
		if err := rows.Scan(&w.ID, &w.DoctorID, &date, &w.Start, &w.End, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("availability: scan window: %w", err)
		}
		w.Date = date.Format(schedule.DateLayout)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability: iterate windows: %w", err)
	}
	return out, nil
}
