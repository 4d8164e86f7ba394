package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Lookup resolves accounts of any role through one table instead of the
// sequential per-role fallback queries the platform used to run at login.
type Lookup struct {
	db querier
}

// NewLookup creates a lookup backed by pgx pool.
func NewLookup(pool *pgxpool.Pool) *Lookup {
	if pool == nil {
		panic("accounts: pgx pool required")
	}
	return &Lookup{db: pool}
}

func newLookupWithQuerier(db querier) *Lookup {
	return &Lookup{db: db}
}

// FindByID returns the account with the given id, whatever its role.
func (l *Lookup) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `SELECT id, role, name, email, created_at FROM accounts WHERE id = $1`
	var acc Account
	if err := l.db.QueryRow(ctx, query, id).Scan(&acc.ID, &acc.Role, &acc.Name, &acc.Email, &acc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("accounts: select by id: %w", err)
	}
	return &acc, nil
}

// FindByEmail returns the account with the given email, whatever its role.
func (l *Lookup) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT id, role, name, email, created_at FROM accounts WHERE email = $1`
	var acc Account
	if err := l.db.QueryRow(ctx, query, email).Scan(&acc.ID, &acc.Role, &acc.Name, &acc.Email, &acc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("accounts: select by email: %w", err)
	}
	return &acc, nil
}

// DoctorExists reports whether a doctor account with the id exists.
func (l *Lookup) DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	return l.roleExists(ctx, doctorID, RoleDoctor)
}

// PatientExists reports whether a patient account with the id exists.
func (l *Lookup) PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return l.roleExists(ctx, patientID, RolePatient)
}

// HospitalExists reports whether the hospital id is known.
func (l *Lookup) HospitalExists(ctx context.Context, hospitalID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM hospitals WHERE id = $1`
	var one int
	if err := l.db.QueryRow(ctx, query, hospitalID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("accounts: check hospital: %w", err)
	}
	return true, nil
}

func (l *Lookup) roleExists(ctx context.Context, id uuid.UUID, role Role) (bool, error) {
	query := `SELECT 1 FROM accounts WHERE id = $1 AND role = $2`
	var one int
	if err := l.db.QueryRow(ctx, query, id, role).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("accounts: check %s: %w", role, err)
	}
	return true, nil
}
