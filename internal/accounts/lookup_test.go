package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestFindByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	lookup := newLookupWithQuerier(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, role, name, email, created_at FROM accounts").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "role", "name", "email", "created_at"}).
			AddRow(id, "doctor", "Dr. Rivera", "rivera@example.com", time.Now()))

	acc, err := lookup.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if acc.Role != RoleDoctor {
		t.Errorf("expected doctor role, got %s", acc.Role)
	}

	mock.ExpectQuery("SELECT id, role, name, email, created_at FROM accounts").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	if _, err := lookup.FindByID(context.Background(), id); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRoleExistenceChecks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	lookup := newLookupWithQuerier(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT 1 FROM accounts").
		WithArgs(id, RoleDoctor).
		WillReturnRows(pgxmock.NewRows([]string{"one"}).AddRow(1))
	exists, err := lookup.DoctorExists(context.Background(), id)
	if err != nil || !exists {
		t.Fatalf("expected doctor to exist, got exists=%v err=%v", exists, err)
	}

	mock.ExpectQuery("SELECT 1 FROM accounts").
		WithArgs(id, RolePatient).
		WillReturnError(pgx.ErrNoRows)
	exists, err = lookup.PatientExists(context.Background(), id)
	if err != nil || exists {
		t.Fatalf("expected patient to be absent, got exists=%v err=%v", exists, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleDoctor, RolePatient} {
		if !role.Valid() {
			t.Errorf("expected role %s to be valid", role)
		}
	}
	if Role("receptionist").Valid() {
		t.Error("unknown role must be invalid")
	}
}
