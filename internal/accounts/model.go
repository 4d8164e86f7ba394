// Package accounts provides the unified account lookup shared by the
// admin, doctor, and patient roles, plus the OTP store used by the auth
// collaborator.
package accounts

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the three account variants held in one table.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

var (
	// ErrAccountNotFound is returned when no account matches the lookup.
	ErrAccountNotFound = errors.New("accounts: account not found")
)

// Account is a platform user of any role. Profile data beyond what the
// scheduling core needs lives with external collaborators.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
