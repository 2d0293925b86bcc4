package types

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID uuid.UUID `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address, stored lowercase and unique.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the
	// system (e.g., "admin", "user").
	Role string `json:"role" db:"role"`

	// IsEmailVerified reports whether the address has been confirmed.
	IsEmailVerified bool `json:"isEmailVerified" db:"is_email_verified"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash" private:"true"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at" private:"true"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" private:"true"`
}
