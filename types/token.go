package types

import (
	"time"

	"github.com/google/uuid"
)

// Token type tags carried in JWT claims and persisted token rows.
const (
	TokenTypeAccess        = "access"
	TokenTypeRefresh       = "refresh"
	TokenTypeResetPassword = "resetPassword"
	TokenTypeVerifyEmail   = "verifyEmail"
)

// Token is a persisted credential record. Access tokens are stateless and
// never stored; everything else lands here so it can be revoked individually.
type Token struct {
	ID uuid.UUID `json:"id" db:"id"`

	// Token is the signed string value, indexed for lookup.
	Token string `json:"token" db:"token"`

	// UserID references the owning user.
	UserID uuid.UUID `json:"user" db:"user_id"`

	// Type is one of refresh, resetPassword, verifyEmail.
	Type string `json:"type" db:"type"`

	// Expires is the absolute expiry timestamp.
	Expires time.Time `json:"expires" db:"expires"`

	// Blacklisted soft-revokes the token without deleting its record.
	Blacklisted bool `json:"blacklisted" db:"blacklisted"`

	CreatedAt time.Time `json:"created_at" db:"created_at" private:"true"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" private:"true"`

	// User is the expanded owner row when the lookup requested population.
	User *User `json:"-" db:"-" private:"true"`
}

// TokenInfo pairs a signed token string with its expiry for API responses.
type TokenInfo struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// AuthTokens is the access/refresh pair minted for a user.
type AuthTokens struct {
	Access  TokenInfo `json:"access"`
	Refresh TokenInfo `json:"refresh"`
}
