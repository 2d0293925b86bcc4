package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode"

	"github.com/authbase/apiserver/internal/apperr"
	"github.com/authbase/apiserver/internal/password"
	"github.com/authbase/apiserver/internal/store"
	"github.com/authbase/apiserver/types"
	"github.com/google/uuid"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter store.UserFilter, opts store.PageOptions) (store.Page[types.User], error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// CreateUserInput is the untrusted registration payload.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// ErrEmailTaken is the conflict surfaced when the normalized email is already
// registered, whether caught by the pre-check or by the database constraint.
var ErrEmailTaken = apperr.BadRequest("Email already taken")

// Create registers a new user: trims and validates the input, rejects taken
// emails, and stores the password only as a bcrypt hash.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (types.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = NormalizeEmail(input.Email)
	input.Password = strings.TrimSpace(input.Password)

	if input.Name == "" {
		return types.User{}, apperr.BadRequest("Name is required")
	}
	if err := ValidateEmail(input.Email); err != nil {
		return types.User{}, err
	}
	if err := ValidatePassword(input.Password); err != nil {
		return types.User{}, err
	}
	role := input.Role
	if role == "" {
		role = types.RoleUser
	}
	if !types.ValidRole(role) {
		return types.User{}, apperr.BadRequest("Invalid role")
	}

	taken, err := s.repo.EmailTaken(ctx, input.Email, uuid.Nil)
	if err != nil {
		return types.User{}, err
	}
	if taken {
		return types.User{}, ErrEmailTaken
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		Name:         input.Name,
		Email:        input.Email,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		// The unique index is the final arbiter for duplicate registrations
		// racing past the pre-check.
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, err
	}
	return user, nil
}

// IsPasswordMatch reports whether the candidate password matches the user's
// stored hash.
func (s *UserService) IsPasswordMatch(user types.User, candidate string) bool {
	return password.Matches(candidate, user.PasswordHash)
}

// UpdateUserInput carries optional field changes; empty fields are unchanged.
type UpdateUserInput struct {
	Name     string
	Email    string
	Password string
}

// Update applies the provided changes. The password is re-hashed only when a
// new one is supplied.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("User not found")
		}
		return types.User{}, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}
	if email := NormalizeEmail(input.Email); email != "" && email != user.Email {
		if err := ValidateEmail(email); err != nil {
			return types.User{}, err
		}
		taken, err := s.repo.EmailTaken(ctx, email, id)
		if err != nil {
			return types.User{}, err
		}
		if taken {
			return types.User{}, ErrEmailTaken
		}
		user.Email = email
	}
	if candidate := strings.TrimSpace(input.Password); candidate != "" {
		if err := ValidatePassword(candidate); err != nil {
			return types.User{}, err
		}
		hash, err := password.Hash(candidate)
		if err != nil {
			return types.User{}, err
		}
		user.PasswordHash = hash
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, err
	}
	return updated, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// Delete removes the account. The user's tokens go with it via the
// ON DELETE CASCADE on the tokens table.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *UserService) List(ctx context.Context, filter store.UserFilter, opts store.PageOptions) (store.Page[types.User], error) {
	return s.repo.List(ctx, filter, opts)
}

// NormalizeEmail lowercases and trims incidental whitespace.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail rejects syntactically invalid addresses.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.BadRequest("Invalid email")
	}
	return nil
}

// ValidatePassword enforces minimum length 8 with at least one letter and one
// digit.
func ValidatePassword(candidate string) error {
	if len(candidate) < 8 {
		return apperr.BadRequest("Password must be at least 8 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range candidate {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperr.BadRequest("Password must contain at least one letter and one number")
	}
	return nil
}
