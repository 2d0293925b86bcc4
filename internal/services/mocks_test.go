package services

import (
	"context"
	"time"

	"github.com/authbase/apiserver/internal/store"
	"github.com/authbase/apiserver/types"
	"github.com/google/uuid"
)

// fakeUserRepo is an in-memory UserRepository. Setting forceDuplicate makes
// Create fail with ErrDuplicate regardless of contents, simulating a
// concurrent insert racing past the existence pre-check.
type fakeUserRepo struct {
	users          map[uuid.UUID]types.User
	forceDuplicate bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]types.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) EmailTaken(_ context.Context, email string, excludeID uuid.UUID) (bool, error) {
	for _, user := range r.users {
		if user.Email == email && user.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	if r.forceDuplicate {
		return types.User{}, store.ErrDuplicate
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, filter store.UserFilter, opts store.PageOptions) (store.Page[types.User], error) {
	var results []types.User
	for _, user := range r.users {
		if filter.Role == "" || user.Role == filter.Role {
			results = append(results, user)
		}
	}
	return pageOf(results, opts), nil
}

// fakeTokenRepo is an in-memory TokenRepository.
type fakeTokenRepo struct {
	tokens []types.Token
}

func (r *fakeTokenRepo) Create(_ context.Context, token types.Token) (types.Token, error) {
	token.ID = uuid.New()
	now := time.Now()
	token.CreatedAt = now
	token.UpdatedAt = now
	r.tokens = append(r.tokens, token)
	return token, nil
}

func (r *fakeTokenRepo) matches(token types.Token, filter store.TokenFilter) bool {
	if filter.Token != "" && token.Token != filter.Token {
		return false
	}
	if filter.Type != "" && token.Type != filter.Type {
		return false
	}
	if filter.UserID != uuid.Nil && token.UserID != filter.UserID {
		return false
	}
	if filter.Blacklisted != nil && token.Blacklisted != *filter.Blacklisted {
		return false
	}
	return true
}

func (r *fakeTokenRepo) FindOne(_ context.Context, filter store.TokenFilter) (types.Token, error) {
	for _, token := range r.tokens {
		if r.matches(token, filter) {
			return token, nil
		}
	}
	return types.Token{}, store.ErrNotFound
}

func (r *fakeTokenRepo) Blacklist(_ context.Context, tokenString string) error {
	for i := range r.tokens {
		if r.tokens[i].Token == tokenString {
			r.tokens[i].Blacklisted = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *fakeTokenRepo) DeleteByUserAndType(_ context.Context, userID uuid.UUID, tokenType string) error {
	kept := r.tokens[:0]
	for _, token := range r.tokens {
		if token.UserID != userID || token.Type != tokenType {
			kept = append(kept, token)
		}
	}
	r.tokens = kept
	return nil
}

func (r *fakeTokenRepo) List(_ context.Context, filter store.TokenFilter, opts store.PageOptions) (store.Page[types.Token], error) {
	var results []types.Token
	for _, token := range r.tokens {
		if r.matches(token, filter) {
			results = append(results, token)
		}
	}
	return pageOf(results, opts), nil
}

// pageOf mimics the store's pagination over an in-memory slice.
func pageOf[T any](all []T, opts store.PageOptions) store.Page[T] {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	end := start + limit
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	results := all[start:end]
	if results == nil {
		results = []T{}
	}
	return store.Page[T]{
		Results:      results,
		Page:         page,
		Limit:        limit,
		TotalPages:   (len(all) + limit - 1) / limit,
		TotalResults: len(all),
	}
}
