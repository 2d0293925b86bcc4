package handlers

import (
	"context"
	"time"

	"github.com/authbase/apiserver/internal/store"
	"github.com/authbase/apiserver/types"
	"github.com/google/uuid"
)

type memUserRepo struct {
	users map[uuid.UUID]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]types.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) EmailTaken(_ context.Context, email string, excludeID uuid.UUID) (bool, error) {
	for _, user := range r.users {
		if user.Email == email && user.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
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

func (r *memUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) List(_ context.Context, filter store.UserFilter, opts store.PageOptions) (store.Page[types.User], error) {
	var results []types.User
	for _, user := range r.users {
		if filter.Role == "" || user.Role == filter.Role {
			results = append(results, user)
		}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	total := len(results)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return store.Page[types.User]{
		Results:      results[start:end],
		Page:         page,
		Limit:        limit,
		TotalPages:   (total + limit - 1) / limit,
		TotalResults: total,
	}, nil
}

type memTokenRepo struct {
	tokens []types.Token
}

func (r *memTokenRepo) match(token types.Token, filter store.TokenFilter) bool {
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

func (r *memTokenRepo) Create(_ context.Context, token types.Token) (types.Token, error) {
	token.ID = uuid.New()
	r.tokens = append(r.tokens, token)
	return token, nil
}

func (r *memTokenRepo) FindOne(_ context.Context, filter store.TokenFilter) (types.Token, error) {
	for _, token := range r.tokens {
		if r.match(token, filter) {
			return token, nil
		}
	}
	return types.Token{}, store.ErrNotFound
}

func (r *memTokenRepo) Blacklist(_ context.Context, tokenString string) error {
	for i := range r.tokens {
		if r.tokens[i].Token == tokenString {
			r.tokens[i].Blacklisted = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *memTokenRepo) DeleteByUserAndType(_ context.Context, userID uuid.UUID, tokenType string) error {
	kept := r.tokens[:0]
	for _, token := range r.tokens {
		if token.UserID != userID || token.Type != tokenType {
			kept = append(kept, token)
		}
	}
	r.tokens = kept
	return nil
}

func (r *memTokenRepo) List(_ context.Context, filter store.TokenFilter, opts store.PageOptions) (store.Page[types.Token], error) {
	var results []types.Token
	for _, token := range r.tokens {
		if r.match(token, filter) {
			results = append(results, token)
		}
	}
	return store.Page[types.Token]{Results: results, Page: 1, Limit: 10, TotalPages: 1, TotalResults: len(results)}, nil
}
