package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/authbase/apiserver/types"
	"github.com/google/uuid"
)

// TokenRepository handles persistence for issued tokens.
type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

const tokenColumns = "id, token, user_id, type, expires, blacklisted, created_at, updated_at"

var tokenSortColumns = map[string]string{
	"type":      "tokens.type",
	"expires":   "tokens.expires",
	"createdAt": "tokens.created_at",
}

// TokenFilter selects token rows by exact match on its non-zero fields.
type TokenFilter struct {
	Token       string
	Type        string
	UserID      uuid.UUID
	Blacklisted *bool
}

func (f TokenFilter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.Token != "" {
		args = append(args, f.Token)
		clauses = append(clauses, fmt.Sprintf("tokens.token = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		clauses = append(clauses, fmt.Sprintf("tokens.type = $%d", len(args)))
	}
	if f.UserID != uuid.Nil {
		args = append(args, f.UserID)
		clauses = append(clauses, fmt.Sprintf("tokens.user_id = $%d", len(args)))
	}
	if f.Blacklisted != nil {
		args = append(args, *f.Blacklisted)
		clauses = append(clauses, fmt.Sprintf("tokens.blacklisted = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanToken(row interface{ Scan(...any) error }) (types.Token, error) {
	var token types.Token
	err := row.Scan(
		&token.ID,
		&token.Token,
		&token.UserID,
		&token.Type,
		&token.Expires,
		&token.Blacklisted,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Token{}, ErrNotFound
		}
		return types.Token{}, err
	}
	return token, nil
}

func (r *TokenRepository) Create(ctx context.Context, token types.Token) (types.Token, error) {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	now := time.Now()
	token.CreatedAt = now
	token.UpdatedAt = now

	const query = `
		INSERT INTO tokens (id, token, user_id, type, expires, blacklisted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		token.ID,
		token.Token,
		token.UserID,
		token.Type,
		token.Expires,
		token.Blacklisted,
		token.CreatedAt,
		token.UpdatedAt,
	)
	if err != nil {
		return types.Token{}, err
	}
	return token, nil
}

// FindOne returns the first token matching the filter in creation order.
func (r *TokenRepository) FindOne(ctx context.Context, filter TokenFilter) (types.Token, error) {
	where, args := filter.where()
	query := fmt.Sprintf(`SELECT %s FROM tokens%s ORDER BY created_at LIMIT 1`, tokenColumns, where)
	return scanToken(r.db.QueryRowContext(ctx, query, args...))
}

// Blacklist soft-revokes a token by its signed string value.
func (r *TokenRepository) Blacklist(ctx context.Context, tokenString string) error {
	const query = `UPDATE tokens SET blacklisted = TRUE, updated_at = $1 WHERE token = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), tokenString)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUserAndType removes all of a user's tokens of the given type,
// e.g. after a reset or verification token is consumed.
func (r *TokenRepository) DeleteByUserAndType(ctx context.Context, userID uuid.UUID, tokenType string) error {
	const query = `DELETE FROM tokens WHERE user_id = $1 AND type = $2`
	_, err := r.db.ExecContext(ctx, query, userID, tokenType)
	return err
}

// List returns one page of tokens matching the filter. Populate "user"
// expands the owning user row on each result.
func (r *TokenRepository) List(ctx context.Context, filter TokenFilter, opts PageOptions) (Page[types.Token], error) {
	where, args := filter.where()

	var total int
	countQuery := `SELECT COUNT(*) FROM tokens` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return Page[types.Token]{}, err
	}

	populateUser := false
	for _, path := range strings.Split(opts.Populate, ",") {
		if strings.TrimSpace(path) == "user" {
			populateUser = true
		}
	}

	columns := qualify("tokens", tokenColumns)
	from := "tokens"
	if populateUser {
		columns += ", " + qualify("users", userColumns)
		from = "tokens JOIN users ON users.id = tokens.user_id"
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s%s ORDER BY %s LIMIT %d OFFSET %d`,
		columns,
		from,
		where,
		opts.orderBy(tokenSortColumns, "tokens.created_at ASC"),
		opts.limit(),
		opts.offset(),
	)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page[types.Token]{}, err
	}
	defer rows.Close()

	var tokens []types.Token
	for rows.Next() {
		var token types.Token
		if populateUser {
			var user types.User
			err = rows.Scan(
				&token.ID,
				&token.Token,
				&token.UserID,
				&token.Type,
				&token.Expires,
				&token.Blacklisted,
				&token.CreatedAt,
				&token.UpdatedAt,
				&user.ID,
				&user.Name,
				&user.Email,
				&user.Role,
				&user.IsEmailVerified,
				&user.PasswordHash,
				&user.CreatedAt,
				&user.UpdatedAt,
			)
			token.User = &user
		} else {
			token, err = scanToken(rows)
		}
		if err != nil {
			return Page[types.Token]{}, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return Page[types.Token]{}, err
	}
	return newPage(tokens, total, opts), nil
}
