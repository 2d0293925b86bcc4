package services

import (
	"context"
	"errors"
	"time"

	"github.com/authbase/apiserver/internal/apperr"
	"github.com/authbase/apiserver/internal/store"
	"github.com/authbase/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenRepository defines persistence operations for issued tokens.
type TokenRepository interface {
	Create(ctx context.Context, token types.Token) (types.Token, error)
	FindOne(ctx context.Context, filter store.TokenFilter) (types.Token, error)
	Blacklist(ctx context.Context, tokenString string) error
	DeleteByUserAndType(ctx context.Context, userID uuid.UUID, tokenType string) error
	List(ctx context.Context, filter store.TokenFilter, opts store.PageOptions) (store.Page[types.Token], error)
}

// TokenClaims is the JWT payload: registered claims plus the token type tag.
// The payload is signed, not encrypted; nothing confidential goes in it.
type TokenClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies signed tokens and manages their records.
type TokenService struct {
	repo       TokenRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(repo TokenRepository, secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		repo:       repo,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// GenerateToken signs a credential carrying the subject user, issued-at,
// expiry, and a type tag.
func (s *TokenService) GenerateToken(userID uuid.UUID, expires time.Time, tokenType string) (string, error) {
	claims := TokenClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// SaveToken persists an issued token so it can be looked up and revoked.
func (s *TokenService) SaveToken(ctx context.Context, tokenString string, userID uuid.UUID, expires time.Time, tokenType string, blacklisted bool) (types.Token, error) {
	return s.repo.Create(ctx, types.Token{
		Token:       tokenString,
		UserID:      userID,
		Type:        tokenType,
		Expires:     expires,
		Blacklisted: blacklisted,
	})
}

// Parse verifies the signature and expiry of a token string and returns its
// claims. It does not consult the token store.
func (s *TokenService) Parse(tokenString string) (TokenClaims, error) {
	var claims TokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return TokenClaims{}, apperr.Unauthorized("Invalid or expired token")
	}
	return claims, nil
}

// VerifyToken checks signature and expiry, then requires a matching
// non-blacklisted record owned by the token's subject.
func (s *TokenService) VerifyToken(ctx context.Context, tokenString, tokenType string) (types.Token, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return types.Token{}, err
	}
	if claims.Type != tokenType {
		return types.Token{}, apperr.Unauthorized("Invalid token type")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return types.Token{}, apperr.Unauthorized("Invalid token subject")
	}

	notBlacklisted := false
	record, err := s.repo.FindOne(ctx, store.TokenFilter{
		Token:       tokenString,
		Type:        tokenType,
		UserID:      userID,
		Blacklisted: &notBlacklisted,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Token{}, apperr.Unauthorized("Token not found")
		}
		return types.Token{}, err
	}
	return record, nil
}

// GenerateAuthTokens mints the access/refresh pair for a user. The access
// token is stateless; only the refresh token is persisted so it can be
// individually revoked.
func (s *TokenService) GenerateAuthTokens(ctx context.Context, user types.User) (types.AuthTokens, error) {
	now := s.now()

	accessExpires := now.Add(s.accessTTL)
	accessToken, err := s.GenerateToken(user.ID, accessExpires, types.TokenTypeAccess)
	if err != nil {
		return types.AuthTokens{}, err
	}

	refreshExpires := now.Add(s.refreshTTL)
	refreshToken, err := s.GenerateToken(user.ID, refreshExpires, types.TokenTypeRefresh)
	if err != nil {
		return types.AuthTokens{}, err
	}
	if _, err := s.SaveToken(ctx, refreshToken, user.ID, refreshExpires, types.TokenTypeRefresh, false); err != nil {
		return types.AuthTokens{}, err
	}

	return types.AuthTokens{
		Access:  types.TokenInfo{Token: accessToken, Expires: accessExpires},
		Refresh: types.TokenInfo{Token: refreshToken, Expires: refreshExpires},
	}, nil
}

// Blacklist soft-revokes a persisted token.
func (s *TokenService) Blacklist(ctx context.Context, tokenString string) error {
	return s.repo.Blacklist(ctx, tokenString)
}

// List returns one page of persisted tokens.
func (s *TokenService) List(ctx context.Context, filter store.TokenFilter, opts store.PageOptions) (store.Page[types.Token], error) {
	return s.repo.List(ctx, filter, opts)
}
