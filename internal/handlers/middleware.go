package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/authbase/apiserver/internal/services"
	"github.com/authbase/apiserver/internal/store"
	"github.com/authbase/apiserver/types"
	"github.com/google/uuid"
)

type contextKey string

const contextUserKey contextKey = "user"

// UserFromContext returns the authenticated user injected by RequireAuth.
func UserFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok
}

// RequireAuth is the bearer verification strategy: it decodes the bearer
// token, rejects anything that is not a valid unexpired access token, and
// loads the subject user into the request context. Access tokens are
// stateless, so the token store is never consulted here.
func RequireAuth(tokens *services.TokenService, users *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Please authenticate")
				return
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil || claims.Type != types.TokenTypeAccess {
				writeError(w, http.StatusUnauthorized, "Please authenticate")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Please authenticate")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "Please authenticate")
					return
				}
				writeErr(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), contextUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRights gates a route on the authenticated user's role rights.
// Must run after RequireAuth.
func RequireRights(rights ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Please authenticate")
				return
			}
			for _, right := range rights {
				if !types.HasRight(user.Role, right) {
					writeError(w, http.StatusForbidden, "Forbidden")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
