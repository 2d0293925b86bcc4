package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/authbase/apiserver/internal/services"
	"github.com/authbase/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// AuthHandler provides registration and authenticated-identity endpoints.
type AuthHandler struct {
	users  *services.UserService
	tokens *services.TokenService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, users *services.UserService, tokens *services.TokenService, limiter *RateLimiter) {
	handler := NewAuthHandler(users, tokens)

	r.With(limiter.Limit).Post("/register", handler.Register)
	r.With(RequireAuth(tokens, users)).Get("/me", handler.Me)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User   map[string]any   `json:"user"`
	Tokens types.AuthTokens `json:"tokens"`
}

// Register creates a new user account and returns its public representation
// together with a freshly minted access/refresh pair.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Create(r.Context(), services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}

	authTokens, err := h.tokens.GenerateAuthTokens(r.Context(), user)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		User:   types.Public(user),
		Tokens: authTokens,
	})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please authenticate")
		return
	}
	writeJSON(w, http.StatusOK, types.Public(user))
}
