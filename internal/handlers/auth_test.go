package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/authbase/apiserver/internal/services"
	"github.com/authbase/apiserver/types"
	"github.com/go-chi/chi/v5"
)

type testEnv struct {
	router   *chi.Mux
	userRepo *memUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	userRepo := newMemUserRepo()
	tokenRepo := &memTokenRepo{}
	userService := services.NewUserService(userRepo)
	tokenService := services.NewTokenService(tokenRepo, "test-secret", 30*time.Minute, 30*24*time.Hour)
	limiter := NewRateLimiter(nil, "ratelimit:test", 20, 15*time.Minute)

	router := chi.NewRouter()
	router.NotFound(NotFound)
	router.Route("/v1", func(r chi.Router) {
		AuthRouter(r, userService, tokenService, limiter)
		r.Route("/users", func(r chi.Router) {
			UserRouter(r, userService, tokenService)
		})
	})

	return &testEnv{router: router, userRepo: userRepo}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) register(t *testing.T, name, email, password string) RegisterResponse {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/v1/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp RegisterResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	resp := env.register(t, "Ada", "Ada@Example.com", "abc12345")

	if resp.User["email"] != "ada@example.com" {
		t.Fatalf("expected normalized email, got %v", resp.User["email"])
	}
	if resp.User["id"] == nil || resp.User["id"] == "" {
		t.Fatal("expected public id")
	}
	for _, key := range []string{"password", "PasswordHash", "created_at", "updated_at"} {
		if _, ok := resp.User[key]; ok {
			t.Fatalf("field %q must not be in the response", key)
		}
	}
	if resp.Tokens.Access.Token == "" || resp.Tokens.Refresh.Token == "" {
		t.Fatal("expected access and refresh tokens")
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "a@b.com", "password": "abc12345"}},
		{"bad email", map[string]string{"name": "a", "email": "nope", "password": "abc12345"}},
		{"password without digit", map[string]string{"name": "a", "email": "a@b.com", "password": "abcdefgh"}},
		{"password without letter", map[string]string{"name": "a", "email": "a@b.com", "password": "12345678"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/v1/register", "", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != http.StatusBadRequest || errResp.Message == "" {
				t.Fatalf("unexpected error envelope: %+v", errResp)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "a", "a@b.com", "abc12345")

	rec := env.do(t, http.MethodPost, "/v1/register", "", map[string]string{
		"name": "b", "email": "A@B.com", "password": "abc12345",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Message != "Email already taken" {
		t.Fatalf("unexpected message: %q", errResp.Message)
	}
}

func TestBearerStrategy(t *testing.T) {
	env := newTestEnv(t)

	resp := env.register(t, "Ada", "ada@example.com", "abc12345")

	// a fresh access token resolves to the originating user
	rec := env.do(t, http.MethodGet, "/v1/me", resp.Tokens.Access.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", rec.Code, rec.Body.String())
	}
	var me map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me["id"] != resp.User["id"] {
		t.Fatalf("me resolved to %v, want %v", me["id"], resp.User["id"])
	}

	// a refresh token is not an access token
	rec = env.do(t, http.MethodGet, "/v1/me", resp.Tokens.Refresh.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh-as-bearer status = %d, want 401", rec.Code)
	}

	// garbage and missing tokens are unauthenticated
	rec = env.do(t, http.MethodGet, "/v1/me", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/v1/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want 401", rec.Code)
	}
}

func TestBearerStrategyDeletedUser(t *testing.T) {
	env := newTestEnv(t)

	resp := env.register(t, "Ada", "ada@example.com", "abc12345")
	for id := range env.userRepo.users {
		delete(env.userRepo.users, id)
	}

	rec := env.do(t, http.MethodGet, "/v1/me", resp.Tokens.Access.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for missing subject user", rec.Code)
	}
}

func TestListUsersRequiresRights(t *testing.T) {
	env := newTestEnv(t)

	resp := env.register(t, "Ada", "ada@example.com", "abc12345")

	rec := env.do(t, http.MethodGet, "/v1/users/", resp.Tokens.Access.Token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for plain user", rec.Code)
	}

	// promote and retry
	for id, user := range env.userRepo.users {
		user.Role = types.RoleAdmin
		env.userRepo.users[id] = user
	}
	rec = env.do(t, http.MethodGet, "/v1/users/", resp.Tokens.Access.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var page struct {
		Results      []map[string]any `json:"results"`
		Page         int              `json:"page"`
		Limit        int              `json:"limit"`
		TotalPages   int              `json:"totalPages"`
		TotalResults int              `json:"totalResults"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalResults != 1 || len(page.Results) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if _, ok := page.Results[0]["password"]; ok {
		t.Fatal("listing must not expose password fields")
	}
}

func TestNotFoundCatchAll(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/does-not-exist", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != http.StatusNotFound || errResp.Message != "Not found" {
		t.Fatalf("unexpected envelope: %+v", errResp)
	}
}
