package handlers

import (
	"net/http"
	"strconv"

	"github.com/authbase/apiserver/internal/services"
	"github.com/authbase/apiserver/internal/store"
	"github.com/authbase/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// UserHandler provides admin user-management endpoints.
type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// UserRouter registers user routes on the given router. All routes require a
// bearer token; listing additionally requires the getUsers right.
func UserRouter(r chi.Router, users *services.UserService, tokens *services.TokenService) {
	handler := NewUserHandler(users)

	r.Use(RequireAuth(tokens, users))
	r.With(RequireRights("getUsers")).Get("/", handler.List)
}

// List returns a paginated page of public user representations. Supported
// query parameters: role, sortBy (field:asc|desc, comma-combined), limit, page.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := store.PageOptions{
		SortBy: query.Get("sortBy"),
		Limit:  queryInt(query.Get("limit")),
		Page:   queryInt(query.Get("page")),
	}
	filter := store.UserFilter{Role: query.Get("role")}

	page, err := h.users.List(r.Context(), filter, opts)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, store.Page[map[string]any]{
		Results:      types.PublicSlice(page.Results),
		Page:         page.Page,
		Limit:        page.Limit,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	})
}

// queryInt parses a query parameter, treating junk as unset so pagination
// falls back to its clamped defaults.
func queryInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
