package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/finanzas-be/internal/auth"
	"github.com/hongminglow/finanzas-be/internal/http/respond"
	"github.com/hongminglow/finanzas-be/internal/middleware"
	"github.com/hongminglow/finanzas-be/internal/models"
	"github.com/hongminglow/finanzas-be/internal/models/dto"
	"github.com/hongminglow/finanzas-be/internal/storage"
)

// RolesHandler serves the role catalog and token-based permission checks.
type RolesHandler struct {
	users  storage.UserStore
	tokens *auth.TokenManager
	log    *slog.Logger
}

func NewRolesHandler(users storage.UserStore, tokens *auth.TokenManager, log *slog.Logger) *RolesHandler {
	return &RolesHandler{users: users, tokens: tokens, log: log}
}

// Register attaches catalog, authorize and admin routes to the mux.
func (h *RolesHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/roles", h.handleRoles)
	mux.Handle("/authorize", middleware.RequireAuth(h.tokens, http.HandlerFunc(h.handleAuthorize)))
	mux.Handle("/admin/users", middleware.RequirePermission(h.tokens, models.ManageUsers, http.HandlerFunc(h.handleFindUser)))
}

func (h *RolesHandler) handleRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	roles := models.Roles()
	out := make([]models.RoleInfo, 0, len(roles))
	for _, role := range roles {
		out = append(out, role.Info())
	}
	respond.JSON(w, http.StatusOK, "roles", out)
}

func (h *RolesHandler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	perm, ok := models.ParsePermission(r.URL.Query().Get("permission"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, "unknown permission")
		return
	}
	claims, _ := middleware.ClaimsFrom(r.Context())
	respond.JSON(w, http.StatusOK, "authorization checked", dto.AuthorizeResponse{
		Role:       claims.Role,
		Permission: perm,
		Allowed:    models.HasPermission(claims.Role, perm),
	})
}

func (h *RolesHandler) handleFindUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		respond.Error(w, http.StatusBadRequest, "email is required")
		return
	}
	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.ErrorContext(r.Context(), "find user", "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	respond.JSON(w, http.StatusOK, "user", user)
}
