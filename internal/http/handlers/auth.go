package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hongminglow/finanzas-be/internal/auth"
	"github.com/hongminglow/finanzas-be/internal/http/respond"
	"github.com/hongminglow/finanzas-be/internal/models/dto"
)

// AuthHandler exposes the authentication engine over JSON.
type AuthHandler struct {
	svc    *auth.Service
	tokens *auth.TokenManager
	log    *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc *auth.Service, tokens *auth.TokenManager, log *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens, log: log}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/logout", h.handleLogout)
	mux.HandleFunc("/me", h.handleMe)
	mux.HandleFunc("/password/reset-request", h.handleResetRequest)
	mux.HandleFunc("/password/reset", h.handleReset)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	msg, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, msg, nil)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		h.log.ErrorContext(r.Context(), "generate token", "user_id", user.ID, "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.svc.Logout(r.Context()); err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, sess, ok, err := h.svc.CurrentSessionUser(r.Context())
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	if !ok {
		respond.Error(w, http.StatusNotFound, "no active session")
		return
	}
	respond.JSON(w, http.StatusOK, "current session", dto.MeResponse{User: user, Session: sess})
}

func (h *AuthHandler) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.ResetRequest
	if !decode(w, r, &req) {
		return
	}
	msg, err := h.svc.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, msg, nil)
}

func (h *AuthHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	msg, err := h.svc.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, msg, nil)
}

// respondAuthError maps engine failures to status codes by kind. Anything
// that is not an *auth.Error is an infrastructure failure.
func (h *AuthHandler) respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	kind := auth.KindOf(err)
	switch kind {
	case auth.KindValidation:
		respond.KindError(w, http.StatusBadRequest, kind.String(), err.Error())
	case auth.KindAuthorization:
		respond.KindError(w, http.StatusUnauthorized, kind.String(), err.Error())
	case auth.KindNotFound:
		respond.KindError(w, http.StatusNotFound, kind.String(), err.Error())
	default:
		h.log.ErrorContext(r.Context(), "auth request failed", "path", r.URL.Path, "err", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}
