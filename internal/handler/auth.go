package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"flash-sale-api/internal/middleware"
	"flash-sale-api/internal/model"
	"flash-sale-api/internal/service"
	"flash-sale-api/pkg/apierror"
	"flash-sale-api/pkg/response"
)

// AuthService is the surface of the auth service used by this handler.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, in service.LoginInput) (string, *model.User, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles account and session HTTP requests.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}

	user, err := h.auth.Register(r.Context(), in)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.Created(w, user)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}

	token, user, err := h.auth.Login(r.Context(), in)
	if err != nil {
		response.Error(w, mapServiceError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]interface{}{"status": "logged out"})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	data := middleware.GetTokenDataFromContext(r.Context())
	if data == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	response.OK(w, data)
}
