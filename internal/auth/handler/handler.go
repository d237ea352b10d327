// Package handler wires the public authentication endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authservice "rollcall/internal/auth/service"
	identityhandler "rollcall/internal/identity/handler"
	"rollcall/internal/identity/models"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/requestcontext"
)

// Service defines the authentication operations the handler exposes.
type Service interface {
	Register(ctx context.Context, input models.CreateInput) (*models.Identity, error)
	Login(ctx context.Context, input authservice.LoginInput) (*authservice.LoginResult, error)
}

// Handler serves /auth endpoints. Both are public: no bearer token, no role
// check.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an auth handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the auth endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
}

// HandleRegister handles POST /auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	institutionID, err := req.ParsedInstitutionID()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	identity, err := h.service.Register(ctx, models.CreateInput{
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		Role:          models.RoleAdmin,
		Identifier:    req.AdminID,
		InstitutionID: institutionID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, identityhandler.ToResponse(identity))
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[LoginRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(ctx, authservice.LoginInput{
		Email:      req.Email,
		AdminID:    req.AdminID,
		StudentID:  req.StudentID,
		EmployeeID: req.EmployeeID,
		Password:   req.Password,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"accessToken": result.AccessToken})
}
