// Package handler exposes the identity lifecycle over HTTP. Every route
// here sits behind bearer authentication; the handler enforces the
// required-role set per operation before delegating to the service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/identity/models"
	"rollcall/internal/rbac"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
	"rollcall/pkg/requestcontext"
)

var (
	adminOnly   = []models.Role{models.RoleAdmin}
	allRoles    = []models.Role{models.RoleAdmin, models.RoleEmployee, models.RoleStudent}
	biometricOK = []models.Role{models.RoleEmployee, models.RoleStudent}
)

// Service defines the lifecycle operations the handler exposes.
type Service interface {
	Create(ctx context.Context, input models.CreateInput, selfRegistered bool) (*models.Identity, error)
	BulkCreate(ctx context.Context, inputs []models.CreateInput) ([]*models.Identity, error)
	GetByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error)
	List(ctx context.Context) ([]*models.Identity, error)
	Update(ctx context.Context, identityID id.IdentityID, patch models.UpdatePatch) (*models.Identity, error)
	Delete(ctx context.Context, identityID id.IdentityID) error
	RegisterBiometric(ctx context.Context, identityID id.IdentityID, input models.BiometricInput) (*models.Identity, error)
	UpdatePassword(ctx context.Context, identityID id.IdentityID, newPassword string) error
}

// Handler serves /identities endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an identity handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identities", h.HandleCreate)
	r.Post("/identities/bulk", h.HandleBulkCreate)
	r.Get("/identities", h.HandleList)
	r.Get("/identities/{id}", h.HandleGet)
	r.Patch("/identities/{id}", h.HandleUpdate)
	r.Delete("/identities/{id}", h.HandleDelete)
	r.Post("/identities/{id}/biometrics", h.HandleRegisterBiometric)
	r.Post("/identities/{id}/password", h.HandleUpdatePassword)
}

// HandleCreate handles POST /identities.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authorize(w, ctx, adminOnly) {
		return
	}

	req, ok := httputil.DecodeJSON[CreateRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	input, err := req.ToInput()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	identity, err := h.service.Create(ctx, input, false)
	if err != nil {
		h.logger.WarnContext(ctx, "identity provisioning failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, ToResponse(identity))
}

// BulkCreateResponse reports the outcome of a batch provisioning call. On
// partial failure Created holds the entries persisted before the batch
// stopped and Error describes why it stopped.
type BulkCreateResponse struct {
	Created []IdentityResponse `json:"created"`
	Error   string             `json:"error,omitempty"`
}

// HandleBulkCreate handles POST /identities/bulk. The batch is not atomic:
// a mid-batch failure returns the failure status with the already-persisted
// entries in the body.
func (h *Handler) HandleBulkCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authorize(w, ctx, adminOnly) {
		return
	}

	req, ok := httputil.DecodeJSON[BulkCreateRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	inputs := make([]models.CreateInput, 0, len(req.Identities))
	for i := range req.Identities {
		input, err := req.Identities[i].ToInput()
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		inputs = append(inputs, input)
	}

	created, err := h.service.BulkCreate(ctx, inputs)
	if err != nil {
		h.logger.WarnContext(ctx, "bulk provisioning stopped",
			"request_id", requestcontext.RequestID(ctx),
			"persisted", len(created),
			"error", err,
		)
		httputil.WriteErrorWith(w, err, BulkCreateResponse{
			Created: ToResponseList(created),
			Error:   dErrors.MessageOf(err),
		})
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, BulkCreateResponse{Created: ToResponseList(created)})
}

// HandleList handles GET /identities.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authorize(w, ctx, adminOnly) {
		return
	}

	identities, err := h.service.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ToResponseList(identities))
}

// HandleGet handles GET /identities/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authorize(w, ctx, allRoles) {
		return
	}
	identityID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	identity, err := h.service.GetByID(ctx, identityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ToResponse(identity))
}

// HandleUpdate handles PATCH /identities/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authorize(w, ctx, allRoles) {
		return
	}
	identityID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeJSON[UpdateRequest](w, r, h.logger)
	if !ok {
		return
	}

	identity, err := h.service.Update(ctx, identityID, req.ToPatch())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ToResponse(identity))
}

// HandleDelete handles DELETE /identities/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authorize(w, ctx, adminOnly) {
		return
	}
	identityID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, identityID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRegisterBiometric handles POST /identities/{id}/biometrics.
func (h *Handler) HandleRegisterBiometric(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authorize(w, ctx, biometricOK) {
		return
	}
	identityID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeJSON[BiometricRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	identity, err := h.service.RegisterBiometric(ctx, identityID, models.BiometricInput{
		Fingerprint: req.Fingerprint,
		Face:        req.Face,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ToResponse(identity))
}

// HandleUpdatePassword handles POST /identities/{id}/password.
func (h *Handler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authorize(w, ctx, allRoles) {
		return
	}
	identityID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeJSON[PasswordRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.UpdatePassword(ctx, identityID, req.NewPassword); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

// authorize checks the caller principal against the required-role set and
// writes the failure response itself when the check does not pass.
func (h *Handler) authorize(w http.ResponseWriter, ctx context.Context, required []models.Role) bool {
	principal := requestcontext.CallerPrincipal(ctx)
	if principal.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return false
	}
	if !rbac.Authorize(required, principal.Role) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "caller role is not permitted for this operation"))
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (id.IdentityID, bool) {
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.IdentityID{}, false
	}
	return identityID, true
}
