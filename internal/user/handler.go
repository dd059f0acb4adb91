package user

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/frahmantamala/report-hub/internal/transport"
	"github.com/frahmantamala/report-hub/pkg/logger"
)

type ServiceAPI interface {
	ListUsers(ctx context.Context, caller coreuser.Caller, filter ListFilter) (*ListResult, error)
	GetUser(ctx context.Context, caller coreuser.Caller, id int64) (*coreuser.User, error)
	UpdateUser(ctx context.Context, caller coreuser.Caller, id int64, dto UpdateUserDTO) (*coreuser.User, error)
	DeactivateUser(ctx context.Context, caller coreuser.Caller, id int64) error
	UpdateProfile(ctx context.Context, caller coreuser.Caller, dto UpdateProfileDTO) (*coreuser.User, error)
	ChangePassword(ctx context.Context, caller coreuser.Caller, dto ChangePasswordDTO) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "ListUsers")
	if !ok {
		return
	}

	q := r.URL.Query()
	page, limit := h.ParsePagination(r, transport.DefaultPageSize)
	filter := ListFilter{
		Role:       q.Get("role"),
		Department: q.Get("department"),
		Search:     q.Get("search"),
		Page:       page,
		Limit:      limit,
	}
	if raw := q.Get("isActive"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}

	result, err := h.Service.ListUsers(r.Context(), caller, filter)
	if err != nil {
		h.Logger.Error("ListUsers: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{
		"count":       len(result.Users),
		"total":       result.Total,
		"totalPages":  transport.TotalPages(result.Total, limit),
		"currentPage": page,
		"users":       Profiles(result.Users),
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "GetUser")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.GetUser(r.Context(), caller, id)
	if err != nil {
		h.Logger.Error("GetUser: service error", "error", err, "target_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"user": u.Profile()})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "UpdateUser")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("UpdateUser: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.UpdateUser(r.Context(), caller, id, dto)
	if err != nil {
		h.Logger.Error("UpdateUser: service error", "error", err, "target_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"user": u.Profile()})
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "DeactivateUser")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.DeactivateUser(r.Context(), caller, id); err != nil {
		h.Logger.Error("DeactivateUser: service error", "error", err, "target_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"message": "User deactivated successfully"})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "UpdateProfile")
	if !ok {
		return
	}

	var dto UpdateProfileDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), caller, dto)
	if err != nil {
		h.Logger.Error("UpdateProfile: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"user": u.Profile()})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "ChangePassword")
	if !ok {
		return
	}

	var dto ChangePasswordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.ChangePassword(r.Context(), caller, dto); err != nil {
		h.Logger.Error("ChangePassword: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"message": "Password updated successfully"})
}
