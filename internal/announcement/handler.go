package announcement

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
	CreateAnnouncement(ctx context.Context, caller coreuser.Caller, dto CreateAnnouncementDTO) (*Announcement, error)
	ListAnnouncements(ctx context.Context, caller coreuser.Caller, filter ListFilter) (*ListResult, error)
	GetAnnouncement(ctx context.Context, caller coreuser.Caller, id int64) (*Announcement, error)
	UpdateAnnouncement(ctx context.Context, caller coreuser.Caller, id int64, dto UpdateAnnouncementDTO) (*Announcement, error)
	DeleteAnnouncement(ctx context.Context, caller coreuser.Caller, id int64) error
	MarkRead(ctx context.Context, caller coreuser.Caller, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "CreateAnnouncement")
	if !ok {
		return
	}

	var dto CreateAnnouncementDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("CreateAnnouncement: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.CreateAnnouncement(r.Context(), caller, dto)
	if err != nil {
		h.Logger.Error("CreateAnnouncement: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusCreated, transport.Envelope{"announcement": a})
}

func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "ListAnnouncements")
	if !ok {
		return
	}

	q := r.URL.Query()
	page, limit := h.ParsePagination(r, transport.DefaultPageSize)
	filter := ListFilter{
		Type:     q.Get("type"),
		Priority: q.Get("priority"),
		Page:     page,
		Limit:    limit,
	}
	if raw := q.Get("isPublished"); raw != "" {
		if published, err := strconv.ParseBool(raw); err == nil {
			filter.IsPublished = &published
		}
	}

	result, err := h.Service.ListAnnouncements(r.Context(), caller, filter)
	if err != nil {
		h.Logger.Error("ListAnnouncements: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{
		"count":         len(result.Announcements),
		"total":         result.Total,
		"totalPages":    transport.TotalPages(result.Total, limit),
		"currentPage":   page,
		"announcements": result.Announcements,
	})
}

func (h *Handler) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "GetAnnouncement")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.GetAnnouncement(r.Context(), caller, id)
	if err != nil {
		h.Logger.Error("GetAnnouncement: service error", "error", err, "announcement_id", id, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"announcement": a})
}

func (h *Handler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "UpdateAnnouncement")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateAnnouncementDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("UpdateAnnouncement: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.UpdateAnnouncement(r.Context(), caller, id, dto)
	if err != nil {
		h.Logger.Error("UpdateAnnouncement: service error", "error", err, "announcement_id", id, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"announcement": a})
}

func (h *Handler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "DeleteAnnouncement")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.DeleteAnnouncement(r.Context(), caller, id); err != nil {
		h.Logger.Error("DeleteAnnouncement: service error", "error", err, "announcement_id", id, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"message": "Announcement deleted successfully"})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "MarkRead")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.MarkRead(r.Context(), caller, id); err != nil {
		h.Logger.Error("MarkRead: service error", "error", err, "announcement_id", id, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"message": "Announcement marked as read"})
}
