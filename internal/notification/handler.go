package notification

import (
	"context"
	"log/slog"
	"net/http"

	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/frahmantamala/report-hub/internal/transport"
	"github.com/frahmantamala/report-hub/pkg/logger"
)

type ServiceAPI interface {
	ListNotifications(ctx context.Context, caller coreuser.Caller, filter ListFilter) (*ListResult, error)
	MarkRead(ctx context.Context, caller coreuser.Caller, id int64) (*Notification, error)
	MarkAllRead(ctx context.Context, caller coreuser.Caller) (int64, error)
	DeleteNotification(ctx context.Context, caller coreuser.Caller, id int64) error
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

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "ListNotifications")
	if !ok {
		return
	}

	page, limit := h.ParsePagination(r, DefaultPageSize)
	filter := ListFilter{
		UnreadOnly: r.URL.Query().Get("unreadOnly") == "true",
		Page:       page,
		Limit:      limit,
	}

	result, err := h.Service.ListNotifications(r.Context(), caller, filter)
	if err != nil {
		h.Logger.Error("ListNotifications: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{
		"count":         len(result.Notifications),
		"total":         result.Total,
		"unreadCount":   result.UnreadCount,
		"totalPages":    transport.TotalPages(result.Total, limit),
		"currentPage":   page,
		"notifications": result.Notifications,
	})
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

	n, err := h.Service.MarkRead(r.Context(), caller, id)
	if err != nil {
		h.Logger.Error("MarkRead: service error", "error", err, "notification_id", id, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"notification": n})
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "MarkAllRead")
	if !ok {
		return
	}

	if _, err := h.Service.MarkAllRead(r.Context(), caller); err != nil {
		h.Logger.Error("MarkAllRead: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"message": "All notifications marked as read"})
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "DeleteNotification")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.DeleteNotification(r.Context(), caller, id); err != nil {
		h.Logger.Error("DeleteNotification: service error", "error", err, "notification_id", id, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"message": "Notification deleted successfully"})
}
