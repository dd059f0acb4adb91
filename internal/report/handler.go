package report

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/frahmantamala/report-hub/internal/transport"
	"github.com/frahmantamala/report-hub/pkg/logger"
)

type ServiceAPI interface {
	CreateReport(ctx context.Context, caller coreuser.Caller, dto CreateReportDTO) (*Report, error)
	ListReports(ctx context.Context, caller coreuser.Caller, filter ListFilter) (*ListResult, error)
	GetReport(ctx context.Context, caller coreuser.Caller, id int64) (*Report, error)
	UpdateReport(ctx context.Context, caller coreuser.Caller, id int64, dto UpdateReportDTO) (*Report, error)
	DeleteReport(ctx context.Context, caller coreuser.Caller, id int64) error
	SubmitReport(ctx context.Context, caller coreuser.Caller, id int64) (*Report, error)
	ReviewReport(ctx context.Context, caller coreuser.Caller, id int64, dto ReviewReportDTO) (*Report, error)
	GetStats(ctx context.Context, caller coreuser.Caller, userID *int64) (*Stats, error)
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

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "CreateReport")
	if !ok {
		return
	}

	var dto CreateReportDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("CreateReport: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	rep, err := h.Service.CreateReport(r.Context(), caller, dto)
	if err != nil {
		h.Logger.Error("CreateReport: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateReport: report created successfully",
		"report_id", rep.ID,
		"user_id", caller.ID,
		"status", rep.Status)

	h.WriteSuccess(w, http.StatusCreated, transport.Envelope{"report": rep})
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "ListReports")
	if !ok {
		return
	}

	filter, err := h.parseListFilter(r)
	if err != nil {
		h.Logger.Error("ListReports: invalid query", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.ListReports(r.Context(), caller, filter)
	if err != nil {
		h.Logger.Error("ListReports: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{
		"count":       len(result.Reports),
		"total":       result.Total,
		"totalPages":  transport.TotalPages(result.Total, filter.Limit),
		"currentPage": filter.Page,
		"reports":     result.Reports,
	})
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "GetReport")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.Logger.Error("GetReport: invalid report ID", "id", r.URL.Path)
		h.HandleServiceError(w, err)
		return
	}

	rep, err := h.Service.GetReport(r.Context(), caller, id)
	if err != nil {
		h.Logger.Error("GetReport: service error", "error", err, "report_id", id, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"report": rep})
}

func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "UpdateReport")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateReportDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("UpdateReport: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	rep, err := h.Service.UpdateReport(r.Context(), caller, id, dto)
	if err != nil {
		h.Logger.Error("UpdateReport: service error", "error", err, "report_id", id, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"report": rep})
}

func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "DeleteReport")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.DeleteReport(r.Context(), caller, id); err != nil {
		h.Logger.Error("DeleteReport: service error", "error", err, "report_id", id, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"message": "Report deleted successfully"})
}

func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "SubmitReport")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	rep, err := h.Service.SubmitReport(r.Context(), caller, id)
	if err != nil {
		h.Logger.Error("SubmitReport: service error", "error", err, "report_id", id, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SubmitReport: report submitted", "report_id", id, "user_id", caller.ID)
	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"report": rep})
}

func (h *Handler) ReviewReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "ReviewReport")
	if !ok {
		return
	}

	id, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto ReviewReportDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.Logger.Error("ReviewReport: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	rep, err := h.Service.ReviewReport(r.Context(), caller, id, dto)
	if err != nil {
		h.Logger.Error("ReviewReport: service error", "error", err, "report_id", id, "reviewer_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ReviewReport: report reviewed", "report_id", id, "reviewer_id", caller.ID, "status", rep.Status)
	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"report": rep})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.Caller(w, r, "GetStats")
	if !ok {
		return
	}

	var userID *int64
	if raw := r.URL.Query().Get("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.HandleServiceError(w, internal.NewValidationFieldError("userId", "userId must be a positive integer", internal.ErrCodeInvalidID))
			return
		}
		userID = &id
	}

	stats, err := h.Service.GetStats(r.Context(), caller, userID)
	if err != nil {
		h.Logger.Error("GetStats: service error", "error", err, "user_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, transport.Envelope{
		"totalReports":  stats.TotalReports,
		"statusStats":   stats.StatusStats,
		"taskStats":     stats.TaskStats,
		"weeklyReports": stats.WeeklyReports,
	})
}

func (h *Handler) parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	page, limit := h.ParsePagination(r, transport.DefaultPageSize)

	filter := ListFilter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Page:   page,
		Limit:  limit,
	}

	if raw := q.Get("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, internal.NewValidationFieldError("userId", "userId must be a positive integer", internal.ErrCodeInvalidID)
		}
		filter.UserID = &id
	}

	dates := []struct {
		name string
		dst  **time.Time
	}{
		{"date", &filter.Date},
		{"startDate", &filter.StartDate},
		{"endDate", &filter.EndDate},
	}
	for _, d := range dates {
		raw := q.Get(d.name)
		if raw == "" {
			continue
		}
		t, err := ParseDate(raw)
		if err != nil {
			return filter, internal.NewValidationFieldError(d.name, d.name+" must be a valid date", internal.ErrCodeInvalidDate)
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		*d.dst = &day
	}

	return filter, nil
}
