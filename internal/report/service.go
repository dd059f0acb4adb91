package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/core/clock"
	"github.com/frahmantamala/report-hub/internal/core/events"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
)

// Repository interface defines the data access methods for reports
type Repository interface {
	Create(ctx context.Context, r *Report) error
	ExistsForDay(ctx context.Context, userID int64, reportType string, day time.Time) (bool, error)
	GetByID(ctx context.Context, id int64) (*Report, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	// Update persists tasks, notes, status and submittedAt only while the
	// stored status still equals expectedStatus.
	Update(ctx context.Context, r *Report, expectedStatus string) error
	Delete(ctx context.Context, id int64) error
	MarkSubmitted(ctx context.Context, id int64, at time.Time) error
	MarkReviewed(ctx context.Context, id int64, status string, reviewerID int64, notes string, at time.Time) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// StatsRepository aggregates per-user report figures.
type StatsRepository interface {
	CountByStatus(ctx context.Context, userID int64) ([]StatusCount, error)
	TaskStatusCounts(ctx context.Context, userID int64) (map[string]int, error)
}

type EventPublisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

// Service handles report business logic
type Service struct {
	repo      Repository
	stats     StatsRepository
	publisher EventPublisher
	clock     clock.Clock
	logger    *slog.Logger
}

func NewService(repo Repository, stats StatsRepository, publisher EventPublisher, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		repo:      repo,
		stats:     stats,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

func (s *Service) CreateReport(ctx context.Context, caller coreuser.Caller, dto CreateReportDTO) (*Report, error) {
	date, err := dto.Validate()
	if err != nil {
		s.logger.Warn("report validation failed", "error", err, "user_id", caller.ID)
		return nil, err
	}

	day := clock.StartOfDay(date)
	exists, err := s.repo.ExistsForDay(ctx, caller.ID, dto.Type, day)
	if err != nil {
		s.logger.Error("failed to check existing report", "error", err, "user_id", caller.ID)
		return nil, internal.NewInternalError("failed to create report", err)
	}
	if exists {
		s.logger.Warn("duplicate report rejected", "user_id", caller.ID, "type", dto.Type, "date", day)
		return nil, ErrDuplicateReport
	}

	r := NewReport(caller.ID, dto, day, s.clock.Now())
	if err := s.repo.Create(ctx, r); err != nil {
		if errors.Is(err, ErrDuplicateReport) {
			s.logger.Warn("duplicate report rejected by store", "user_id", caller.ID, "type", dto.Type, "date", day)
			return nil, ErrDuplicateReport
		}
		s.logger.Error("failed to create report", "error", err, "user_id", caller.ID)
		return nil, internal.NewInternalError("failed to create report", err)
	}

	s.logger.Info("report created",
		"report_id", r.ID,
		"user_id", caller.ID,
		"type", r.Type,
		"status", r.Status)

	return r, nil
}

// ListReports never returns another user's reports to a non-admin, and hides
// drafts from admins unless a status filter is given.
func (s *Service) ListReports(ctx context.Context, caller coreuser.Caller, filter ListFilter) (*ListResult, error) {
	if !caller.IsAdmin() {
		id := caller.ID
		filter.UserID = &id
	} else if filter.Status == "" {
		filter.ExcludeStatus = StatusDraft
	}

	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	result, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list reports", "error", err, "user_id", caller.ID)
		return nil, internal.NewInternalError("failed to list reports", err)
	}
	return result, nil
}

func (s *Service) GetReport(ctx context.Context, caller coreuser.Caller, id int64) (*Report, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanView(caller, r) {
		s.logger.Warn("unauthorized access to report", "report_id", id, "user_id", caller.ID, "owner_id", r.UserID)
		return nil, ErrAccessDenied
	}
	return r, nil
}

func (s *Service) UpdateReport(ctx context.Context, caller coreuser.Caller, id int64, dto UpdateReportDTO) (*Report, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r, err := s.GetReport(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if !CanEdit(caller, r) {
		s.logger.Warn("owner attempted to modify non-draft report", "report_id", id, "user_id", caller.ID, "status", r.Status)
		return nil, ErrReportNotDraft
	}

	expected := r.Status
	now := s.clock.Now()

	if dto.Status != nil && *dto.Status != r.Status {
		if *dto.Status != StatusSubmitted {
			return nil, ErrInvalidStatus
		}
		if !CanTransition(caller, r, StatusSubmitted) {
			if r.UserID != caller.ID {
				return nil, ErrOnlyOwnerSubmits
			}
			return nil, ErrAlreadySubmitted
		}
		r.Status = StatusSubmitted
		if r.SubmittedAt == nil {
			r.SubmittedAt = &now
		}
	}
	if dto.Tasks != nil {
		r.Tasks = normalizeTasks(*dto.Tasks)
	}
	if dto.Notes != nil {
		r.Notes = *dto.Notes
	}
	r.UpdatedAt = now

	if err := s.repo.Update(ctx, r, expected); err != nil {
		if errors.Is(err, ErrStaleReport) {
			return nil, ErrStaleReport
		}
		s.logger.Error("failed to update report", "error", err, "report_id", id)
		return nil, internal.NewInternalError("failed to update report", err)
	}

	s.logger.Info("report updated", "report_id", id, "user_id", caller.ID, "status", r.Status)
	return r, nil
}

func (s *Service) DeleteReport(ctx context.Context, caller coreuser.Caller, id int64) error {
	if _, err := s.GetReport(ctx, caller, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrReportNotFound) {
			return ErrReportNotFound
		}
		s.logger.Error("failed to delete report", "error", err, "report_id", id)
		return internal.NewInternalError("failed to delete report", err)
	}

	s.logger.Info("report deleted", "report_id", id, "user_id", caller.ID)
	return nil
}

func (s *Service) SubmitReport(ctx context.Context, caller coreuser.Caller, id int64) (*Report, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.UserID != caller.ID {
		s.logger.Warn("submit denied: not the owner", "report_id", id, "user_id", caller.ID, "owner_id", r.UserID)
		return nil, ErrOnlyOwnerSubmits
	}
	if !CanTransition(caller, r, StatusSubmitted) {
		s.logger.Warn("cannot submit report in current status", "report_id", id, "current_status", r.Status)
		return nil, ErrAlreadySubmitted
	}

	now := s.clock.Now()
	if err := s.repo.MarkSubmitted(ctx, id, now); err != nil {
		if errors.Is(err, ErrStaleReport) {
			return nil, ErrAlreadySubmitted
		}
		s.logger.Error("failed to submit report", "error", err, "report_id", id)
		return nil, internal.NewInternalError("failed to submit report", err)
	}

	r.Status = StatusSubmitted
	r.SubmittedAt = &now
	r.UpdatedAt = now

	s.logger.Info("report submitted", "report_id", id, "user_id", caller.ID)
	return r, nil
}

// ReviewReport approves or rejects a submitted report and notifies its owner
// through the report.reviewed event.
func (s *Service) ReviewReport(ctx context.Context, caller coreuser.Caller, id int64, dto ReviewReportDTO) (*Report, error) {
	if !caller.IsAdmin() {
		s.logger.Warn("review denied: admin required", "report_id", id, "user_id", caller.ID)
		return nil, internal.ErrAdminRequired
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(caller, r, dto.Status) {
		s.logger.Warn("cannot review report in current status", "report_id", id, "current_status", r.Status)
		return nil, ErrReportNotSubmitted
	}

	now := s.clock.Now()
	reviewer := caller.ID
	reviewed := *r
	reviewed.Status = dto.Status
	reviewed.ReviewedBy = &reviewer
	reviewed.ReviewedAt = &now
	reviewed.ReviewNotes = dto.ReviewNotes
	reviewed.UpdatedAt = now

	// The status change and the owner notification commit together.
	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.MarkReviewed(ctx, id, dto.Status, caller.ID, dto.ReviewNotes, now); err != nil {
			if errors.Is(err, ErrStaleReport) {
				return ErrReportNotSubmitted
			}
			s.logger.Error("failed to review report", "error", err, "report_id", id)
			return internal.NewInternalError("failed to review report", err)
		}
		if s.publisher == nil {
			return nil
		}
		event := events.NewReportReviewedEvent(reviewed.ID, reviewed.UserID, caller.ID, reviewed.Status, reviewed.Date, reviewed.ReviewNotes, now)
		if err := s.publisher.PublishSync(ctx, event); err != nil {
			s.logger.Error("failed to publish report reviewed event", "error", err, "report_id", id)
			return internal.NewInternalError("report review rolled back: notification failed", err)
		}
		return nil
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("review transaction failed", "error", err, "report_id", id)
		return nil, internal.NewInternalError("failed to review report", err)
	}

	s.logger.Info("report reviewed",
		"report_id", id,
		"reviewer_id", caller.ID,
		"owner_id", reviewed.UserID,
		"status", dto.Status)

	return &reviewed, nil
}

// GetStats is scoped to the caller unless an admin names another user.
func (s *Service) GetStats(ctx context.Context, caller coreuser.Caller, userID *int64) (*Stats, error) {
	target := caller.ID
	if caller.IsAdmin() && userID != nil {
		target = *userID
	}

	statusCounts, err := s.stats.CountByStatus(ctx, target)
	if err != nil {
		s.logger.Error("failed to aggregate report statuses", "error", err, "user_id", target)
		return nil, internal.NewInternalError("failed to load stats", err)
	}

	byStatus, err := s.stats.TaskStatusCounts(ctx, target)
	if err != nil {
		s.logger.Error("failed to aggregate task statuses", "error", err, "user_id", target)
		return nil, internal.NewInternalError("failed to load stats", err)
	}

	since := clock.StartOfDay(s.clock.Now().AddDate(0, 0, -7))
	recent, err := s.repo.List(ctx, ListFilter{
		UserID:    &target,
		StartDate: &since,
		Page:      1,
		Limit:     100,
	})
	if err != nil {
		s.logger.Error("failed to load recent reports", "error", err, "user_id", target)
		return nil, internal.NewInternalError("failed to load stats", err)
	}

	stats := &Stats{
		StatusStats:   statusCounts,
		WeeklyReports: recent.Reports,
		TaskStats: TaskStats{
			ByStatus: byStatus,
		},
	}
	for _, c := range statusCounts {
		stats.TotalReports += c.Count
	}
	for status, n := range byStatus {
		stats.TaskStats.Total += n
		switch status {
		case TaskStatusCompleted:
			stats.TaskStats.Completed += n
		case TaskStatusPending, TaskStatusInProgress:
			stats.TaskStats.Pending += n
		}
	}

	return stats, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Report, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			return nil, ErrReportNotFound
		}
		s.logger.Error("failed to get report", "error", err, "report_id", id)
		return nil, internal.NewInternalError("failed to get report", err)
	}
	return r, nil
}
