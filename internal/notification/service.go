package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/core/clock"
	"github.com/frahmantamala/report-hub/internal/core/events"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id int64) (*Notification, error)
	List(ctx context.Context, userID int64, filter ListFilter) ([]*Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id int64, at time.Time) error
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   Repository
	clock  clock.Clock
	logger *slog.Logger
}

func NewService(repo Repository, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{repo: repo, clock: clk, logger: logger}
}

// Subscribe registers the review handler; notifications are never created
// from a client request.
func (s *Service) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeReportReviewed, s.HandleReportReviewed)
}

func (s *Service) HandleReportReviewed(ctx context.Context, event events.Event) error {
	reviewed, ok := event.(*events.ReportReviewedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	n := ForReview(reviewed.OwnerID, reviewed.ReportID, reviewed.Status, reviewed.ReportDate, reviewed.ReviewNotes)
	n.CreatedAt = s.clock.Now()
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to create review notification",
			"error", err,
			"report_id", reviewed.ReportID,
			"user_id", reviewed.OwnerID)
		return err
	}

	s.logger.Info("review notification created",
		"notification_id", n.ID,
		"report_id", reviewed.ReportID,
		"user_id", reviewed.OwnerID,
		"type", n.Type)
	return nil
}

func (s *Service) ListNotifications(ctx context.Context, caller coreuser.Caller, filter ListFilter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	items, total, err := s.repo.List(ctx, caller.ID, filter)
	if err != nil {
		s.logger.Error("failed to list notifications", "error", err, "user_id", caller.ID)
		return nil, internal.NewInternalError("failed to list notifications", err)
	}

	unread, err := s.repo.CountUnread(ctx, caller.ID)
	if err != nil {
		s.logger.Error("failed to count unread notifications", "error", err, "user_id", caller.ID)
		return nil, internal.NewInternalError("failed to list notifications", err)
	}

	return &ListResult{Notifications: items, Total: total, UnreadCount: unread}, nil
}

func (s *Service) MarkRead(ctx context.Context, caller coreuser.Caller, id int64) (*Notification, error) {
	n, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if n.IsRead {
		return n, nil
	}

	now := s.clock.Now()
	if err := s.repo.MarkRead(ctx, id, now); err != nil {
		s.logger.Error("failed to mark notification read", "error", err, "notification_id", id)
		return nil, internal.NewInternalError("failed to update notification", err)
	}
	n.IsRead = true
	n.ReadAt = &now
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, caller coreuser.Caller) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, caller.ID, s.clock.Now())
	if err != nil {
		s.logger.Error("failed to mark all notifications read", "error", err, "user_id", caller.ID)
		return 0, internal.NewInternalError("failed to update notifications", err)
	}
	s.logger.Info("notifications marked read", "user_id", caller.ID, "count", updated)
	return updated, nil
}

func (s *Service) DeleteNotification(ctx context.Context, caller coreuser.Caller, id int64) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("failed to delete notification", "error", err, "notification_id", id)
		return internal.NewInternalError("failed to delete notification", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, caller coreuser.Caller, id int64) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			return nil, ErrNotificationNotFound
		}
		s.logger.Error("failed to get notification", "error", err, "notification_id", id)
		return nil, internal.NewInternalError("failed to get notification", err)
	}
	if n.UserID != caller.ID {
		s.logger.Warn("unauthorized access to notification", "notification_id", id, "user_id", caller.ID, "owner_id", n.UserID)
		return nil, ErrAccessDenied
	}
	return n, nil
}
