package announcement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/core/clock"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
)

type Repository interface {
	Create(ctx context.Context, a *Announcement) error
	GetByID(ctx context.Context, id int64) (*Announcement, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, a *Announcement) error
	Delete(ctx context.Context, id int64) error
	// AddRead records a read receipt; repeated calls for the same user are no-ops.
	AddRead(ctx context.Context, announcementID, userID int64, at time.Time) error
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

func (s *Service) CreateAnnouncement(ctx context.Context, caller coreuser.Caller, dto CreateAnnouncementDTO) (*Announcement, error) {
	if !caller.IsAdmin() {
		s.logger.Warn("create announcement denied: admin required", "user_id", caller.ID)
		return nil, internal.ErrAdminRequired
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	a := &Announcement{
		Title:          dto.Title,
		Content:        dto.Content,
		Type:           dto.Type,
		Priority:       dto.Priority,
		AuthorID:       caller.ID,
		TargetAudience: dedupeAudience(dto.TargetAudience),
		Attachments:    toAttachments(dto.Attachments, now),
		ReadBy:         []ReadReceipt{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if a.Type == "" {
		a.Type = TypeGeneral
	}
	if a.Priority == "" {
		a.Priority = PriorityMedium
	}
	if len(a.TargetAudience) == 0 {
		a.TargetAudience = []string{AudienceAll}
	}
	if dto.ExpiresAt != nil {
		exp := dto.ExpiresAt.UTC()
		a.ExpiresAt = &exp
	}
	a.Publish(dto.IsPublished, now)

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error("failed to create announcement", "error", err, "author_id", caller.ID)
		return nil, internal.NewInternalError("failed to create announcement", err)
	}

	s.logger.Info("announcement created",
		"announcement_id", a.ID,
		"author_id", caller.ID,
		"published", a.IsPublished)
	return a, nil
}

func (s *Service) ListAnnouncements(ctx context.Context, caller coreuser.Caller, filter ListFilter) (*ListResult, error) {
	if !caller.IsAdmin() {
		filter.Visibility = &Visibility{Role: caller.Role, Now: s.clock.Now()}
		filter.IsPublished = nil
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	result, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list announcements", "error", err, "user_id", caller.ID)
		return nil, internal.NewInternalError("failed to list announcements", err)
	}
	return result, nil
}

// GetAnnouncement answers NotFound for announcements the caller may not see.
func (s *Service) GetAnnouncement(ctx context.Context, caller coreuser.Caller, id int64) (*Announcement, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Visible(caller, a, s.clock.Now()) {
		s.logger.Debug("announcement hidden from caller", "announcement_id", id, "user_id", caller.ID)
		return nil, ErrAnnouncementNotFound
	}
	return a, nil
}

func (s *Service) UpdateAnnouncement(ctx context.Context, caller coreuser.Caller, id int64, dto UpdateAnnouncementDTO) (*Announcement, error) {
	if !caller.IsAdmin() {
		s.logger.Warn("update announcement denied: admin required", "announcement_id", id, "user_id", caller.ID)
		return nil, internal.ErrAdminRequired
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if dto.Title != nil {
		a.Title = *dto.Title
	}
	if dto.Content != nil {
		a.Content = *dto.Content
	}
	if dto.Type != nil && *dto.Type != "" {
		a.Type = *dto.Type
	}
	if dto.Priority != nil && *dto.Priority != "" {
		a.Priority = *dto.Priority
	}
	if dto.ExpiresAt.Set {
		if dto.ExpiresAt.Value == nil {
			a.ExpiresAt = nil
		} else {
			exp := dto.ExpiresAt.Value.UTC()
			a.ExpiresAt = &exp
		}
	}
	if dto.TargetAudience != nil && len(*dto.TargetAudience) > 0 {
		a.TargetAudience = dedupeAudience(*dto.TargetAudience)
	}
	if dto.Attachments != nil {
		a.Attachments = toAttachments(*dto.Attachments, now)
	}
	if dto.IsPublished != nil {
		a.Publish(*dto.IsPublished, now)
	}
	a.UpdatedAt = now

	if err := s.repo.Update(ctx, a); err != nil {
		if errors.Is(err, ErrAnnouncementNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		s.logger.Error("failed to update announcement", "error", err, "announcement_id", id)
		return nil, internal.NewInternalError("failed to update announcement", err)
	}

	s.logger.Info("announcement updated", "announcement_id", id, "user_id", caller.ID, "published", a.IsPublished)
	return a, nil
}

func (s *Service) DeleteAnnouncement(ctx context.Context, caller coreuser.Caller, id int64) error {
	if !caller.IsAdmin() {
		s.logger.Warn("delete announcement denied: admin required", "announcement_id", id, "user_id", caller.ID)
		return internal.ErrAdminRequired
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrAnnouncementNotFound) {
			return ErrAnnouncementNotFound
		}
		s.logger.Error("failed to delete announcement", "error", err, "announcement_id", id)
		return internal.NewInternalError("failed to delete announcement", err)
	}

	s.logger.Info("announcement deleted", "announcement_id", id, "user_id", caller.ID)
	return nil
}

func (s *Service) MarkRead(ctx context.Context, caller coreuser.Caller, id int64) error {
	a, err := s.GetAnnouncement(ctx, caller, id)
	if err != nil {
		return err
	}
	if a.HasRead(caller.ID) {
		return nil
	}

	if err := s.repo.AddRead(ctx, id, caller.ID, s.clock.Now()); err != nil {
		s.logger.Error("failed to mark announcement read", "error", err, "announcement_id", id, "user_id", caller.ID)
		return internal.NewInternalError("failed to mark announcement read", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAnnouncementNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		s.logger.Error("failed to get announcement", "error", err, "announcement_id", id)
		return nil, internal.NewInternalError("failed to get announcement", err)
	}
	return a, nil
}
