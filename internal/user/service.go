package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/core/clock"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*coreuser.User, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, u *coreuser.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type Service struct {
	repo       Repository
	clock      clock.Clock
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, clk clock.Clock, bcryptCost int, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		clock:      clk,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) ListUsers(ctx context.Context, caller coreuser.Caller, filter ListFilter) (*ListResult, error) {
	if !caller.IsAdmin() {
		return nil, internal.ErrAdminRequired
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	filter.Search = strings.TrimSpace(filter.Search)

	result, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return result, nil
}

func (s *Service) GetUser(ctx context.Context, caller coreuser.Caller, id int64) (*coreuser.User, error) {
	if !caller.IsAdmin() && caller.ID != id {
		return nil, internal.ErrAdminRequired
	}
	return s.load(ctx, id)
}

func (s *Service) UpdateUser(ctx context.Context, caller coreuser.Caller, id int64, dto UpdateUserDTO) (*coreuser.User, error) {
	if !caller.IsAdmin() {
		return nil, internal.ErrAdminRequired
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.IsActive != nil && !*dto.IsActive && id == caller.ID {
		return nil, ErrSelfDeactivation
	}

	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProfile(u, dto.Name, dto.Department, dto.Position)
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "user_id", id, "admin_id", caller.ID, "is_active", u.IsActive)
	return u, nil
}

// DeactivateUser is a soft delete: the account stays but can no longer sign in.
func (s *Service) DeactivateUser(ctx context.Context, caller coreuser.Caller, id int64) error {
	if !caller.IsAdmin() {
		return internal.ErrAdminRequired
	}
	if id == caller.ID {
		return ErrSelfDeactivation
	}

	u, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	u.IsActive = false
	if err := s.save(ctx, u); err != nil {
		return err
	}

	s.logger.Info("user deactivated", "user_id", id, "admin_id", caller.ID)
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, caller coreuser.Caller, dto UpdateProfileDTO) (*coreuser.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	applyProfile(u, dto.Name, dto.Department, dto.Position)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, caller coreuser.Caller, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	u, err := s.load(ctx, caller.ID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.CurrentPassword)); err != nil {
		s.logger.Warn("change password rejected: wrong current password", "user_id", caller.ID)
		return ErrInvalidCurrentPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to change password", err)
	}
	if err := s.repo.UpdatePassword(ctx, caller.ID, string(hash)); err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return internal.ErrUserNotFound
		}
		s.logger.Error("failed to update password", "error", err, "user_id", caller.ID)
		return internal.NewInternalError("failed to change password", err)
	}

	s.logger.Info("password changed", "user_id", caller.ID)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*coreuser.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrUserNotFound
		}
		s.logger.Error("failed to get user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	return u, nil
}

func (s *Service) save(ctx context.Context, u *coreuser.User) error {
	u.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return internal.ErrUserNotFound
		}
		s.logger.Error("failed to update user", "error", err, "user_id", u.ID)
		return internal.NewInternalError("failed to update user", err)
	}
	return nil
}

func applyProfile(u *coreuser.User, name, department, position *string) {
	if name != nil {
		u.Name = strings.TrimSpace(*name)
	}
	if department != nil {
		u.Department = strings.TrimSpace(*department)
	}
	if position != nil {
		u.Position = strings.TrimSpace(*position)
	}
}
