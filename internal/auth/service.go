package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/core/clock"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*coreuser.User, error)
	GetByID(ctx context.Context, id int64) (*coreuser.User, error)
	Create(ctx context.Context, u *coreuser.User) error
}

type LoginResult struct {
	Tokens AuthTokens
	User   *coreuser.User
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	clock          clock.Clock
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator, clk clock.Clock, bcryptCost int, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		clock:          clk,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Register creates an employee account. It does not start a session.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*coreuser.User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByEmail(ctx, dto.Email); err == nil && existing != nil {
		return nil, internal.ErrEmailTaken
	} else if err != nil && !errors.Is(err, internal.ErrUserNotFound) {
		s.logger.Error("failed to look up email", "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to register user", err)
	}

	now := s.clock.Now()
	u := &coreuser.User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: hash,
		Role:         coreuser.RoleEmployee,
		Department:   dto.Department,
		Position:     dto.Position,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, internal.ErrEmailTaken) {
			return nil, internal.ErrEmailTaken
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrInvalidCredentials
		}
		s.logger.Error("failed to load user for login", "error", err)
		return nil, internal.NewInternalError("failed to authenticate", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}
	if !u.IsActive {
		s.logger.Warn("login rejected: account deactivated", "user_id", u.ID)
		return nil, internal.ErrUserInactive
	}

	tokens, err := s.issue(u)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", u.ID)
	return &LoginResult{Tokens: tokens, User: u}, nil
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.issue(u)
}

// ResolveCaller turns an access token into the live account behind it.
func (s *Service) ResolveCaller(ctx context.Context, accessToken string) (*coreuser.User, error) {
	claims, err := s.tokenGenerator.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	return s.activeUser(ctx, claims.UserID)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*coreuser.User, error) {
	return s.activeUser(ctx, id)
}

func (s *Service) AccessTokenTTL() time.Duration {
	return s.tokenGenerator.AccessTTL()
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) activeUser(ctx context.Context, id int64) (*coreuser.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrUserGone
		}
		s.logger.Error("failed to load user", "error", err, "user_id", id)
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if !u.IsActive {
		return nil, internal.ErrUserInactive
	}
	return u, nil
}

func (s *Service) issue(u *coreuser.User) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(u)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(u)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue token", err)
	}
	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
