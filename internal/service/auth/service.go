package auth

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/pawtrail/petcare-api/internal/email"
	"github.com/pawtrail/petcare-api/internal/model"
	"github.com/pawtrail/petcare-api/internal/repository"
	"github.com/pawtrail/petcare-api/pkg/auth"
	"github.com/pawtrail/petcare-api/pkg/errors"
	"github.com/pawtrail/petcare-api/pkg/logger"
	"github.com/pawtrail/petcare-api/pkg/security"
)

const (
	maxLoginAttempts = 5
	lockoutWindow    = 15 * time.Minute
)

// AuthResponse is returned on register, login and refresh.
type AuthResponse struct {
	User   *model.UserProfile `json:"user"`
	Tokens *auth.TokenPair    `json:"tokens"`
}

// Service handles registration, login with lockout, and stateless
// refresh. Refresh tokens are verified by signature alone; no token
// state is stored server-side.
type Service struct {
	users  repository.UserRepository
	jwt    auth.JWTService
	hasher security.PasswordHasher
	mailer email.Service
	logger *logger.Logger
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, mailer email.Service, logger *logger.Logger) *Service {
	return &Service{
		users:  users,
		jwt:    jwtSvc,
		hasher: hasher,
		mailer: mailer,
		logger: logger,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*AuthResponse, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.Conflict("a user with this email already exists", nil)
	} else if !isNoRows(err) {
		return nil, errors.Internal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.BadRequest("invalid password", err)
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Status:       model.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errors.Internal(err)
	}

	if err := s.mailer.SendWelcome(user.Email, user.FirstName); err != nil {
		s.logger.Warn("welcome email failed", "email", user.Email)
	}

	return s.respond(user)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Unauthorized(nil)
		}
		return nil, errors.Internal(err)
	}

	if s.lockedOut(user) {
		return nil, errors.Forbidden("account temporarily locked, try again later", nil)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.recordFailedAttempt(ctx, user)
		return nil, errors.Unauthorized(nil)
	}

	now := time.Now()
	user.LoginAttempts = 0
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error(err, "failed to record login", "user_id", user.ID)
	}

	return s.respond(user)
}

// Refresh exchanges a refresh token for a fresh pair. The user is
// re-loaded so a deleted or locked account cannot keep minting tokens.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Unauthorized(err)
		}
		return nil, errors.Internal(err)
	}
	if user.Status != model.UserStatusActive {
		return nil, errors.Unauthorized(nil)
	}

	return s.respond(user)
}

func (s *Service) respond(user *model.User) (*AuthResponse, error) {
	tokens, err := s.jwt.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &AuthResponse{User: user.Profile(), Tokens: tokens}, nil
}

func (s *Service) lockedOut(user *model.User) bool {
	if user.LoginAttempts < maxLoginAttempts {
		return false
	}
	return time.Since(user.LastLoginAttempt) < lockoutWindow
}

func (s *Service) recordFailedAttempt(ctx context.Context, user *model.User) {
	// The counter resets once the lockout window lapses.
	if time.Since(user.LastLoginAttempt) >= lockoutWindow {
		user.LoginAttempts = 0
	}
	user.LoginAttempts++
	user.LastLoginAttempt = time.Now()
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error(err, "failed to record login attempt", "user_id", user.ID)
	}
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}
