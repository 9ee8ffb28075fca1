package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/UB-CSE-IT/Autolab-Self-Service/config"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/model"
	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/repository"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/jwt"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDevModeDisabled  = errors.New("developer login is disabled")
	ErrNotPlatformAdmin = errors.New("you are not an administrator on the learning platform")
	ErrInvalidAPIKey    = errors.New("invalid API key")
)

// TokenBlacklist revokes session tokens before they expire.
// *redis.Client satisfies it.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService sessions of SSO users.
type AuthService interface {
	Login(ctx context.Context, headers *dto.SSOHeaders) (*dto.TokenResponse, error)
	DevLogin(ctx context.Context, req *dto.DevLoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID string) (*dto.MeResponse, error)
	// ToggleAdmin flips admin mode and revokes the token identified by jti,
	// which still carries the old flag.
	ToggleAdmin(ctx context.Context, userID, jti string, expiresAt time.Time) (*dto.AdminToggleResponse, error)
	VerifyUserAPIKey(key string) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	platform  autolab.API
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	now       func() time.Time
	logger    *zap.Logger
}

// NewAuthService creates an AuthService. blacklist may be nil, in which case
// logout only clears the cookie.
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	platform autolab.API,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		platform:  platform,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		now:       time.Now,
		logger:    logger,
	}
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.UserID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		IsAdmin:    u.IsAdmin,
		LoginCount: u.LoginCount,
		CreatedAt:  formatTime(u.CreatedAt),
	}
}

func (s *authService) Login(ctx context.Context, headers *dto.SSOHeaders) (*dto.TokenResponse, error) {
	return s.login(ctx, headers.Username, headers.FirstName, headers.LastName, headers.PersonNumber)
}

func (s *authService) DevLogin(ctx context.Context, req *dto.DevLoginRequest) (*dto.TokenResponse, error) {
	if !s.cfg.Feature.DeveloperMode {
		return nil, ErrDevModeDisabled
	}
	s.logger.Warn("developer login", zap.String("username", req.Username))
	return s.login(ctx, req.Username, req.FirstName, req.LastName, req.PersonNumber)
}

// login creates the account on first sight and refreshes the profile on
// every later login.
func (s *authService) login(ctx context.Context, username, first, last, personNumber string) (*dto.TokenResponse, error) {
	username = normalizeEmail(username)
	now := s.now()

	user, err := s.repo.User.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &model.User{
			Username:     username,
			FirstName:    first,
			LastName:     last,
			PersonNumber: personNumber,
			Email:        username + "@" + s.cfg.Auth.EmailDomain,
			LoginCount:   1,
			LastLoginAt:  &now,
		}
		if err := s.repo.User.Create(ctx, user); err != nil {
			s.logger.Error("create user failed", zap.String("username", username), zap.Error(err))
			return nil, &PersistenceError{Op: "create user", Err: err}
		}
		s.logger.Info("user created", zap.String("username", username))
	case err != nil:
		s.logger.Error("load user failed", zap.Error(err))
		return nil, &PersistenceError{Op: "load user", Err: err}
	default:
		user.FirstName = first
		user.LastName = last
		if personNumber != "" {
			user.PersonNumber = personNumber
		}
		user.LoginCount++
		user.LastLoginAt = &now
		if err := s.repo.User.Update(ctx, user); err != nil {
			s.logger.Error("update user failed", zap.String("username", username), zap.Error(err))
			return nil, &PersistenceError{Op: "update user", Err: err}
		}
	}

	token, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Username, user.Email, user.IsAdmin)
	if err != nil {
		s.logger.Error("sign access token failed", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:        toUserResponse(user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	return s.revoke(ctx, jti, expiresAt)
}

// revoke blacklists jti until the token would have expired anyway.
func (s *authService) revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, expiresAt.Sub(s.now())); err != nil {
		s.logger.Error("blacklist token failed", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*dto.MeResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load user", Err: err}
	}
	return &dto.MeResponse{User: toUserResponse(user), DeveloperMode: s.cfg.Feature.DeveloperMode}, nil
}

// ToggleAdmin drops admin mode, or enters it when the platform confirms the
// user administers it.
func (s *authService) ToggleAdmin(ctx context.Context, userID, jti string, expiresAt time.Time) (*dto.AdminToggleResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load user", Err: err}
	}

	next := !user.IsAdmin
	if next {
		ok, err := s.platform.CheckAdmin(ctx, user.Email)
		if err != nil {
			s.logger.Warn("platform admin check failed", zap.String("email", user.Email), zap.Error(err))
			return nil, upstreamError(err)
		}
		if !ok {
			return nil, ErrNotPlatformAdmin
		}
	}

	if err := s.repo.User.SetAdmin(ctx, userID, next); err != nil {
		s.logger.Error("set admin failed", zap.String("user_id", userID), zap.Error(err))
		return nil, &PersistenceError{Op: "toggle admin", Err: err}
	}

	token, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Username, user.Email, next)
	if err != nil {
		return nil, err
	}
	// The flag is already stored; a revocation failure is logged, not returned.
	_ = s.revoke(ctx, jti, expiresAt)

	msg := "admin mode disabled"
	if next {
		msg = "admin mode enabled"
	}
	s.logger.Info("admin mode toggled", zap.String("username", user.Username), zap.Bool("is_admin", next))
	return &dto.AdminToggleResponse{IsAdmin: next, Message: msg, AccessToken: token}, nil
}

// VerifyUserAPIKey compares key against the configured bcrypt hash.
func (s *authService) VerifyUserAPIKey(key string) error {
	hash := s.cfg.Auth.UserAPIKeyHash
	if hash == "" || key == "" {
		return ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return ErrInvalidAPIKey
	}
	return nil
}
