package user

import (
	"context"
	"errors"
	"fmt"

	"toonlord/internal/auth"
	"toonlord/internal/logger"
)

var (
	ErrUserExists         = errors.New("email or username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is suspended or banned")
)

// Mailer queues outbound mail; delivery happens asynchronously.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (*User, error)
	VerifyEmail(ctx context.Context, userID int, code string) error
	ResendOTP(ctx context.Context, userID int) error
}

type service struct {
	repo      Repository
	otp       *OTPStore
	mailer    Mailer
	jwtSecret string
}

func NewService(repo Repository, otp *OTPStore, mailer Mailer, jwtSecret string) Service {
	return &service{
		repo:      repo,
		otp:       otp,
		mailer:    mailer,
		jwtSecret: jwtSecret,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	exists, err := s.repo.EmailOrUsernameExists(ctx, req.Email, req.Username)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrUserExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	u, err := s.repo.Create(ctx, req.Username, req.Email, passwordHash, req.Mobile)
	if err != nil {
		return nil, "", "", err
	}

	s.sendVerificationCode(ctx, u)

	accessToken, refreshToken, err := auth.GenerateTokens(
		u.ID, u.Email, u.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return u, accessToken, refreshToken, nil
}

// sendVerificationCode is best-effort: a mail outage must not block
// signups, the user can request a resend.
func (s *service) sendVerificationCode(ctx context.Context, u *User) {
	if s.otp == nil || s.mailer == nil {
		return
	}
	code, err := s.otp.Issue(ctx, u.ID)
	if err != nil {
		logger.Warnf("failed to issue signup OTP for user %d: %v", u.ID, err)
		return
	}
	if err := s.mailer.SendOTP(ctx, u.Email, code); err != nil {
		logger.Warnf("failed to queue OTP mail for user %d: %v", u.ID, err)
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	u, err := s.repo.FindByEmailOrUsername(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}
	if u.Status != StatusActive {
		return nil, "", "", ErrAccountInactive
	}

	accessToken, refreshToken, err := auth.GenerateTokens(
		u.ID, u.Email, u.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return u, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}
	if u.Status != StatusActive {
		return "", nil, ErrAccountInactive
	}

	newAccessToken, err := auth.GenerateAccessToken(u.ID, u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, u, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (*User, error) {
	return s.repo.UpdateProfile(ctx, userID, req)
}

func (s *service) VerifyEmail(ctx context.Context, userID int, code string) error {
	if s.otp == nil {
		return fmt.Errorf("email verification is not configured")
	}
	if err := s.otp.Verify(ctx, userID, code); err != nil {
		return err
	}
	return s.repo.MarkEmailVerified(ctx, userID)
}

func (s *service) ResendOTP(ctx context.Context, userID int) error {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return nil
	}
	s.sendVerificationCode(ctx, u)
	return nil
}
