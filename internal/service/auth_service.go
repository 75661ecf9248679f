package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"blog-server/internal/domain"
	"blog-server/internal/mail"
	"blog-server/internal/repository"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
	minPasswordLength    = 6
)

// AuthService covers registration, email verification, login and the
// password reset flow.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type authService struct {
	users     repository.UserRepository
	mailer    mail.Mailer
	clientURL string
	logger    *logrus.Logger
	now       func() time.Time
}

func NewAuthService(users repository.UserRepository, mailer mail.Mailer, clientURL string, logger *logrus.Logger) AuthService {
	return &authService{
		users:     users,
		mailer:    mailer,
		clientURL: strings.TrimRight(clientURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates an unverified account, persists the hash of a fresh
// verification token and emails the plaintext link. The mail dispatch is
// best-effort: a failure is logged and the registration still succeeds.
func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, validationErr("name is required")
	}
	if email == "" {
		return nil, validationErr("email is required")
	}
	if len(password) < minPasswordLength {
		return nil, validationErr(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	plainToken, tokenHash, err := generateToken()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(verificationTokenTTL).UTC()

	user := &domain.User{
		Name:                     name,
		Email:                    email,
		PasswordHash:             string(hash),
		VerificationTokenHash:    tokenHash,
		VerificationTokenExpires: &expires,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	verifyURL := fmt.Sprintf("%s/verify-email/%s", s.clientURL, plainToken)
	if err := s.mailer.SendVerificationEmail(user.Email, user.Name, verifyURL); err != nil {
		s.logger.Warnf("send verification email to %s: %v", user.Email, err)
	}

	return sanitizeUser(user), nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}

	user, err := s.users.GetByVerificationToken(ctx, hashToken(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	return s.users.MarkVerified(ctx, user.ID)
}

// ResendVerification issues a fresh verification token for an unverified
// account and emails the link. Overwriting the stored hash invalidates any
// previously issued token. This is also the recovery path for accounts whose
// registration email failed to send.
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return validationErr("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	plainToken, tokenHash, err := generateToken()
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationToken(ctx, user.ID, tokenHash, s.now().Add(verificationTokenTTL)); err != nil {
		return err
	}

	verifyURL := fmt.Sprintf("%s/verify-email/%s", s.clientURL, plainToken)
	if err := s.mailer.SendVerificationEmail(user.Email, user.Name, verifyURL); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return validationErr("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	plainToken, tokenHash, err := generateToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, tokenHash, s.now().Add(resetTokenTTL)); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.clientURL, plainToken)
	if err := s.mailer.SendPasswordResetEmail(user.Email, user.Name, resetURL); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetPassword redeems a reset token. UpdatePassword clears the stored hash
// pair, so a token is usable exactly once.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	if len(newPassword) < minPasswordLength {
		return validationErr(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.users.GetByResetToken(ctx, hashToken(token), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *authService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
