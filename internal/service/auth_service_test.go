package service

import (
	"context"
	"io"
	"path"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}}
}

func (r *fakeUserRepo) Init(ctx context.Context) error { return nil }

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return 0, repository.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	clone := *user
	r.users[user.ID] = &clone
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	for _, user := range r.users {
		if user.VerificationTokenHash == tokenHash && tokenHash != "" &&
			user.VerificationTokenExpires != nil && user.VerificationTokenExpires.After(now) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	for _, user := range r.users {
		if user.ResetTokenHash == tokenHash && tokenHash != "" &&
			user.ResetTokenExpires != nil && user.ResetTokenExpires.After(now) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) SetVerificationToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.VerificationTokenHash = tokenHash
	user.VerificationTokenExpires = &expires
	return nil
}

func (r *fakeUserRepo) MarkVerified(ctx context.Context, id int64) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsVerified = true
	user.VerificationTokenHash = ""
	user.VerificationTokenExpires = nil
	return nil
}

func (r *fakeUserRepo) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.ResetTokenHash = tokenHash
	user.ResetTokenExpires = &expires
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.ResetTokenHash = ""
	user.ResetTokenExpires = nil
	return nil
}

type fakeMailer struct {
	verifyURLs []string
	resetURLs  []string
	failSend   bool
}

func (m *fakeMailer) SendVerificationEmail(to, name, verifyURL string) error {
	if m.failSend {
		return assert.AnError
	}
	m.verifyURLs = append(m.verifyURLs, verifyURL)
	return nil
}

func (m *fakeMailer) SendPasswordResetEmail(to, name, resetURL string) error {
	if m.failSend {
		return assert.AnError
	}
	m.resetURLs = append(m.resetURLs, resetURL)
	return nil
}

func (m *fakeMailer) lastVerifyToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.verifyURLs)
	return path.Base(m.verifyURLs[len(m.verifyURLs)-1])
}

func (m *fakeMailer) lastResetToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.resetURLs)
	return path.Base(m.resetURLs[len(m.resetURLs)-1])
}

func newTestAuthService(repo *fakeUserRepo, mailer *fakeMailer) *authService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewAuthService(repo, mailer, "http://localhost:3000", logger).(*authService)
}

func seedVerifiedUser(t *testing.T, repo *fakeUserRepo, email, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Name:         "Alice",
		Email:        email,
		PasswordHash: string(hash),
		IsVerified:   true,
	}
	_, err = repo.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Alice", "Alice@Example.com", "different123")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.Len(t, repo.users, 1)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"missing name", "", "a@example.com", "secret123"},
		{"missing email", "Alice", "", "secret123"},
		{"short password", "Alice", "a@example.com", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(newFakeUserRepo(), &fakeMailer{})
			_, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestRegisterStoresTokenHashOnly(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	plain := mailer.lastVerifyToken(t)
	stored := repo.users[1]
	assert.NotEqual(t, plain, stored.VerificationTokenHash)
	assert.Equal(t, hashToken(plain), stored.VerificationTokenHash)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
}

func TestRegisterSucceedsWhenMailFails(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{failSend: true})

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Len(t, repo.users, 1)
}

func TestVerifyEmailSingleUse(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	token := mailer.lastVerifyToken(t)

	require.NoError(t, svc.VerifyEmail(ctx, token))
	assert.True(t, repo.users[1].IsVerified)
	assert.Empty(t, repo.users[1].VerificationTokenHash)

	err = svc.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyEmailExpired(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	ctx := context.Background()

	base := time.Now()
	svc.now = func() time.Time { return base }
	_, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	token := mailer.lastVerifyToken(t)

	svc.now = func() time.Time { return base.Add(25 * time.Hour) }
	err = svc.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResendVerificationInvalidatesOldToken(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	oldToken := mailer.lastVerifyToken(t)

	require.NoError(t, svc.ResendVerification(ctx, "alice@example.com"))
	newToken := mailer.lastVerifyToken(t)
	require.NotEqual(t, oldToken, newToken)

	assert.ErrorIs(t, svc.VerifyEmail(ctx, oldToken), ErrInvalidToken)
	require.NoError(t, svc.VerifyEmail(ctx, newToken))
	assert.True(t, repo.users[1].IsVerified)
}

func TestResendVerificationRecoversFromFailedRegisterMail(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{failSend: true}
	svc := newTestAuthService(repo, mailer)
	ctx := context.Background()

	// registration succeeds even though the verification mail never went out
	_, err := svc.Register(ctx, "Alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	require.Empty(t, mailer.verifyURLs)

	mailer.failSend = false
	require.NoError(t, svc.ResendVerification(ctx, "alice@example.com"))

	require.NoError(t, svc.VerifyEmail(ctx, mailer.lastVerifyToken(t)))
	assert.True(t, repo.users[1].IsVerified)
}

func TestResendVerificationRejections(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	ctx := context.Background()

	seedVerifiedUser(t, repo, "verified@example.com", "secret123")

	assert.ErrorIs(t, svc.ResendVerification(ctx, "verified@example.com"), ErrAlreadyVerified)
	assert.ErrorIs(t, svc.ResendVerification(ctx, "nobody@example.com"), ErrUserNotFound)

	mailer.failSend = true
	unverified := &domain.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "h"}
	_, err := repo.Create(ctx, unverified)
	require.NoError(t, err)
	assert.Error(t, svc.ResendVerification(ctx, "bob@example.com"))
}

func TestLoginFailureModes(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{})
	ctx := context.Background()

	seedVerifiedUser(t, repo, "verified@example.com", "correct-horse")

	unverified := &domain.User{Name: "Bob", Email: "bob@example.com"}
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	unverified.PasswordHash = string(hash)
	_, err = repo.Create(ctx, unverified)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "bob@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	_, err = svc.Login(ctx, "verified@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := svc.Login(ctx, "verified@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
}

func TestResetPasswordWithinWindow(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	ctx := context.Background()

	seedVerifiedUser(t, repo, "alice@example.com", "old-password")

	base := time.Now()
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.ForgotPassword(ctx, "alice@example.com"))
	token := mailer.lastResetToken(t)

	svc.now = func() time.Time { return base.Add(30 * time.Minute) }
	require.NoError(t, svc.ResetPassword(ctx, token, "new-password"))

	_, err := svc.Login(ctx, "alice@example.com", "new-password")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "alice@example.com", "old-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetPasswordExpiredWindow(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	ctx := context.Background()

	seedVerifiedUser(t, repo, "alice@example.com", "old-password")

	base := time.Now()
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.ForgotPassword(ctx, "alice@example.com"))
	token := mailer.lastResetToken(t)

	svc.now = func() time.Time { return base.Add(61 * time.Minute) }
	err := svc.ResetPassword(ctx, token, "new-password")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Login(ctx, "alice@example.com", "old-password")
	assert.NoError(t, err)
}

func TestResetPasswordSingleUse(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	ctx := context.Background()

	seedVerifiedUser(t, repo, "alice@example.com", "old-password")

	require.NoError(t, svc.ForgotPassword(ctx, "alice@example.com"))
	token := mailer.lastResetToken(t)

	require.NoError(t, svc.ResetPassword(ctx, token, "new-password"))
	err := svc.ResetPassword(ctx, token, "another-password")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), &fakeMailer{})
	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
