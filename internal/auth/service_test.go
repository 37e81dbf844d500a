package auth

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"bazaar/infrastructure"
	"bazaar/internal/auth/otp"
	"bazaar/internal/sessions"
	"bazaar/internal/user"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[uuid.UUID]*user.User)}
}

func copyUser(u *user.User) *user.User {
	c := *u
	return &c
}

func (r *fakeRepo) UserByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, infrastructure.ErrUserNotFound
}

func (r *fakeRepo) UserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, infrastructure.ErrUserNotFound
}

func (r *fakeRepo) CreateUser(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return infrastructure.ErrUserAlreadyExists
		}
	}
	r.users[u.ID] = copyUser(u)
	return nil
}

func (r *fakeRepo) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return infrastructure.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}

func (r *fakeRepo) RecordFailedLogin(ctx context.Context, userID uuid.UUID, threshold int, lockUntil time.Time) (int, sql.NullTime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, sql.NullTime{}, infrastructure.ErrUserNotFound
	}
	u.LoginAttempts++
	if u.LoginAttempts >= threshold {
		u.LockedUntil = sql.NullTime{Time: lockUntil, Valid: true}
	}
	return u.LoginAttempts, u.LockedUntil, nil
}

func (r *fakeRepo) RecordSuccessfulLogin(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return infrastructure.ErrUserNotFound
	}
	u.LoginAttempts = 0
	u.LockedUntil = sql.NullTime{}
	return nil
}

func (r *fakeRepo) mutate(id uuid.UUID, fn func(*user.User)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.users[id])
}

type fakeMailer struct {
	mu    sync.Mutex
	codes []string
}

func (m *fakeMailer) record(code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *fakeMailer) SendVerificationCode(to, name, code string) error { return m.record(code) }
func (m *fakeMailer) SendTwoFactorCode(to, name, code string) error   { return m.record(code) }

func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.codes)
	return m.codes[len(m.codes)-1]
}

type fakeRecorder struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeRecorder) Record(ctx context.Context, userID uuid.UUID, action, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

type serviceFixture struct {
	service  *Service
	repo     *fakeRepo
	mailer   *fakeMailer
	otps     *otp.RedisStore
	recorder *fakeRecorder
	redis    *miniredis.Miniredis
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newFakeRepo()
	mailer := &fakeMailer{}
	recorder := &fakeRecorder{}
	otpStore := otp.NewRedisStore(client, 15*time.Minute)
	refresh := sessions.NewRedisStorage(client, 7*24*time.Hour)
	tokens := infrastructure.NewTokenManager([]byte("access"), []byte("refresh"), time.Hour, 7*24*time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewService(repo, otp.NewIssuer(otpStore, mailer), refresh, tokens, recorder, logger)
	return &serviceFixture{service: service, repo: repo, mailer: mailer, otps: otpStore, recorder: recorder, redis: mr}
}

func (f *serviceFixture) signUp(t *testing.T, email string) *user.User {
	t.Helper()
	result, err := f.service.SignUp(context.Background(), "Alice", email, "Passw0rd!", "127.0.0.1")
	require.NoError(t, err)
	return result.User
}

func TestSignUpRejectsWeakPassword(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.SignUp(context.Background(), "Alice", "alice@example.com", "weak", "127.0.0.1")
	require.ErrorIs(t, err, infrastructure.ErrPasswordPolicy)

	_, err = f.repo.UserByEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, infrastructure.ErrUserNotFound, "no user record is created on rejection")
}

func TestSignUpCreatesUnverifiedUserWithTokens(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.service.SignUp(context.Background(), "Alice", "alice@example.com", "Passw0rd!", "127.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.User.IsVerified)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	// the refresh token is usable immediately, before verification
	access, err := f.service.Refresh(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)
	f.signUp(t, "alice@example.com")

	_, err := f.service.SignUp(context.Background(), "Alice", "alice@example.com", "Passw0rd!", "127.0.0.1")
	assert.ErrorIs(t, err, infrastructure.ErrUserAlreadyExists)
}

func TestSignInUnknownUser(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.SignIn(context.Background(), "nobody@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, infrastructure.ErrUserNotFound)
}

func TestSignInLockoutAfterFiveFailures(t *testing.T) {
	f := newServiceFixture(t)
	u := f.signUp(t, "alice@example.com")
	f.repo.mutate(u.ID, func(u *user.User) { u.IsVerified = true })

	ctx := context.Background()
	for i := 0; i < LockoutThreshold; i++ {
		_, err := f.service.SignIn(ctx, "alice@example.com", "wrong-password")
		require.ErrorIs(t, err, infrastructure.ErrInvalidPassword)
	}

	// the correct password is rejected too while the lock holds
	_, err := f.service.SignIn(ctx, "alice@example.com", "Passw0rd!")
	assert.ErrorIs(t, err, infrastructure.ErrAccountLocked)

	// once the lock expires the account works again and the counter resets
	f.repo.mutate(u.ID, func(u *user.User) {
		u.LockedUntil = sql.NullTime{Time: time.Now().Add(-time.Second), Valid: true}
	})
	result, err := f.service.SignIn(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, result.Status)

	stored, err := f.repo.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LoginAttempts)
}

func TestSignInFifthAttemptWithCorrectPasswordSucceeds(t *testing.T) {
	f := newServiceFixture(t)
	u := f.signUp(t, "alice@example.com")
	f.repo.mutate(u.ID, func(u *user.User) { u.IsVerified = true })

	ctx := context.Background()
	for i := 0; i < LockoutThreshold-1; i++ {
		_, err := f.service.SignIn(ctx, "alice@example.com", "wrong-password")
		require.ErrorIs(t, err, infrastructure.ErrInvalidPassword)
	}

	result, err := f.service.SignIn(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, result.Status)

	stored, err := f.repo.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LoginAttempts)
	assert.False(t, stored.LockedUntil.Valid)
}

func TestSignInUnverifiedIssuesVerificationOTP(t *testing.T) {
	f := newServiceFixture(t)
	f.signUp(t, "alice@example.com")
	ctx := context.Background()

	result, err := f.service.SignIn(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, StatusEmailNotVerified, result.Status)
	assert.Empty(t, result.AccessToken)

	code := f.mailer.lastCode(t)
	stored, err := f.otps.Find(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, otp.PurposeVerification, stored.Purpose)
}

func TestVerificationFlow(t *testing.T) {
	f := newServiceFixture(t)
	u := f.signUp(t, "alice@example.com")
	ctx := context.Background()

	result, err := f.service.SignIn(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	require.Equal(t, StatusEmailNotVerified, result.Status)
	code := f.mailer.lastCode(t)

	_, err = f.service.VerifyOTP(ctx, "alice@example.com", "000000")
	assert.ErrorIs(t, err, infrastructure.ErrOTPInvalid)

	verified, err := f.service.VerifyOTP(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Empty(t, verified.AccessToken, "verification success carries no token")

	stored, err := f.repo.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)

	// the code is consumed
	_, err = f.service.VerifyOTP(ctx, "alice@example.com", code)
	assert.ErrorIs(t, err, infrastructure.ErrOTPInvalid)

	// a fresh sign-in now authenticates directly
	again, err := f.service.SignIn(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, again.Status)
	assert.NotEmpty(t, again.AccessToken)
}

func TestTwoFactorFlow(t *testing.T) {
	f := newServiceFixture(t)
	u := f.signUp(t, "alice@example.com")
	f.repo.mutate(u.ID, func(u *user.User) {
		u.IsVerified = true
		u.TwoFactorEnabled = true
	})
	ctx := context.Background()

	result, err := f.service.SignIn(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, StatusTwoFactorPending, result.Status)
	assert.Empty(t, result.AccessToken)

	code := f.mailer.lastCode(t)
	verified, err := f.service.VerifyOTP(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.False(t, verified.Verified)
	assert.NotEmpty(t, verified.AccessToken)
	assert.True(t, verified.User.IsVerified, "verification state is unchanged by 2FA")
}

func TestVerifyOTPWrongPurpose(t *testing.T) {
	f := newServiceFixture(t)
	u := f.signUp(t, "alice@example.com")
	f.repo.mutate(u.ID, func(u *user.User) {
		u.IsVerified = true
		u.TwoFactorEnabled = true
	})
	ctx := context.Background()

	// a verification-purpose code presented during a 2FA check is rejected
	require.NoError(t, f.otps.Save(ctx, &otp.Code{
		Email:     "alice@example.com",
		Code:      "123456",
		Purpose:   otp.PurposeVerification,
		CreatedAt: time.Now(),
	}))

	_, err := f.service.VerifyOTP(ctx, "alice@example.com", "123456")
	assert.ErrorIs(t, err, infrastructure.ErrOTPWrongType)
}

func TestSendOTPUnknownUser(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.SendVerificationOTP(context.Background(), "nobody@example.com", "127.0.0.1")
	assert.ErrorIs(t, err, infrastructure.ErrUserNotFound)
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.service.SignUp(ctx, "Alice", "alice@example.com", "Passw0rd!", "127.0.0.1")
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, result.User.ID, result.RefreshToken, "127.0.0.1"))

	_, err = f.service.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, infrastructure.ErrInvalidRefreshToken)
	assert.Contains(t, f.recorder.actions, "logout")
}

func TestRefreshRejectsGarbage(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, infrastructure.ErrInvalidRefreshToken)
}
