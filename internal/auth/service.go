package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bazaar/infrastructure"
	"bazaar/internal/activity"
	"bazaar/internal/auth/otp"
	"bazaar/internal/sessions"
	"bazaar/internal/user"

	"github.com/google/uuid"
)

type SignInStatus string

const (
	StatusAuthenticated    SignInStatus = "AUTHENTICATED"
	StatusEmailNotVerified SignInStatus = "EMAIL_NOT_VERIFIED"
	StatusTwoFactorPending SignInStatus = "2FA_ENABLED"
)

type SignInResult struct {
	Status      SignInStatus
	User        *user.User
	AccessToken string
}

type SignUpResult struct {
	User         *user.User
	AccessToken  string
	RefreshToken string
}

// VerifyResult reports which branch an OTP presentation completed. The
// verification branch carries no token; the 2FA branch does.
type VerifyResult struct {
	Verified    bool
	User        *user.User
	AccessToken string
}

// Service sequences the sign-in/sign-up checks: lookup, lock, password,
// verification, 2FA, token issuance. Each gate short-circuits.
type Service struct {
	repo     UserRepository
	policy   PasswordPolicy
	otps     *otp.Issuer
	refresh  sessions.RefreshTokenStore
	tokens   *infrastructure.TokenManager
	activity activity.Recorder
	logger   *slog.Logger
}

func NewService(
	repo UserRepository,
	otps *otp.Issuer,
	refresh sessions.RefreshTokenStore,
	tokens *infrastructure.TokenManager,
	recorder activity.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		otps:     otps,
		refresh:  refresh,
		tokens:   tokens,
		activity: recorder,
		logger:   logger,
	}
}

func tokenIdentity(u *user.User) infrastructure.TokenIdentity {
	return infrastructure.TokenIdentity{
		UserID:   u.ID,
		Name:     u.Name,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
		IsSeller: u.IsSeller,
	}
}

// SignUp validates the password, creates an unverified user and issues a
// token pair right away. Verification is only enforced at sign-in.
func (s *Service) SignUp(ctx context.Context, name, email, password, ip string) (*SignUpResult, error) {
	now := time.Now()
	newUser := &user.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.policy.Apply(newUser, password); err != nil {
		return nil, err
	}

	if err := s.repo.CreateUser(ctx, newUser); err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.GenerateAccessToken(tokenIdentity(newUser))
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(newUser.ID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh.Save(ctx, refreshToken, newUser.ID); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, newUser.ID, "register", ip)

	return &SignUpResult{User: newUser, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// SignIn walks the gates in order. A locked account is rejected before the
// password is checked and does not count an attempt.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	u, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if Locked(u, time.Now()) {
		return nil, infrastructure.ErrAccountLocked
	}

	if !verifyPassword(u.PasswordHash, password) {
		attempts, lockedUntil, err := s.repo.RecordFailedLogin(ctx, u.ID, LockoutThreshold, time.Now().Add(LockoutDuration))
		if err != nil {
			return nil, err
		}
		if lockedUntil.Valid {
			s.logger.Warn("account locked after repeated failures",
				"user_id", u.ID, "attempts", attempts, "locked_until", lockedUntil.Time)
		}
		return nil, infrastructure.ErrInvalidPassword
	}

	if err := s.repo.RecordSuccessfulLogin(ctx, u.ID); err != nil {
		return nil, err
	}

	if !u.IsVerified {
		if _, err := s.otps.Issue(ctx, u.Email, u.Name, otp.PurposeVerification); err != nil {
			return nil, err
		}
		return &SignInResult{Status: StatusEmailNotVerified}, nil
	}

	if u.TwoFactorEnabled {
		if _, err := s.otps.Issue(ctx, u.Email, u.Name, otp.PurposeTwoFactor); err != nil {
			return nil, err
		}
		return &SignInResult{Status: StatusTwoFactorPending}, nil
	}

	accessToken, err := s.tokens.GenerateAccessToken(tokenIdentity(u))
	if err != nil {
		return nil, err
	}
	return &SignInResult{Status: StatusAuthenticated, User: u, AccessToken: accessToken}, nil
}

// VerifyOTP completes the pending sign-in branch. The expected purpose is
// derived from the account state, not from the request.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*VerifyResult, error) {
	u, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !u.IsVerified {
		if err := s.otps.Consume(ctx, email, code, otp.PurposeVerification); err != nil {
			return nil, err
		}
		if err := s.repo.MarkVerified(ctx, u.ID); err != nil {
			return nil, err
		}
		u.IsVerified = true
		return &VerifyResult{Verified: true, User: u}, nil
	}

	if u.TwoFactorEnabled {
		if err := s.otps.Consume(ctx, email, code, otp.PurposeTwoFactor); err != nil {
			return nil, err
		}
		accessToken, err := s.tokens.GenerateAccessToken(tokenIdentity(u))
		if err != nil {
			return nil, err
		}
		return &VerifyResult{User: u, AccessToken: accessToken}, nil
	}

	return nil, infrastructure.ErrOTPInvalid
}

func (s *Service) SendVerificationOTP(ctx context.Context, email, ip string) error {
	return s.sendOTP(ctx, email, ip, otp.PurposeVerification)
}

func (s *Service) SendTwoFactorOTP(ctx context.Context, email, ip string) error {
	return s.sendOTP(ctx, email, ip, otp.PurposeTwoFactor)
}

func (s *Service) sendOTP(ctx context.Context, email, ip string, purpose otp.Purpose) error {
	u, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if _, err := s.otps.Issue(ctx, u.Email, u.Name, purpose); err != nil {
		return err
	}
	s.recordActivity(ctx, u.ID, "otp_sent:"+string(purpose), ip)
	return nil
}

// Refresh exchanges a refresh token for a new access token. The token must
// still be present in the index and is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	storedID, err := s.refresh.UserID(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if storedID != userID {
		return "", infrastructure.ErrInvalidRefreshToken
	}

	u, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, infrastructure.ErrUserNotFound) {
			return "", infrastructure.ErrInvalidRefreshToken
		}
		return "", err
	}

	return s.tokens.GenerateAccessToken(tokenIdentity(u))
}

func (s *Service) Logout(ctx context.Context, userID uuid.UUID, refreshToken, ip string) error {
	if err := s.refresh.Delete(ctx, refreshToken); err != nil {
		return err
	}
	s.recordActivity(ctx, userID, "logout", ip)
	return nil
}

func (s *Service) recordActivity(ctx context.Context, userID uuid.UUID, action, ip string) {
	if err := s.activity.Record(ctx, userID, action, ip); err != nil {
		s.logger.Error("failed to record activity", "action", action, "user_id", userID, "error", err)
	}
}
