package auth

import (
	"database/sql"
	"log/slog"

	"bazaar/config"
	"bazaar/infrastructure"
	"bazaar/internal/activity"
	"bazaar/internal/auth/otp"
	"bazaar/internal/email"
	"bazaar/internal/sessions"
	"bazaar/internal/user"

	"github.com/go-redis/redis/v8"
	"github.com/google/wire"
)

// ProvideUserStorage is a Wire provider function that creates a user.PostgresStorage
func ProvideUserStorage(db *sql.DB) *user.PostgresStorage {
	return user.NewUserPostgresStorage(db)
}

// ProvideActivityStorage is a Wire provider function that creates an activity.PostgresStorage
func ProvideActivityStorage(db *sql.DB) *activity.PostgresStorage {
	return activity.NewActivityPostgresStorage(db)
}

// ProvideUserRepository is a Wire provider function that creates the auth UserRepository
func ProvideUserRepository(db *sql.DB, storage *user.PostgresStorage) UserRepository {
	return NewPostgresRepository(db, storage, storage, storage)
}

// ProvideTokenManager is a Wire provider function that creates the TokenManager
func ProvideTokenManager(cfg *config.Config) *infrastructure.TokenManager {
	return infrastructure.NewTokenManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

// ProvideEmailSender is a Wire provider function that creates the email Sender
func ProvideEmailSender(cfg *config.Config) *email.Sender {
	return email.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
}

// ProvideOTPStore is a Wire provider function that creates the Redis OTP store
func ProvideOTPStore(client *redis.Client, cfg *config.Config) otp.Store {
	return otp.NewRedisStore(client, cfg.OTPTTL)
}

// ProvideOTPIssuer is a Wire provider function that creates the OTP issuer
func ProvideOTPIssuer(store otp.Store, sender *email.Sender) *otp.Issuer {
	return otp.NewIssuer(store, sender)
}

// ProvideRefreshTokenStore is a Wire provider function that creates the refresh-token index
func ProvideRefreshTokenStore(client *redis.Client, cfg *config.Config) sessions.RefreshTokenStore {
	return sessions.NewRedisStorage(client, cfg.RefreshTokenTTL)
}

// ProvidePasswordChanger is a Wire provider function that exposes the password policy
func ProvidePasswordChanger() user.PasswordChanger {
	return PasswordPolicy{}
}

// ProvideAuthService is a Wire provider function that creates the auth Service
func ProvideAuthService(
	repo UserRepository,
	otps *otp.Issuer,
	refresh sessions.RefreshTokenStore,
	tokens *infrastructure.TokenManager,
	recorder *activity.PostgresStorage,
	logger *slog.Logger,
) *Service {
	return NewService(repo, otps, refresh, tokens, recorder, logger)
}

// ProvideJSONAuthHandler is a Wire provider function that creates the JSONHandler
func ProvideJSONAuthHandler(service *Service) *JSONHandler {
	return NewJSONAuthHandler(service)
}

// ProvideAuthMiddleware is a Wire provider function that creates the auth Middleware
func ProvideAuthMiddleware(tokens *infrastructure.TokenManager, repo UserRepository) *Middleware {
	return NewAuthMiddleware(tokens, repo)
}

var Set = wire.NewSet(
	ProvideUserStorage,
	ProvideActivityStorage,
	ProvideUserRepository,
	ProvideTokenManager,
	ProvideEmailSender,
	ProvideOTPStore,
	ProvideOTPIssuer,
	ProvideRefreshTokenStore,
	ProvidePasswordChanger,
	ProvideAuthService,
	ProvideJSONAuthHandler,
	ProvideAuthMiddleware,
)
