package user

import (
	"database/sql"
	"log/slog"

	"bazaar/config"
	"bazaar/infrastructure"

	"github.com/google/wire"
)

// ProvideUserService is a Wire provider function that creates the user Service
func ProvideUserService(
	db *sql.DB,
	storage *PostgresStorage,
	passwords PasswordChanger,
	tokens *infrastructure.TokenManager,
	cfg *config.Config,
	logger *slog.Logger,
) *Service {
	return NewService(db, storage, storage, storage, storage, passwords, tokens, cfg.AdminEmail, logger)
}

// ProvideJSONUserHandler is a Wire provider function that creates the JSONHandler
func ProvideJSONUserHandler(service *Service) *JSONHandler {
	return NewJSONUserHandler(service)
}

var Set = wire.NewSet(
	ProvideUserService,
	ProvideJSONUserHandler,
)
