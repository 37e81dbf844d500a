//go:build wireinject
// +build wireinject

package di

import (
	"database/sql"
	"log/slog"

	"bazaar/config"
	"bazaar/internal/api"
	"bazaar/internal/auth"
	"bazaar/internal/user"

	"github.com/go-redis/redis/v8"
	"github.com/google/wire"
)

func InitializeServer(cfg *config.Config, db *sql.DB, client *redis.Client, logger *slog.Logger) *api.Server {
	wire.Build(
		auth.Set,
		user.Set,
		api.NewServer,
	)
	return &api.Server{}
}
