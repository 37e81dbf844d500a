package api

import (
	"log/slog"
	"net/http"
	"time"

	"bazaar/config"
	"bazaar/internal/auth"
	"bazaar/internal/user"

	"github.com/gorilla/mux"
)

const (
	generalRateLimit = 25
	signInRateLimit  = 5
	rateLimitWindow  = 15 * time.Minute
)

type Server struct {
	router *mux.Router
	logger *slog.Logger
}

func NewServer(
	cfg *config.Config,
	authHandler *auth.JSONHandler,
	authMiddleware *auth.Middleware,
	userHandler *user.JSONHandler,
	logger *slog.Logger,
) *Server {
	router := mux.NewRouter()
	router.Use(RequestLogging(logger))
	router.Use(NewSessionSweeper(cfg.SessionSecret, cfg.SessionIdleTimeout).Middleware)

	router.HandleFunc("/health", healthCheck).Methods("GET")

	users := router.PathPrefix("/api/users").Subrouter()
	users.Use(NewIPRateLimiter(generalRateLimit, rateLimitWindow).Handler)

	signInLimiter := NewIPRateLimiter(signInRateLimit, rateLimitWindow)
	auth.SetupJSONAuthRoutes(users, authHandler, authMiddleware, signInLimiter.Middleware)
	user.SetupJSONUserRoutes(users, userHandler, authMiddleware.RequireAuth, authMiddleware.RequireAdmin)

	return &Server{router: router, logger: logger}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) Run(addr string) error {
	s.logger.Info("starting HTTP server", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router, used by the HTTP tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
