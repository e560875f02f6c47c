package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/beaconapp/authcore/internal/config"
	"github.com/beaconapp/authcore/internal/middleware"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app   *fiber.App
	cfg   config.Config
	db    *pgxpool.Pool
	cache *redis.Client
}

// New instantiates the dev server. db and cache are optional; without them
// accounts and revocations live in process memory.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, log *slog.Logger) (*Server, error) {
	if !config.IsDev(cfg.AppEnv) {
		if db == nil {
			return nil, errors.New("database is required outside development")
		}
		if cache == nil {
			return nil, errors.New("redis is required outside development")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		// The client expects every error as a JSON body with a single
		// "error" field (validation failures respond directly with the
		// message/errors shape and never reach this handler).
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := http.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	setup(app, cfg, db, cache, log)

	return &Server{app: app, cfg: cfg, db: db, cache: cache}, nil
}

func setup(app *fiber.App, cfg config.Config, db *pgxpool.Pool, cache *redis.Client, log *slog.Logger) {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(log))

	registerHealthRoute(app, db, cache)

	var repo Repository
	if db != nil {
		repo = NewPostgresRepository(db)
	} else {
		repo = NewMemoryRepository()
	}

	var revoker Revoker
	if cache != nil {
		revoker = NewRedisRevoker(cache)
	} else {
		revoker = NewMemoryRevoker()
	}

	issuer := NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	handler := NewHandler(repo, issuer, revoker, log)

	auth := app.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", middleware.LoginRateLimit(cache, 5), handler.Login)

	authed := auth.Group("", RequireAuth(issuer, revoker, repo))
	authed.Delete("/logout", handler.Logout)
	authed.Put("/password", handler.UpdatePassword)
}

func registerHealthRoute(app *fiber.App, db *pgxpool.Pool, cache *redis.Client) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		dbStatus := "ok"
		redisStatus := "ok"

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				dbStatus = err.Error()
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx).Err(); err != nil {
				redisStatus = err.Error()
			}
		}

		status := http.StatusOK
		if dbStatus != "ok" || redisStatus != "ok" {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    fiber.Map{"postgres": dbStatus, "redis": redisStatus},
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Listener serves on an existing listener. Tests use this to bind an
// ephemeral port.
func (s *Server) Listener(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Test dispatches a request directly to the app without a network hop.
func (s *Server) Test(req *http.Request) (*http.Response, error) {
	return s.app.Test(req, int(30*time.Second/time.Millisecond))
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
