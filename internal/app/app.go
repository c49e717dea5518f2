package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/vartalang/vartalang-api/internal/api"
	"github.com/vartalang/vartalang-api/internal/api/handler"
	"github.com/vartalang/vartalang-api/internal/core/service"
	"github.com/vartalang/vartalang-api/internal/infrastructure/db/mongo"
	"github.com/vartalang/vartalang-api/internal/infrastructure/db/redis"
	"github.com/vartalang/vartalang-api/internal/infrastructure/token"
	"github.com/vartalang/vartalang-api/internal/pkg/config"
	"github.com/vartalang/vartalang-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// App wires together all dependencies and runs the HTTP API.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	mongo *mongodriver.Client
	redis *goredis.Client

	admin      *service.AdminService
	httpServer *http.Server
}

// New connects to MongoDB and Redis, ensures indexes and builds the router.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	redisClient, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	a := &App{cfg: cfg, log: log, mongo: mongoClient, redis: redisClient}
	if err := a.build(ctx, db); err != nil {
		a.close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, db *mongodriver.Database) error {
	users := mongo.NewUserRepository(db)
	courses := mongo.NewCourseRepository(db)
	if err := mongo.EnsureIndexes(ctx, users, courses); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	tokens, err := token.NewManager(token.Config{
		AccessSecret:  a.cfg.JWT.AccessSecret,
		RefreshSecret: a.cfg.JWT.RefreshSecret,
		AccessTTL:     a.cfg.JWT.AccessTTL,
		RefreshTTL:    a.cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return err
	}

	authService := service.NewAuthService(users, tokens, logger.Component("auth"))
	courseService := service.NewCourseService(courses, users, logger.Component("courses"))
	a.admin = service.NewAdminService(users, logger.Component("admin"))

	rl := a.cfg.RateLimit
	router := api.NewRouter(api.Deps{
		Logger:      a.log,
		FrontendURL: a.cfg.FrontendURL,
		Tokens:      tokens,
		Users:       users,
		Auth:        authService,
		Courses:     courseService,
		Admin:       a.admin,
		APILimiter:  redis.NewFixedWindowLimiter(a.redis, "rl:api:", rl.APIMax, rl.Window),
		AuthLimiter: redis.NewFixedWindowLimiter(a.redis, "rl:auth:", rl.AuthMax, rl.Window),
		Health: map[string]handler.Pinger{
			"mongodb": func(ctx context.Context) error { return mongo.Ping(ctx, a.mongo) },
			"redis":   func(ctx context.Context) error { return redis.Ping(ctx, a.redis) },
		},
	})

	a.httpServer = &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// SeedAdmin creates the configured bootstrap admin when it does not exist yet.
func (a *App) SeedAdmin(ctx context.Context) error {
	adm := a.cfg.Admin
	if adm.Email == "" || adm.Password == "" {
		return nil
	}
	created, err := a.admin.EnsureAdmin(ctx, adm.Name, adm.Email, adm.Password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if !created {
		a.log.Debug().Str("email", adm.Email).Msg("bootstrap admin already present")
	}
	return nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.httpServer.Addr).Str("env", a.cfg.Env).Msg("starting HTTP server")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		a.close(context.Background())
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the server and closes the database clients.
func (a *App) Shutdown() error {
	a.log.Info().Msg("shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error().Err(err).Msg("http server shutdown error")
	}
	a.close(ctx)

	a.log.Info().Msg("application shutdown complete")
	return nil
}

func (a *App) close(ctx context.Context) {
	if err := a.redis.Close(); err != nil {
		a.log.Error().Err(err).Msg("redis close error")
	}
	if err := a.mongo.Disconnect(ctx); err != nil {
		a.log.Error().Err(err).Msg("mongo disconnect error")
	}
}
