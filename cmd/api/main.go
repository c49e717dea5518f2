// @title                       VartaLang API
// @version                     1.0
// @description                 Regional-language learning platform: accounts, courses and enrollments.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vartalang/vartalang-api/internal/app"
	"github.com/vartalang/vartalang-api/internal/pkg/config"
	"github.com/vartalang/vartalang-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "vartalang-api",
	})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting vartalang api")

	// Canceled on SIGINT or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}

	if err := application.SeedAdmin(ctx); err != nil {
		log.Error().Err(err).Msg("admin bootstrap failed")
	}

	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("application error")
		os.Exit(1)
	}

	log.Info().Msg("vartalang api stopped")
}
