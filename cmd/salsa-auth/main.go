package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	salsaauth "github.com/hancush/salsa-auth"
	"github.com/hancush/salsa-auth/config"
	"github.com/hancush/salsa-auth/mailer"
	"github.com/hancush/salsa-auth/salsa"
)

func main() {
	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := salsaauth.NewZerologLogger(zlog)

	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to open database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := salsaauth.EnsureSchema(ctx, db); err != nil {
		zlog.Fatal().Err(err).Msg("failed to ensure schema")
	}

	repo := salsaauth.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := salsaauth.NewActivationTokens(
		cfg.SigningSecret,
		salsaauth.WithTokenExpiryDays(cfg.TokenExpiryDays),
	)

	smtp := mailer.NewMailer(&zlog)

	verification, err := salsaauth.NewVerificationMailer(cfg, tokens, smtp)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to build verification mailer")
	}
	verification.WithLogger(logger)

	registry := salsa.New(
		cfg.SalsaBaseURL,
		cfg.SalsaAPIToken,
		salsa.WithLogger(logger),
	)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	salsaauth.RegisterSalsaAuthRoutes(
		srv.Router(),
		salsaauth.WithControllerConfig(cfg),
		salsaauth.WithControllerRepo(repo),
		salsaauth.WithControllerRegistry(registry),
		salsaauth.WithControllerMailer(verification),
		salsaauth.WithControllerTokens(tokens),
		salsaauth.WithControllerLogger(logger),
		salsaauth.WithControllerDebug(cfg.Debug),
	)

	zlog.Info().Str("addr", cfg.ListenAddr).Msg("listening")

	srv.Serve(cfg.ListenAddr)

	waitExitSignal()
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
