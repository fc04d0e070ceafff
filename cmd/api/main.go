package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chachabrian/sendit-backend/internal/config"
	"github.com/chachabrian/sendit-backend/internal/database"
	"github.com/chachabrian/sendit-backend/internal/handlers"
	"github.com/chachabrian/sendit-backend/internal/logger"
	"github.com/chachabrian/sendit-backend/internal/repository"
	"github.com/chachabrian/sendit-backend/internal/server"
	"github.com/chachabrian/sendit-backend/internal/services"
	"github.com/chachabrian/sendit-backend/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(&cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, appLogger)
	stop()
	if err != nil {
		appLogger.WithFields(logger.Fields{"error": err.Error()}).Fatal("Server exited with error")
	}
	appLogger.Info("Server stopped")
}

// run serves until ctx is cancelled; every resource it opens is closed before it returns
func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) error {
	db, err := database.InitDB(&cfg.Database, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			appLogger.WithFields(logger.Fields{"error": err.Error()}).Error("Failed to close database connection")
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Redis backs the destination cache and the status channel; both are optional
	var (
		cache     services.Cache = services.NopCache{}
		notifiers []services.Notifier
	)
	if cfg.Redis.URL != "" {
		rdb, err := services.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			appLogger.WithFields(logger.Fields{"error": err.Error()}).Warn("Redis unavailable, running without cache and pub/sub")
		} else {
			defer rdb.Close()
			cache = services.NewRedisCache(rdb, cfg.Redis.CacheTTL())
			notifiers = append(notifiers, services.NewRedisPublisher(rdb))
		}
	}

	storage, err := services.NewStorage(&cfg.Storage, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	uploadDir := ""
	if local, ok := storage.(*services.LocalStorage); ok {
		uploadDir = local.Dir()
	}

	hub := services.NewHub(appLogger)
	go hub.Run(ctx)
	notifiers = append(notifiers, hub)

	if cfg.Email.Enabled() {
		mailer := utils.NewMailer(cfg.Email.From, cfg.Email.Password, cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Storage.BaseURL)
		notifiers = append(notifiers, services.NewEmailNotifier(mailer, appLogger))
	}

	store := repository.NewStore(db)
	tokens := utils.NewTokenService(cfg.Security.JWTSecret, cfg.Security.TokenTTL())
	bcryptCost := cfg.Security.BcryptCost

	srv := server.New(cfg, &handlers.Deps{
		DB:           db,
		Tokens:       tokens,
		Users:        services.NewUserService(store, tokens, bcryptCost, cfg.Security.EnforceUserSelfAccess, appLogger),
		Admins:       services.NewAdminService(store, tokens, bcryptCost, appLogger),
		Parcels:      services.NewParcelService(store, storage, services.NewMultiNotifier(appLogger, notifiers...), appLogger),
		Destinations: services.NewDestinationService(store, cache, appLogger),
		Reports:      services.NewReportService(store, appLogger),
		Hub:          hub,
		Log:          appLogger,
		UploadDir:    uploadDir,
	})

	if cfg.Security.EnforceUserSelfAccess {
		appLogger.Info("User self-access enforcement enabled")
	} else {
		appLogger.Warn("User update and delete are open to any caller; set ENFORCE_USER_SELF_ACCESS=true to restrict them")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		if err := srv.Stop(context.Background()); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	}
}
