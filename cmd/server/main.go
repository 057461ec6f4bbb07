package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/router"
	"github.com/anonto42/nano-blog/backend/internal/validators"
	"github.com/anonto42/nano-blog/backend/pkg/config"
	"github.com/anonto42/nano-blog/backend/pkg/firebase"
	"github.com/anonto42/nano-blog/backend/pkg/media"
	"github.com/labstack/echo/v4"
	"github.com/spf13/pflag"
)

func main() {
	storage := pflag.String("storage", "", "storage backend: postgres, sqlite or memory (overrides STORAGE)")
	port := pflag.String("port", "", "HTTP port (overrides PORT)")
	seed := pflag.Bool("seed", false, "create the admin account from ADMIN_* settings if it does not exist")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *storage != "" {
		cfg.Storage = *storage
	}
	if *port != "" {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize database connections
	ctx := context.Background()
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Error("closing databases", slog.Any("error", err))
		}
	}()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseCheckRevoked)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	mediaStore, err := media.NewLocalStore(cfg.UploadDir, cfg.MediaBaseURL, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, cfg, logger)

	app, err := router.SetupRoutes(e, router.Deps{
		Config:   cfg,
		Health:   db,
		SQL:      db.SQL,
		Mongo:    db.Mongo,
		Firebase: firebaseApp,
		Media:    mediaStore,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	if *seed {
		if err := seedAdmin(ctx, app, cfg); err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	}

	app.Engine.Start()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-sigCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
	// drain pending notifications before the databases close
	app.Engine.Close()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func seedAdmin(ctx context.Context, app *router.App, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD must be set to seed the admin account")
	}
	admin, err := app.Auth.EnsureAdmin(ctx, models.RegisterRequest{
		Username:    cfg.AdminUsername,
		Email:       cfg.AdminEmail,
		Password:    cfg.AdminPassword,
		DisplayName: "Administrator",
	})
	if err != nil {
		return err
	}
	log.Printf("Admin account %q ready (id %d).", admin.Username, admin.ID)
	return nil
}
