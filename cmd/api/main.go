package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"woodshop/internal/auth"
	"woodshop/internal/cache"
	"woodshop/internal/config"
	"woodshop/internal/database"
	"woodshop/internal/jobs"
	"woodshop/internal/logger"
	"woodshop/internal/server"
	"woodshop/internal/services"
	"woodshop/internal/validator"
)

// @title           Woodshop API
// @version         1.0
// @description     Woodshop tracks carpentry orders from entry to delivery, with role-based access and a full change history.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 15 * time.Second

func main() {
	// Bootstrap logger until the configuration is known
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.InitWithFile(appConfig.Env, logger.FileOptions{
		Path:       appConfig.LogFile,
		MaxSizeMB:  appConfig.LogMaxSizeMB,
		MaxBackups: appConfig.LogMaxBackups,
		MaxAgeDays: appConfig.LogMaxAgeDays,
	})
	log := logger.Get()

	if appConfig.IsProduction() && appConfig.JWTSecret == "fallback-secret-key-for-dev-only" {
		return errors.New("JWT_SECRET must be set in production")
	}

	validator.Register()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var revocations services.RevocationStore
	if appConfig.RedisAddr != "" {
		client, err := cache.Connect(ctx, cache.Config{Addr: appConfig.RedisAddr, DB: appConfig.RedisDB})
		if err != nil {
			log.Warnf("redis unavailable, revocations are checked in the database only: %v", err)
		} else {
			defer client.Close()
			revocations = cache.NewRevocationCache(client)
			log.Infof("Session revocation cache connected at %s", appConfig.RedisAddr)
		}
	}

	svc := server.NewServices(dbManager.DB(), revocations)

	if appConfig.DefaultAdminUsername != "" && appConfig.DefaultAdminPassword != "" {
		admin, created, err := svc.Users.EnsureAdmin(appConfig.DefaultAdminUsername, appConfig.DefaultAdminEmail, appConfig.DefaultAdminPassword)
		if err != nil {
			return fmt.Errorf("failed to seed default administrator: %w", err)
		}
		if created {
			log.Infow("default administrator created", "user_id", admin.ID, "username", admin.Username)
		}
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: appConfig.JWTSecret,
		TTL:    appConfig.JWTExpirationDur,
		Issuer: appConfig.JWTIssuer,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	scheduler, err := jobs.NewScheduler(jobs.Config{
		OrderStatusSpec:   appConfig.OrderStatusCron,
		SessionExpirySpec: appConfig.SessionExpiryCron,
	}, svc.Orders, svc.Sessions)
	if err != nil {
		return fmt.Errorf("failed to create job scheduler: %w", err)
	}
	scheduler.RefreshOrderStatuses()
	scheduler.Start()

	router := server.NewRouter(svc, tokens, server.Options{
		CORSOrigins:   appConfig.CORSOrigins,
		MetricsAPIKey: appConfig.MetricsAPIKey,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Woodshop backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		scheduler.Stop(context.Background())
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
