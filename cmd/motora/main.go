package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/motora-erp/motora-erp/internal/app"
	"github.com/motora-erp/motora-erp/internal/auth"
	"github.com/motora-erp/motora-erp/internal/authn"
	"github.com/motora-erp/motora-erp/internal/authz"
	"github.com/motora-erp/motora-erp/internal/departments"
	"github.com/motora-erp/motora-erp/internal/invites"
	"github.com/motora-erp/motora-erp/internal/observability"
	"github.com/motora-erp/motora-erp/internal/platform/cache"
	"github.com/motora-erp/motora-erp/internal/platform/db"
	"github.com/motora-erp/motora-erp/internal/platform/idp"
	"github.com/motora-erp/motora-erp/internal/profiles"
	"github.com/motora-erp/motora-erp/internal/relay"
	"github.com/motora-erp/motora-erp/internal/shared"
	"github.com/motora-erp/motora-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "motora_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)
	idemStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("create job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	profileRepo := profiles.NewRepository(dbpool)
	profileService := profiles.NewService(profileRepo)

	permCache := departments.NewPermissionCache(redisClient, cfg.PermissionCacheTTL)
	deptRepo := departments.NewRepository(dbpool)
	deptService := departments.NewService(deptRepo, permCache)

	authzMW := authz.Middleware{
		Profiles:    profileService,
		Permissions: deptService,
		Logger:      logger,
		Observer:    metrics,
	}

	// Bearer verification: the hosted identity provider when configured,
	// otherwise local HMAC verification.
	var idpClient *idp.Client
	var verifier authn.Verifier
	if cfg.IDPURL != "" {
		idpClient = idp.NewClient(cfg.IDPURL, cfg.IDPServiceKey)
		verifier = idpClient
	} else {
		verifier = authn.NewJWTVerifier(cfg.JWTSecret)
	}
	guard := authn.NewGuard(verifier)

	authService := auth.NewService(profileRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)
	deptHandler := departments.NewHandler(logger, deptService, auditLogger, authzMW)
	permHandler := authz.NewPermissionsHandler(logger, deptService, authzMW)

	var invitesHandler *invites.Handler
	if idpClient != nil {
		inviteService := invites.NewService(logger, idpClient, profileService, idemStore, auditLogger, jobClient)
		invitesHandler = invites.NewHandler(logger, guard, profileService, inviteService)
	} else {
		logger.Warn("invitations disabled: no identity provider configured")
	}

	relayService := relay.NewService(jobClient, cfg.RelayHosts())
	relayHandler := relay.NewHandler(logger, guard, profileService, relayService)

	jobHandler := jobs.NewHandler(asynq.NewInspector(redisOpts), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		AuthHandler:        authHandler,
		DepartmentsHandler: deptHandler,
		PermissionsHandler: permHandler,
		InvitesHandler:     invitesHandler,
		RelayHandler:       relayHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
}
