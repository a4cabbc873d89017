package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/motora-erp/motora-erp/internal/app"
	"github.com/motora-erp/motora-erp/internal/platform/db"
	"github.com/motora-erp/motora-erp/internal/shared"
	"github.com/motora-erp/motora-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	idemStore := shared.NewIdempotencyStore(dbpool)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{
				Type: jobs.TaskTypeSendEmail,
				Handler: jobs.NewSendEmailHandler(jobs.EmailConfig{
					Host: cfg.SMTPHost,
					Port: cfg.SMTPPort,
					From: cfg.SMTPFrom,
				}, logger),
			},
			{
				Type:    jobs.TaskTypeWebhookRelay,
				Handler: jobs.NewWebhookRelayHandler(nil, logger),
			},
		},
	})
	if err != nil {
		logger.Error("create worker", slog.Any("error", err))
		os.Exit(1)
	}

	// Daily idempotency-key retention sweep.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := idemStore.Cleanup(ctx, 30*24*time.Hour); err != nil {
					logger.Warn("idempotency cleanup", slog.Any("error", err))
				}
			}
		}
	}()

	logger.Info("worker starting", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
