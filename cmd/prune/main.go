// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command prune deletes long-expired refresh sessions and aged login-attempt
// rows. It is meant to run from a scheduler (cron, Kubernetes CronJob) and
// exits once a single pass completes.
//
// Retention comes from SESSION_RETENTION and LOGIN_ATTEMPT_RETENTION.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/taibuivan/bizcore/internal/identity/auth"
	"github.com/taibuivan/bizcore/internal/platform/config"
	"github.com/taibuivan/bizcore/internal/platform/constants"
	pgstore "github.com/taibuivan/bizcore/internal/platform/postgres"
)

// runTimeout bounds one prune pass.
const runTimeout = 5 * time.Minute

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).
		With(slog.String("app", constants.AppName), slog.String("command", "prune"))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("startup failure", slog.String("context", "load configuration"), slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, pgstore.BatchPool, log)
	if err != nil {
		log.Error("startup failure", slog.String("context", "connect to postgres"), slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	service := auth.NewService(auth.Dependencies{
		Sessions: auth.NewSessionRepository(pool),
		Attempts: auth.NewLoginAttemptRepository(pool),
	}, auth.Options{})

	report, err := service.Prune(ctx, cfg.SessionRetention, cfg.LoginAttemptRetention)
	if err != nil {
		log.Error("prune_failed", slog.Any("error", err))
		pool.Close()
		os.Exit(1)
	}

	log.Info("prune_completed",
		slog.Int64("sessions_deleted", report.SessionsDeleted),
		slog.Int64("login_attempts_deleted", report.LoginAttemptsDeleted),
		slog.Duration("session_retention", cfg.SessionRetention),
		slog.Duration("login_attempt_retention", cfg.LoginAttemptRetention),
	)
}
