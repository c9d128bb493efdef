// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - The `nila serve` handler: runs the conversation service.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jeranaias/nila-tui/internal/llm"
	"github.com/jeranaias/nila-tui/internal/server"
	"github.com/jeranaias/nila-tui/internal/storage"
)

// sessionPurgeInterval is how often expired session rows are swept.
const sessionPurgeInterval = time.Hour

// HandleServe runs the conversation service until SIGINT/SIGTERM, then
// drains in-flight requests within the configured shutdown window.
func HandleServe(args Args) error {
	// .env carries the upstream key in the original deployment shape.
	// Absence is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ENV_LOAD_SKIPPED | error=%v", err)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.Open(cfg.Server.DBPath,
		storage.WithSessionTTL(time.Duration(cfg.Server.SessionTTLHours)*time.Hour))
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	replies := llm.New(cfg.Server.UpstreamKey, llm.WithModel(cfg.Server.UpstreamModel))
	if !replies.IsConfigured() {
		log.Printf("UPSTREAM_NOT_CONFIGURED | set NILA_API_KEY or OPENROUTER_API_KEY; /chat will refuse until then")
	}

	srv := server.New(cfg.Server, store, replies)

	// Opportunistic expired-session sweep: once at boot, then hourly.
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	defer stopPurge()
	go purgeSessions(purgeCtx, store)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		log.Printf("SERVER_STOPPING | signal=%s", s)

		ctx, cancel := context.WithTimeout(context.Background(),
			drainTimeout(cfg.Server.ShutdownTimeoutSecs))
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}

// drainTimeout is a floor so a zero/negative config value still drains.
func drainTimeout(secs int) time.Duration {
	if secs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(secs) * time.Second
}

// purgeSessions sweeps expired session rows until ctx is cancelled.
func purgeSessions(ctx context.Context, store *storage.Store) {
	sweep := func() {
		n, err := store.PurgeExpiredSessions(ctx)
		if err != nil {
			log.Printf("SESSION_PURGE_FAILED | error=%v", err)
			return
		}
		if n > 0 {
			log.Printf("SESSION_PURGE | removed=%d", n)
		}
	}

	sweep()

	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
