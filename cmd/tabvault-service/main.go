package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tabvault/tabvault/server/internal/api"
	"github.com/tabvault/tabvault/server/internal/browser/remote"
	"github.com/tabvault/tabvault/server/internal/config"
	"github.com/tabvault/tabvault/server/internal/dedup"
	"github.com/tabvault/tabvault/server/internal/engine"
	"github.com/tabvault/tabvault/server/internal/events"
	"github.com/tabvault/tabvault/server/internal/health"
	"github.com/tabvault/tabvault/server/internal/platform/factory"
	"github.com/tabvault/tabvault/server/internal/platform/logger"
	"github.com/tabvault/tabvault/server/internal/snooze"
	"github.com/tabvault/tabvault/server/internal/store"
	"github.com/tabvault/tabvault/server/internal/windows"
)

func main() {
	// Optional driver override (sqlite | postgres)
	dbDriver := flag.String("db-driver", "", "Override TABVAULT_DB_DRIVER (sqlite, postgres)")
	flag.Parse()

	log := logger.New("tabvault-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *dbDriver != "" {
		cfg.DBDriver = *dbDriver
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid db-driver override")
		}
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("bridge_url", cfg.BridgeURL).
		Msg("Tab vault service starting…")

	// -------- Storage layer -----------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := factory.NewStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Store unavailable")
	}

	// -------- Browser bridge & services -----
	br := remote.New(cfg.BridgeURL)
	ws := windows.NewService(st, br, events.NewBus(), log)
	eng := engine.NewService(st, br, ws, log, engine.Options{
		BatchSize:  cfg.RestoreBatchSize,
		BatchDelay: time.Duration(cfg.RestoreBatchDelayMS) * time.Millisecond,
	})

	wakeCh := make(chan struct{}, 1)
	alarms := snooze.NewTimerAlarms(func() {
		select {
		case wakeCh <- struct{}{}:
		default:
		}
	})
	sn := snooze.NewService(st, br, ws, alarms, log)
	dd := dedup.NewService(br, log)

	// Repair bindings and reload pending snoozes from durable state. The
	// bridge may not be up yet; both are retried by the sweep loop.
	if err := ws.Rebuild(ctx); err != nil {
		log.Warn().Err(err).Msg("Window binding rebuild failed at startup")
	}
	if err := sn.Prime(ctx); err != nil {
		log.Warn().Err(err).Msg("Snooze prime failed at startup")
	}

	go snoozeSweep(ctx, sn, wakeCh, time.Duration(cfg.SnoozeCheckSeconds)*time.Second, log)

	// -------- Health monitor ---------------
	storeHC := store.NewStoreHealthChecker(st, log, 5*time.Second)
	storeHC.Start(ctx, 30*time.Second)
	svcHC := health.NewServiceHealthChecker(log, storeHC)
	svcHC.Start(ctx, 30*time.Second)

	// -------- Router & Server --------------
	router := api.NewRouter(api.Deps{
		Store:     st,
		Windows:   ws,
		Engine:    eng,
		Snooze:    sn,
		Dedup:     dd,
		IsHealthy: svcHC.IsHealthy,
	})
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	cancel()
	alarms.Clear()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// snoozeSweep restores due snoozes when the alarm fires and on a fixed
// interval. The interval pass covers wakes missed while the bridge or the
// process was down.
func snoozeSweep(ctx context.Context, sn *snooze.Service, wakeCh <-chan struct{}, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-wakeCh:
		case <-ticker.C:
		}
		res, err := sn.WakePending(ctx, time.Now())
		if err != nil {
			log.Warn().Err(err).Msg("Snooze sweep failed")
			continue
		}
		if res.TabCount > 0 {
			log.Info().Int("tabs", res.TabCount).Msg("Restored due snoozes")
		}
	}
}
