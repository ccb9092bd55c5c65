package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/waveroom/admission-service/config"
	"github.com/waveroom/admission-service/internal/postgres"
	"github.com/waveroom/admission-service/internal/service"
	httpx "github.com/waveroom/admission-service/internal/transport/http"
	"github.com/waveroom/admission-service/internal/transport/ws"
	"github.com/waveroom/admission-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting admission-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- repos ---
	roomRepo := postgres.NewRoomRepository(pool)
	partRepo := postgres.NewParticipantRepository(pool)

	// --- services ---
	matchmaker := service.NewMatchmaker(roomRepo, cfg.Admission.MergeRadiusM)
	exempt := service.NewAllowList(cfg.Admission.GhostAllowList)
	admissionSvc := service.NewAdmissionService(roomRepo, partRepo, matchmaker, exempt)
	admissionSvc.SetCapacity(cfg.Admission.Capacity)
	roomsSvc := service.NewRoomsService(roomRepo)
	presenceSvc := service.NewPresenceService(partRepo)
	reaper := service.NewReaper(roomRepo, cfg.Admission.Staleness(), cfg.Admission.Interval())

	// --- WS Hub & Server ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, presenceSvc)

	// --- HTTP ---
	handler := httpx.NewHandler(admissionSvc, roomsSvc, presenceSvc)
	router := httpx.NewRouter(handler, presenceSvc, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- reaper & http ---
	reapCtx, stopReaper := context.WithCancel(ctx)
	go reaper.Run(reapCtx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	stopReaper()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
