package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/arena-backend/internal/arena"
	"github.com/DoyleJ11/arena-backend/internal/config"
	"github.com/DoyleJ11/arena-backend/internal/engine"
	"github.com/DoyleJ11/arena-backend/internal/httpapi"
	"github.com/DoyleJ11/arena-backend/internal/hub"
	"github.com/DoyleJ11/arena-backend/internal/logging"
	"github.com/DoyleJ11/arena-backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules := engine.DefaultRules()
	rules.WorldWidth = cfg.WorldWidth
	rules.WorldHeight = cfg.WorldHeight
	rules.MaxProjectiles = cfg.MaxProjectiles

	h := hub.NewHub(ctx, arena.Config{
		TickRate:    cfg.TickRate,
		MaxPlayers:  cfg.MaxPlayers,
		Rules:       rules,
		Logger:      log,
		IdleTimeout: cfg.IdleTimeout,
	}, hub.WithMaxArenas(cfg.MaxArenas))

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, ws.Options{
		Logger:         log,
		OriginPatterns: cfg.AllowedOrigins,
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Int("tick_rate", cfg.TickRate))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		h.Send(hub.ShutdownHub{})

		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
