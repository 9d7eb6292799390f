package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/parleylive/room-coordinator/internal/config"
	"github.com/parleylive/room-coordinator/internal/coordinator"
	"github.com/parleylive/room-coordinator/internal/events"
	"github.com/parleylive/room-coordinator/internal/handler"
	"github.com/parleylive/room-coordinator/internal/provider"
	"github.com/parleylive/room-coordinator/internal/token"
	pkglog "github.com/parleylive/room-coordinator/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "room-coordinator",
	})
	logger := pkglog.L()

	// Token issuer: the signing secret is fixed for the process
	// lifetime and never leaves this side.
	issuer, err := token.NewIssuer(cfg.Provider.LiveKit.APIKey, cfg.Provider.LiveKit.APISecret, cfg.Token.TTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token issuer")
	}

	// Resolve the provider variant once at startup.
	prov, err := provider.New(cfg.Provider, issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create provider")
	}
	logger.Info().Str(pkglog.FieldProvider, cfg.Provider.Driver).Msg("provider initialized")

	// Event bus
	bus, err := events.New(cfg.Events)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create event bus")
	}
	defer bus.Close()

	// Coordinator
	coord := coordinator.New(prov, bus, cfg.Room)

	// HTTP façade
	httpHandler := handler.NewHandler(coord)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("room-coordinator starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Periodic room-count metrics.
	g.Go(func() error {
		interval := cfg.Metrics.Interval
		if interval <= 0 {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				logger.Info().Int("rooms", coord.CountRooms(ctx)).Msg("active rooms")
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("room-coordinator exited with error")
	}
	logger.Info().Msg("room-coordinator stopped")
}
