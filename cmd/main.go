package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/onemedia/broadcast-service/internal/config"
	"github.com/onemedia/broadcast-service/internal/handler"
	"github.com/onemedia/broadcast-service/internal/hub"
	"github.com/onemedia/broadcast-service/internal/log"
	"github.com/onemedia/broadcast-service/internal/service"
	"github.com/onemedia/broadcast-service/internal/state"
)

func main() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log.Init(log.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: cfg.Log.ServiceName,
	})
	logger := log.L()

	// Initialize registries
	authority := state.NewAuthority(cfg.Admin.Password)
	display := state.NewBroadcastState()
	matches := state.NewMatchRegistry(cfg.Matches.Capacity)
	visitors := state.NewVisitorTracker(time.Now())

	// Initialize hub and service
	wsHub := hub.NewHub(cfg.WebSocket, cfg.Hub.Channels)
	svc := service.NewBroadcastService(wsHub, authority, display, matches, visitors)
	go wsHub.Run()

	logger.Info().
		Strs("channels", cfg.Hub.Channels).
		Int("match_capacity", cfg.Matches.Capacity).
		Msg("registries initialized")

	// Initialize handlers
	wsHandler := handler.NewWSHandler(wsHub, svc, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(svc)

	router := mux.NewRouter()
	router.HandleFunc("/ws", wsHandler.HandleWebSocket)
	httpHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("broadcast service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info().Msg("shutting down broadcast service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}

	logger.Info().Msg("broadcast service stopped")
}
