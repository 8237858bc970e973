// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/tablespin/tablespin/internal/auth"
	"github.com/tablespin/tablespin/internal/cache"
	"github.com/tablespin/tablespin/internal/database"
	"github.com/tablespin/tablespin/internal/handlers"
	"github.com/tablespin/tablespin/internal/lobby"
	"github.com/tablespin/tablespin/internal/middleware"
	"github.com/tablespin/tablespin/internal/recommend"
)

func main() {
	auth.Init()

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(lvl)
	}

	store := lobby.NewStore(getEnvDuration("LOBBY_EXPIRATION", lobby.DefaultExpiration))
	sweeper := lobby.NewSweeper(store, getEnvDuration("SWEEP_INTERVAL", lobby.DefaultSweepInterval), logger)
	sweeper.Start()

	// Recommendation provider and its Redis cache are both optional: without
	// them the lobby flow still works, hosts just push externally fetched
	// lists.
	var provider recommend.Provider
	if httpProv, err := recommend.NewHTTPProviderFromEnv(); err != nil {
		logger.Warnf("recommendation provider disabled: %v", err)
	} else {
		provider = httpProv
		if rdb, err := cache.Connect(); err != nil {
			logger.Warnf("recommendation cache disabled: %v", err)
		} else {
			provider = &recommend.CachedProvider{
				Next:   httpProv,
				Client: rdb,
				TTL:    getEnvDuration("RECS_CACHE_TTL", recommend.DefaultCacheTTL),
				Logger: logger,
			}
		}
	}

	var pool *pgxpool.Pool
	if os.Getenv("PG_HOST") != "" {
		var err error
		pool, err = database.Connect(context.Background())
		if err != nil {
			logger.Warnf("selection history disabled: %v", err)
			pool = nil
		}
	}

	gateway := handlers.NewGateway()
	srv := handlers.NewServer(store, gateway, provider, pool, logger)

	logged := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()

	// lobby endpoints
	mux.Handle("/api/lobby/create", logged(handlers.CreateLobbyHandler(srv)))
	mux.Handle("/api/lobby/join", logged(handlers.JoinLobbyHandler(srv)))
	mux.Handle("/api/lobby/leave", logged(handlers.LeaveLobbyHandler(srv)))
	mux.Handle("/api/lobby/", logged(handlers.LobbyInfoHandler(srv)))

	// recommendation + history endpoints
	mux.Handle("/api/recommendations", logged(handlers.RecommendHandler(srv)))
	mux.Handle("/api/selections/recent", logged(handlers.RecentSelectionsHandler(srv)))

	// lobby realtime channel
	mux.Handle("/ws/lobby/", logged(handlers.LobbyWSHandler(logger, srv)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	httpSrv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("Running on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server exited: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	sweeper.Stop()
	if pool != nil {
		pool.Close()
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
