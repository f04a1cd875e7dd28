package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/db"
	"github.com/cryptofolio/portfolio-engine/internal/engine"
	"github.com/cryptofolio/portfolio-engine/internal/handlers"
	"github.com/cryptofolio/portfolio-engine/internal/logger"
	"github.com/cryptofolio/portfolio-engine/internal/market"
	"github.com/cryptofolio/portfolio-engine/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Fall back to real environment variables
	}

	log := logger.New(os.Getenv("LOG_LEVEL"))
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The holdings database is an optional collaborator; the engine itself
	// keeps everything in process memory.
	var holdings *db.HoldingsStore
	if os.Getenv("DB_DISABLED") != "true" {
		conn, err := db.Connect()
		if err != nil {
			log.Warn("holdings database unavailable, rebalance evaluation requires explicit values", zap.Error(err))
		} else {
			defer conn.Close()
			holdings = db.NewHoldingsStore(conn)
			log.Info("holdings database connected")
		}
	}

	registry := store.NewMemoryStore()
	eng := engine.New(registry, log)

	feed := market.NewFeed(market.DefaultSeedPrices(), time.Second, log)
	go feed.Run(ctx)

	watcher := handlers.NewAlertWatcher(eng, feed, 2*time.Second, log)
	go watcher.Run(ctx)

	sims := handlers.NewSimProcessor(envInt("NUM_WORKERS", 5), eng, log)
	sims.Start()
	defer sims.Stop()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	h := handlers.New(eng, holdings, feed, watcher, sims, log)
	h.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

func envInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
