package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xboard"
	"xboard/config"
	"xboard/db"
	"xboard/feed"
)

func main() {
	log.Println("🚀 Starting timeline service")

	cfg := config.Load()
	if cfg.BearerToken == "" {
		log.Println("⚠️  X_BEARER_TOKEN is not set; every timeline will be fallback data")
	}

	cache, closeCache := openCache(cfg)
	defer closeCache()

	client := xboard.NewTwitterClient(cfg, nil)
	service := feed.NewTimelineService(client, cache, cfg)
	router := feed.NewRouter(feed.NewHandler(service, cfg))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("🚀 Server starting on %s (hosted=%t)", cfg.Addr, cfg.Hosted)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Printf("⚠️  Shutdown error: %v", err)
	}
}

// openCache picks the Postgres store when DATABASE_URL is set and falls
// back to process memory otherwise.
func openCache(cfg config.Config) (db.CacheStore, func()) {
	if !cfg.Hosted {
		log.Println("ℹ️  Local mode: response cache disabled")
		return nil, func() {}
	}
	if cfg.DatabaseURL == "" {
		log.Println("📄 Cache: in-memory store")
		return db.NewMemoryStore(), func() {}
	}

	database, err := db.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database initialization failed: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		log.Fatalf("❌ Failed to get underlying *sql.DB: %v", err)
	}

	store, err := db.NewPostgresStore(database)
	if err != nil {
		log.Fatalf("❌ Failed to create cache store: %v", err)
	}
	log.Println("🐘 Cache: PostgreSQL store")
	return store, func() { sqlDB.Close() }
}
