package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"civichub/api/internal/app"
	"civichub/api/internal/config"
	"civichub/api/internal/search"
	"civichub/api/internal/status"
	"civichub/api/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL, store.PoolLimits{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	applied, err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir)
	if err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	if applied > 0 {
		log.Printf("applied %d database migrations", applied)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
		// The catalog is written by the external updater, so the search
		// indexes are rebuilt from Postgres on every boot.
		searchService.ReindexAllFromPG(ctx)
	}

	var statusCache *status.Cache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		statusCache, err = status.NewCache(cfg.RedisURL, cfg.StatusCacheTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer statusCache.Close()
	}
	statusService := status.New(dataStore, statusCache, cfg.GithubToken, cfg.MeetupKey, cfg.GithubAPIURL, cfg.MeetupAPIURL)

	service := app.NewService(dataStore)
	httpServer := app.NewHTTPServer(service, searchService, statusService, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("CivicHub API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
