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
	"golang.org/x/time/rate"

	"github.com/BathiyaRanasinghe/safe-zone/internal/config"
	"github.com/BathiyaRanasinghe/safe-zone/internal/db"
	httpapi "github.com/BathiyaRanasinghe/safe-zone/internal/http"
	"github.com/BathiyaRanasinghe/safe-zone/internal/metrics"
)

func main() {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(rootCtx)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	pool, err := pgxpool.New(rootCtx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(rootCtx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database := db.NewDB(pool)

	// ---- Pool metrics ----
	poolStats := metrics.NewPGXPoolStats(pool)
	statsStop := make(chan struct{})
	go poolStats.Start(15*time.Second, statsStop)

	// ---- HTTP server ----
	srv := httpapi.NewServer(database)
	srv.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.QPS), cfg.RateLimit.Burst)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	close(statsStop)
	cancel()
	_ = server.Shutdown(shutdownCtx)
}
