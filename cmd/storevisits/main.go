package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/retailpulse/storevisits/internal/adapter/fetcher"
	httpAdapter "github.com/retailpulse/storevisits/internal/adapter/http"
	"github.com/retailpulse/storevisits/internal/adapter/memory"
	"github.com/retailpulse/storevisits/internal/adapter/metric"
	"github.com/retailpulse/storevisits/internal/adapter/sqlite"
	"github.com/retailpulse/storevisits/internal/config"
	"github.com/retailpulse/storevisits/internal/domain"
	"github.com/retailpulse/storevisits/internal/worker"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	log.Printf("starting storevisits on port %d", cfg.Port)

	store, closeStore, err := newStore(cfg)
	if err != nil {
		log.Fatalf("failed to initialize job store: %v", err)
	}
	defer closeStore()

	meter := metric.New(cfg.MinDimension, cfg.MaxDimension, cfg.MinDelay, cfg.MaxDelay)
	proc := worker.New(store, fetcher.New(cfg.FetchTimeout), meter)
	svc := domain.NewJobService(store, proc)

	// Pick up jobs a previous run left ongoing.
	if resumed, err := svc.Resume(context.Background()); err != nil {
		log.Printf("warning: failed to resume ongoing jobs: %v", err)
	} else if resumed > 0 {
		log.Printf("resumed %d ongoing jobs", resumed)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := httpAdapter.NewServer(svc, addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	sig := <-sigCh
	log.Printf("received signal %v, shutting down", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("shutdown complete")
}

// newStore picks the sqlite store, or the in-memory one when no
// database path is configured.
func newStore(cfg *config.Config) (domain.JobStore, func() error, error) {
	if cfg.DBPath == "" {
		log.Printf("using in-memory job store")
		return memory.New(), func() error { return nil }, nil
	}
	log.Printf("database: %s", cfg.DBPath)
	repo, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return repo, repo.Close, nil
}
