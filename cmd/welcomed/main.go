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

	"welcome-screen-backend/config"
	"welcome-screen-backend/internal/api"
	"welcome-screen-backend/internal/display"
	"welcome-screen-backend/internal/fetcher"
	"welcome-screen-backend/internal/notification"
	"welcome-screen-backend/internal/occupancy"
	"welcome-screen-backend/internal/store"
	"welcome-screen-backend/internal/updater"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "welcomed ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := occupancy.SystemClock{Location: cfg.Fetcher.Location}
	snapshot := store.NewFileStore(cfg.Snapshot.Path)

	var fetch updater.Fetcher
	if cfg.Fetcher.Enabled {
		fetch = fetcher.NewService(&cfg.Fetcher, clock)
	} else {
		logger.Printf("fetcher disabled; reading reservations from %s only", snapshot.Path())
	}

	var publisher display.Publisher = display.LogPublisher{Printf: logger.Printf}
	if cfg.Display.Enabled {
		publisher = display.NewRokuPublisher(&cfg.Display)
	}

	var webpushOptions *webpush.Options
	var notifier notification.Notifier = notification.Nop{}
	var pool *notification.WorkerPool
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.Push.Subscriptions, webpushOptions)
		pool.Start(ctx)
		notifier = pool
		logger.Printf("host alerts enabled for %d subscription(s)", pool.Subscriptions())
	}

	svc := updater.NewService(cfg, fetch, snapshot, publisher, notifier, clock)

	// Cron style: one pass, exit status reports the outcome.
	if os.Getenv("RUN_ONCE") == "1" {
		status, err := svc.RunOnce(ctx)
		if pool != nil {
			// Deliver queued alerts before the process exits.
			pool.Close()
		}
		if err != nil {
			logger.Printf("update failed: %v", err)
			os.Exit(1)
		}
		logger.Printf("welcome screen set to %q (%s)", status.Message, status.Resolution.Rule)
		return
	}

	go svc.Run(ctx)

	var server *http.Server
	if cfg.Server.Enabled {
		router := api.NewRouter(&cfg.Server, svc, webpushOptions)
		server = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: router,
		}

		go func() {
			logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalf("HTTP server ListenAndServe: %v", err)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Fatalf("HTTP server Shutdown: %v", err)
		}
	}

	logger.Println("Service gracefully stopped")
}
