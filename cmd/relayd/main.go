package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sellertools/labelassist/internal/config"
	"github.com/sellertools/labelassist/internal/observability"
	"github.com/sellertools/labelassist/internal/relay"
)

func main() {
	// Parse flags
	var (
		configFile = flag.String("config", "config.yaml", "Configuration file path")
		listenAddr = flag.String("listen", "", "Listen address (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	// Load configuration
	cfg := config.LoadOrEnvWithPath(*configFile)
	if *listenAddr != "" {
		cfg.Relay.ListenAddr = *listenAddr
	}

	// Setup logging
	if *verbose {
		cfg.Observability.Logging.Level = slog.LevelDebug.String()
	}
	logger := observability.NewLogger(cfg.Observability.Logging)

	server := relay.NewServer(relay.Config{
		ListenAddr:    cfg.Relay.ListenAddr,
		VendorBaseURL: cfg.Vendor.BaseURL,
		VendorTimeout: cfg.Vendor.HTTPTimeout(),
	}, logger)

	// Shut down cleanly on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-done
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error("Relay stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
