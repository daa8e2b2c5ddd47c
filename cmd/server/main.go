package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/config"
	"github.com/GriffinCanCode/webcontainer/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Using default configuration: %v", err)
		cfg = config.Default()
	}

	// Flags override environment
	port := flag.String("port", cfg.Server.Port, "Server port")
	host := flag.String("host", cfg.Server.Host, "Listen host")
	root := flag.String("root", cfg.Sandbox.Root, "Sandbox root directory")
	bundle := flag.String("bundle", cfg.Sandbox.BundleDir, "Read-only web bundle directory")
	library := flag.String("library", cfg.Sandbox.LibraryDir, "Image directory backing camera and picker")
	profile := flag.String("profile", cfg.Device.Profile, "Device profile (yaml, toml or json)")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (colored logs, debug level)")
	headless := flag.String("headless", "", "Run this page in a headless view instead of serving HTTP")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Sandbox.Root = *root
	cfg.Sandbox.BundleDir = *bundle
	cfg.Sandbox.LibraryDir = *library
	cfg.Device.Profile = *profile
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer srv.Close()
	logger := srv.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *headless != "" {
		if err := srv.Headless(ctx, *headless); err != nil {
			logger.Fatal("Headless view failed", zap.Error(err))
		}
		return
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		if err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	}
}
