package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"voipbits/internal/config"
	"voipbits/internal/constants"
	"voipbits/internal/errors"
	"voipbits/internal/models"
	"voipbits/internal/registry"
	"voipbits/internal/retry"
	"voipbits/internal/service"
	"voipbits/internal/tracing"
	"voipbits/pkg/acrobits"
	"voipbits/pkg/voipms"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging (includes sensitive information)")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("VoipBits %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting VoipBits")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	configureLogLevel(logger, cfg.LogLevel)

	tracingManager := tracing.NewManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	privateKey, err := config.LoadPrivateKey()
	if err != nil {
		return fmt.Errorf("failed to load private key: %w", err)
	}

	// Token store startup tolerates a briefly unavailable backend.
	var tokenRegistry registry.Registry
	policy := retry.PolicyFromConfig(cfg.Retry, constants.DefaultRegistryRetryAttempts)
	err = retry.DoRetryable(ctx, policy, func() error {
		var initErr error
		tokenRegistry, initErr = registry.New(cfg.Registry, logger)
		if initErr != nil {
			logger.Warnf("Failed to initialize token registry: %v", initErr)
		}
		return initErr
	}, errors.IsRetryable)
	if err != nil {
		return fmt.Errorf("failed to initialize token registry after retries: %w", err)
	}
	defer tokenRegistry.Close()

	providerHTTPClient := &http.Client{
		Timeout: time.Duration(cfg.Provider.TimeoutSec) * time.Second,
	}
	providerFactory := func(cred models.LineCredential) voipms.Client {
		return voipms.NewClient(cfg.Provider.APIBaseURL, cred, providerHTTPClient, logger)
	}

	pushHTTPClient := &http.Client{
		Timeout: time.Duration(cfg.PushGateway.TimeoutSec) * time.Second,
	}
	pushClient := acrobits.NewClient(cfg.PushGateway.APIBaseURL, pushHTTPClient, logger)

	relay := service.NewRelayService(privateKey, providerFactory, tokenRegistry, cfg.Server.ServerURL, logger)
	fanout := service.NewNotificationFanout(
		tokenRegistry,
		pushClient,
		time.Duration(cfg.PushGateway.TimeoutSec)*time.Second,
		logger,
	)

	server := NewServer(cfg.Server.ListenAddr, relay, fanout, logger)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultGracefulShutdownSec*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}

func configureLogLevel(logger *logrus.Logger, configured string) {
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - sensitive information will be logged")
		return
	}

	level, err := logrus.ParseLevel(configured)
	if err != nil {
		logger.Warnf("Invalid log level %q, defaulting to info", configured)
		logger.SetLevel(logrus.InfoLevel)
		return
	}
	if level > logrus.InfoLevel {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}
