// Command verification serves POST /verify. A credential verifies only when
// an issued record with the same id, name and role exists.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	httphandler "github.com/ericfisherdev/credentialhub/internal/adapter/driving/http"
	"github.com/ericfisherdev/credentialhub/internal/application"
	"github.com/ericfisherdev/credentialhub/internal/bootstrap"
	"github.com/ericfisherdev/credentialhub/internal/config"
	"github.com/ericfisherdev/credentialhub/internal/logging"
	"github.com/ericfisherdev/credentialhub/internal/workerid"
)

const defaultPort = "3001"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration.
	cfg, err := config.Load(defaultPort)
	if err != nil {
		return err
	}

	workerID := workerid.Current()
	logger := logging.New(os.Stdout, cfg.Level(), cfg.LogFormat).With("service", "verification", "worker_id", workerID)
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"environment", cfg.Environment,
		"allowed_origins", cfg.AllowedOrigins,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open and migrate the credential store.
	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	// 4. Wire service and router.
	svc := application.NewVerificationService(store.Credentials, workerID, logger)
	handler := httphandler.NewVerificationMux(svc, httphandler.Options{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		Registry:       bootstrap.NewRegistry(store),
		Pinger:         store,
	})

	// 5. Serve until signalled, then drain.
	if err := bootstrap.ListenAndServe(ctx, bootstrap.NewServer(cfg.ListenAddr, handler), logger); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
