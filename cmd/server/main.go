package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/keepwise/analytics-backend/internal/adapter/httpapi"
	"github.com/keepwise/analytics-backend/internal/adapter/repository/postgres"
	"github.com/keepwise/analytics-backend/internal/config"
	"github.com/keepwise/analytics-backend/internal/logging"
	"github.com/keepwise/analytics-backend/internal/usecase/curve"
	"github.com/keepwise/analytics-backend/internal/usecase/returns"
	"github.com/keepwise/analytics-backend/internal/usecase/wealth"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// 2. Setup database
	db, err := postgres.NewDB(cfg.Postgres.ConnectionString())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	// 3. Initialize repositories and services
	snapshotRepo := postgres.NewSnapshotRepository(db)
	valuationRepo := postgres.NewValuationRepository(db)

	returnsService := returns.NewService(snapshotRepo)
	curveService := curve.NewService(snapshotRepo)
	wealthService := wealth.NewService(snapshotRepo, valuationRepo)

	// 4. Start HTTP server
	server := httpapi.NewServer(
		&httpapi.ServerConfig{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			APIToken:        cfg.Auth.APIToken,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		logger,
		returnsService,
		curveService,
		wealthService,
	)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server stopped", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *httpapi.Server, logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("http server stopped")
}
