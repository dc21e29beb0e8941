package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpadapter "github.com/coinfolio/coinfolio-backend/internal/adapter/http"
	"github.com/coinfolio/coinfolio-backend/internal/adapter/oracle"
	"github.com/coinfolio/coinfolio-backend/internal/adapter/repository/postgres"
	"github.com/coinfolio/coinfolio-backend/internal/config"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/dashboard"
	"github.com/coinfolio/coinfolio-backend/internal/usecase/ledger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// 1. Setup Database
	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// 2. Initialize Repositories and the Price Oracle
	transactionRepo := postgres.NewTransactionRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	priceOracle := oracle.NewCoinGecko(cfg.OracleBaseURL, cfg.OracleCacheTTL)

	// 3. Initialize Services (Use Cases)
	ledgerService := ledger.NewLedgerService(transactionRepo, profileRepo)
	dashboardService := dashboard.NewDashboardService(transactionRepo, profileRepo, priceOracle, logger)

	// 4. Start HTTP Server
	server := httpadapter.NewServer(ledgerService, dashboardService, logger, cfg.CORSOrigin, cfg.APIToken)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.R,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	waitForShutdown(srv, logger)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(srv *http.Server, logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("received signal, shutting down gracefully", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
	logger.Info("http server stopped")
}
