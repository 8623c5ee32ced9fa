package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"affiliate-payout-service/internal/client"
	"affiliate-payout-service/internal/config"
	"affiliate-payout-service/internal/handler"
	"affiliate-payout-service/internal/jobs"
	"affiliate-payout-service/internal/logging"
	"affiliate-payout-service/internal/notify"
	"affiliate-payout-service/internal/repository"
	"affiliate-payout-service/internal/server"
	"affiliate-payout-service/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		logger.Error("init database", "error", err)
		os.Exit(1)
	}
	gateway := client.NewGatewayClient(&cfg.Gateway)

	userRepo := repository.NewUserRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)
	affiliateRepo := repository.NewAffiliateRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := jobs.NewQueue(logger, cfg.Payout)
	queue.Start(ctx)

	mailer := notify.NewLogMailer(logger)

	affiliateService := service.NewAffiliateService(db, gateway, mailer, logger, userRepo, affiliateRepo)
	orderService := service.NewOrderService(db, affiliateService, orderRepo, merchantRepo, affiliateRepo, userRepo)
	merchantService := service.NewMerchantService(db, userRepo, merchantRepo, orderRepo)
	payoutService := service.NewPayoutService(db, gateway, queue, logger, orderRepo, affiliateRepo, userRepo)

	orderHandler := handler.NewOrderHandler(orderService)
	merchantHandler := handler.NewMerchantHandler(merchantService)
	affiliateHandler := handler.NewAffiliateHandler(affiliateService, payoutService, merchantRepo)

	srv := server.NewServer(logger, orderHandler, merchantHandler, affiliateHandler)
	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	logger.Info("starting HTTP server", "addr", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// let in-flight payout tasks finish before exiting
	queue.Stop()
}
