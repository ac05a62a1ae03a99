package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bondwatch/bondwatch/internal/db"
	"github.com/bondwatch/bondwatch/internal/handlers"
	"github.com/bondwatch/bondwatch/internal/logger"
	"github.com/bondwatch/bondwatch/internal/models"
	"github.com/bondwatch/bondwatch/internal/moex"
	"github.com/bondwatch/bondwatch/internal/repositories"
	"github.com/bondwatch/bondwatch/internal/services"
)

func main() {
	// .env is optional, real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Database connection
	config := db.NewConfig()
	database, err := db.Connect(config)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Health(); err != nil {
		log.Fatal("database health check failed", zap.Error(err))
	}
	log.Info("database connection established")

	if err := database.AutoMigrate(
		&models.Bond{},
		&models.Trade{},
		&models.Coupon{},
		&models.Price{},
		&models.FXRate{},
		&models.EventLog{},
		&models.PortfolioSummary{},
	); err != nil {
		log.Fatal("auto-migration failed", zap.Error(err))
	}

	// Repositories
	bondRepo := repositories.NewBondRepository(database)
	tradeRepo := repositories.NewTradeRepository(database)
	couponRepo := repositories.NewCouponRepository(database)
	priceRepo := repositories.NewPriceRepository(database)
	fxRepo := repositories.NewFXRateRepository(database)
	logRepo := repositories.NewEventLogRepository(database)
	summaryRepo := repositories.NewSummaryRepository(database)

	// Services
	moexClient := moex.NewClient(log.Named("moex"))
	cbrProvider := services.NewCBRProvider(log.Named("cbr"))

	bondService := services.NewBondService(bondRepo, couponRepo, priceRepo, moexClient, log.Named("bonds"))
	tradeService := services.NewTradeService(tradeRepo, bondRepo, log.Named("trades"))
	fxService := services.NewFXService(fxRepo, tradeRepo, cbrProvider, log.Named("fx"))
	couponService := services.NewCouponService(couponRepo, tradeRepo)
	positionService := services.NewPositionService(tradeRepo, fxService)
	summaryService := services.NewSummaryService(summaryRepo, couponRepo, positionService, tradeRepo, fxService)
	portfolioService := services.NewPortfolioService(bondRepo, tradeRepo, fxService)
	indexService := services.NewIndexService(moexClient)
	logService := services.NewLogService(logRepo)

	// Handlers
	router := handlers.NewRouter(handlers.Set{
		Bonds:     handlers.NewBondHandler(bondService, logService),
		Trades:    handlers.NewTradeHandler(tradeService, logService),
		FX:        handlers.NewFXHandler(fxService),
		Coupons:   handlers.NewCouponHandler(couponService),
		Summary:   handlers.NewSummaryHandler(summaryService),
		Portfolio: handlers.NewPortfolioHandler(portfolioService, positionService),
		Index:     handlers.NewIndexHandler(indexService),
		Logs:      handlers.NewLogHandler(logService),
	}, database.Health)

	// Background refresher for FX rates and bond prices
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	refresher := services.NewRefresher(fxService, bondService, log.Named("refresher"))
	go refresher.Start(refreshCtx)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("server starting", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	stopRefresh()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown was not clean", zap.Error(err))
	}
}
