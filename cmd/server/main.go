package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantfolio/paper-trading-service/internal/alerts"
	"github.com/quantfolio/paper-trading-service/internal/api"
	"github.com/quantfolio/paper-trading-service/internal/config"
	"github.com/quantfolio/paper-trading-service/internal/database"
	"github.com/quantfolio/paper-trading-service/internal/kafka"
	"github.com/quantfolio/paper-trading-service/internal/marketdata"
	"github.com/quantfolio/paper-trading-service/internal/portfolio"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate("db/migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	prices := marketdata.NewCachedProvider(
		marketdata.NewRecordingProvider(marketdata.NewYahooProvider(cfg.MarketData.RequestTimeout), db),
		redisClient,
		cfg.MarketData.QuoteTTL,
	)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
	defer producer.Close()

	portfolioSvc := portfolio.NewService(db, prices, producer, cfg.MarketData.RequestTimeout)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.FillsTopic, cfg.Kafka.ConsumerGroup, db)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Printf("Kafka consumer stopped: %v", err)
		}
	}()

	evaluator := alerts.NewEvaluator(db, prices, producer, cfg.MarketData.RefreshInterval, cfg.MarketData.RequestTimeout)
	go evaluator.Start(ctx)

	handler := api.NewHandler(portfolioSvc, db, db, prices, db)
	router := api.SetupRoutes(handler)

	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
