package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricewatch/config"
	"pricewatch/internal/api"
	"pricewatch/internal/broker"
	"pricewatch/internal/pipeline"
	"pricewatch/internal/redisclient"
	"pricewatch/internal/service"
	"pricewatch/internal/store"
	"pricewatch/internal/util"
	"pricewatch/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting pricewatch service")

	tp, err := util.InitTracer("pricewatch", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	ctx := context.Background()
	if err := db.SeedRetailers(ctx); err != nil {
		log.Fatalf("Failed to seed retailers: %v", err)
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrices)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	validator := pipeline.NewValidator()
	categoryResolver := service.NewCategoryResolver(db)
	ingestService := service.NewIngestService(db, categoryResolver, eventPublisher, cfg.Pipeline.PriceChangeThresholdPercent)
	analyticsService := service.NewAnalyticsService(db)

	directory := service.NewRetailerDirectory(db, redisClient)
	if err := directory.Load(ctx); err != nil {
		log.Printf("Failed to warm retailer directory: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	itemConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicItems, cfg.Kafka.ConsumerGroup)
	ingestWorker := worker.NewIngestWorker(itemConsumer, validator, ingestService, directory)
	go func() {
		if err := ingestWorker.Start(workerCtx); err != nil {
			log.Printf("Ingest worker error: %v", err)
		}
	}()

	priceConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrices, "pricewatch-alerts")
	alertWorker := worker.NewPriceAlertWorker(priceConsumer, redisClient)
	go func() {
		if err := alertWorker.Start(workerCtx); err != nil {
			log.Printf("Price alert worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(
		validator,
		ingestService,
		analyticsService,
		directory,
		db,
		cfg.Pipeline.HistoryWindowDays,
		cfg.Pipeline.PriceChangeThresholdPercent,
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	ingestWorker.Stop()
	alertWorker.Stop()

	log.Println("Server exited")
}
