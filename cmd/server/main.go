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

	"ppob-service/config"
	"ppob-service/internal/ai"
	"ppob-service/internal/api"
	"ppob-service/internal/broker"
	"ppob-service/internal/payment"
	"ppob-service/internal/redisclient"
	"ppob-service/internal/service"
	"ppob-service/internal/store"
	"ppob-service/internal/upstream"
	"ppob-service/internal/util"
	"ppob-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting ppob service")

	tp, err := util.InitTracer("ppob-service", cfg.Observ.JaegerEndpoint)
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

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicLifecycle)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	upstreamClient := upstream.NewClient(cfg.Digiflazz.BaseURL, cfg.Digiflazz.Username, cfg.Digiflazz.APIKey)
	gateway := payment.NewClient(cfg.Paydisini.BaseURL, cfg.Paydisini.APIKey)

	geminiClient := ai.NewGeminiClient(cfg.Gemini.BaseURL, cfg.Gemini.APIKey)
	parser := ai.NewIntentParser(geminiClient, cfg.Gemini.ParserModel)
	composer := ai.NewGeminiComposer(geminiClient, cfg.Gemini.WriterModel)

	syncer := service.NewCatalogSyncer(db, upstreamClient)
	resolver := service.NewResolver(db, db, upstreamClient, composer, cfg.Business.ConfidenceThreshold)
	statsService := service.NewStatsService(db)
	lifecycle := service.NewLifecycleManager(db, db, gateway, upstreamClient, eventPublisher, redisClient, service.LifecycleConfig{
		PaymentService:         cfg.Paydisini.Service,
		PaymentValiditySeconds: cfg.Business.PaymentValiditySeconds,
		WebhookLockTTL:         time.Duration(cfg.Business.WebhookLockSeconds) * time.Second,
	})

	ctx := context.Background()
	if err := syncer.EnsureSeed(ctx); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	if _, err := syncer.Sync(ctx); err != nil {
		// Startup must survive an upstream outage; the seeded or previous
		// catalog keeps serving until the ticker retries.
		log.Printf("Initial catalog sync failed: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Business.CatalogSyncMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if _, err := syncer.Sync(workerCtx); err != nil {
					log.Printf("Catalog sync failed: %v", err)
				}
			}
		}
	}()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicLifecycle, cfg.Kafka.ConsumerGroup)
	reconWorker := worker.NewReconciliationWorker(consumer, lifecycle)
	go func() {
		if err := reconWorker.Start(workerCtx); err != nil {
			log.Printf("Reconciliation worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(parser, resolver, lifecycle, db, db, statsService, syncer)
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
	reconWorker.Stop()

	log.Println("Server exited")
}
