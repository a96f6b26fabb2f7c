package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"scrappickup/internal/api"
	"scrappickup/internal/api/handlers"
	"scrappickup/internal/api/middleware"
	"scrappickup/internal/client"
	"scrappickup/internal/config"
	"scrappickup/internal/events"
	"scrappickup/internal/repository"
	"scrappickup/internal/repository/memory"
	"scrappickup/internal/repository/redisstore"
	"scrappickup/internal/services"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	backend := client.New(client.Config{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.APIKey,
		Timeout: cfg.API.Timeout,
	})

	// Live location storage: Redis when configured, process memory otherwise.
	var store repository.LocationStore
	var liveSource services.LiveLocationSource = backend
	if cfg.Redis.Addr != "" {
		rdb := redisstore.New(redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisstore.Ping(pingCtx, rdb); err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err)
		}
		cancel()

		redisStore := redisstore.NewLocationStore(rdb, cfg.Redis.LocationTTL)
		store = redisStore
		if cfg.Tracking.ReadSource == config.ReadSourceRedis {
			liveSource = redisStore
		}
		log.Printf("Live locations stored in Redis at %s (reads from %s)", cfg.Redis.Addr, cfg.Tracking.ReadSource)
	} else {
		store = memory.NewLocationRepository(cfg.Redis.LocationTTL)
		log.Printf("REDIS_ADDR not set, live locations kept in memory and read from the API")
	}

	// Lifecycle events: Kafka when brokers are configured, log only otherwise.
	var publisher events.Publisher = events.LogPublisher{}
	var producer *events.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.BufferSize)
		publisher = producer
		log.Printf("Publishing pickup events to %s on %v", cfg.Kafka.Topic, cfg.Kafka.Brokers)
	}

	lockManager := memory.NewLockManager(time.Minute)
	queryCache := memory.NewQueryCache(cfg.Tracking.QueryCacheTTL)
	positions := services.NewReportedPositions()

	// Initialize services
	queryService := services.NewQueryService(backend, backend, queryCache)
	trackingService := services.NewTrackingService(cfg.Tracking, positions, store, backend, backend)
	reconciler := services.NewLocationReconciler(liveSource, cfg.Tracking.PollInterval)
	enricher := services.NewVendorEnricher(backend, queryService, reconciler, cfg.Tracking.EnrichConcurrency)
	notificationService := services.NewNotificationService(publisher)
	pickupService := services.NewPickupService(
		backend,
		backend,
		queryService,
		enricher,
		reconciler,
		trackingService,
		lockManager,
		notificationService,
		cfg.Tracking.ActionLockTTL,
	)
	mapService := services.NewMapService(queryService, enricher, reconciler, trackingService)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(queryService, pickupService, mapService)
	bulkHandler := handlers.NewBulkHandler(queryService, pickupService, mapService)
	trackingHandler := handlers.NewTrackingHandler(trackingService, positions, mapService)

	// Setup router
	router := api.NewRouter(orderHandler, bulkHandler, trackingHandler, middleware.Authenticate(cfg.Auth.JWTSecret))

	// Create Gin engine
	engine := gin.Default()
	router.Setup(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout, // SSE clients reconnect when a stream is cut
	}

	go func() {
		log.Printf("Starting scrap pickup server on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}

	trackingService.StopAll()
	lockManager.Stop()
	if producer != nil {
		producer.Close()
	}
}
