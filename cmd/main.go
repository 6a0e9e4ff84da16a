package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-checkout/internal/api"
	"github.com/akylbek/payment-system/payment-checkout/internal/client"
	"github.com/akylbek/payment-system/payment-checkout/internal/config"
	"github.com/akylbek/payment-system/payment-checkout/internal/events"
	"github.com/akylbek/payment-system/payment-checkout/internal/gateway"
	"github.com/akylbek/payment-system/payment-checkout/internal/handlers"
	"github.com/akylbek/payment-system/payment-checkout/internal/repository"
	"github.com/akylbek/payment-system/payment-checkout/internal/service"
	"github.com/akylbek/payment-system/payment-checkout/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.InitTelemetry("payment-checkout", cfg.JaegerEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	if err := cfg.Validate(); err != nil {
		telemetry.Logger.Fatal("Invalid configuration", zap.Error(err))
	}

	telemetry.Logger.Info("Starting Payment Checkout",
		zap.Int64("amount", cfg.ChargeAmount),
		zap.String("currency", cfg.ChargeCurrency),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repo := repository.NewChargeRepository(db)
	if err := repo.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	defer redisClient.Close()
	ledger := repository.NewTokenLedger(redisClient)

	// Connect to Kafka
	kafkaWriter := events.NewChargeWriter(cfg.KafkaBrokers)
	defer kafkaWriter.Close()
	publisher := events.NewKafkaPublisher(kafkaWriter)

	// Checkout state notifications are optional
	observers := service.Observers{service.LogObserver{}}
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Close()
		observers = append(observers, events.NewNatsStateNotifier(nc))
	}

	// Payment gateway, loaded once and shared by every checkout session
	gw := gateway.New(cfg)
	gw.Start(ctx)
	defer gw.Close()

	endpoint := client.NewChargeEndpointClient(cfg.ChargeEndpointURL, cfg.ChargeTimeout, nil)
	registry := service.NewSessionRegistry(cfg.SessionTTL, func(id string) *service.SubmissionController {
		return service.NewSubmissionController(id, cfg.ChargeAmount, gw, endpoint, observers)
	})
	go registry.Run(ctx)

	charges := service.NewChargeService(cfg.ChargeAmount, cfg.ChargeCurrency, gw, ledger, repo, publisher)

	gin.SetMode(gin.ReleaseMode)
	r := api.NewRouter(
		handlers.NewCheckoutHandler(registry, cfg.ChargeCurrency),
		handlers.NewPaymentHandler(charges),
	)

	// Setup HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Payment Checkout starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ChargeTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
