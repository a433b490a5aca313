package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotbook/config"
	"slotbook/cron"
	"slotbook/database"
	bookingRepoPkg "slotbook/database/repository/booking"
	serviceRepoPkg "slotbook/database/repository/service"
	webhookeventRepoPkg "slotbook/database/repository/webhookevent"
	"slotbook/handlers"
	"slotbook/routes"
	"slotbook/services/booking"
	"slotbook/services/payment"
	"slotbook/services/tasks"
	"slotbook/services/webhook"
	"slotbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	stripe.Key = config.ResolvedStripe.SecretKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	serviceRepo := serviceRepoPkg.NewMongoServiceRepo()
	eventRepo := webhookeventRepoPkg.NewMongoWebhookEventRepo()

	if err := bookingRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}
	if err := eventRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure webhook event indexes: %v", err)
	}

	// services.
	processor := payment.NewStripeProcessor(logger, config.AppConfig.Currency, config.AppConfig.MinChargeCents)

	feePolicy, err := booking.PolicyFromName(config.AppConfig.FeePolicy)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisExpiryQueue,
	})
	defer asynqClient.Close()

	engine := &booking.DefaultEngine{
		Repo:       bookingRepo,
		Services:   serviceRepo,
		Processor:  processor,
		Fees:       feePolicy,
		Currency:   config.AppConfig.Currency,
		Cache:      utils.GetCacheClient(),
		Expiry:     &tasks.AsynqExpiryScheduler{Client: asynqClient},
		AuthWindow: time.Duration(config.AppConfig.AuthWindowHours) * time.Hour,
		Logger:     logger,
	}

	reconciler := &webhook.Reconciler{
		Bookings:  bookingRepo,
		Events:    eventRepo,
		Processor: processor,
		Secret:    config.ResolvedStripe.WebhookSecret,
		Logger:    logger,
	}

	bookingHandler := handlers.NewBookingHandler(engine, logger)
	webhookHandler := handlers.NewWebhookHandler(reconciler, logger)

	routes.RegisterRoutes(router, bookingHandler, webhookHandler)

	cron.InitExpiryWorker(engine)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
