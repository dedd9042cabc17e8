package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"

	"github.com/ordersys/platform/internal/order"
	"github.com/ordersys/platform/internal/order/handler"
	"github.com/ordersys/platform/internal/order/migrations"
	"github.com/ordersys/platform/internal/order/queue"
	"github.com/ordersys/platform/internal/order/repository"
	"github.com/ordersys/platform/internal/order/service"
	"github.com/ordersys/platform/internal/platform"
	"github.com/ordersys/platform/internal/validator"
	"github.com/ordersys/platform/pkg/database"
)

func main() {
	cfg, err := order.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	serviceLogger := platform.InitLogger("order", cfg.Log)
	log.Logger = serviceLogger

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := platform.RunMigrations(migrations.FS, cfg.DB.DSN(), serviceLogger); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Order Service",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	validate := validator.New()

	gate := platform.NewGate("warehouse", "warranty")
	warehouseClient := platform.NewPeerClient("warehouse", cfg.Peers.WarehouseHost, gate, cfg.Resilience, cfg.Admin, serviceLogger)
	warrantyClient := platform.NewPeerClient("warranty", cfg.Peers.WarrantyHost, gate, cfg.Resilience, cfg.Admin, serviceLogger)

	// workerCtx is the deferred-enrolment worker's own process-lifetime
	// context: spec §4.4/§9 requires the worker to outlive any single
	// request, so it is never the context of whichever purchase call first
	// triggers EnsureStarted. Cancelled alongside the rest of shutdown below.
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	var publisher *queue.Publisher
	var worker *queue.Worker
	if cfg.Queue.Enabled() {
		publisher, err = queue.Dial(cfg.Queue.AMQPURL, cfg.Queue.AMQPQueue, serviceLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to AMQP broker")
		}
		enrol := func(ctx context.Context, itemUID string) error {
			return warrantyClient.Do(ctx, http.MethodPost, "/api/v1/warranty/"+itemUID, nil, nil)
		}
		updateDuration := time.Duration(cfg.Resilience.UpdateDuration) * time.Second
		worker = queue.NewWorker(workerCtx, publisher.Connection(), cfg.Queue.AMQPQueue, gate, updateDuration, enrol, serviceLogger)
	}

	orderRepo := repository.NewOrderRepository(pool)

	var orderService *service.OrderService
	if cfg.Queue.Enabled() {
		orderService = service.NewOrderService(orderRepo, warehouseClient, warrantyClient, publisher, worker, serviceLogger)
	} else {
		orderService = service.NewOrderService(orderRepo, warehouseClient, warrantyClient, nil, nil, serviceLogger)
	}
	orderHandler := handler.NewOrderHandler(orderService, validate)

	dbHealth := platform.NewDBHealthHandler(pool)
	app.Get("/health", dbHealth.Check)
	platform.RegisterHealthRoute(app, cfg.Admin)

	app.Post("/api/v1/orders/:userUid", orderHandler.Purchase)
	app.Get("/api/v1/orders/:userUid", orderHandler.List)
	app.Get("/api/v1/orders/:userUid/:orderUid", orderHandler.Get)
	app.Delete("/api/v1/orders/:orderUid", orderHandler.Refund)
	app.Post("/api/v1/orders/:orderUid/warranty", orderHandler.RequestWarranty)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting order server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	cancelWorker()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("error closing AMQP connection")
		}
	}

	pool.Close()
	log.Info().Msg("order server stopped")
}
