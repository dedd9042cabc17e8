package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"

	"github.com/ordersys/platform/internal/platform"
	"github.com/ordersys/platform/internal/store"
	"github.com/ordersys/platform/internal/store/handler"
	"github.com/ordersys/platform/internal/store/migrations"
	"github.com/ordersys/platform/internal/store/repository"
	"github.com/ordersys/platform/internal/store/service"
	"github.com/ordersys/platform/internal/validator"
	"github.com/ordersys/platform/pkg/database"
)

func main() {
	cfg, err := store.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	serviceLogger := platform.InitLogger("store", cfg.Log)
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
		AppName:      "Store Service",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	validate := validator.New()

	gate := platform.NewGate("order", "warehouse", "warranty")
	orderClient := platform.NewPeerClient("order", cfg.Peers.OrderHost, gate, cfg.Resilience, cfg.Admin, serviceLogger)
	warehouseClient := platform.NewPeerClient("warehouse", cfg.Peers.WarehouseHost, gate, cfg.Resilience, cfg.Admin, serviceLogger)
	warrantyClient := platform.NewPeerClient("warranty", cfg.Peers.WarrantyHost, gate, cfg.Resilience, cfg.Admin, serviceLogger)

	userRepo := repository.NewUserRepository(pool)
	storeService := service.NewStoreService(userRepo, orderClient, warehouseClient, warrantyClient, serviceLogger)
	storeHandler := handler.NewStoreHandler(storeService, validate)

	dbHealth := platform.NewDBHealthHandler(pool)
	app.Get("/health", dbHealth.Check)
	platform.RegisterHealthRoute(app, cfg.Admin)

	app.Get("/api/v1/store/:userUid/orders", storeHandler.ListOrders)
	app.Get("/api/v1/store/:userUid/:orderUid", storeHandler.GetOrder)
	app.Post("/api/v1/store/:userUid/purchase", storeHandler.Purchase)
	app.Post("/api/v1/store/:userUid/:orderUid/warranty", storeHandler.RequestWarranty)
	app.Delete("/api/v1/store/:userUid/:orderUid/refund", storeHandler.Refund)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting store server")
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

	pool.Close()
	log.Info().Msg("store server stopped")
}
