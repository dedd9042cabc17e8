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
	"github.com/ordersys/platform/internal/warehouse"
	"github.com/ordersys/platform/internal/warehouse/handler"
	"github.com/ordersys/platform/internal/warehouse/migrations"
	"github.com/ordersys/platform/internal/warehouse/repository"
	"github.com/ordersys/platform/internal/warehouse/service"
	"github.com/ordersys/platform/internal/validator"
	"github.com/ordersys/platform/pkg/database"
)

func main() {
	cfg, err := warehouse.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	serviceLogger := platform.InitLogger("warehouse", cfg.Log)
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
		AppName:      "Warehouse Service",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	validate := validator.New()

	gate := platform.NewGate("warranty")
	warrantyClient := platform.NewPeerClient("warranty", cfg.Peers.WarrantyHost, gate, cfg.Resilience, cfg.Admin, serviceLogger)

	itemRepo := repository.NewItemRepository(pool)
	itemService := service.NewItemService(pool, itemRepo, warrantyClient, serviceLogger)
	itemHandler := handler.NewItemHandler(itemService, validate)

	dbHealth := platform.NewDBHealthHandler(pool)
	app.Get("/health", dbHealth.Check)
	platform.RegisterHealthRoute(app, cfg.Admin)

	app.Get("/api/v1/warehouse/:orderItemUid", itemHandler.GetItemInfo)
	app.Post("/api/v1/warehouse", itemHandler.Reserve)
	app.Delete("/api/v1/warehouse/:orderItemUid", itemHandler.Release)
	app.Post("/api/v1/warehouse/:orderItemUid/warranty", itemHandler.WarrantyVerdict)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting warehouse server")
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
	log.Info().Msg("warehouse server stopped")
}
