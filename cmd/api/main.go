package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/acopio-api/internal/application/auth"
	"github.com/jhoicas/acopio-api/internal/application/collection"
	"github.com/jhoicas/acopio-api/internal/application/report"
	"github.com/jhoicas/acopio-api/internal/application/settlement"
	"github.com/jhoicas/acopio-api/internal/application/usecase"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/internal/infrastructure/memstore"
	"github.com/jhoicas/acopio-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/acopio-api/internal/interfaces/http"
	"github.com/jhoicas/acopio-api/pkg/config"
	"github.com/jhoicas/acopio-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var store record.Store
	switch cfg.Store.Driver {
	case "memory":
		store = memstore.New()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		pgStore := postgres.NewStore(pool, log)
		pgStore.Start(ctx)
		defer pgStore.Close()
		store = pgStore
	}

	// Resúmenes en vivo: el watcher mantiene los rollups al día vía
	// suscripciones; la liquidación fuerza un refresh extra tras cada pago.
	watcher := report.NewWatcher(store, log)
	if err := watcher.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("arrancar watcher de reportes")
	}
	defer watcher.Close()

	engine := settlement.NewEngine(store, log, cfg.Settlement.CommitTimeout, func(producerID string) {
		if err := watcher.Refresh(context.Background()); err != nil {
			log.Warn().Err(err).Str("producer_id", producerID).Msg("refrescar rollups tras liquidación")
		}
	})

	authUC := auth.NewAuthUseCase(store, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	roleUC := usecase.NewRoleUseCase(store, log)
	producerUC := usecase.NewProducerUseCase(store, log)
	pickupUC := collection.NewUseCase(store, log)
	reportUC := report.NewUseCase(store)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Store:      store,
		AuthUC:     authUC,
		RoleUC:     roleUC,
		ProducerUC: producerUC,
		PickupUC:   pickupUC,
		ReportUC:   reportUC,
		Watcher:    watcher,
		Engine:     engine,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
