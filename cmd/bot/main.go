package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/amul-stock-bot/internal/application/monitor"
	"github.com/jhoicas/amul-stock-bot/internal/application/subscription"
	"github.com/jhoicas/amul-stock-bot/internal/infrastructure/amul"
	"github.com/jhoicas/amul-stock-bot/internal/infrastructure/postgres"
	"github.com/jhoicas/amul-stock-bot/internal/infrastructure/telegram"
	botui "github.com/jhoicas/amul-stock-bot/internal/interfaces/bot"
	httpRouter "github.com/jhoicas/amul-stock-bot/internal/interfaces/http"
	"github.com/jhoicas/amul-stock-bot/pkg/config"
	"github.com/jhoicas/amul-stock-bot/pkg/logger"
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
		Msg("iniciando aplicación")

	// Zona civil fija de la tienda; las ventanas horarias se evalúan ahí,
	// no en la zona del proceso.
	location, err := time.LoadLocation(cfg.Monitor.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.Monitor.Timezone).Msg("zona horaria inválida")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("inicializar esquema")
	}
	log.Info().Msg("esquema de base de datos verificado")

	productRepo := postgres.NewProductRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	subRepo := postgres.NewSubscriptionRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	policy := monitor.SchedulePolicy{
		Location:          location,
		DowntimeStartHour: cfg.Monitor.DowntimeStartHour,
		DowntimeEndHour:   cfg.Monitor.DowntimeEndHour,
		PeakStartHour:     cfg.Monitor.PeakStartHour,
		PeakEndHour:       cfg.Monitor.PeakEndHour,
		PeakInterval:      time.Duration(cfg.Monitor.PeakIntervalSec) * time.Second,
		NormalInterval:    time.Duration(cfg.Monitor.NormalIntervalSec) * time.Second,
	}

	bot, err := telegram.New(cfg.Bot.Token, log)
	if err != nil {
		log.Fatal().Err(err).Msg("autenticación del bot")
	}
	if err := bot.SetCommands(botui.Commands); err != nil {
		log.Error().Err(err).Msg("no se pudieron registrar los comandos")
	}

	subsUC := subscription.NewUseCase(txRunner, productRepo, userRepo, subRepo, log)
	handler := botui.NewHandler(bot, subsUC, policy, cfg.Bot.ChannelID, log)

	shopClient := amul.NewClient(log)
	dispatcher := monitor.NewDispatcher(handler, log)
	reconcileUC := monitor.NewReconcileUseCase(shopClient, txRunner, dispatcher, log)
	scheduler := monitor.NewScheduler(policy, reconcileUC.Run, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	httpRouter.Router(app, httpRouter.RouterDeps{
		AppName:  cfg.App.Name,
		Products: productRepo,
		Policy:   policy,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	// Cadena de chequeos: corrida inicial forzada y re-armado según la
	// política horaria. Los comandos del bot corren en paralelo.
	scheduler.Start(ctx)
	go handler.Run(ctx)

	log.Info().Msg("bot en marcha")
	<-ctx.Done()

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
