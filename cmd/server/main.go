package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/example/tickethub/internal/config"
	"github.com/example/tickethub/internal/database"
	"github.com/example/tickethub/internal/logger"
	"github.com/example/tickethub/internal/middleware"
	"github.com/example/tickethub/internal/routes"
	"github.com/example/tickethub/internal/services"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.IsDevelopment())

	db, err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	deps := routes.Dependencies{}

	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := database.OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			cancel()
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		store, err := services.NewMongoOTPStore(ctx, client.Database(cfg.MongoDB))
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("mongo otp store setup failed")
		}
		deps.OTPStore = store
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}()
		log.Info().Str("database", cfg.MongoDB).Msg("using mongo otp store")
	}

	if cfg.StripeEnabled() {
		deps.Payments = services.NewStripeGateway(cfg.StripeSecretKey)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, paid bookings disabled")
	}

	if cfg.SMTPEnabled() {
		deps.Email = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		log.Warn().Msg("SMTP not configured, email delivery disabled")
	}

	if cfg.TwilioEnabled() {
		deps.WhatsApp = services.NewWhatsAppService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
	}

	if cfg.CloudinaryEnabled() {
		media, err := services.NewCloudinaryService(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Fatal().Err(err).Msg("cloudinary setup failed")
		}
		deps.Media = media
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramAdminChat != "" {
		deps.Notifier = services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	}

	app := fiber.New(fiber.Config{
		AppName:      "TicketHub API",
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    20 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.ClientURL,
		AllowHeaders: "Origin, Content-Type, Accept, Accept-Language, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))
	app.Use(middleware.Language())

	routes.Register(app, db, cfg, deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("fiber.Listen error")
	}
}
