package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/climatenet/sensor-bot/internal/api/http"
	"github.com/climatenet/sensor-bot/internal/bot"
	"github.com/climatenet/sensor-bot/internal/chat"
	"github.com/climatenet/sensor-bot/internal/config"
	"github.com/climatenet/sensor-bot/internal/directory"
	"github.com/climatenet/sensor-bot/internal/measure"
	"github.com/climatenet/sensor-bot/internal/metrics"
	"github.com/climatenet/sensor-bot/internal/render"
	"github.com/climatenet/sensor-bot/internal/retry"
	"github.com/climatenet/sensor-bot/internal/scheduler"
	"github.com/climatenet/sensor-bot/internal/session"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Device directory with retry/backoff on refresh.
	listingClient := &http.Client{Timeout: cfg.ListingTimeout}
	dir := directory.New(cfg.DeviceListingURL, listingClient, retry.Policy{
		MaxAttempts:     cfg.RefreshMaxRetries,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
	})

	// Seed the directory before serving; a failure here is not fatal, the
	// scheduler will keep trying.
	initCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := dir.Refresh(initCtx); err != nil {
		log.Printf("initial directory refresh failed, starting with empty directory: %v", err)
	}
	cancel()

	// Periodic background refresh.
	sched := scheduler.New(dir, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Measurement client and comparison pipeline.
	measurements := measure.NewClient(cfg.MeasurementURLTemplate, &http.Client{Timeout: cfg.MeasurementTimeout})

	renderer := render.NewHTTPRenderer(cfg.RendererURL, &http.Client{Timeout: cfg.RenderTimeout + 5*time.Second})
	adapter := render.NewAdapter(renderer, cfg.StylesheetPath, "",
		render.Viewport{Width: cfg.RenderWidth, Height: cfg.RenderHeight}, cfg.RenderTimeout)

	sessions := session.NewManager(measurements, adapter, bot.IssueLookup(dir))

	// The messaging transport is attached out of process; outbound messages
	// go to the log until then.
	channel := chat.NewLogChannel()
	sink := metrics.NewMemorySink()
	b := bot.New(channel, dir, measurements, sessions, sink)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "sensor-bot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "sensor-bot",
			"devices": dir.Snapshot().DeviceCount(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, dir, measurements)
	httpapi.RegisterEventRoutes(app, b)

	// Start server with graceful shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
