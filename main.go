package main

import (
	"context"
	"log"
	"os"

	"releaf_backend/config"
	"releaf_backend/internal/ws"
	"releaf_backend/middleware"
	"releaf_backend/pkg/gemini"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadConfig()

	db := config.ConnectDatabase(cfg)
	if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("Failed to create upload directory:", err)
	}

	// WebSocket hub for notification/unread push
	hub := ws.NewHub()
	go hub.Run()

	// Gemini is optional; the ask endpoint replies 503 without it.
	var geminiClient *gemini.Client
	if cfg.GeminiAPIKey != "" {
		var err error
		geminiClient, err = gemini.NewClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Printf("Gemini client disabled: %v", err)
		}
	}

	app := fiber.New(fiber.Config{
		AppName: "ReLeaf Backend",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Default 500 statuscode
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			// Retrieve the custom statuscode if it's a *fiber.Error
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			return c.Status(code).JSON(fiber.Map{
				"error": msg,
			})
		},
	})

	middleware.SetupMiddleware(app)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "success",
			"message": "API is healthy",
		})
	})

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Static uploads
	app.Static("/uploads/items", cfg.UploadDir)

	registerRoutes(app, db, hub, geminiClient, cfg)

	middleware.SetupErrorHandler(app)

	log.Printf("Server starting on host %s in port %s mode", cfg.Host, cfg.AppPort)
	if err := app.Listen(cfg.Host + ":" + cfg.AppPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
