package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/soltixdb/cosinor/internal/config"
	"github.com/soltixdb/cosinor/internal/handlers"
	"github.com/soltixdb/cosinor/internal/logging"
	"github.com/soltixdb/cosinor/internal/middleware"
	"github.com/soltixdb/cosinor/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, service *services.AnalysisService, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, service, cfg.Ingest)

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)
	v1 := app.Group("/v1", authMiddleware)

	v1.Get("/analyses", h.ListAnalyses)
	v1.Get("/analyses/:name", h.GetAnalysis)
	v1.Post("/analyses/:name", h.RunAnalysis)
	v1.Post("/spreadsheet/parse", h.ParseSpreadsheet)
	v1.Post("/regression", h.Regression)

	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, service *services.AnalysisService, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Cosinor API",
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimitBytes(),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, service, cfg)

	return app
}
