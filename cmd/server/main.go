package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portal/internal/app"
	"portal/internal/handlers"
	"portal/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	log := logger.New("main").Function("main")

	app, err := app.New()
	if err != nil {
		log.Er("failed to initialize app", err)
		os.Exit(1)
	}

	server := fiber.New(fiber.Config{
		AppName:      "customer-portal",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	server.Use(recover.New())
	server.Use(requestid.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins:     app.Config.CorsAllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: false,
	}))
	server.Use(app.Middleware.RequestLogger())
	server.Use(app.Middleware.Metrics())

	if err := handlers.Router(server, app); err != nil {
		log.Er("failed to register routes", err)
		_ = app.Close()
		os.Exit(1)
	}

	go func() {
		address := fmt.Sprintf(":%d", app.Config.ServerPort)
		log.Info("Starting server", "address", address, "environment", app.Config.Environment)
		if err := server.Listen(address); err != nil {
			log.Er("server stopped", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Er("failed to shut down server", err)
	}
	if err := app.Close(); err != nil {
		log.Er("failed to close app", err)
	}
	log.Info("Server exited")
}
