package app

import (
	"portal/config"
	"portal/internal/database"
	"portal/internal/events"
	"portal/internal/handlers/middleware"
	"portal/internal/logger"
	"portal/internal/metrics"
	"portal/internal/repositories"
	"portal/internal/services"
	"portal/internal/websockets"

	customerController "portal/internal/controllers/customers"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Metrics    *metrics.Metrics
	Config     config.Config

	// Services
	TransactionService *services.TransactionService
	AccessTokenService *services.AccessTokenService

	// Repositories
	CustomerRepo repositories.CustomerRepository

	// Controllers
	CustomerController *customerController.CustomerController
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	return NewWithConfig(config)
}

func NewWithConfig(config config.Config) (*App, error) {
	log := logger.New("app").Function("NewWithConfig")

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)
	appMetrics := metrics.New()

	// Initialize services
	transactionService := services.NewTransactionService(db)
	accessTokenService := services.NewAccessTokenService(config)

	// Initialize repositories
	customerRepo := repositories.NewCustomer(db)

	// Initialize controllers with repositories and services
	middleware := middleware.New(config, appMetrics)
	customerController := customerController.New(
		customerRepo,
		transactionService,
		accessTokenService,
		eventBus,
		appMetrics,
	)

	websocket, err := websockets.New(eventBus, config)
	if err != nil {
		_ = eventBus.Close()
		_ = db.Close()
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	app := &App{
		Database:           db,
		Config:             config,
		Middleware:         middleware,
		Metrics:            appMetrics,
		TransactionService: transactionService,
		AccessTokenService: accessTokenService,
		CustomerRepo:       customerRepo,
		CustomerController: customerController,
		Websocket:          websocket,
		EventBus:           eventBus,
	}

	if err := app.validate(); err != nil {
		_ = app.Close()
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := map[string]bool{
		"websocket":          a.Websocket == nil,
		"eventBus":           a.EventBus == nil,
		"metrics":            a.Metrics == nil,
		"transactionService": a.TransactionService == nil,
		"accessTokenService": a.AccessTokenService == nil,
		"customerRepo":       a.CustomerRepo == nil,
		"customerController": a.CustomerController == nil,
	}

	for name, isNil := range nilChecks {
		if isNil {
			return log.Error("nil check failed", "component", name)
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Websocket != nil {
		a.Websocket.Close()
	}

	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
