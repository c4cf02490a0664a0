// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "fiscal-hub/docs"
	"fiscal-hub/internal/config"
	"fiscal-hub/internal/database"
	"fiscal-hub/internal/discovery"
	"fiscal-hub/internal/driver"
	"fiscal-hub/internal/handler"
	"fiscal-hub/internal/protocol"
	"fiscal-hub/internal/repository"
	"fiscal-hub/internal/routes"
	"fiscal-hub/internal/service"
	"fiscal-hub/internal/tcpos"
	"fiscal-hub/internal/transform"
	"fiscal-hub/internal/utils"
	"fiscal-hub/internal/watcher"
)

// cleanupInterval is how often the journal database prunes old entries
const cleanupInterval = time.Hour

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB
	journal  repository.JournalRepository

	// Services
	printers  *service.PrinterManager
	documents *service.DocumentService
	reports   *service.ReportService
	intake    *service.IntakeService

	eventBus  *handler.EventBus
	websocket *handler.WebSocketHandler
	watcher   *watcher.Watcher

	// Driver registry
	driverRegistry *driver.Registry
}

// @title Fiscal Hub API
// @version 1.0.0
// @description Bridge from TCPOS transaction exports to a CTS310II fiscal printer

// @host localhost:8084
// @BasePath /
func main() {
	var configFile string

	cmd := &cobra.Command{
		Use:           "fiscal-hub",
		Short:         "Print TCPOS transactions on a CTS310II fiscal printer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApplication(configFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Start()
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewApplication creates a new application instance
func NewApplication(configFile string) (*Application, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "fiscal-hub")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeJournal(); err != nil {
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	app.initializeDriverRegistry()

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initializeServer()

	return app, nil
}

// initializeJournal opens the journal database and runs migrations, or
// falls back to the in-memory journal when the database is disabled
func (app *Application) initializeJournal() error {
	if !app.config.Database.Enabled {
		app.journal = repository.NewMemoryJournal(repository.DefaultMemoryCapacity)
		app.logger.Info("Journal kept in memory")
		return nil
	}

	db, err := database.Connect(context.Background(), app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	if app.config.Database.MigrationsEnabled {
		migrator := database.NewMigrator(db, app.logger, &app.config.Database)
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.journal = repository.NewJournalRepository(db, app.logger)
	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeDriverRegistry sets up the printer driver registry
func (app *Application) initializeDriverRegistry() {
	app.driverRegistry = driver.NewRegistry(app.logger)
	driver.RegisterDefaultDrivers(app.driverRegistry, app.logger)

	app.logger.Info("Driver registry initialized successfully",
		zap.Strings("registered_drivers", app.driverRegistry.ListDrivers()),
	)
}

// initializeServices creates service instances
func (app *Application) initializeServices() error {
	registration, err := app.driverRegistry.Lookup(app.config.Printer.Model)
	if err != nil {
		return err
	}

	scanner := discovery.NewSerialScanner(
		protocol.NewTransportFactory(&app.config.Printer, app.logger),
		discovery.ProbeFunc(registration.Probe),
		app.config.Printer.Port,
		app.logger,
	)

	app.eventBus = handler.NewEventBus(app.logger)

	app.printers, err = service.NewPrinterManager(&app.config.Printer, app.driverRegistry, scanner, app.eventBus, app.logger)
	if err != nil {
		return err
	}

	app.documents = service.NewDocumentService(app.printers, app.journal, app.eventBus, &app.config.Fiscal, app.logger)
	app.reports = service.NewReportService(app.printers, app.journal, app.eventBus, app.logger)

	parser, err := tcpos.NewParser(app.config.POS.MinSoftwareVersion)
	if err != nil {
		return err
	}
	engine := transform.NewEngine(transform.OptionsFromConfig(app.config), app.logger)
	app.intake = service.NewIntakeService(parser, engine, app.documents, app.logger)

	if app.config.POS.WatcherEnabled {
		app.watcher = watcher.New(&app.config.POS, app.intake, app.logger)
	}

	app.websocket = handler.NewWebSocketHandler(app.printers, app.eventBus, app.config.Security.AllowedOrigins, app.logger)

	app.logger.Info("Services initialized successfully")
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	if !app.config.Server.Enabled {
		return
	}

	var db handler.DatabaseChecker
	if app.database != nil {
		db = app.database
	}

	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		db,
		app.printers,
		app.documents,
		app.reports,
		app.intake,
		app.websocket,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized", zap.String("address", app.server.Addr))
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices(ctx context.Context, fatal chan<- error) {
	go app.eventBus.Start()
	go app.websocket.Run(ctx)
	go app.connectPrinter(ctx)

	if app.watcher != nil {
		go func() {
			if err := app.watcher.Run(ctx); err != nil {
				fatal <- err
			}
		}()
	}

	if app.database != nil {
		go app.startCleanupService(ctx)
	}

	app.logger.Info("Background services started")
}

// connectPrinter waits for the printer and diagnoses it once bound
func (app *Application) connectPrinter(ctx context.Context) {
	if _, err := app.printers.Connect(ctx); err != nil {
		return
	}

	diagnosis, err := app.printers.Diagnose(ctx)
	if err != nil {
		app.logger.Error("Printer diagnosis failed", zap.Error(err))
		return
	}

	app.logger.Info("Printer diagnosed",
		zap.String("port", diagnosis.Port),
		zap.Duration("clock_drift", diagnosis.ClockDrift),
		zap.Bool("clock_synchronized", diagnosis.ClockSynchronized),
		zap.Strings("warnings", diagnosis.Warnings),
	)
}

// startCleanupService prunes old journal entries
func (app *Application) startCleanupService(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	migrator := database.NewMigrator(app.database, app.logger, &app.config.Database)
	app.logger.Info("Cleanup service started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := migrator.RunCleanup(); err != nil {
				app.logger.Error("Failed to cleanup journal", zap.Error(err))
			}
		}
	}
}

// Start runs the application until a shutdown signal or a fatal error
func (app *Application) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fatal := make(chan error, 2)

	if app.server != nil {
		go func() {
			app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))
			if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fatal <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	app.startBackgroundServices(ctx, fatal)

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("Received shutdown signal")
	case runErr = <-fatal:
		app.logger.Error("Fatal error, shutting down", zap.Error(runErr))
	}
	stop()

	if err := app.shutdown(); err != nil {
		runErr = multierror.Append(runErr, err)
	}
	return runErr
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() error {
	serviceLogger := utils.NewServiceLogger(app.logger, "fiscal-hub")
	serviceLogger.LogServiceStop("shutdown")

	var result error

	if app.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.server.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("http server shutdown: %w", err))
		} else {
			app.logger.Info("HTTP server stopped")
		}
	}

	app.eventBus.Stop()

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("database close: %w", err))
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Fprintf(os.Stderr, "Logger close error: %v\n", err)
	}
	return result
}
