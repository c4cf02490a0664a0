// cmd/fiscalctl/root.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fiscal-hub/internal/config"
	"fiscal-hub/internal/database"
	"fiscal-hub/internal/discovery"
	"fiscal-hub/internal/driver"
	"fiscal-hub/internal/protocol"
	"fiscal-hub/internal/repository"
	"fiscal-hub/internal/service"
	"fiscal-hub/internal/tcpos"
	"fiscal-hub/internal/transform"
	"fiscal-hub/internal/utils"
)

var (
	configFile string
	portName   string
	verbose    bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "fiscalctl",
	Short: "Operate the fiscal printer from the command line",
	Long: `fiscalctl runs single fiscal printer operations without the HTTP service.

It reads the same configuration as the server. The printer is discovered on
the serial ports unless --port pins it. Reports and prints are journaled
like requests made over HTTP.

Examples:
  fiscalctl state --port /dev/ttyUSB0
  fiscalctl x-report
  fiscalctl z-by-date 2024-09-01 2024-09-30
  fiscalctl print ./exports/20240930-0012.xml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "serial port of the printer (skips discovery)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout of the operation")
}

// env holds the services a command runs against
type env struct {
	config    *config.Config
	logger    *zap.Logger
	database  *database.DB
	printers  *service.PrinterManager
	documents *service.DocumentService
	reports   *service.ReportService
	intake    *service.IntakeService
}

// setup builds the services for one command invocation
func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if portName != "" {
		cfg.Printer.Port = portName
	}

	cfg.Logging.Output = "stderr"
	cfg.Logging.Format = "console"
	cfg.Logging.Level = "warn"
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	e := &env{config: cfg, logger: logger}

	journal := repository.NewMemoryJournal(repository.DefaultMemoryCapacity)
	if cfg.Database.Enabled {
		db, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection: %w", err)
		}
		e.database = db
		journal = repository.NewJournalRepository(db, logger)
	}

	registry := driver.NewRegistry(logger)
	driver.RegisterDefaultDrivers(registry, logger)

	registration, err := registry.Lookup(cfg.Printer.Model)
	if err != nil {
		return nil, err
	}
	scanner := discovery.NewSerialScanner(
		protocol.NewTransportFactory(&cfg.Printer, logger),
		discovery.ProbeFunc(registration.Probe),
		cfg.Printer.Port,
		logger,
	)

	e.printers, err = service.NewPrinterManager(&cfg.Printer, registry, scanner, nil, logger)
	if err != nil {
		return nil, err
	}
	e.documents = service.NewDocumentService(e.printers, journal, nil, &cfg.Fiscal, logger)
	e.reports = service.NewReportService(e.printers, journal, nil, logger)

	parser, err := tcpos.NewParser(cfg.POS.MinSoftwareVersion)
	if err != nil {
		return nil, err
	}
	engine := transform.NewEngine(transform.OptionsFromConfig(cfg), logger)
	e.intake = service.NewIntakeService(parser, engine, e.documents, logger)

	return e, nil
}

func (e *env) close() error {
	var result error
	if e.database != nil {
		if err := e.database.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	_ = utils.CloseLogger(e.logger)
	return result
}

// run wraps a command body with setup, timeout and teardown
func run(fn func(ctx context.Context, e *env) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		e, err := setup(ctx)
		if err != nil {
			return err
		}

		err = fn(ctx, e)
		if closeErr := e.close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
		return err
	}
}

// printJSON writes v to stdout as indented JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
