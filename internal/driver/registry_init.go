// internal/driver/registry_init.go
package driver

import (
	"go.uber.org/zap"

	"fiscal-hub/internal/driver/cts310"
	"fiscal-hub/internal/protocol"
	"fiscal-hub/pkg/driver"
)

// RegisterDefaultDrivers registers all default printer drivers
func RegisterDefaultDrivers(registry *Registry, logger *zap.Logger) {
	registerCTS310Drivers(registry, logger)
}

// registerCTS310Drivers registers the CTS310II fiscal printer
func registerCTS310Drivers(registry *Registry, logger *zap.Logger) {
	registry.Register(Registration{
		Model: cts310.ModelName,
		Factory: func(transport protocol.Transport, logger *zap.Logger) driver.FiscalPrinter {
			return cts310.NewCTS310Driver(transport, logger)
		},
		Probe: cts310.Probe,
	})

	logger.Info("CTS310II printer drivers registered")
}
