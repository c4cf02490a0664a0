// internal/driver/registry.go
package driver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"fiscal-hub/internal/protocol"
	"fiscal-hub/pkg/driver"
)

// DriverFactory binds a driver to a transport
type DriverFactory func(transport protocol.Transport, logger *zap.Logger) driver.FiscalPrinter

// ProbeFunc checks whether a transport reaches a printer of the model
type ProbeFunc func(ctx context.Context, transport protocol.Transport) error

// Registration describes one supported printer model
type Registration struct {
	Model   string
	Factory DriverFactory
	Probe   ProbeFunc
}

// Registry manages printer model registration and driver creation
type Registry struct {
	drivers map[string]Registration
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates a new driver registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		drivers: make(map[string]Registration),
		logger:  logger,
	}
}

// Register registers a printer model. Model names are case-insensitive.
func (r *Registry) Register(registration Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(registration.Model)
	r.drivers[key] = registration
	r.logger.Info("Driver registered", zap.String("model", key))
}

// Lookup returns the registration of a model
func (r *Registry) Lookup(model string) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	registration, exists := r.drivers[strings.ToLower(model)]
	if !exists {
		return Registration{}, fmt.Errorf("no driver found for model=%s", model)
	}
	return registration, nil
}

// CreateDriver creates a driver instance bound to transport
func (r *Registry) CreateDriver(model string, transport protocol.Transport) (driver.FiscalPrinter, error) {
	registration, err := r.Lookup(model)
	if err != nil {
		return nil, err
	}
	return registration.Factory(transport, r.logger), nil
}

// ListDrivers returns all registered model names, sorted
func (r *Registry) ListDrivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.drivers))
	for model := range r.drivers {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// IsSupported checks if a model is registered
func (r *Registry) IsSupported(model string) bool {
	_, err := r.Lookup(model)
	return err == nil
}
