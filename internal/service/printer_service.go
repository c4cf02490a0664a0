// internal/service/printer_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fiscal-hub/internal/config"
	"fiscal-hub/internal/discovery"
	internalDriver "fiscal-hub/internal/driver"
	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
	"fiscal-hub/internal/syncutil"
	"fiscal-hub/internal/utils"
	"fiscal-hub/pkg/driver"
)

// EventPublisher receives service events
type EventPublisher interface {
	Publish(event *model.FiscalEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(*model.FiscalEvent) {}

// ErrPrinterOffline is returned when no printer is bound and a single
// discovery pass did not find one
var ErrPrinterOffline = errors.New("printer offline")

// PrinterManager owns the endpoint the printer was discovered on and
// serializes every device session
type PrinterManager struct {
	config   *config.PrinterConfig
	registry *internalDriver.Registry
	scanner  discovery.Scanner
	events   EventPublisher
	logger   *utils.ServiceLogger
	audit    *utils.AuditLogger
	now      func() time.Time

	// session is held for a whole command sequence
	session syncutil.Mutex

	mutex       syncutil.RWMutex
	printer     driver.FiscalPrinter
	connectedAt *time.Time
	lastError   string
}

// NewPrinterManager creates a printer manager for the configured model
func NewPrinterManager(
	cfg *config.PrinterConfig,
	registry *internalDriver.Registry,
	scanner discovery.Scanner,
	events EventPublisher,
	logger *zap.Logger,
) (*PrinterManager, error) {
	if !registry.IsSupported(cfg.Model) {
		return nil, fmt.Errorf("unsupported printer model: %s", cfg.Model)
	}
	if events == nil {
		events = nopPublisher{}
	}

	return &PrinterManager{
		config:   cfg,
		registry: registry,
		scanner:  scanner,
		events:   events,
		logger:   utils.NewServiceLogger(logger, "printer-manager"),
		audit:    utils.NewAuditLogger(logger),
		now:      time.Now,
	}, nil
}

// Connect discovers the printer, retrying at the discovery interval until
// it answers or ctx ends. Each pass holds the session lock so probes never
// overlap a device session or a discovery run by one.
func (m *PrinterManager) Connect(ctx context.Context) (driver.FiscalPrinter, error) {
	interval := m.config.DiscoveryInterval
	if interval <= 0 {
		interval = time.Second
	}

	attempt := 0
	for {
		m.session.Lock()
		printer, err := m.bind(ctx)
		m.session.Unlock()
		if err == nil {
			return printer, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		attempt++
		// the first miss is worth a warning, the rest only at debug
		if attempt == 1 {
			m.logger.Warn("Printer not found, retrying", zap.Duration("interval", interval), zap.Error(err))
		} else {
			m.logger.Debug("Printer not found", zap.Int("attempt", attempt), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Driver returns the bound printer, running one discovery pass when none is
// bound yet
func (m *PrinterManager) Driver(ctx context.Context) (driver.FiscalPrinter, error) {
	m.session.Lock()
	defer m.session.Unlock()
	return m.boundDriver(ctx)
}

func (m *PrinterManager) boundDriver(ctx context.Context) (driver.FiscalPrinter, error) {
	printer, err := m.bind(ctx)
	if err != nil {
		if errors.Is(err, protocol.ErrPrinterNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrPrinterOffline, err)
		}
		return nil, err
	}
	return printer, nil
}

// bind returns the current printer or runs one discovery pass. Callers
// hold the session lock.
func (m *PrinterManager) bind(ctx context.Context) (driver.FiscalPrinter, error) {
	m.mutex.RLock()
	printer := m.printer
	m.mutex.RUnlock()
	if printer != nil {
		return printer, nil
	}

	transport, err := m.scanner.Discover(ctx)
	if err != nil {
		m.setError(err)
		return nil, err
	}

	printer, err = m.registry.CreateDriver(m.config.Model, transport)
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	if m.printer != nil {
		// another caller bound first
		printer = m.printer
		m.mutex.Unlock()
		return printer, nil
	}
	connectedAt := m.now()
	m.printer = printer
	m.connectedAt = &connectedAt
	m.lastError = ""
	m.mutex.Unlock()

	m.logger.Info("Printer connected",
		zap.String("port", printer.Port()),
		zap.String("model", m.config.Model))
	m.events.Publish(m.event(model.EventPrinterOnline, model.SeverityInfo, printer.Port(), model.JSONObject{
		"model": m.config.Model,
	}))

	return printer, nil
}

// Invalidate drops the bound printer so the next use rediscovers it
func (m *PrinterManager) Invalidate(reason error) {
	m.mutex.Lock()
	printer := m.printer
	m.printer = nil
	m.connectedAt = nil
	if reason != nil {
		m.lastError = reason.Error()
	}
	m.mutex.Unlock()

	if printer == nil {
		return
	}

	m.logger.Warn("Printer connection dropped", zap.String("port", printer.Port()), zap.Error(reason))

	data := model.JSONObject{}
	if reason != nil {
		data["reason"] = reason.Error()
	}
	m.events.Publish(m.event(model.EventPrinterOffline, model.SeverityWarning, printer.Port(), data))
}

// Session runs fn with exclusive use of the printer. A transport fault
// returned by fn invalidates the binding.
func (m *PrinterManager) Session(ctx context.Context, fn func(printer driver.FiscalPrinter) error) error {
	m.session.Lock()
	defer m.session.Unlock()

	printer, err := m.boundDriver(ctx)
	if err != nil {
		return err
	}

	err = fn(printer)
	if err != nil && protocol.IsTransportFault(err) {
		m.Invalidate(err)
	}
	return err
}

// Connection returns a snapshot of the binding
func (m *PrinterManager) Connection() *model.PrinterConnection {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	connection := &model.PrinterConnection{
		Model:       m.config.Model,
		Online:      m.printer != nil,
		ConnectedAt: m.connectedAt,
		LastError:   m.lastError,
	}
	if m.printer != nil {
		connection.Port = m.printer.Port()
	}
	return connection
}

// Health returns the driver health metrics, nil while offline
func (m *PrinterManager) Health() *driver.HealthMetrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.printer == nil {
		return nil
	}
	return m.printer.GetHealthMetrics()
}

// Ports lists the serial ports visible to the host
func (m *PrinterManager) Ports() ([]*model.PortInfo, error) {
	return m.scanner.Details()
}

// State queries the device state
func (m *PrinterManager) State(ctx context.Context) (*model.PrinterState, error) {
	var state *model.PrinterState
	err := m.Session(ctx, func(p driver.FiscalPrinter) error {
		var err error
		state, err = p.State(ctx)
		return err
	})
	return state, err
}

// Status queries the status register
func (m *PrinterManager) Status(ctx context.Context) (*model.PrinterStatus, error) {
	var status *model.PrinterStatus
	err := m.Session(ctx, func(p driver.FiscalPrinter) error {
		var err error
		status, err = p.Status(ctx)
		return err
	})
	return status, err
}

// DateTime reads the device clock
func (m *PrinterManager) DateTime(ctx context.Context) (time.Time, error) {
	var t time.Time
	err := m.Session(ctx, func(p driver.FiscalPrinter) error {
		var err error
		t, err = p.DateTime(ctx)
		return err
	})
	return t, err
}

// SetDateTime sets the device clock
func (m *PrinterManager) SetDateTime(ctx context.Context, t time.Time) error {
	return m.Session(ctx, func(p driver.FiscalPrinter) error {
		return m.setClock(ctx, p, time.Time{}, t)
	})
}

// SyncClock sets the device clock to the host clock
func (m *PrinterManager) SyncClock(ctx context.Context) error {
	return m.Session(ctx, func(p driver.FiscalPrinter) error {
		previous, err := p.DateTime(ctx)
		if err != nil && protocol.IsTransportFault(err) {
			return err
		}
		return m.setClock(ctx, p, previous, m.now())
	})
}

// FiscalInfo reads the fiscal configuration
func (m *PrinterManager) FiscalInfo(ctx context.Context) (*model.FiscalInfo, error) {
	var info *model.FiscalInfo
	err := m.Session(ctx, func(p driver.FiscalPrinter) error {
		var err error
		info, err = p.FiscalInfo(ctx)
		return err
	})
	return info, err
}

// CancelDocument cancels whatever document is open on the device
func (m *PrinterManager) CancelDocument(ctx context.Context) error {
	return m.Session(ctx, func(p driver.FiscalPrinter) error {
		return p.CancelDocument(ctx)
	})
}

// Diagnosis is the startup health picture of the printer
type Diagnosis struct {
	Port              string               `json:"port"`
	State             *model.PrinterState  `json:"state,omitempty"`
	Status            *model.PrinterStatus `json:"status,omitempty"`
	FiscalInfo        *model.FiscalInfo    `json:"fiscal_info,omitempty"`
	DeviceTime        *time.Time           `json:"device_time,omitempty"`
	ClockDrift        time.Duration        `json:"clock_drift"`
	ClockSynchronized bool                 `json:"clock_synchronized"`
	Warnings          []string             `json:"warnings,omitempty"`
}

// Diagnose reads state, status and fiscal configuration, logs what needs
// attention and corrects the device clock when it drifted too far. Decode
// failures become warnings; only transport faults abort.
func (m *PrinterManager) Diagnose(ctx context.Context) (*Diagnosis, error) {
	diagnosis := &Diagnosis{}

	err := m.Session(ctx, func(p driver.FiscalPrinter) error {
		diagnosis.Port = p.Port()

		state, err := p.State(ctx)
		if err != nil {
			if protocol.IsTransportFault(err) {
				return err
			}
			diagnosis.Warnings = append(diagnosis.Warnings, "state: "+err.Error())
		}
		diagnosis.State = state
		if state != nil {
			m.logger.Info("Printer state",
				zap.String("response_code", state.ResponseCode),
				zap.String("response", state.ResponseDescription),
				zap.String("state", state.StateDescription))
		}

		status, err := p.Status(ctx)
		if err != nil {
			if protocol.IsTransportFault(err) {
				return err
			}
			diagnosis.Warnings = append(diagnosis.Warnings, "status: "+err.Error())
		}
		diagnosis.Status = status
		if status != nil {
			if alerts := status.Alerts(); len(alerts) > 0 {
				m.logger.Warn("Printer status alerts", zap.Strings("alerts", alerts))
				diagnosis.Warnings = append(diagnosis.Warnings, alerts...)
				m.events.Publish(m.event(model.EventPrinterAlert, model.SeverityWarning, p.Port(), model.JSONObject{
					"alerts": alerts,
				}))
			}
		}

		info, err := p.FiscalInfo(ctx)
		if err != nil {
			if protocol.IsTransportFault(err) {
				return err
			}
			diagnosis.Warnings = append(diagnosis.Warnings, "fiscal info: "+err.Error())
		}
		diagnosis.FiscalInfo = info
		if info != nil {
			for _, slot := range info.Unconfigured() {
				m.logger.Warn("Tax rate not configured", zap.Int("slot", slot))
				diagnosis.Warnings = append(diagnosis.Warnings, fmt.Sprintf("tax rate %d not configured", slot))
			}
		}

		return m.checkClock(ctx, p, diagnosis)
	})
	if err != nil {
		return nil, err
	}

	return diagnosis, nil
}

func (m *PrinterManager) checkClock(ctx context.Context, p driver.FiscalPrinter, diagnosis *Diagnosis) error {
	deviceTime, err := p.DateTime(ctx)
	if err != nil {
		if protocol.IsTransportFault(err) {
			return err
		}
		diagnosis.Warnings = append(diagnosis.Warnings, "datetime: "+err.Error())
		return nil
	}

	now := m.now()
	drift := now.Sub(deviceTime)
	if drift < 0 {
		drift = -drift
	}
	diagnosis.DeviceTime = &deviceTime
	diagnosis.ClockDrift = drift

	if !m.config.SyncClockOnStart || drift <= m.config.ClockDriftTolerance {
		return nil
	}

	m.logger.Warn("Printer clock drifted", zap.Duration("drift", drift), zap.Time("device_time", deviceTime))
	if err := m.setClock(ctx, p, deviceTime, now); err != nil {
		if protocol.IsTransportFault(err) {
			return err
		}
		diagnosis.Warnings = append(diagnosis.Warnings, "set datetime: "+err.Error())
		return nil
	}
	diagnosis.ClockSynchronized = true
	return nil
}

func (m *PrinterManager) setClock(ctx context.Context, p driver.FiscalPrinter, previous, t time.Time) error {
	if err := p.SetDateTime(ctx, t); err != nil {
		return err
	}

	m.audit.LogClockSet(previous, t)
	m.events.Publish(m.event(model.EventClockSynchronized, model.SeverityInfo, p.Port(), model.JSONObject{
		"previous": previous,
		"current":  t,
	}))
	return nil
}

func (m *PrinterManager) setError(err error) {
	m.mutex.Lock()
	m.lastError = err.Error()
	m.mutex.Unlock()
}

func (m *PrinterManager) event(eventType model.EventType, severity, port string, data model.JSONObject) *model.FiscalEvent {
	event := model.NewEvent(eventType, "printer-manager", severity, data)
	event.Port = port
	return event
}
