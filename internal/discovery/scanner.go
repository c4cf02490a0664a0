// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
)

// ProbeFunc reports whether the printer behind a transport answers
// correctly. It must not change device state.
type ProbeFunc func(ctx context.Context, transport protocol.Transport) error

// Scanner finds the serial endpoint the printer is attached to
type Scanner interface {
	Candidates() ([]string, error)
	Details() ([]*model.PortInfo, error)
	Discover(ctx context.Context) (protocol.Transport, error)
}

// SerialScanner probes serial endpoints one at a time
type SerialScanner struct {
	newTransport protocol.TransportFactory
	probe        ProbeFunc
	pinned       string
	logger       *zap.Logger

	listPorts   func() ([]string, error)
	detailPorts func() ([]*enumerator.PortDetails, error)
}

// NewSerialScanner creates a scanner. When pinned is set only that endpoint
// is probed.
func NewSerialScanner(factory protocol.TransportFactory, probe ProbeFunc, pinned string, logger *zap.Logger) *SerialScanner {
	return &SerialScanner{
		newTransport: factory,
		probe:        probe,
		pinned:       pinned,
		logger:       logger.With(zap.String("scanner", "serial")),
		listPorts:    serial.GetPortsList,
		detailPorts:  enumerator.GetDetailedPortsList,
	}
}

// Candidates lists the endpoints to probe, most recently enumerated first
func (s *SerialScanner) Candidates() ([]string, error) {
	if s.pinned != "" {
		return []string{s.pinned}, nil
	}

	ports, err := s.listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	candidates := make([]string, 0, len(ports))
	for i := len(ports) - 1; i >= 0; i-- {
		candidates = append(candidates, ports[i])
	}
	return candidates, nil
}

// Details reports every serial port with its USB identity when known
func (s *SerialScanner) Details() ([]*model.PortInfo, error) {
	ports, err := s.detailPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	infos := make([]*model.PortInfo, 0, len(ports))
	for _, port := range ports {
		infos = append(infos, &model.PortInfo{
			Name:         port.Name,
			IsUSB:        port.IsUSB,
			VID:          port.VID,
			PID:          port.PID,
			SerialNumber: port.SerialNumber,
			Product:      port.Product,
		})
	}
	return infos, nil
}

// Discover probes the candidates in order and returns a transport bound to
// the first one that answers. Probing has no side effect, so callers may
// retry freely.
func (s *SerialScanner) Discover(ctx context.Context) (protocol.Transport, error) {
	candidates, err := s.Candidates()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Probing serial ports", zap.Strings("ports", candidates))

	for _, port := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		transport := s.newTransport(port)
		if err := s.probe(ctx, transport); err != nil {
			s.logger.Debug("Port did not answer the probe",
				zap.String("port", port),
				zap.Error(err))
			continue
		}

		s.logger.Info("Printer found", zap.String("port", port))
		return transport, nil
	}

	return nil, protocol.ErrPrinterNotFound
}
