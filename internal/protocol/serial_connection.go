// internal/protocol/serial_connection.go
package protocol

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"fiscal-hub/internal/syncutil"
	"fiscal-hub/internal/utils"
)

// PortOpener opens a serial endpoint
type PortOpener func(name string, mode *serial.Mode) (serial.Port, error)

// SerialConnection implements Transport over one serial endpoint.
// The port is opened and closed around every exchange.
type SerialConnection struct {
	config          *SerialConfig
	exchangeTimeout time.Duration
	open            PortOpener
	logger          *utils.DeviceLogger
	mutex           syncutil.Mutex
	stats           ProtocolStats
}

// NewSerialConnection creates a new serial transport
func NewSerialConnection(config *SerialConfig, exchangeTimeout time.Duration, logger *zap.Logger) *SerialConnection {
	return NewSerialConnectionWithOpener(config, exchangeTimeout, serial.Open, logger)
}

// NewSerialConnectionWithOpener creates a serial transport using a custom port opener
func NewSerialConnectionWithOpener(config *SerialConfig, exchangeTimeout time.Duration, open PortOpener, logger *zap.Logger) *SerialConnection {
	return &SerialConnection{
		config:          config,
		exchangeTimeout: exchangeTimeout,
		open:            open,
		logger:          utils.NewDeviceLogger(logger.With(zap.String("protocol", "serial")), config.Port, ""),
	}
}

// Port returns the endpoint name
func (sc *SerialConnection) Port() string {
	return sc.config.Port
}

// Stats returns a snapshot of exchange statistics
func (sc *SerialConnection) Stats() ProtocolStats {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	return sc.stats
}

// Exchange writes frame and reads the response byte by byte until it ends in
// ETX ACK or NAK, or the exchange timeout elapses. Once the frame is written
// the read is not interrupted by ctx.
func (sc *SerialConnection) Exchange(ctx context.Context, frame Frame, expectResponse bool) ([]byte, error) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()

	port, err := sc.openPort()
	sc.logger.LogConnection("open", err == nil, err)
	if err != nil {
		sc.stats.record(0, 0, time.Since(startTime), err)
		return nil, &TransportError{Op: "open", Port: sc.config.Port, Err: err}
	}
	defer func() {
		if cerr := port.Close(); cerr != nil {
			sc.logger.Warn("Failed to close serial port", zap.Error(cerr))
		}
	}()

	n, err := port.Write(frame)
	if err == nil && n != len(frame) {
		err = fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(frame))
	}
	if err != nil {
		sc.stats.record(n, 0, time.Since(startTime), err)
		sc.logger.Error("Serial write failed", zap.Error(err))
		return nil, &TransportError{Op: "write", Port: sc.config.Port, Err: fmt.Errorf("%w: %v", ErrChannelUnusable, err)}
	}

	if !expectResponse {
		sc.stats.record(n, 0, time.Since(startTime), nil)
		return nil, nil
	}

	response, err := sc.readResponse(port)
	sc.stats.record(n, len(response), time.Since(startTime), err)
	if err != nil {
		if err == ErrTimeout {
			sc.stats.TimeoutCount++
		}
		return response, &TransportError{Op: "read", Port: sc.config.Port, Err: err}
	}

	return response, nil
}

// openPort opens the endpoint and sets the per-read poll interval
func (sc *SerialConnection) openPort() (serial.Port, error) {
	port, err := sc.open(sc.config.Port, sc.config.Mode())
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(sc.config.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return port, nil
}

// readResponse accumulates single bytes until a terminator is seen.
// A buffer ending in a bare acknowledgement is complete once the line goes
// idle for one poll interval.
func (sc *SerialConnection) readResponse(port serial.Port) ([]byte, error) {
	deadline := time.Now().Add(sc.exchangeTimeout)
	buffer := make([]byte, 0, 64)
	one := make([]byte, 1)

	for time.Now().Before(deadline) {
		n, err := port.Read(one)
		if err != nil {
			return buffer, fmt.Errorf("failed to read from serial port: %w", err)
		}

		if n == 0 {
			if len(buffer) > 0 && buffer[len(buffer)-1] == ACK {
				return buffer, nil
			}
			continue
		}

		buffer = append(buffer, one[0])
		if IsTerminated(buffer) {
			return buffer, nil
		}
	}

	return buffer, ErrTimeout
}
