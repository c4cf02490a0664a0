// internal/protocol/factory.go
package protocol

import (
	"go.uber.org/zap"

	"fiscal-hub/internal/config"
)

// TransportFactory creates a transport bound to one endpoint name
type TransportFactory func(port string) Transport

// NewTransportFactory returns a factory building transports from the
// printer configuration. A tcp:// port reaches a serial device server;
// anything else is a local serial port.
func NewTransportFactory(cfg *config.PrinterConfig, logger *zap.Logger) TransportFactory {
	return func(port string) Transport {
		if IsTCPPort(port) {
			return NewTCPConnection(TCPConfigFor(cfg, port), cfg.ExchangeTimeout, logger)
		}
		return NewSerialConnection(SerialConfigFor(cfg, port), cfg.ExchangeTimeout, logger)
	}
}

// TCPConfigFor derives the device server settings for a tcp:// port
func TCPConfigFor(cfg *config.PrinterConfig, port string) *TCPConfig {
	return &TCPConfig{
		Address:     port[len(TCPScheme):],
		DialTimeout: cfg.ExchangeTimeout,
		PollTimeout: cfg.Serial.Timeout,
	}
}

// SerialConfigFor derives the serial settings for one endpoint
func SerialConfigFor(cfg *config.PrinterConfig, port string) *SerialConfig {
	serialConfig := &SerialConfig{
		Port:     port,
		BaudRate: cfg.Serial.BaudRate,
		DataBits: cfg.Serial.DataBits,
		StopBits: cfg.Serial.StopBits,
		Parity:   cfg.Serial.Parity,
		Timeout:  cfg.Serial.Timeout,
	}

	if serialConfig.BaudRate == 0 {
		serialConfig.BaudRate = 9600
	}
	if serialConfig.DataBits == 0 {
		serialConfig.DataBits = 8
	}
	if serialConfig.StopBits == 0 {
		serialConfig.StopBits = 1
	}
	if serialConfig.Parity == "" {
		serialConfig.Parity = "none"
	}

	return serialConfig
}
