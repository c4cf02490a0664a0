// internal/protocol/tcp_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"fiscal-hub/internal/syncutil"
	"fiscal-hub/internal/utils"
)

// TCPScheme prefixes printer ports reached through a serial device server
const TCPScheme = "tcp://"

// defaultPollInterval bounds one read when no poll interval is configured
const defaultPollInterval = 50 * time.Millisecond

// TCPConfig represents a serial device server endpoint
type TCPConfig struct {
	Address     string        `json:"address"` // host:port
	DialTimeout time.Duration `json:"dial_timeout"`
	PollTimeout time.Duration `json:"poll_timeout"` // per-read poll interval
}

// IsTCPPort reports whether a printer port names a device server
func IsTCPPort(port string) bool {
	return strings.HasPrefix(strings.ToLower(port), TCPScheme)
}

// TCPConnection implements Transport for a printer behind a serial device
// server (ser2net, NPort) in raw TCP mode. A connection is dialed for every
// exchange, the way the serial transport opens the port.
type TCPConnection struct {
	config          *TCPConfig
	exchangeTimeout time.Duration
	logger          *utils.DeviceLogger
	mutex           syncutil.Mutex
	stats           ProtocolStats
}

// NewTCPConnection creates a new device server transport
func NewTCPConnection(config *TCPConfig, exchangeTimeout time.Duration, logger *zap.Logger) *TCPConnection {
	return &TCPConnection{
		config:          config,
		exchangeTimeout: exchangeTimeout,
		logger:          utils.NewDeviceLogger(logger.With(zap.String("protocol", "tcp")), TCPScheme+config.Address, ""),
	}
}

// Port returns the endpoint name
func (tc *TCPConnection) Port() string {
	return TCPScheme + tc.config.Address
}

// Stats returns a snapshot of exchange statistics
func (tc *TCPConnection) Stats() ProtocolStats {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()
	return tc.stats
}

// Exchange dials the device server, writes frame and reads the response
// until it ends in ETX ACK or NAK, or the exchange timeout elapses
func (tc *TCPConnection) Exchange(ctx context.Context, frame Frame, expectResponse bool) ([]byte, error) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()

	dialer := &net.Dialer{
		Timeout:   tc.config.DialTimeout,
		KeepAlive: 30 * time.Second,
	}
	conn, err := dialer.DialContext(ctx, "tcp", tc.config.Address)
	tc.logger.LogConnection("dial", err == nil, err)
	if err != nil {
		tc.stats.record(0, 0, time.Since(startTime), err)
		return nil, &TransportError{Op: "open", Port: tc.Port(), Err: fmt.Errorf("failed to connect to %s: %w", tc.config.Address, err)}
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			tc.logger.Warn("Failed to close TCP connection", zap.Error(cerr))
		}
	}()

	if tc.exchangeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(tc.exchangeTimeout))
	}
	n, err := conn.Write(frame)
	if err == nil && n != len(frame) {
		err = fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(frame))
	}
	if err != nil {
		tc.stats.record(n, 0, time.Since(startTime), err)
		tc.logger.Error("TCP write failed", zap.Error(err))
		return nil, &TransportError{Op: "write", Port: tc.Port(), Err: fmt.Errorf("%w: %v", ErrChannelUnusable, err)}
	}

	if !expectResponse {
		tc.stats.record(n, 0, time.Since(startTime), nil)
		return nil, nil
	}

	response, err := tc.readResponse(conn)
	tc.stats.record(n, len(response), time.Since(startTime), err)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			tc.stats.TimeoutCount++
		}
		return response, &TransportError{Op: "read", Port: tc.Port(), Err: err}
	}

	return response, nil
}

// readResponse mirrors the serial read loop: a read deadline of one poll
// interval stands in for the serial read timeout
func (tc *TCPConnection) readResponse(conn net.Conn) ([]byte, error) {
	poll := tc.config.PollTimeout
	if poll <= 0 {
		poll = defaultPollInterval
	}

	deadline := time.Now().Add(tc.exchangeTimeout)
	buffer := make([]byte, 0, 64)
	one := make([]byte, 1)

	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(poll))
		n, err := conn.Read(one)
		if err != nil {
			var netErr net.Error
			if !errors.As(err, &netErr) || !netErr.Timeout() {
				return buffer, fmt.Errorf("failed to read from TCP connection: %w", err)
			}
			if len(buffer) > 0 && buffer[len(buffer)-1] == ACK {
				return buffer, nil
			}
			continue
		}
		if n == 0 {
			continue
		}

		buffer = append(buffer, one[0])
		if IsTerminated(buffer) {
			return buffer, nil
		}
	}

	return buffer, ErrTimeout
}
