// internal/protocol/protocol.go
package protocol

import (
	"context"
	"time"
)

// Transport owns one serial endpoint and performs command/response exchanges.
// Implementations serialize exchanges: at most one is in flight at a time.
type Transport interface {
	// Exchange writes frame and, when expectResponse is set, returns the bytes
	// read until a terminator or the exchange timeout. On timeout the partial
	// buffer is returned together with an error wrapping ErrTimeout.
	Exchange(ctx context.Context, frame Frame, expectResponse bool) ([]byte, error)

	// Port returns the endpoint name
	Port() string

	// Stats returns a snapshot of exchange statistics
	Stats() ProtocolStats
}

// ProtocolStats provides protocol-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	TimeoutCount   int64         `json:"timeout_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
}

// record updates the statistics after one exchange
func (s *ProtocolStats) record(written, read int, latency time.Duration, err error) {
	s.BytesWritten += int64(written)
	s.BytesRead += int64(read)
	s.OperationCount++
	s.LastActivity = time.Now()

	if err != nil {
		s.ErrorCount++
	}

	if s.AverageLatency == 0 {
		s.AverageLatency = latency
	} else {
		s.AverageLatency = (s.AverageLatency + latency) / 2
	}
}
