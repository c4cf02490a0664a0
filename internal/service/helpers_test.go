package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiscal-hub/internal/config"
	internalDriver "fiscal-hub/internal/driver"
	"fiscal-hub/internal/driver/cts310"
	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
)

// fakeScanner fails the first misses discoveries, then hands out transport.
// Each pass takes delay and the widest overlap of passes is kept.
type fakeScanner struct {
	mutex     sync.Mutex
	transport protocol.Transport
	misses    int
	discovers int
	delay     time.Duration
	active    int
	overlap   int
}

func (f *fakeScanner) Candidates() ([]string, error) {
	return []string{f.transport.Port()}, nil
}

func (f *fakeScanner) Details() ([]*model.PortInfo, error) {
	return []*model.PortInfo{{Name: f.transport.Port()}}, nil
}

func (f *fakeScanner) Discover(ctx context.Context) (protocol.Transport, error) {
	f.mutex.Lock()
	f.active++
	if f.active > f.overlap {
		f.overlap = f.active
	}
	delay := f.delay
	f.mutex.Unlock()

	time.Sleep(delay)

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.active--

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.discovers++
	if f.transport == nil || f.discovers <= f.misses {
		return nil, protocol.ErrPrinterNotFound
	}
	return f.transport, nil
}

func (f *fakeScanner) maxOverlap() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.overlap
}

func (f *fakeScanner) count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.discovers
}

type recordingPublisher struct {
	mutex  sync.Mutex
	events []*model.FiscalEvent
}

func (r *recordingPublisher) Publish(event *model.FiscalEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) types() []model.EventType {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	types := make([]model.EventType, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.EventType)
	}
	return types
}

func testPrinterConfig() *config.PrinterConfig {
	return &config.PrinterConfig{
		Model:               cts310.ModelName,
		DiscoveryInterval:   time.Millisecond,
		ClockDriftTolerance: time.Minute,
	}
}

func newTestManager(t *testing.T, cfg *config.PrinterConfig, scanner *fakeScanner, events EventPublisher) *PrinterManager {
	t.Helper()

	registry := internalDriver.NewRegistry(zap.NewNop())
	internalDriver.RegisterDefaultDrivers(registry, zap.NewNop())

	manager, err := NewPrinterManager(cfg, registry, scanner, events, zap.NewNop())
	require.NoError(t, err)
	return manager
}

// healthyPrinter answers every document command affirmatively
func healthyPrinter() *protocol.MockTransport {
	mock := protocol.NewMockTransport("/dev/ttyUSB0")
	mock.SetDefault(cts310.CmdOpenDocument, protocol.Response("00000031"))
	mock.SetDefault(cts310.CmdAddLine, protocol.Response("1"))
	mock.SetDefault(cts310.CmdTotals, protocol.Response("0"))
	mock.SetDefault(cts310.CmdAdjustment, protocol.Response("1"))
	mock.SetDefault(cts310.CmdPayment, protocol.Response("1"))
	mock.SetDefault(cts310.CmdComment, []byte{protocol.ACK})
	mock.SetDefault(cts310.CmdCloseDocument, protocol.Response("00000031"))
	return mock
}
