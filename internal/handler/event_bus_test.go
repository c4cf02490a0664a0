package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiscal-hub/internal/model"
)

func receive(t *testing.T, ch <-chan *model.FiscalEvent) *model.FiscalEvent {
	t.Helper()

	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return nil
	}
}

func TestEventBus_Distribute(t *testing.T) {
	t.Parallel()

	bus := NewEventBus(zap.NewNop())
	online := bus.Subscribe(model.EventPrinterOnline)
	both := bus.Subscribe(model.EventPrinterOnline, model.EventReportCompleted)
	all := bus.Subscribe()
	go bus.Start()

	bus.Publish(model.NewEvent(model.EventReportCompleted, "test", model.SeverityInfo, nil))
	bus.Publish(model.NewEvent(model.EventPrinterOnline, "test", model.SeverityInfo, nil))

	assert.Equal(t, model.EventPrinterOnline, receive(t, online).EventType)
	assert.Equal(t, model.EventReportCompleted, receive(t, both).EventType)
	assert.Equal(t, model.EventPrinterOnline, receive(t, both).EventType)
	assert.Equal(t, model.EventReportCompleted, receive(t, all).EventType)
	assert.Equal(t, model.EventPrinterOnline, receive(t, all).EventType)

	bus.Stop()

	// every subscription closes exactly once
	for _, ch := range []<-chan *model.FiscalEvent{online, both, all} {
		require.Eventually(t, func() bool {
			_, ok := <-ch
			return !ok
		}, time.Second, 10*time.Millisecond)
	}
}

func TestEventBus_PublishAfterStop(t *testing.T) {
	t.Parallel()

	bus := NewEventBus(zap.NewNop())
	go bus.Start()
	bus.Stop()

	assert.NotPanics(t, func() {
		bus.Publish(model.NewEvent(model.EventPrinterOnline, "test", model.SeverityInfo, nil))
	})
	assert.NotPanics(t, bus.Stop)
}
