// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"fiscal-hub/internal/model"
)

// EventBus fans fiscal events out to subscribers. Publishing never blocks:
// a full bus or a slow subscriber drops the event.
type EventBus struct {
	subscribers map[model.EventType][]chan *model.FiscalEvent
	all         []chan *model.FiscalEvent
	events      chan *model.FiscalEvent
	closed      bool
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[model.EventType][]chan *model.FiscalEvent),
		events:      make(chan *model.FiscalEvent, 1000),
		logger:      logger,
	}
}

// Start distributes events until Stop is called
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}

	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	// a subscriber to several types is listed once per type
	seen := make(map[chan *model.FiscalEvent]bool)
	for _, subscribers := range eb.subscribers {
		for _, subscriber := range subscribers {
			if !seen[subscriber] {
				seen[subscriber] = true
				close(subscriber)
			}
		}
	}
	for _, subscriber := range eb.all {
		close(subscriber)
	}
	eb.subscribers = make(map[model.EventType][]chan *model.FiscalEvent)
	eb.all = nil
}

// Stop ends distribution and closes every subscription
func (eb *EventBus) Stop() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if !eb.closed {
		eb.closed = true
		close(eb.events)
	}
}

// Publish publishes an event
func (eb *EventBus) Publish(event *model.FiscalEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	if eb.closed {
		return
	}

	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
		)
	}
}

// Subscribe subscribes to the given event types, or to every event when
// none are given
func (eb *EventBus) Subscribe(eventTypes ...model.EventType) <-chan *model.FiscalEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan *model.FiscalEvent, 100)
	if eb.closed {
		close(subscriber)
		return subscriber
	}

	if len(eventTypes) == 0 {
		eb.all = append(eb.all, subscriber)
		return subscriber
	}
	for _, eventType := range eventTypes {
		eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
	}
	return subscriber
}

// distributeEvent distributes an event to subscribers
func (eb *EventBus) distributeEvent(event *model.FiscalEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	deliver := func(subscriber chan *model.FiscalEvent) {
		select {
		case subscriber <- event:
		default:
			// slow subscriber
		}
	}

	for _, subscriber := range eb.subscribers[event.EventType] {
		deliver(subscriber)
	}
	for _, subscriber := range eb.all {
		deliver(subscriber)
	}
}
