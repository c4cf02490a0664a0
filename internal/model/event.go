// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventPrinterOnline     EventType = "PRINTER_ONLINE"
	EventPrinterOffline    EventType = "PRINTER_OFFLINE"
	EventPrinterAlert      EventType = "PRINTER_ALERT"
	EventDocumentPrinted   EventType = "DOCUMENT_PRINTED"
	EventDocumentFailed    EventType = "DOCUMENT_FAILED"
	EventDocumentSkipped   EventType = "DOCUMENT_SKIPPED"
	EventReportCompleted   EventType = "REPORT_COMPLETED"
	EventClockSynchronized EventType = "CLOCK_SYNCHRONIZED"
)

// Event severities
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityError    = "ERROR"
	SeverityCritical = "CRITICAL"
)

// FiscalEvent represents an event in the system
type FiscalEvent struct {
	ID        uuid.UUID  `json:"id"`
	EventType EventType  `json:"event_type"`
	Port      string     `json:"port,omitempty"`
	Data      JSONObject `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Severity  string     `json:"severity"`
}

// NewEvent creates an event stamped with a fresh id and the current time
func NewEvent(eventType EventType, source, severity string, data JSONObject) *FiscalEvent {
	return &FiscalEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now(),
		Source:    source,
		Severity:  severity,
	}
}
