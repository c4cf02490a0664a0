// pkg/driver/interfaces.go
package driver

import (
	"context"
	"time"

	"fiscal-hub/internal/model"
)

// FiscalPrinter is the command surface of a fiscal printer bound to one endpoint.
// Callers serialize use: the device supports one open document at a time.
type FiscalPrinter interface {
	// Device information
	Info() *DriverInfo
	Port() string

	// Queries
	State(ctx context.Context) (*model.PrinterState, error)
	Status(ctx context.Context) (*model.PrinterStatus, error)
	DateTime(ctx context.Context) (time.Time, error)
	SetDateTime(ctx context.Context, t time.Time) error
	FiscalInfo(ctx context.Context) (*model.FiscalInfo, error)

	// Document lifecycle
	OpenDocument(ctx context.Context, header *model.FiscalHeader) (string, error)
	AddLine(ctx context.Context, item *model.LineItem) error
	Subtotal(ctx context.Context) (*model.Totals, error)
	Total(ctx context.Context) (*model.Totals, error)
	ApplyAdjustment(ctx context.Context, adjustment *model.Adjustment) error
	TakePayment(ctx context.Context, payment *model.Payment) error
	AddComment(ctx context.Context, text string) error
	CloseDocument(ctx context.Context) (*model.ClosedDocument, error)
	CancelDocument(ctx context.Context) error

	// Reports
	PrintXReport(ctx context.Context) error
	PrintZReport(ctx context.Context, closeFiscalDay bool) error
	PrintZByDateRange(ctx context.Context, start, end time.Time) (int, error)
	PrintZByNumberRange(ctx context.Context, start, end int) (int, error)
	ReprintDocument(ctx context.Context, number string) (string, error)

	// Health and monitoring
	GetHealthMetrics() *HealthMetrics
}
