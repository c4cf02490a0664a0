// internal/driver/cts310/cts310_driver.go
package cts310

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
	"fiscal-hub/internal/syncutil"
	"fiscal-hub/internal/utils"
	"fiscal-hub/pkg/driver"
)

// ModelName is the registry key of this driver
const ModelName = "cts310ii"

// Options tunes the recovery policy of the driver
type Options struct {
	// CloseAttempts bounds the cancel-then-retry loop of CloseDocument
	CloseAttempts int
	// MaxRangeReports bounds the get-next loop of a date range request
	MaxRangeReports int
}

// DefaultOptions returns the production recovery policy
func DefaultOptions() Options {
	return Options{
		CloseAttempts:   2,
		MaxRangeReports: 10000,
	}
}

// CTS310Driver implements driver.FiscalPrinter for the CTS310II printer
type CTS310Driver struct {
	transport     protocol.Transport
	options       Options
	logger        *utils.DeviceLogger
	healthMetrics *driver.HealthMetrics
	mutex         syncutil.Mutex
}

// NewCTS310Driver creates a driver bound to one transport
func NewCTS310Driver(transport protocol.Transport, logger *zap.Logger) *CTS310Driver {
	return NewCTS310DriverWithOptions(transport, DefaultOptions(), logger)
}

// NewCTS310DriverWithOptions creates a driver with a custom recovery policy
func NewCTS310DriverWithOptions(transport protocol.Transport, options Options, logger *zap.Logger) *CTS310Driver {
	if options.CloseAttempts < 1 {
		options.CloseAttempts = 1
	}
	if options.MaxRangeReports < 1 {
		options.MaxRangeReports = DefaultOptions().MaxRangeReports
	}

	return &CTS310Driver{
		transport:     transport,
		options:       options,
		logger:        utils.NewDeviceLogger(logger, transport.Port(), ModelName),
		healthMetrics: &driver.HealthMetrics{},
	}
}

// Info returns static model information
func (d *CTS310Driver) Info() *driver.DriverInfo {
	commands := make([]string, 0, len(commandNames))
	for _, code := range []byte{
		CmdState, CmdIdentify, CmdSetDateTime, CmdGetDateTime, CmdFiscalInfo, CmdStatus,
		CmdOpenDocument, CmdAddLine, CmdTotals, CmdAdjustment, CmdPayment, CmdCloseDocument,
		CmdCancelDocument, CmdComment, CmdZReport, CmdXReport, CmdZByDate, CmdZByNumber,
		CmdNextZ, CmdEndZ, CmdReprint,
	} {
		commands = append(commands, CommandName(code))
	}

	return &driver.DriverInfo{
		Model:        "CTS310II",
		Manufacturer: "Custom",
		Protocol:     "STX/FS/ETX serial",
		LineWidth:    48,
		Commands:     commands,
	}
}

// Port returns the endpoint the driver is bound to
func (d *CTS310Driver) Port() string {
	return d.transport.Port()
}

// GetHealthMetrics returns a snapshot of command health
func (d *CTS310Driver) GetHealthMetrics() *driver.HealthMetrics {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.healthMetrics.Snapshot()
}

// exchange sends one command and returns the raw answer
func (d *CTS310Driver) exchange(ctx context.Context, code byte, fields ...string) ([]byte, error) {
	frame, err := protocol.Encode(code, fields...)
	if err != nil {
		return nil, &CommandError{Command: CommandName(code), Code: code, Err: err}
	}

	startTime := time.Now()
	raw, err := d.transport.Exchange(ctx, frame, true)
	d.logger.LogExchange(CommandName(code), frame, raw, time.Since(startTime), err)

	return raw, err
}

// command sends one command and classifies the answer with accept.
// A settled bare ACK that outlived the exchange timeout is still offered to
// accept, since several commands answer with nothing else.
func (d *CTS310Driver) command(ctx context.Context, code byte, accept func([]byte) bool, fields ...string) ([]byte, error) {
	startTime := time.Now()
	raw, err := d.exchange(ctx, code, fields...)

	if err != nil && !(errors.Is(err, protocol.ErrTimeout) && protocol.IsACK(raw) && accept(raw)) {
		d.recordHealth(time.Since(startTime), false, true)
		return raw, err
	}

	if !accept(raw) {
		d.recordHealth(time.Since(startTime), true, false)
		return raw, rejected(code, raw, nil)
	}

	d.recordHealth(time.Since(startTime), false, false)
	return raw, nil
}

func (d *CTS310Driver) recordHealth(latency time.Duration, rejected, fault bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.healthMetrics.Record(latency, rejected, fault)
}

// logState queries the device state after a rejection. It never changes
// the outcome of the failed command.
func (d *CTS310Driver) logState(ctx context.Context, after string) {
	state, err := d.State(ctx)
	if err != nil {
		d.logger.Debug("Device state unavailable", zap.String("after", after), zap.Error(err))
		return
	}
	d.logger.Info("Device state after rejection",
		zap.String("after", after),
		zap.String("state", state.StateDescription),
		zap.String("response", state.ResponseDescription),
		zap.String("response_code", state.ResponseCode),
	)
}

func isCancelled(raw []byte) bool {
	return len(raw) == 3 && raw[0] == protocol.BEL && raw[1] == protocol.BEL && raw[2] == protocol.ACK
}

func isAffirmativeOrACK(raw []byte) bool {
	return protocol.IsAffirmative(raw) || protocol.IsACK(raw)
}

// State queries the device state
func (d *CTS310Driver) State(ctx context.Context) (*model.PrinterState, error) {
	raw, err := d.command(ctx, CmdState, protocol.IsAffirmative)
	if err != nil {
		return nil, err
	}
	return DecodeState(raw)
}

// Status queries the status register
func (d *CTS310Driver) Status(ctx context.Context) (*model.PrinterStatus, error) {
	raw, err := d.command(ctx, CmdStatus, protocol.IsAffirmative)
	if err != nil {
		return nil, err
	}
	return DecodeStatus(raw)
}

// DateTime reads the device clock
func (d *CTS310Driver) DateTime(ctx context.Context) (time.Time, error) {
	raw, err := d.command(ctx, CmdGetDateTime, protocol.IsAffirmative)
	if err != nil {
		return time.Time{}, err
	}
	return DecodeDateTime(raw)
}

// SetDateTime sets the device clock. The device answers with a bare ACK.
func (d *CTS310Driver) SetDateTime(ctx context.Context, t time.Time) error {
	_, err := d.command(ctx, CmdSetDateTime, protocol.IsACK, DateTimeFields(t)...)
	if err != nil {
		return err
	}
	d.logger.Debug("Device clock set", zap.Time("datetime", t))
	return nil
}

// FiscalInfo reads the device-resident fiscal configuration
func (d *CTS310Driver) FiscalInfo(ctx context.Context) (*model.FiscalInfo, error) {
	raw, err := d.command(ctx, CmdFiscalInfo, protocol.IsAffirmative)
	if err != nil {
		return nil, err
	}
	return DecodeFiscalInfo(raw)
}

// OpenDocument opens a fiscal document and returns its number. A number that
// cannot be decoded is logged and returned empty; the document is still open.
func (d *CTS310Driver) OpenDocument(ctx context.Context, header *model.FiscalHeader) (string, error) {
	raw, err := d.command(ctx, CmdOpenDocument, protocol.IsAffirmative, HeaderFields(header)...)
	if err != nil {
		if IsRejection(err) {
			d.logState(ctx, "open_document")
			return "", rejected(CmdOpenDocument, raw, ErrDocumentOpenFailed)
		}
		return "", err
	}

	number, err := DecodeDocumentNumber(raw)
	if err != nil {
		d.logger.Error("Failed to decode document number", zap.Error(err))
		return "", nil
	}

	d.logger.Debug("Document opened",
		zap.String("document_number", number),
		zap.String("document_type", string(header.Type)),
	)
	return number, nil
}

// AddLine prints one item row. The two display classification fields are
// appended here.
func (d *CTS310Driver) AddLine(ctx context.Context, item *model.LineItem) error {
	fields := append(LineFields(item), lineDisplayClass, lineDisplayClass)

	_, err := d.command(ctx, CmdAddLine, protocol.IsAffirmative, fields...)
	if err != nil && IsRejection(err) {
		d.logState(ctx, "add_line")
	}
	return err
}

// Subtotal computes the running subtotal
func (d *CTS310Driver) Subtotal(ctx context.Context) (*model.Totals, error) {
	return d.totals(ctx, totalsSubtotal)
}

// Total computes the document total
func (d *CTS310Driver) Total(ctx context.Context) (*model.Totals, error) {
	return d.totals(ctx, totalsTotal)
}

// totals decode failures are logged and yield nil totals without error
func (d *CTS310Driver) totals(ctx context.Context, kind string) (*model.Totals, error) {
	raw, err := d.command(ctx, CmdTotals, protocol.IsAffirmative, kind)
	if err != nil {
		if IsRejection(err) {
			d.logState(ctx, "totals")
		}
		return nil, err
	}

	totals, err := DecodeTotals(raw)
	if err != nil {
		d.logger.Error("Failed to decode totals", zap.String("kind", kind), zap.Error(err))
		return nil, nil
	}

	d.logger.Debug("Totals computed",
		zap.String("kind", kind),
		zap.String("total", totals.Total.StringFixed(2)),
		zap.String("items", totals.ItemCount.String()),
	)
	return totals, nil
}

// ApplyAdjustment applies a discount, surcharge or service charge.
// Calling it twice applies the adjustment twice.
func (d *CTS310Driver) ApplyAdjustment(ctx context.Context, adjustment *model.Adjustment) error {
	_, err := d.command(ctx, CmdAdjustment, protocol.IsAffirmative, AdjustmentFields(adjustment)...)
	if err != nil && IsRejection(err) {
		d.logState(ctx, "adjustment")
	}
	return err
}

// TakePayment adds one tender line
func (d *CTS310Driver) TakePayment(ctx context.Context, payment *model.Payment) error {
	_, err := d.command(ctx, CmdPayment, protocol.IsAffirmative, PaymentFields(payment)...)
	if err != nil && IsRejection(err) {
		d.logState(ctx, "payment")
	}
	return err
}

// AddComment prints one free-text line
func (d *CTS310Driver) AddComment(ctx context.Context, text string) error {
	_, err := d.command(ctx, CmdComment, isAffirmativeOrACK, text)
	return err
}

// CancelDocument cancels the open document. A NAK means there is no open
// document and counts as success.
func (d *CTS310Driver) CancelDocument(ctx context.Context) error {
	raw, err := d.command(ctx, CmdCancelDocument, func(raw []byte) bool {
		return isCancelled(raw) || protocol.IsNAK(raw)
	})
	if err != nil {
		return err
	}

	if protocol.IsNAK(raw) {
		d.logger.Debug("No document to cancel")
	} else {
		d.logger.Debug("Document cancelled")
	}
	return nil
}

// CloseDocument closes the open document. After a rejected or timed-out
// close the document is cancelled and, while attempts remain, the close is
// retried. A failed final attempt still cancels before
// ErrDocumentCloseFailed is returned. Other transport faults are returned
// as they occur.
func (d *CTS310Driver) CloseDocument(ctx context.Context) (*model.ClosedDocument, error) {
	var lastRaw []byte

	for attempt := 1; attempt <= d.options.CloseAttempts; attempt++ {
		raw, err := d.command(ctx, CmdCloseDocument, protocol.IsAffirmative)
		if err == nil {
			closed, derr := DecodeClosedDocument(raw)
			if derr != nil {
				d.logger.Error("Failed to decode closed document", zap.Error(derr))
				closed = &model.ClosedDocument{}
			}
			d.logger.Debug("Document closed",
				zap.String("document_number", closed.Number),
				zap.Int("attempt", attempt),
			)
			return closed, nil
		}
		if !closeRecoverable(err) {
			return nil, err
		}

		lastRaw = raw
		if IsRejection(err) {
			d.logState(ctx, "close_document")
		} else {
			d.logger.Warn("Close timed out",
				zap.Int("attempt", attempt),
				zap.Binary("partial_response", raw),
			)
		}

		if cerr := d.CancelDocument(ctx); cerr != nil {
			d.logger.Warn("Cancel after failed close failed",
				zap.Int("attempt", attempt),
				zap.Error(cerr),
			)
			if !closeRecoverable(cerr) {
				return nil, cerr
			}
			break
		}

		d.logger.Warn("Document cancelled after failed close",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", d.options.CloseAttempts),
		)
	}

	return nil, rejected(CmdCloseDocument, lastRaw, ErrDocumentCloseFailed)
}

// closeRecoverable reports whether a close or its cleanup cancel failed in
// a way the recovery loop handles: a device answer or a reply that never
// completed
func closeRecoverable(err error) bool {
	return IsRejection(err) || errors.Is(err, protocol.ErrTimeout)
}
