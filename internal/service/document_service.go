// internal/service/document_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fiscal-hub/internal/config"
	"fiscal-hub/internal/driver/cts310"
	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
	"fiscal-hub/internal/repository"
	"fiscal-hub/internal/transform"
	"fiscal-hub/internal/utils"
	"fiscal-hub/pkg/driver"
)

// Print steps recorded on a failed outcome
const (
	StepCancel   = "cancel"
	StepOpen     = "open"
	StepLine     = "line"
	StepService  = "service"
	StepSubtotal = "subtotal"
	StepDiscount = "discount"
	StepTotal    = "total"
	StepPayment  = "payment"
	StepTip      = "tip"
	StepComment  = "comment"
	StepClose    = "close"
)

const checkReferencePrefix = "TCPOS Check #"

// DocumentService prints fiscal documents and journals every attempt
type DocumentService struct {
	printers   *PrinterManager
	journal    repository.JournalRepository
	events     EventPublisher
	config     *config.FiscalConfig
	baseLogger *zap.Logger
	logger     *utils.ServiceLogger
	audit      *utils.AuditLogger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	printers *PrinterManager,
	journal repository.JournalRepository,
	events EventPublisher,
	cfg *config.FiscalConfig,
	logger *zap.Logger,
) *DocumentService {
	if events == nil {
		events = nopPublisher{}
	}
	return &DocumentService{
		printers:   printers,
		journal:    journal,
		events:     events,
		config:     cfg,
		baseLogger: logger,
		logger:     utils.NewServiceLogger(logger, "document-service"),
		audit:      utils.NewAuditLogger(logger),
	}
}

// stepError remembers where the sequence stopped
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string {
	return fmt.Sprintf("%s: %v", e.step, e.err)
}

func (e *stepError) Unwrap() error {
	return e.err
}

// PrintDocument runs the full command sequence for doc. The outcome is
// never nil and is journaled; the error is the one that stopped the sequence.
func (s *DocumentService) PrintDocument(ctx context.Context, doc *model.FiscalDocument) (*model.PrintOutcome, error) {
	outcome := &model.PrintOutcome{
		ID:            uuid.New(),
		TransactionID: doc.TransactionID,
		Reference:     doc.Reference,
		DocumentType:  doc.Header.Type,
		Total:         doc.Total,
		LineCount:     len(doc.Lines),
		SourceFile:    doc.SourceFile,
		StartedAt:     time.Now(),
	}

	opLogger := utils.NewOperationLogger(s.baseLogger, "print_document", outcome.ID.String())
	opLogger.Start(
		zap.String("transaction_id", doc.TransactionID),
		zap.String("reference", doc.Reference),
		zap.String("document_type", string(doc.Header.Type)),
		zap.Int("lines", len(doc.Lines)),
	)

	err := s.printers.Session(ctx, func(printer driver.FiscalPrinter) error {
		return s.print(ctx, printer, doc, outcome, opLogger)
	})
	outcome.DurationMs = int(time.Since(outcome.StartedAt).Milliseconds())

	switch {
	case err == nil:
		outcome.Status = model.PrintStatusPrinted
		opLogger.Success(zap.String("document_number", outcome.DocumentNumber))
		s.audit.LogDocumentIssued(outcome.DocumentNumber, string(outcome.DocumentType), outcome.Reference, outcome.Total.StringFixed(2))
	case closeAttempted(err):
		// the device may already hold the fiscal document; printing the
		// transaction again would duplicate it
		outcome.Status = model.PrintStatusRejected
		outcome.ErrorMessage = err.Error()
		opLogger.Error(err, zap.String("status", string(outcome.Status)))
	case protocol.IsTransportFault(err), errors.Is(err, ErrPrinterOffline), errors.Is(err, protocol.ErrPrinterNotFound):
		outcome.Status = model.PrintStatusTransportFault
		outcome.ErrorMessage = err.Error()
		opLogger.Error(err, zap.String("status", string(outcome.Status)))
	default:
		outcome.Status = model.PrintStatusRejected
		outcome.ErrorMessage = err.Error()
		opLogger.Error(err, zap.String("status", string(outcome.Status)))
	}

	var stepErr *stepError
	if errors.As(err, &stepErr) {
		outcome.Step = stepErr.step
	}

	s.record(ctx, outcome)
	return outcome, err
}

// closeAttempted reports whether err stopped the sequence after the close
// command was sent
func closeAttempted(err error) bool {
	var stepErr *stepError
	if !errors.As(err, &stepErr) || stepErr.step != StepClose {
		return false
	}
	var transportErr *protocol.TransportError
	return !errors.As(err, &transportErr) || transportErr.Op != "open"
}

// RecordNotPrintable journals a transaction that never reached the printer
func (s *DocumentService) RecordNotPrintable(ctx context.Context, transactionID, sourceFile string, cause error) *model.PrintOutcome {
	outcome := &model.PrintOutcome{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Status:        model.PrintStatusNotPrintable,
		SourceFile:    sourceFile,
		StartedAt:     time.Now(),
	}
	if cause != nil {
		outcome.ErrorMessage = cause.Error()
	}

	s.logger.Warn("Transaction not printable",
		zap.String("transaction_id", transactionID),
		zap.String("file", sourceFile),
		zap.Error(cause))

	s.record(ctx, outcome)
	return outcome
}

func (s *DocumentService) record(ctx context.Context, outcome *model.PrintOutcome) {
	if err := s.journal.RecordDocument(context.WithoutCancel(ctx), outcome); err != nil {
		s.logger.Error("Failed to journal document", zap.String("id", outcome.ID.String()), zap.Error(err))
	}

	eventType := model.EventDocumentFailed
	severity := model.SeverityError
	switch outcome.Status {
	case model.PrintStatusPrinted:
		eventType, severity = model.EventDocumentPrinted, model.SeverityInfo
	case model.PrintStatusNotPrintable:
		eventType, severity = model.EventDocumentSkipped, model.SeverityWarning
	}

	s.events.Publish(model.NewEvent(eventType, "document-service", severity, model.JSONObject{
		"id":              outcome.ID.String(),
		"transaction_id":  outcome.TransactionID,
		"reference":       outcome.Reference,
		"document_number": outcome.DocumentNumber,
		"status":          string(outcome.Status),
		"step":            outcome.Step,
		"error":           outcome.ErrorMessage,
	}))
}

// History lists journaled print attempts
func (s *DocumentService) History(ctx context.Context, filter *repository.JournalFilter) ([]*model.PrintOutcome, error) {
	return s.journal.ListDocuments(ctx, filter)
}

func (s *DocumentService) lineWidth() int {
	if s.config.LineWidth > 0 {
		return s.config.LineWidth
	}
	return transform.DefaultLineWidth
}

func (s *DocumentService) separator() string {
	return strings.Repeat("-", s.lineWidth())
}

// print issues the command sequence of one document
func (s *DocumentService) print(
	ctx context.Context,
	printer driver.FiscalPrinter,
	doc *model.FiscalDocument,
	outcome *model.PrintOutcome,
	opLogger *utils.OperationLogger,
) error {
	// a document left open by an earlier failure would reject the open
	opLogger.Step(StepCancel)
	if err := printer.CancelDocument(ctx); err != nil {
		if !cts310.IsRejection(err) {
			return &stepError{StepCancel, err}
		}
		s.logger.Warn("Pre-emptive cancel rejected", zap.Error(err))
	}

	opLogger.Step(StepOpen)
	header := doc.Header
	number, err := printer.OpenDocument(ctx, &header)
	if err != nil {
		return &stepError{StepOpen, err}
	}
	outcome.DocumentNumber = number

	if doc.Customer != nil {
		if err := s.comment(ctx, printer, s.separator()); err != nil {
			return err
		}
	}

	opLogger.Step(StepLine, zap.Int("count", len(doc.Lines)))
	for i := range doc.Lines {
		line := doc.Lines[i]
		if s.config.HideProductCode {
			line.ProductCode = " "
		}
		if err := printer.AddLine(ctx, &line); err != nil {
			return s.abort(ctx, printer, StepLine, err)
		}
	}

	if doc.Service != nil {
		opLogger.Step(StepService)
		if err := printer.ApplyAdjustment(ctx, doc.Service); err != nil {
			return s.abort(ctx, printer, StepService, err)
		}
	}

	opLogger.Step(StepSubtotal)
	if _, err := printer.Subtotal(ctx); err != nil {
		return s.abort(ctx, printer, StepSubtotal, err)
	}

	if doc.Discount != nil {
		opLogger.Step(StepDiscount)
		if err := printer.ApplyAdjustment(ctx, doc.Discount); err != nil {
			return s.abort(ctx, printer, StepDiscount, err)
		}
	}

	opLogger.Step(StepTotal)
	totals, err := printer.Total(ctx)
	if err != nil {
		return s.abort(ctx, printer, StepTotal, err)
	}
	if totals != nil && !totals.Total.Equal(doc.Total) {
		s.logger.Warn("Device total differs from transaction total",
			zap.String("device", totals.Total.StringFixed(2)),
			zap.String("transaction", doc.Total.StringFixed(2)))
	}

	opLogger.Step(StepPayment, zap.Int("count", len(doc.Payments)))
	for i := range doc.Payments {
		if err := printer.TakePayment(ctx, &doc.Payments[i]); err != nil {
			return s.abort(ctx, printer, StepPayment, err)
		}
	}
	for i := range doc.Tips {
		if err := printer.TakePayment(ctx, &doc.Tips[i]); err != nil {
			return s.abort(ctx, printer, StepTip, err)
		}
	}

	opLogger.Step(StepComment)
	if doc.Reference != "" {
		if err := s.comment(ctx, printer, checkReferencePrefix+doc.Reference); err != nil {
			return err
		}
	}
	if doc.Comment != "" {
		lines := []string{s.separator()}
		lines = append(lines, transform.WrapWords(doc.Comment, s.lineWidth(), 0, true)...)
		lines = append(lines, s.separator())
		for _, line := range lines {
			if err := s.comment(ctx, printer, line); err != nil {
				return err
			}
		}
	}

	opLogger.Step(StepClose)
	closed, err := printer.CloseDocument(ctx)
	if err != nil {
		return &stepError{StepClose, err}
	}
	if closed.Number != "" {
		outcome.DocumentNumber = closed.Number
	}
	return nil
}

// comment prints one comment line. A rejected comment does not spoil the
// document.
func (s *DocumentService) comment(ctx context.Context, printer driver.FiscalPrinter, text string) error {
	err := printer.AddComment(ctx, text)
	if err == nil {
		return nil
	}
	if !cts310.IsRejection(err) {
		return &stepError{StepComment, err}
	}
	s.logger.Warn("Comment rejected", zap.String("text", text), zap.Error(err))
	return nil
}

// abort cancels the open document after a rejection
func (s *DocumentService) abort(ctx context.Context, printer driver.FiscalPrinter, step string, err error) error {
	if protocol.IsTransportFault(err) {
		return &stepError{step, err}
	}

	if cerr := printer.CancelDocument(ctx); cerr != nil {
		s.logger.Error("Cancel after rejection failed", zap.String("step", step), zap.Error(cerr))
	}
	return &stepError{step, err}
}
