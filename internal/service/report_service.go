// internal/service/report_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fiscal-hub/internal/driver/cts310"
	"fiscal-hub/internal/model"
	"fiscal-hub/internal/protocol"
	"fiscal-hub/internal/repository"
	"fiscal-hub/internal/utils"
	"fiscal-hub/pkg/driver"
)

// ReportDateLayout is the accepted day format of report requests
const ReportDateLayout = "2006-01-02"

// Z report sequence numbers are four digits
const (
	minReportNumber = 1
	maxReportNumber = 9999
)

// ErrInvalidRequest marks a report request rejected before reaching the device
var ErrInvalidRequest = errors.New("invalid report request")

// ReportService runs fiscal reports and document maintenance commands.
// Every operation returns a journaled result, even when it also returns
// the error that failed it.
type ReportService struct {
	printers   *PrinterManager
	journal    repository.JournalRepository
	events     EventPublisher
	baseLogger *zap.Logger
	logger     *utils.ServiceLogger
	audit      *utils.AuditLogger
	now        func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	printers *PrinterManager,
	journal repository.JournalRepository,
	events EventPublisher,
	logger *zap.Logger,
) *ReportService {
	if events == nil {
		events = nopPublisher{}
	}
	return &ReportService{
		printers:   printers,
		journal:    journal,
		events:     events,
		baseLogger: logger,
		logger:     utils.NewServiceLogger(logger, "report-service"),
		audit:      utils.NewAuditLogger(logger),
		now:        time.Now,
	}
}

// PrintXReport prints the shift report
func (s *ReportService) PrintXReport(ctx context.Context) (*model.ReportResult, error) {
	result := s.newResult(model.ReportX)
	return s.run(ctx, result, func(p driver.FiscalPrinter) (string, error) {
		if err := p.PrintXReport(ctx); err != nil {
			return "", err
		}
		return "X report printed", nil
	})
}

// PrintZReport closes the fiscal day, or prints a copy of the last Z report
func (s *ReportService) PrintZReport(ctx context.Context, copyOnly bool) (*model.ReportResult, error) {
	kind := model.ReportZ
	if copyOnly {
		kind = model.ReportZCopy
	}

	result, err := s.run(ctx, s.newResult(kind), func(p driver.FiscalPrinter) (string, error) {
		if err := p.PrintZReport(ctx, !copyOnly); err != nil {
			return "", err
		}
		if copyOnly {
			return "Z report copy printed", nil
		}
		return "Z report printed, fiscal day closed", nil
	})

	if !copyOnly {
		message := result.Message
		if !result.Success {
			message = result.Error
		}
		s.audit.LogFiscalDayClosed(result.Success, message)
	}
	return result, err
}

// PrintZByDate prints every Z report between two days. An empty end date
// means today.
func (s *ReportService) PrintZByDate(ctx context.Context, req model.DateRangeRequest) (*model.ReportResult, error) {
	result := s.newResult(model.ReportZByDate)
	result.StartDate = req.StartDate
	result.EndDate = req.EndDate
	if result.EndDate == "" {
		result.EndDate = s.now().Format(ReportDateLayout)
	}

	start, end, err := parseDateRange(result.StartDate, result.EndDate)
	if err != nil {
		return s.reject(ctx, result, err)
	}

	return s.run(ctx, result, func(p driver.FiscalPrinter) (string, error) {
		count, err := p.PrintZByDateRange(ctx, start, end)
		result.ReportsCount = count
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d Z reports printed", count), nil
	})
}

// PrintZByNumber prints one Z report by sequence number
func (s *ReportService) PrintZByNumber(ctx context.Context, number int) (*model.ReportResult, error) {
	result := s.newResult(model.ReportZByNumber)
	return s.numberRange(ctx, result, number, number)
}

// PrintZByNumberRange prints the Z reports numbered start through end
func (s *ReportService) PrintZByNumberRange(ctx context.Context, req model.NumberRangeRequest) (*model.ReportResult, error) {
	result := s.newResult(model.ReportZByRange)
	return s.numberRange(ctx, result, req.StartNumber, req.EndNumber)
}

func (s *ReportService) numberRange(ctx context.Context, result *model.ReportResult, start, end int) (*model.ReportResult, error) {
	result.StartNumber = start
	result.EndNumber = end

	if err := validateNumberRange(start, end); err != nil {
		return s.reject(ctx, result, err)
	}

	return s.run(ctx, result, func(p driver.FiscalPrinter) (string, error) {
		count, err := p.PrintZByNumberRange(ctx, start, end)
		result.ReportsCount = count
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d Z reports printed", count), nil
	})
}

// ReprintDocument prints a copy of a stored document
func (s *ReportService) ReprintDocument(ctx context.Context, number string) (*model.ReportResult, error) {
	result := s.newResult(model.ReportReprint)
	number = strings.TrimSpace(number)
	result.DocumentNumber = number

	if number == "" || strings.Trim(number, "0123456789") != "" {
		return s.reject(ctx, result, fmt.Errorf("%w: document number must be numeric", ErrInvalidRequest))
	}

	return s.run(ctx, result, func(p driver.FiscalPrinter) (string, error) {
		docType, err := p.ReprintDocument(ctx, number)
		if err != nil {
			return "", err
		}
		result.DocumentType = docType
		return fmt.Sprintf("Document %s reprinted", number), nil
	})
}

// CancelDocument cancels the document open on the device, if any
func (s *ReportService) CancelDocument(ctx context.Context) (*model.ReportResult, error) {
	result := s.newResult(model.ReportCancel)
	return s.run(ctx, result, func(p driver.FiscalPrinter) (string, error) {
		if err := p.CancelDocument(ctx); err != nil {
			return "", err
		}
		return "Document cancelled", nil
	})
}

// History lists journaled report requests
func (s *ReportService) History(ctx context.Context, filter *repository.JournalFilter) ([]*model.ReportResult, error) {
	return s.journal.ListReports(ctx, filter)
}

func (s *ReportService) newResult(kind model.ReportKind) *model.ReportResult {
	return &model.ReportResult{
		ID:          uuid.New(),
		Kind:        kind,
		RequestedAt: time.Now(),
	}
}

// run executes fn in a printer session and fills in the result
func (s *ReportService) run(
	ctx context.Context,
	result *model.ReportResult,
	fn func(p driver.FiscalPrinter) (string, error),
) (*model.ReportResult, error) {
	opLogger := utils.NewOperationLogger(s.baseLogger, strings.ToLower(string(result.Kind)), result.ID.String())
	opLogger.Start()

	var message string
	err := s.printers.Session(ctx, func(p driver.FiscalPrinter) error {
		var err error
		message, err = fn(p)
		return err
	})
	result.DurationMs = int(time.Since(result.RequestedAt).Milliseconds())

	if err != nil {
		result.Success = false
		result.Error = describeReportError(err)
		opLogger.Error(err)
	} else {
		result.Success = true
		result.Message = message
		opLogger.Success(zap.Int("reports_count", result.ReportsCount))
	}

	s.record(ctx, result)
	return result, err
}

// reject records a request that failed validation
func (s *ReportService) reject(ctx context.Context, result *model.ReportResult, err error) (*model.ReportResult, error) {
	result.Success = false
	result.Error = err.Error()
	s.logger.Warn("Report request rejected", zap.String("kind", string(result.Kind)), zap.Error(err))
	s.record(ctx, result)
	return result, err
}

func (s *ReportService) record(ctx context.Context, result *model.ReportResult) {
	if err := s.journal.RecordReport(context.WithoutCancel(ctx), result); err != nil {
		s.logger.Error("Failed to journal report", zap.String("id", result.ID.String()), zap.Error(err))
	}

	severity := model.SeverityInfo
	if !result.Success {
		severity = model.SeverityWarning
	}
	s.events.Publish(model.NewEvent(model.EventReportCompleted, "report-service", severity, model.JSONObject{
		"id":            result.ID.String(),
		"kind":          string(result.Kind),
		"success":       result.Success,
		"message":       result.Message,
		"error":         result.Error,
		"reports_count": result.ReportsCount,
	}))
}

// describeReportError turns a driver error into an operator message
func describeReportError(err error) string {
	switch {
	case errors.Is(err, cts310.ErrNothingToReport):
		return "no transactions to report or fiscal day already closed"
	case errors.Is(err, cts310.ErrNoReports):
		return "no reports found"
	case errors.Is(err, cts310.ErrDocumentNotFound):
		return "document not found"
	case errors.Is(err, ErrPrinterOffline), errors.Is(err, protocol.ErrPrinterNotFound):
		return "printer offline"
	case protocol.IsTransportFault(err):
		return "printer not reachable: " + err.Error()
	default:
		return err.Error()
	}
}

func parseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(ReportDateLayout, startDate, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	end, err := time.ParseInLocation(ReportDateLayout, endDate, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date before start date", ErrInvalidRequest)
	}
	return start, end, nil
}

func validateNumberRange(start, end int) error {
	if start < minReportNumber || end > maxReportNumber {
		return fmt.Errorf("%w: report numbers must be between %d and %d", ErrInvalidRequest, minReportNumber, maxReportNumber)
	}
	if end < start {
		return fmt.Errorf("%w: end number before start number", ErrInvalidRequest)
	}
	return nil
}
