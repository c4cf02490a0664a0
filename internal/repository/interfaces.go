// internal/repository/interfaces.go
package repository

import (
	"context"
	"time"

	"fiscal-hub/internal/model"
)

// JournalRepository records every print attempt and report request
type JournalRepository interface {
	RecordDocument(ctx context.Context, outcome *model.PrintOutcome) error
	RecordReport(ctx context.Context, result *model.ReportResult) error

	ListDocuments(ctx context.Context, filter *JournalFilter) ([]*model.PrintOutcome, error)
	ListReports(ctx context.Context, filter *JournalFilter) ([]*model.ReportResult, error)
}

// JournalFilter narrows journal listings. Results are newest first.
type JournalFilter struct {
	Since  *time.Time `json:"since,omitempty"`
	Status string     `json:"status,omitempty"` // document status or report kind
	Limit  int        `json:"limit"`
}

// DefaultJournalLimit applies when a filter sets no limit
const DefaultJournalLimit = 50

func (f *JournalFilter) limit() int {
	if f == nil || f.Limit <= 0 {
		return DefaultJournalLimit
	}
	return f.Limit
}
