// internal/repository/journal_repository.go
package repository

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fiscal-hub/internal/database"
	"fiscal-hub/internal/model"
)

// journalRepository implements JournalRepository on Postgres
type journalRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewJournalRepository creates a Postgres backed journal
func NewJournalRepository(db *database.DB, logger *zap.Logger) JournalRepository {
	return &journalRepository{
		db:     db,
		logger: logger,
	}
}

// RecordDocument stores one print attempt
func (r *journalRepository) RecordDocument(ctx context.Context, outcome *model.PrintOutcome) error {
	query := `
		INSERT INTO printed_documents (
			id, transaction_id, reference, document_type, document_number,
			status, step, total, line_count, source_file, error_message,
			started_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		outcome.ID, outcome.TransactionID, outcome.Reference, outcome.DocumentType,
		outcome.DocumentNumber, outcome.Status, outcome.Step, outcome.Total,
		outcome.LineCount, outcome.SourceFile, outcome.ErrorMessage,
		outcome.StartedAt, outcome.DurationMs,
	)

	if err != nil {
		r.logger.Error("Failed to record document", zap.Error(err))
		return fmt.Errorf("failed to record document: %w", err)
	}

	return nil
}

// RecordReport stores one report request
func (r *journalRepository) RecordReport(ctx context.Context, result *model.ReportResult) error {
	query := `
		INSERT INTO fiscal_reports (
			id, kind, success, message, error_message, reports_count,
			start_date, end_date, start_number, end_number,
			document_number, document_type, requested_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		result.ID, result.Kind, result.Success, result.Message, result.Error,
		result.ReportsCount, result.StartDate, result.EndDate, result.StartNumber,
		result.EndNumber, result.DocumentNumber, result.DocumentType,
		result.RequestedAt, result.DurationMs,
	)

	if err != nil {
		r.logger.Error("Failed to record report", zap.Error(err))
		return fmt.Errorf("failed to record report: %w", err)
	}

	return nil
}

// ListDocuments returns print attempts, newest first
func (r *journalRepository) ListDocuments(ctx context.Context, filter *JournalFilter) ([]*model.PrintOutcome, error) {
	where, args := buildJournalWhere(filter, "started_at", "status")
	query := fmt.Sprintf(`
		SELECT id, transaction_id, reference, document_type, document_number,
			   status, step, total, line_count, source_file, error_message,
			   started_at, duration_ms
		FROM printed_documents
		%s
		ORDER BY started_at DESC
		LIMIT %d
	`, where, filter.limit())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	outcomes := []*model.PrintOutcome{}
	for rows.Next() {
		outcome := &model.PrintOutcome{}
		err := rows.Scan(
			&outcome.ID, &outcome.TransactionID, &outcome.Reference, &outcome.DocumentType,
			&outcome.DocumentNumber, &outcome.Status, &outcome.Step, &outcome.Total,
			&outcome.LineCount, &outcome.SourceFile, &outcome.ErrorMessage,
			&outcome.StartedAt, &outcome.DurationMs,
		)
		if err != nil {
			r.logger.Error("Failed to scan document", zap.Error(err))
			continue
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, rows.Err()
}

// ListReports returns report requests, newest first
func (r *journalRepository) ListReports(ctx context.Context, filter *JournalFilter) ([]*model.ReportResult, error) {
	where, args := buildJournalWhere(filter, "requested_at", "kind")
	query := fmt.Sprintf(`
		SELECT id, kind, success, message, error_message, reports_count,
			   start_date, end_date, start_number, end_number,
			   document_number, document_type, requested_at, duration_ms
		FROM fiscal_reports
		%s
		ORDER BY requested_at DESC
		LIMIT %d
	`, where, filter.limit())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	results := []*model.ReportResult{}
	for rows.Next() {
		result := &model.ReportResult{}
		err := rows.Scan(
			&result.ID, &result.Kind, &result.Success, &result.Message, &result.Error,
			&result.ReportsCount, &result.StartDate, &result.EndDate, &result.StartNumber,
			&result.EndNumber, &result.DocumentNumber, &result.DocumentType,
			&result.RequestedAt, &result.DurationMs,
		)
		if err != nil {
			r.logger.Error("Failed to scan report", zap.Error(err))
			continue
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

// buildJournalWhere renders the filter as a WHERE clause with positional args
func buildJournalWhere(filter *JournalFilter, timeColumn, statusColumn string) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var (
		conditions []string
		args       []interface{}
	)
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", timeColumn, len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", statusColumn, len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}
