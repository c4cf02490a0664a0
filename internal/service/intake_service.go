// internal/service/intake_service.go
package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"fiscal-hub/internal/model"
	"fiscal-hub/internal/tcpos"
	"fiscal-hub/internal/transform"
	"fiscal-hub/internal/utils"
)

// IntakeService turns POS exports into printed documents
type IntakeService struct {
	parser    *tcpos.Parser
	engine    *transform.Engine
	documents *DocumentService
	logger    *utils.ServiceLogger
}

// NewIntakeService creates a new intake service
func NewIntakeService(parser *tcpos.Parser, engine *transform.Engine, documents *DocumentService, logger *zap.Logger) *IntakeService {
	return &IntakeService{
		parser:    parser,
		engine:    engine,
		documents: documents,
		logger:    utils.NewServiceLogger(logger, "intake-service"),
	}
}

// ProcessFile parses, transforms and prints one export file
func (s *IntakeService) ProcessFile(ctx context.Context, path string) (*model.PrintOutcome, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer file.Close()

	return s.Process(ctx, file, path)
}

// Process parses, transforms and prints one export. An export that cannot
// become a complete document is journaled as not printable and never
// reaches the device. The outcome is never nil.
func (s *IntakeService) Process(ctx context.Context, r io.Reader, source string) (*model.PrintOutcome, error) {
	tx, err := s.parser.Parse(r)
	if err != nil {
		return s.documents.RecordNotPrintable(ctx, "", source, err), err
	}

	doc, err := s.engine.Transform(tx)
	if err != nil {
		return s.documents.RecordNotPrintable(ctx, tx.ID(), source, err), err
	}
	doc.SourceFile = source

	s.logger.Info("Printing transaction",
		zap.String("transaction_id", doc.TransactionID),
		zap.String("reference", doc.Reference),
		zap.String("source", source),
		zap.Bool("credit_note", doc.CreditNote))

	return s.documents.PrintDocument(ctx, doc)
}
