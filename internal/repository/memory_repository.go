// internal/repository/memory_repository.go
package repository

import (
	"context"
	"sync"

	"fiscal-hub/internal/model"
)

// memoryJournal keeps the most recent entries in memory when no database
// is configured
type memoryJournal struct {
	mutex     sync.RWMutex
	capacity  int
	documents []*model.PrintOutcome
	reports   []*model.ReportResult
}

// DefaultMemoryCapacity bounds each in-memory journal list
const DefaultMemoryCapacity = 1000

// NewMemoryJournal creates an in-memory journal holding at most capacity
// entries of each kind
func NewMemoryJournal(capacity int) JournalRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &memoryJournal{capacity: capacity}
}

func (m *memoryJournal) RecordDocument(_ context.Context, outcome *model.PrintOutcome) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	entry := *outcome
	m.documents = append(m.documents, &entry)
	if len(m.documents) > m.capacity {
		m.documents = m.documents[len(m.documents)-m.capacity:]
	}
	return nil
}

func (m *memoryJournal) RecordReport(_ context.Context, result *model.ReportResult) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	entry := *result
	m.reports = append(m.reports, &entry)
	if len(m.reports) > m.capacity {
		m.reports = m.reports[len(m.reports)-m.capacity:]
	}
	return nil
}

func (m *memoryJournal) ListDocuments(_ context.Context, filter *JournalFilter) ([]*model.PrintOutcome, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	limit := filter.limit()
	outcomes := []*model.PrintOutcome{}
	for i := len(m.documents) - 1; i >= 0 && len(outcomes) < limit; i-- {
		outcome := m.documents[i]
		if filter != nil {
			if filter.Since != nil && outcome.StartedAt.Before(*filter.Since) {
				continue
			}
			if filter.Status != "" && string(outcome.Status) != filter.Status {
				continue
			}
		}
		entry := *outcome
		outcomes = append(outcomes, &entry)
	}
	return outcomes, nil
}

func (m *memoryJournal) ListReports(_ context.Context, filter *JournalFilter) ([]*model.ReportResult, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	limit := filter.limit()
	results := []*model.ReportResult{}
	for i := len(m.reports) - 1; i >= 0 && len(results) < limit; i-- {
		result := m.reports[i]
		if filter != nil {
			if filter.Since != nil && result.RequestedAt.Before(*filter.Since) {
				continue
			}
			if filter.Status != "" && string(result.Kind) != filter.Status {
				continue
			}
		}
		entry := *result
		results = append(results, &entry)
	}
	return results, nil
}
