package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"payreports/internal/report/domain"
)

// Memory is an in-process store used when no database is configured.
// Reports round-trip through JSON so stored values are isolated from
// later mutation by the caller, same as the Postgres store.
type Memory struct {
	mu      sync.RWMutex
	reports map[int64][]byte
}

// NewMemory creates a new in-memory store
func NewMemory() *Memory {
	return &Memory{reports: make(map[int64][]byte)}
}

// Save upserts the report for customerID
func (s *Memory) Save(ctx context.Context, customerID int64, report domain.Report) error {
	content, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[customerID] = content

	return nil
}

// Get returns the most recently saved report for customerID
func (s *Memory) Get(ctx context.Context, customerID int64) (domain.Report, error) {
	s.mu.RLock()
	content, ok := s.reports[customerID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	var report domain.Report
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, fmt.Errorf("unmarshaling report for customer %d: %w", customerID, err)
	}

	return report, nil
}

// Len returns the number of stored reports
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}
