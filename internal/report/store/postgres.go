package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"payreports/internal/common/database"
	"payreports/internal/report/domain"
)

// Postgres stores reports in the customer_reports table
type Postgres struct {
	db *database.DB
}

// NewPostgres creates a new Postgres-backed store
func NewPostgres(db *database.DB) *Postgres {
	return &Postgres{db: db}
}

// Save upserts the report for customerID. The single-statement upsert keeps
// concurrent readers from ever observing a partial write.
func (s *Postgres) Save(ctx context.Context, customerID int64, report domain.Report) error {
	content, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	query := `
		INSERT INTO customer_reports (customer_id, content, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id)
		DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.Exec(ctx, query, customerID, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving report for customer %d: %w", customerID, err)
	}

	return nil
}

// Get returns the most recently saved report for customerID
func (s *Postgres) Get(ctx context.Context, customerID int64) (domain.Report, error) {
	query := `SELECT content FROM customer_reports WHERE customer_id = $1`

	var content []byte
	err := s.db.QueryRow(ctx, query, customerID).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading report for customer %d: %w", customerID, err)
	}

	var report domain.Report
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, fmt.Errorf("unmarshaling report for customer %d: %w", customerID, err)
	}

	return report, nil
}
