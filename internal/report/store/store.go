// Package store persists the latest generated report per customer.
package store

import (
	"context"
	"errors"

	"payreports/internal/report/domain"
)

// ErrNotFound is returned when no report has been saved for a customer yet
var ErrNotFound = errors.New("report not found")

// Store keeps exactly one report per customer identifier. Save has upsert
// semantics: it replaces any previously stored report for the same customer.
type Store interface {
	Save(ctx context.Context, customerID int64, report domain.Report) error
	Get(ctx context.Context, customerID int64) (domain.Report, error)
}
