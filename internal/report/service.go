// Package report builds uniform payment reports out of mixed-type payment
// batches and manages the latest report kept per customer.
package report

import (
	"context"
	"log/slog"
	"time"

	"payreports/internal/common/events"
	"payreports/internal/common/middleware"
	"payreports/internal/common/money"
	"payreports/internal/report/domain"
	"payreports/internal/report/store"
)

// Converter resolves the PLN equivalent of an amount
type Converter interface {
	Convert(ctx context.Context, amount money.Money) (int64, error)
}

// Service provides report operations
type Service struct {
	rates     Converter
	store     store.Store
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new report service. publisher may be nil when event
// publishing is disabled.
func NewService(rates Converter, st store.Store, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		rates:     rates,
		store:     st,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate validates and normalizes every record in the batch, orders them
// chronologically and resolves payment means and PLN amounts. Any failure
// aborts the whole batch; there is no partial report.
func (s *Service) Generate(ctx context.Context, batch domain.Batch) (domain.Report, error) {
	for tag := range batch {
		if !domain.Known(domain.PaymentType(tag)) {
			return nil, &domain.UnsupportedTypeError{Type: tag}
		}
	}

	var payments []domain.Payment
	now := s.now()

	// Fixed tag order keeps equal-timestamp entries deterministic
	for _, t := range domain.PaymentTypes {
		for _, raw := range batch[string(t)] {
			p, err := domain.Normalize(t, raw, now)
			if err != nil {
				return nil, err
			}
			payments = append(payments, p)
		}
	}

	domain.SortPayments(payments)

	// Conversion runs after sorting so gateway calls happen in output order
	result := make(domain.Report, 0, len(payments))
	for _, p := range payments {
		amountInPLN, err := s.rates.Convert(ctx, money.New(p.Amount, p.Currency))
		if err != nil {
			return nil, err
		}

		result = append(result, domain.PaymentInfo{
			Date:        domain.DateTime{Time: p.CreatedAt},
			Type:        p.Type,
			PaymentMean: p.Mean(),
			Description: p.Description,
			Amount:      p.Amount,
			Currency:    p.Currency,
			AmountInPLN: amountInPLN,
		})
	}

	s.logger.Info("report generated", "entries", len(result))

	return result, nil
}

// GenerateAndSave generates a report and persists it as the sole report for
// the customer, replacing any previous one.
func (s *Service) GenerateAndSave(ctx context.Context, customerID int64, batch domain.Batch) (domain.Report, error) {
	result, err := s.Generate(ctx, batch)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, customerID, result); err != nil {
		return nil, err
	}

	s.logger.Info("report saved", "customer_id", customerID, "entries", len(result))

	s.publishGenerated(ctx, customerID, result)

	return result, nil
}

// GetForCustomer returns the last report saved for the customer
func (s *Service) GetForCustomer(ctx context.Context, customerID int64) (domain.Report, error) {
	return s.store.Get(ctx, customerID)
}

// publishGenerated emits a report.generated event. The event is advisory;
// failures are logged and never fail the request.
func (s *Service) publishGenerated(ctx context.Context, customerID int64, result domain.Report) {
	if s.publisher == nil {
		return
	}

	total := money.Zero(money.Reference)
	for _, info := range result {
		total = total.MustAdd(money.New(info.AmountInPLN, money.Reference))
	}

	event, err := events.NewEvent(events.EventReportGenerated, events.ReportGeneratedData{
		CustomerID: customerID,
		EntryCount: len(result),
		TotalPLN:   total.AmountMinor,
	})
	if err != nil {
		s.logger.Error("failed to build report event", "error", err)
		return
	}

	if correlationID := middleware.GetCorrelationID(ctx); correlationID != "" {
		event.WithCorrelation(correlationID)
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish report event",
			"error", err,
			"customer_id", customerID,
		)
	}
}
