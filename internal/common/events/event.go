package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event represents a domain event envelope
type Event struct {
	ID            string          `json:"event_id"`
	Type          string          `json:"type"`
	Version       int             `json:"version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event
func NewEvent(eventType string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		Version:    1,
		OccurredAt: time.Now().UTC(),
		Data:       dataBytes,
	}, nil
}

// WithCorrelation adds the correlation ID
func (e *Event) WithCorrelation(correlationID string) *Event {
	e.CorrelationID = correlationID
	return e
}

// DecodeData decodes the event data into a struct
func (e *Event) DecodeData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Publisher publishes events to a message broker
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// Event types
const (
	EventReportGenerated = "report.generated"
)

// ReportGeneratedData is the data for report.generated events
type ReportGeneratedData struct {
	CustomerID int64 `json:"customer_id"`
	EntryCount int   `json:"entry_count"`
	TotalPLN   int64 `json:"total_pln"`
}
