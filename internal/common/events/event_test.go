package events

import (
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	data := ReportGeneratedData{CustomerID: 7, EntryCount: 3, TotalPLN: 12345}

	event, err := NewEvent(EventReportGenerated, data)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	if event.ID == "" {
		t.Error("event has no ID")
	}
	if event.Type != EventReportGenerated {
		t.Errorf("Type = %q, want %q", event.Type, EventReportGenerated)
	}
	if event.Version != 1 {
		t.Errorf("Version = %d, want 1", event.Version)
	}
	if time.Since(event.OccurredAt) > time.Minute {
		t.Errorf("OccurredAt = %v, not recent", event.OccurredAt)
	}

	var decoded ReportGeneratedData
	if err := event.DecodeData(&decoded); err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if decoded != data {
		t.Errorf("decoded = %+v, want %+v", decoded, data)
	}
}

func TestWithCorrelation(t *testing.T) {
	event, err := NewEvent(EventReportGenerated, ReportGeneratedData{})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	event.WithCorrelation("corr-123")
	if event.CorrelationID != "corr-123" {
		t.Errorf("CorrelationID = %q", event.CorrelationID)
	}
}
