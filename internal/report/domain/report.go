package domain

import (
	"encoding/json"
	"sort"
	"time"

	"payreports/internal/common/money"
)

// Batch is one request's payment records grouped by type tag. Records are
// kept raw until the type-specific validator has run.
type Batch map[string][]json.RawMessage

// DateTime is a timestamp that marshals in the report wire format: UTC,
// RFC 3339, trailing Z, a fixed six-digit fraction whenever sub-second
// precision is present and no fraction otherwise. Input accepts any
// RFC 3339 timestamp with an offset.
type DateTime struct {
	time.Time
}

const (
	wireTimeFormat        = "2006-01-02T15:04:05.000000Z07:00"
	wireTimeFormatSeconds = "2006-01-02T15:04:05Z07:00"
)

// MarshalJSON implements json.Marshaler
func (d DateTime) MarshalJSON() ([]byte, error) {
	t := d.UTC()
	format := wireTimeFormatSeconds
	if t.Nanosecond() != 0 {
		// Fixed width keeps trailing zeros, e.g. .370500 stays .370500
		format = wireTimeFormat
	}
	return json.Marshal(t.Format(format))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *DateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// PaymentInfo is one uniform report entry
type PaymentInfo struct {
	Date        DateTime       `json:"date"`
	Type        PaymentType    `json:"type"`
	PaymentMean string         `json:"payment_mean"`
	Description string         `json:"description"`
	Amount      int64          `json:"amount"`
	Currency    money.Currency `json:"currency"`
	AmountInPLN int64          `json:"amount_in_pln"`
}

// Report is an ordered sequence of payment entries, ascending by date
type Report []PaymentInfo

// SortPayments orders payments ascending by created_at, keeping the
// relative order of equal timestamps.
func SortPayments(payments []Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})
}
