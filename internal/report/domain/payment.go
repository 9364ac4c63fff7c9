package domain

import (
	"fmt"
	"strings"
	"time"

	"payreports/internal/common/money"
)

// PaymentType tags one of the supported payment shapes
type PaymentType string

const (
	TypePayByLink     PaymentType = "pay_by_link"
	TypeDirectPayment PaymentType = "dp"
	TypeCard          PaymentType = "card"
)

// PaymentTypes lists the supported types in the order batches are
// traversed. The order is fixed so that equal-timestamp entries keep a
// deterministic relative order in the final report.
var PaymentTypes = []PaymentType{TypePayByLink, TypeDirectPayment, TypeCard}

// Known reports whether t is one of the supported payment types
func Known(t PaymentType) bool {
	switch t {
	case TypePayByLink, TypeDirectPayment, TypeCard:
		return true
	}
	return false
}

// Payment is a validated payment record with created_at normalized to UTC.
// Variant fields are populated according to Type.
type Payment struct {
	Type        PaymentType
	CreatedAt   time.Time
	Currency    money.Currency
	Amount      int64
	Description string

	// pay_by_link
	Bank string
	// dp
	IBAN string
	// card
	CardholderName    string
	CardholderSurname string
	CardNumber        string
}

// Mean returns the human-facing descriptor of how the payment was made
func (p Payment) Mean() string {
	switch p.Type {
	case TypePayByLink:
		return p.Bank
	case TypeDirectPayment:
		return p.IBAN
	case TypeCard:
		return fmt.Sprintf("%s %s %s", p.CardholderName, p.CardholderSurname, MaskCardNumber(p.CardNumber))
	}
	return ""
}

// MaskCardNumber keeps the first four and last four characters and replaces
// everything in between with one '*' per character. Numbers shorter than
// eight characters are masked entirely.
func MaskCardNumber(number string) string {
	if len(number) < 8 {
		return strings.Repeat("*", len(number))
	}
	return number[:4] + strings.Repeat("*", len(number)-8) + number[len(number)-4:]
}
