package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"payreports/internal/common/money"
)

// FieldErrors maps an offending field name to its validation messages.
// It marshals directly into the error response body.
type FieldErrors map[string][]string

// Error implements error
func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e FieldErrors) add(field, message string) {
	e[field] = append(e[field], message)
}

// UnsupportedTypeError reports a payment type tag outside the known set
type UnsupportedTypeError struct {
	Type string
}

// Error implements error
func (e *UnsupportedTypeError) Error() string {
	return "unsupported payment type: " + e.Type
}

// Validation messages that are part of the wire contract.
const (
	msgRequired   = "This field is required."
	msgFutureDate = "Date cannot be from the future!"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report field names from json tags so error bodies match the wire format
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return money.Supported(money.Currency(fl.Field().String()))
	})

	return v
}

// rawPayment holds the fields common to every payment type
type rawPayment struct {
	CreatedAt   DateTime       `json:"created_at" validate:"required"`
	Currency    money.Currency `json:"currency" validate:"required,currency"`
	Amount      *int64         `json:"amount" validate:"required"`
	Description string         `json:"description" validate:"required,max=300"`
}

type rawPayByLink struct {
	rawPayment
	Bank string `json:"bank" validate:"required,max=100"`
}

type rawDirectPayment struct {
	rawPayment
	IBAN string `json:"iban" validate:"required,max=32"`
}

type rawCard struct {
	rawPayment
	CardholderName    string `json:"cardholder_name" validate:"required,max=40"`
	CardholderSurname string `json:"cardholder_surname" validate:"required,max=40"`
	CardNumber        string `json:"card_number" validate:"required,min=8,max=20"`
}

// Normalize validates a single raw record of the given type and returns the
// canonical Payment with created_at converted to UTC. Validation failures
// return FieldErrors; an unknown type returns UnsupportedTypeError.
func Normalize(t PaymentType, raw json.RawMessage, now time.Time) (Payment, error) {
	switch t {
	case TypePayByLink:
		var r rawPayByLink
		if err := decode(raw, &r); err != nil {
			return Payment{}, err
		}
		if err := check(&r, r.rawPayment, now); err != nil {
			return Payment{}, err
		}
		p := r.rawPayment.payment(TypePayByLink)
		p.Bank = r.Bank
		return p, nil

	case TypeDirectPayment:
		var r rawDirectPayment
		if err := decode(raw, &r); err != nil {
			return Payment{}, err
		}
		if err := check(&r, r.rawPayment, now); err != nil {
			return Payment{}, err
		}
		p := r.rawPayment.payment(TypeDirectPayment)
		p.IBAN = r.IBAN
		return p, nil

	case TypeCard:
		var r rawCard
		if err := decode(raw, &r); err != nil {
			return Payment{}, err
		}
		if err := check(&r, r.rawPayment, now); err != nil {
			return Payment{}, err
		}
		p := r.rawPayment.payment(TypeCard)
		p.CardholderName = r.CardholderName
		p.CardholderSurname = r.CardholderSurname
		p.CardNumber = r.CardNumber
		return p, nil
	}

	return Payment{}, &UnsupportedTypeError{Type: string(t)}
}

func (r rawPayment) payment(t PaymentType) Payment {
	return Payment{
		Type:        t,
		CreatedAt:   r.CreatedAt.UTC(),
		Currency:    r.Currency,
		Amount:      *r.Amount,
		Description: r.Description,
	}
}

func decode(raw json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			field := typeErr.Field
			if i := strings.LastIndex(field, "."); i >= 0 {
				field = field[i+1:]
			}
			return FieldErrors{field: {typeMismatchMessage(typeErr.Type)}}
		}
		return FieldErrors{"non_field_errors": {"Invalid payment object."}}
	}
	return nil
}

func typeMismatchMessage(t reflect.Type) string {
	kind := t.Kind()
	if kind == reflect.Ptr {
		kind = t.Elem().Kind()
	}
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "A valid integer is required."
	case reflect.String:
		return "Not a valid string."
	default:
		return "Invalid value."
	}
}

// check runs struct validation plus the future-date rule, which needs the
// validation instant and so cannot be a struct tag.
func check(v interface{}, common rawPayment, now time.Time) error {
	errs := FieldErrors{}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs.add(fe.Field(), formatFieldError(fe))
		}
	}

	if !common.CreatedAt.IsZero() && common.CreatedAt.After(now) {
		errs.add("created_at", msgFutureDate)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "currency":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}
