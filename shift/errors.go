/*
errors.go - Centralized error types for the shift engine

ERROR CATEGORIES:
  1. Input errors - malformed readings, operators, quantities
  2. Close errors - business rules that block closing a shift
  3. Store errors - draft persistence

Callers match sentinels with errors.Is and structured errors with errors.As.
*/
package shift

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrReadingRange is returned when a pump's closing reading is below its opening.
	ErrReadingRange = errors.New("closing reading below opening reading")

	ErrInvalidOperator  = errors.New("invalid adjustment operator")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrInvalidRecipient = errors.New("voucher must name exactly one stakeholder or expense ledger")

	// ErrZeroPrice guards amount/quantity back-calculation.
	ErrZeroPrice = errors.New("price must be greater than zero")

	ErrPriceNotFound = errors.New("no price effective for product")

	// ErrVoucherExceedsSold is the sentinel behind VoucherExceedsSoldError.
	ErrVoucherExceedsSold = errors.New("voucher quantity exceeds sold quantity")

	ErrShiftClosed   = errors.New("shift is already closed")
	ErrNotCloseable  = errors.New("shift cannot be closed")
	ErrDraftNotFound = errors.New("draft not found")
	ErrShiftNotFound = errors.New("shift not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ReadingRangeError identifies the pump whose closing reading is below its opening.
type ReadingRangeError struct {
	PumpID  PumpID
	Opening decimal.Decimal
	Closing decimal.Decimal
}

func (e *ReadingRangeError) Error() string {
	return fmt.Sprintf("pump %s: closing reading %s is below opening reading %s",
		e.PumpID, e.Closing, e.Opening)
}

func (e *ReadingRangeError) Unwrap() error { return ErrReadingRange }

// VoucherExceedsSoldError names the product and both quantities.
type VoucherExceedsSoldError struct {
	ProductID   ProductID
	ProductName string
	SoldQty     decimal.Decimal
	VoucherQty  decimal.Decimal
}

func (e *VoucherExceedsSoldError) Error() string {
	name := e.ProductName
	if name == "" {
		name = string(e.ProductID)
	}
	return fmt.Sprintf("%s: voucher quantity %s exceeds sold quantity %s",
		name, e.VoucherQty, e.SoldQty)
}

func (e *VoucherExceedsSoldError) Unwrap() error { return ErrVoucherExceedsSold }

// Issue is one reason a shift cannot be closed.
type Issue struct {
	Code    string
	Field   string
	Message string
	Err     error
}

// CloseError aggregates every issue found by ValidateForClose.
type CloseError struct {
	ShiftID ShiftID
	Issues  []Issue
}

func (e *CloseError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.Message
	}
	return fmt.Sprintf("shift %s cannot be closed: %s", e.ShiftID, strings.Join(msgs, "; "))
}

func (e *CloseError) Unwrap() []error {
	errs := []error{ErrNotCloseable}
	for _, is := range e.Issues {
		if is.Err != nil {
			errs = append(errs, is.Err)
		}
	}
	return errs
}

// Has reports whether an issue with the given code is present.
func (e *CloseError) Has(code string) bool {
	for _, is := range e.Issues {
		if is.Code == code {
			return true
		}
	}
	return false
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrReadingRange) ||
		errors.Is(err, ErrInvalidOperator) ||
		errors.Is(err, ErrNegativeQuantity) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrInvalidRecipient) ||
		errors.Is(err, ErrZeroPrice)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDraftNotFound) ||
		errors.Is(err, ErrShiftNotFound) ||
		errors.Is(err, ErrPriceNotFound)
}
