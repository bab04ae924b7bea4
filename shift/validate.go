/*
validate.go - Rules that must hold before a shift may close

A suspended shift is edited freely. Closing it requires:
  - an end time after the start time
  - at least one pump reading, each with closing >= opening
  - a price for every product that sold or was vouchered
  - a main ledger to receive the residual cash
  - a declared collected amount
  - adjusted sold quantity >= 0, per product
  - voucher quantity <= adjusted sold quantity, per product
  - well-formed voucher recipients
  - the balance identity (no over-allocation to other ledgers)
  - in strict mode, a collected amount matching the main ledger amount

ValidateForClose reports every failing rule at once so the form can show
them together.
*/
package shift

import (
	"fmt"
)

// Issue codes
const (
	IssueAlreadyClosed      = "already_closed"
	IssueMissingShiftEnd    = "missing_shift_end"
	IssueInvalidShiftEnd    = "invalid_shift_end"
	IssueNoReadings         = "no_pump_readings"
	IssueInvalidInput       = "invalid_input"
	IssueMissingPrice       = "missing_price"
	IssueMissingMainLedger  = "missing_main_ledger"
	IssueMissingCollected   = "missing_collected_amount"
	IssueNegativeSold       = "negative_sold_quantity"
	IssueVoucherExceeds     = "voucher_exceeds_sold"
	IssueInvalidRecipient   = "invalid_recipient"
	IssueNotBalanced        = "not_balanced"
	IssueCollectionVariance = "collection_variance"
)

// CloseOptions tunes close-time validation.
type CloseOptions struct {
	// StrictCollection rejects closing while the declared cash differs
	// from the main ledger amount. Off by default: a shortage or overage
	// is normally recorded, not blocked.
	StrictCollection bool
}

// ValidateForClose reconciles the shift and checks every close rule.
// The reconciliation is returned even when validation fails, unless the
// input itself is malformed.
func ValidateForClose(s SalesShift, cat Catalog, opts CloseOptions) (Reconciliation, error) {
	var issues []Issue
	add := func(code, field, msg string, err error) {
		issues = append(issues, Issue{Code: code, Field: field, Message: msg, Err: err})
	}

	if s.Status == StatusClosed {
		add(IssueAlreadyClosed, "status", "shift is already closed", ErrShiftClosed)
	}
	switch {
	case s.ShiftEnd == nil || s.ShiftEnd.IsZero():
		add(IssueMissingShiftEnd, "shift_end", "shift end time is required", nil)
	case !s.ShiftEnd.After(s.ShiftStart):
		add(IssueInvalidShiftEnd, "shift_end", "shift end must be after shift start", nil)
	}
	if len(s.PumpReadings) == 0 {
		add(IssueNoReadings, "pump_readings", "at least one pump reading is required", nil)
	}

	rec, err := Reconcile(InputFromShift(s))
	if err != nil {
		add(IssueInvalidInput, "", err.Error(), err)
		return Reconciliation{}, &CloseError{ShiftID: s.ID, Issues: issues}
	}

	for i, v := range s.FuelVouchers {
		if err := v.Recipient.Validate(); err != nil {
			add(IssueInvalidRecipient, fmt.Sprintf("fuel_vouchers[%d]", i), err.Error(), err)
		}
	}

	for _, p := range rec.Products {
		name := cat.ProductName(p.ProductID)
		if !p.PriceKnown && (!p.AdjustedQty.IsZero() || p.VoucherQty.IsPositive()) {
			add(IssueMissingPrice, "product_prices",
				fmt.Sprintf("no price for %s", name), ErrPriceNotFound)
		}
		if p.AdjustedQty.IsNegative() {
			add(IssueNegativeSold, "tank_adjustments",
				fmt.Sprintf("adjusted sold quantity of %s is %s", name, p.AdjustedQty), nil)
		}
		if p.VoucherQty.IsPositive() && p.VoucherQty.GreaterThan(p.AdjustedQty) {
			verr := &VoucherExceedsSoldError{
				ProductID:   p.ProductID,
				ProductName: name,
				SoldQty:     p.AdjustedQty,
				VoucherQty:  p.VoucherQty,
			}
			add(IssueVoucherExceeds, "fuel_vouchers", verr.Error(), verr)
		}
	}

	if s.MainLedgerID == "" {
		add(IssueMissingMainLedger, "main_ledger", "main ledger is required", nil)
	}
	if s.CollectedAmount == nil {
		add(IssueMissingCollected, "collected_amount", "collected amount is required", nil)
	}
	if !rec.Balanced {
		add(IssueNotBalanced, "distributions",
			fmt.Sprintf("other distributions %s exceed cash remaining %s",
				rec.TotalOtherDistributed, rec.CashRemaining), nil)
	}
	if opts.StrictCollection && rec.Variance != nil && !rec.CollectionBalanced() {
		add(IssueCollectionVariance, "collected_amount",
			fmt.Sprintf("collected amount %s differs from expected %s by %s",
				rec.CollectedAmount, rec.MainLedgerAmount, rec.Variance), nil)
	}

	if len(issues) > 0 {
		return rec, &CloseError{ShiftID: s.ID, Issues: issues}
	}
	return rec, nil
}
