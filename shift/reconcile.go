/*
reconcile.go - Shift cash reconciliation

PURPOSE:
  Answers "how much cash should this shift hand over, and how much of it
  goes to the main ledger?" from the shift's readings, adjustments,
  vouchers, prices and manual ledger allocations.

ALGORITHM:
  1. pumpSoldQty[p]  = sum(closing - opening) over readings of product p
  2. adjustedQty[p]  = pumpSoldQty[p] + sum(qty of '-') - sum(qty of '+')
  3. productAmount[p] = adjustedQty[p] * price[p]     -> totalProductsAmount
  4. voucherAmount[p] = voucherQty[p] * price[p]      -> totalVoucherAmount
  5. cashRemaining   = totalProductsAmount - totalVoucherAmount - otherTransactions
  6. totalOtherDistributed = sum(other distributions)
  7. mainLedgerAmount = max(0, cashRemaining - totalOtherDistributed)
  8. balanced iff |cashRemaining - (mainLedgerAmount + totalOtherDistributed)| < 0.01
  9. variance = collectedAmount - mainLedgerAmount

  The clamp in step 7 is kept for compatibility with existing reports, but
  the clamped amount is reported as Shortfall with an over_allocated
  warning, and a clamped shift is never balanced.

EXAMPLE:
  Two pumps on product A: 1000->1200 and 500->600, price 2500
    pumpSoldQty[A] = 300, totalProductsAmount = 750000
  One voucher of 20 on A: totalVoucherAmount = 50000
  cashRemaining = 700000
  One other distribution of 200000: mainLedgerAmount = 500000
  collected 500000: balanced, variance 0

SEE ALSO:
  - validate.go: rules enforced before a shift may close
*/
package shift

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// BalanceTolerance is the largest difference still treated as balanced.
var BalanceTolerance = decimal.New(1, -2)

// Warning codes
const (
	WarnMissingPrice        = "missing_price"
	WarnVoucherWithoutSales = "voucher_without_sales"
	WarnNegativeSold        = "negative_sold_quantity"
	WarnOverAllocated       = "over_allocated"
)

// =============================================================================
// INPUT
// =============================================================================

// Input is the request-scoped data the reconciliation needs.
type Input struct {
	PumpReadings       []PumpReading
	TankAdjustments    []TankAdjustment
	FuelVouchers       []FuelVoucher
	ProductPrices      []ProductPrice
	OtherTransactions  []OtherTransaction
	OtherDistributions []LedgerDistribution
	MainLedgerID       LedgerID
	CollectedAmount    *decimal.Decimal
}

// InputFromShift extracts the reconciliation input from a shift record.
func InputFromShift(s SalesShift) Input {
	return Input{
		PumpReadings:       s.PumpReadings,
		TankAdjustments:    s.TankAdjustments,
		FuelVouchers:       s.FuelVouchers,
		ProductPrices:      s.ProductPrices,
		OtherTransactions:  s.OtherTransactions,
		OtherDistributions: s.Distributions,
		MainLedgerID:       s.MainLedgerID,
		CollectedAmount:    s.CollectedAmount,
	}
}

// =============================================================================
// RESULT
// =============================================================================

// ProductLine is the per-product part of a reconciliation.
type ProductLine struct {
	ProductID     ProductID
	PumpSoldQty   decimal.Decimal
	GainQty       decimal.Decimal // Sum of '+' adjustments
	LossQty       decimal.Decimal // Sum of '-' adjustments
	AdjustedQty   decimal.Decimal
	Price         decimal.Decimal
	PriceKnown    bool
	Amount        decimal.Decimal
	VoucherQty    decimal.Decimal
	VoucherAmount decimal.Decimal
}

// CashierLine is the cash one cashier (or the shift as a whole, for entries
// without a cashier) is expected to hold.
type CashierLine struct {
	CashierID        CashierID
	SalesAmount      decimal.Decimal
	AdjustmentAmount decimal.Decimal
	VoucherAmount    decimal.Decimal
	OtherAmount      decimal.Decimal
	ExpectedCash     decimal.Decimal
}

type Warning struct {
	Code      string
	ProductID ProductID
	Message   string
}

type Reconciliation struct {
	Products []ProductLine
	Cashiers []CashierLine

	TotalProductsAmount    decimal.Decimal
	TotalVoucherAmount     decimal.Decimal
	TotalOtherTransactions decimal.Decimal
	CashRemaining          decimal.Decimal
	TotalOtherDistributed  decimal.Decimal
	MainLedgerAmount       decimal.Decimal
	// Shortfall is the amount the main-ledger clamp discarded.
	Shortfall decimal.Decimal

	Distributions []LedgerDistribution
	Balanced      bool

	CollectedAmount *decimal.Decimal
	// Variance is collected - main ledger; positive is overage, negative shortage.
	Variance *decimal.Decimal

	Warnings []Warning
}

// Product returns the line for a product.
func (r Reconciliation) Product(id ProductID) (ProductLine, bool) {
	for _, p := range r.Products {
		if p.ProductID == id {
			return p, true
		}
	}
	return ProductLine{}, false
}

// Cashier returns the line for a cashier.
func (r Reconciliation) Cashier(id CashierID) (CashierLine, bool) {
	for _, c := range r.Cashiers {
		if c.CashierID == id {
			return c, true
		}
	}
	return CashierLine{}, false
}

// HasWarning reports whether a warning with the code was raised.
func (r Reconciliation) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// CollectionBalanced reports whether the declared cash matches the main
// ledger amount within BalanceTolerance. False when nothing was declared.
func (r Reconciliation) CollectionBalanced() bool {
	if r.Variance == nil {
		return false
	}
	return r.Variance.Abs().LessThan(BalanceTolerance)
}

// =============================================================================
// RECONCILE
// =============================================================================

// Reconcile computes the shift's expected cash and main-ledger residual.
//
// Structural input errors (closing below opening, unknown operator,
// negative quantities or amounts) are returned as errors. Business
// conditions that only block closing are reported as Warnings.
func Reconcile(in Input) (Reconciliation, error) {
	if err := checkInput(in); err != nil {
		return Reconciliation{}, err
	}

	prices := priceIndex(in.ProductPrices)
	products := make(map[ProductID]*ProductLine)
	cashiers := make(map[CashierID]*CashierLine)

	line := func(id ProductID) *ProductLine {
		pl, ok := products[id]
		if !ok {
			price, known := prices[id]
			pl = &ProductLine{ProductID: id, Price: price, PriceKnown: known}
			products[id] = pl
		}
		return pl
	}
	cashier := func(id CashierID) *CashierLine {
		cl, ok := cashiers[id]
		if !ok {
			cl = &CashierLine{CashierID: id}
			cashiers[id] = cl
		}
		return cl
	}

	// 1. Pump sold quantity
	for _, r := range in.PumpReadings {
		pl := line(r.ProductID)
		sold := r.Sold()
		pl.PumpSoldQty = pl.PumpSoldQty.Add(sold)
		cl := cashier(r.CashierID)
		cl.SalesAmount = cl.SalesAmount.Add(sold.Mul(pl.Price))
	}

	// 2. Adjustments
	for _, a := range in.TankAdjustments {
		pl := line(a.ProductID)
		if a.Operator == OpGain {
			pl.GainQty = pl.GainQty.Add(a.Quantity)
		} else {
			pl.LossQty = pl.LossQty.Add(a.Quantity)
		}
		cl := cashier(a.CashierID)
		cl.AdjustmentAmount = cl.AdjustmentAmount.Add(a.SignedQuantity().Mul(pl.Price))
	}

	// 4. Vouchers (quantities; amounts after prices are settled)
	for _, v := range in.FuelVouchers {
		pl := line(v.ProductID)
		pl.VoucherQty = pl.VoucherQty.Add(v.Quantity)
		cl := cashier(v.CashierID)
		cl.VoucherAmount = cl.VoucherAmount.Add(v.Quantity.Mul(pl.Price))
	}

	var rec Reconciliation

	// 3 + 4. Amounts per product
	for _, pl := range products {
		pl.AdjustedQty = pl.PumpSoldQty.Add(pl.LossQty).Sub(pl.GainQty)
		pl.Amount = pl.AdjustedQty.Mul(pl.Price)
		pl.VoucherAmount = pl.VoucherQty.Mul(pl.Price)

		rec.TotalProductsAmount = rec.TotalProductsAmount.Add(pl.Amount)
		rec.TotalVoucherAmount = rec.TotalVoucherAmount.Add(pl.VoucherAmount)
		rec.Warnings = append(rec.Warnings, productWarnings(*pl)...)
	}

	for _, t := range in.OtherTransactions {
		rec.TotalOtherTransactions = rec.TotalOtherTransactions.Add(t.Amount)
		cl := cashier(t.CashierID)
		cl.OtherAmount = cl.OtherAmount.Add(t.Amount)
	}

	// 5. Cash remaining
	rec.CashRemaining = rec.TotalProductsAmount.
		Sub(rec.TotalVoucherAmount).
		Sub(rec.TotalOtherTransactions)

	// 6. Other distributions
	for _, d := range in.OtherDistributions {
		rec.TotalOtherDistributed = rec.TotalOtherDistributed.Add(d.Amount)
		rec.Distributions = append(rec.Distributions, LedgerDistribution{
			LedgerID: d.LedgerID,
			Kind:     DistributionOther,
			Amount:   d.Amount,
		})
	}

	// 7. Main ledger residual, clamped at zero
	residual := rec.CashRemaining.Sub(rec.TotalOtherDistributed)
	if residual.IsNegative() {
		rec.Shortfall = residual.Neg()
		rec.Warnings = append(rec.Warnings, Warning{
			Code: WarnOverAllocated,
			Message: fmt.Sprintf("other distributions %s exceed cash remaining %s by %s",
				rec.TotalOtherDistributed, rec.CashRemaining, rec.Shortfall),
		})
		residual = decimal.Zero
	}
	rec.MainLedgerAmount = residual
	rec.Distributions = append([]LedgerDistribution{{
		LedgerID: in.MainLedgerID,
		Kind:     DistributionMain,
		Amount:   rec.MainLedgerAmount,
	}}, rec.Distributions...)

	// 8. Balance identity
	diff := rec.CashRemaining.Sub(rec.MainLedgerAmount.Add(rec.TotalOtherDistributed))
	rec.Balanced = diff.Abs().LessThan(BalanceTolerance)

	// 9. Collection variance
	if in.CollectedAmount != nil {
		collected := *in.CollectedAmount
		variance := collected.Sub(rec.MainLedgerAmount)
		rec.CollectedAmount = &collected
		rec.Variance = &variance
	}

	for _, cl := range cashiers {
		cl.ExpectedCash = cl.SalesAmount.
			Add(cl.AdjustmentAmount).
			Sub(cl.VoucherAmount).
			Sub(cl.OtherAmount)
		rec.Cashiers = append(rec.Cashiers, *cl)
	}
	for _, pl := range products {
		rec.Products = append(rec.Products, *pl)
	}

	sort.Slice(rec.Products, func(i, j int) bool { return rec.Products[i].ProductID < rec.Products[j].ProductID })
	sort.Slice(rec.Cashiers, func(i, j int) bool { return rec.Cashiers[i].CashierID < rec.Cashiers[j].CashierID })
	sort.SliceStable(rec.Warnings, func(i, j int) bool { return rec.Warnings[i].ProductID < rec.Warnings[j].ProductID })

	return rec, nil
}

func checkInput(in Input) error {
	for _, r := range in.PumpReadings {
		if r.Closing.LessThan(r.Opening) {
			return &ReadingRangeError{PumpID: r.PumpID, Opening: r.Opening, Closing: r.Closing}
		}
	}
	for _, a := range in.TankAdjustments {
		if !a.Operator.Valid() {
			return fmt.Errorf("tank %s: %w %q", a.TankID, ErrInvalidOperator, a.Operator)
		}
		if a.Quantity.IsNegative() {
			return fmt.Errorf("tank %s adjustment: %w", a.TankID, ErrNegativeQuantity)
		}
	}
	for _, v := range in.FuelVouchers {
		if v.Quantity.IsNegative() {
			return fmt.Errorf("voucher for product %s: %w", v.ProductID, ErrNegativeQuantity)
		}
	}
	for _, t := range in.OtherTransactions {
		if t.Amount.IsNegative() {
			return fmt.Errorf("other transaction %q: %w", t.Description, ErrNegativeAmount)
		}
	}
	for _, d := range in.OtherDistributions {
		if d.Amount.IsNegative() {
			return fmt.Errorf("distribution to ledger %s: %w", d.LedgerID, ErrNegativeAmount)
		}
	}
	return nil
}

// priceIndex keeps, per product, the price with the latest EffectiveAt.
func priceIndex(prices []ProductPrice) map[ProductID]decimal.Decimal {
	latest := make(map[ProductID]ProductPrice, len(prices))
	for _, p := range prices {
		cur, ok := latest[p.ProductID]
		if !ok || !p.EffectiveAt.Before(cur.EffectiveAt) {
			latest[p.ProductID] = p
		}
	}
	index := make(map[ProductID]decimal.Decimal, len(latest))
	for id, p := range latest {
		index[id] = p.Price
	}
	return index
}

func productWarnings(pl ProductLine) []Warning {
	var ws []Warning
	if !pl.PriceKnown && (!pl.AdjustedQty.IsZero() || !pl.VoucherQty.IsZero()) {
		ws = append(ws, Warning{
			Code:      WarnMissingPrice,
			ProductID: pl.ProductID,
			Message:   fmt.Sprintf("no price for product %s", pl.ProductID),
		})
	}
	if pl.PumpSoldQty.IsZero() && pl.VoucherQty.IsPositive() {
		ws = append(ws, Warning{
			Code:      WarnVoucherWithoutSales,
			ProductID: pl.ProductID,
			Message:   fmt.Sprintf("vouchers of %s recorded for product %s with no pump sales", pl.VoucherQty, pl.ProductID),
		})
	}
	if pl.AdjustedQty.IsNegative() {
		ws = append(ws, Warning{
			Code:      WarnNegativeSold,
			ProductID: pl.ProductID,
			Message:   fmt.Sprintf("adjusted sold quantity for product %s is negative (%s)", pl.ProductID, pl.AdjustedQty),
		})
	}
	return ws
}
