/*
Package shift provides the fuel-station sales-shift domain and its cash
reconciliation engine.

PURPOSE:
  A sales shift is a bounded work period during which a cashier or shift
  team records fuel sales at a station. This package holds the typed shift
  record, the station catalog it refers to, and the pure functions that
  turn readings, vouchers, adjustments and prices into the amount of cash
  the team should hand over.

KEY CONCEPTS IN THIS FILE (types.go):
  - SalesShift: the shift record, created suspended and later closed
  - PumpReading: opening/closing meter values for one pump
  - FuelVoucher: fuel given away without cash collection
  - TankAdjustment: signed manual correction of sold quantity
  - LedgerDistribution: allocation of the shift's net cash to a ledger

DESIGN PRINCIPLES:
  1. Precision: all quantities and money use decimal.Decimal
  2. Type Safety: distinct ID types prevent mixing pumps, tanks and products
  3. Closed sets: voucher recipients and distribution kinds are tagged records

SEE ALSO:
  - reconcile.go: the reconciliation algorithm
  - validate.go: close-time validation
  - lifecycle.go: suspended -> closed transition
*/
package shift

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ShiftID string
type StationID string
type TeamID string
type CashierID string
type ProductID string
type PumpID string
type TankID string
type LedgerID string
type StakeholderID string

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusSuspended Status = "suspended" // Draft, still being edited
	StatusClosed    Status = "closed"
)

func (s Status) Valid() bool {
	return s == StatusSuspended || s == StatusClosed
}

// =============================================================================
// CATALOG - Station configuration referenced by shifts
// =============================================================================

type Station struct {
	ID       StationID
	Name     string
	Location string
}

type Product struct {
	ID   ProductID
	Name string
}

type Tank struct {
	ID        TankID
	StationID StationID
	ProductID ProductID
	Name      string
	Capacity  decimal.Decimal
}

// Pump draws from exactly one tank and therefore sells exactly one product.
type Pump struct {
	ID        PumpID
	StationID StationID
	TankID    TankID
	ProductID ProductID
	Name      string
}

type ShiftTeam struct {
	ID        TeamID
	StationID StationID
	Name      string
	Members   []CashierID
}

type Ledger struct {
	ID   LedgerID
	Name string
}

type Stakeholder struct {
	ID   StakeholderID
	Name string
}

// =============================================================================
// SHIFT RECORD
// =============================================================================

type SalesShift struct {
	ID         ShiftID
	StationID  StationID
	TeamID     TeamID
	ShiftStart time.Time
	ShiftEnd   *time.Time
	Status     Status

	ProductPrices     []ProductPrice
	PumpReadings      []PumpReading
	FuelVouchers      []FuelVoucher
	TankAdjustments   []TankAdjustment
	OtherTransactions []OtherTransaction

	// MainLedgerID receives the computed residual cash.
	MainLedgerID LedgerID
	// Distributions holds the manually entered non-main allocations.
	Distributions []LedgerDistribution

	// CollectedAmount is the cash declared by the cashier; required at close.
	CollectedAmount *decimal.Decimal

	ClosedAt *time.Time
}

type PumpReading struct {
	PumpID    PumpID
	ProductID ProductID
	TankID    TankID
	CashierID CashierID
	Opening   decimal.Decimal
	Closing   decimal.Decimal
}

// Sold returns closing - opening.
func (r PumpReading) Sold() decimal.Decimal {
	return r.Closing.Sub(r.Opening)
}

type ProductPrice struct {
	ProductID   ProductID
	Price       decimal.Decimal
	EffectiveAt time.Time
}

// =============================================================================
// FUEL VOUCHERS
// =============================================================================

type RecipientKind string

const (
	RecipientStakeholder RecipientKind = "stakeholder" // Credit customer
	RecipientExpense     RecipientKind = "expense"     // Internal expense ledger
)

// VoucherRecipient is either a stakeholder or an expense ledger, never both.
type VoucherRecipient struct {
	Kind          RecipientKind
	StakeholderID StakeholderID
	LedgerID      LedgerID
}

func StakeholderRecipient(id StakeholderID) VoucherRecipient {
	return VoucherRecipient{Kind: RecipientStakeholder, StakeholderID: id}
}

func ExpenseRecipient(id LedgerID) VoucherRecipient {
	return VoucherRecipient{Kind: RecipientExpense, LedgerID: id}
}

// Validate checks that exactly the field matching Kind is set.
func (r VoucherRecipient) Validate() error {
	switch r.Kind {
	case RecipientStakeholder:
		if r.StakeholderID == "" || r.LedgerID != "" {
			return ErrInvalidRecipient
		}
	case RecipientExpense:
		if r.LedgerID == "" || r.StakeholderID != "" {
			return ErrInvalidRecipient
		}
	default:
		return ErrInvalidRecipient
	}
	return nil
}

type FuelVoucher struct {
	ID        string
	CashierID CashierID
	ProductID ProductID
	Quantity  decimal.Decimal
	Recipient VoucherRecipient
	Reference string
}

// =============================================================================
// TANK ADJUSTMENTS
// =============================================================================

// Operator is the sign of a tank adjustment.
//
// The convention is inherited from stored data and reports:
//
//	OpGain ('+') REDUCES the recognized sold quantity
//	OpLoss ('-') INCREASES the recognized sold quantity
//
// Do not invert it.
type Operator string

const (
	OpGain Operator = "+"
	OpLoss Operator = "-"
)

func (o Operator) Valid() bool {
	return o == OpGain || o == OpLoss
}

type TankAdjustment struct {
	TankID    TankID
	ProductID ProductID
	CashierID CashierID
	Quantity  decimal.Decimal
	Operator  Operator
	Reason    string
}

// SignedQuantity returns the adjustment's effect on recognized sold quantity.
func (a TankAdjustment) SignedQuantity() decimal.Decimal {
	if a.Operator == OpGain {
		return a.Quantity.Neg()
	}
	return a.Quantity
}

// =============================================================================
// CASH MOVEMENTS
// =============================================================================

// OtherTransaction is cash paid out of the till during the shift.
type OtherTransaction struct {
	CashierID   CashierID
	LedgerID    LedgerID
	Amount      decimal.Decimal
	Description string
}

type DistributionKind string

const (
	DistributionMain  DistributionKind = "main"  // Computed residual
	DistributionOther DistributionKind = "other" // Entered by the cashier
)

type LedgerDistribution struct {
	LedgerID LedgerID
	Kind     DistributionKind
	Amount   decimal.Decimal
}

// =============================================================================
// DIPPING
// =============================================================================

// Dipping is a manual tank volume reading taken at shift start and end.
type Dipping struct {
	TankID   TankID
	Opening  decimal.Decimal
	Closing  decimal.Decimal
	Received decimal.Decimal // Deliveries during the shift
}
