/*
Package factory converts backend JSON payloads to shift domain types.

PURPOSE:
  The station backend speaks loosely typed JSON: numeric or string IDs,
  decimals as numbers or strings, voucher recipients as two optional
  fields. The factory turns those payloads into shift.SalesShift and
  shift.Catalog values, and back, so the rest of the module never sees
  the wire format.

JSON SCHEMA (shift):
  {
    "id": 812,
    "station_id": 4,
    "shift_team_id": 2,
    "shift_start": "2025-03-10 06:00:00",
    "shift_end": "2025-03-10T14:00",
    "status": "suspended",
    "product_prices": [{"product_id": 1, "price": "2500", "effective_at": "2025-03-01"}],
    "pump_readings": [
      {"pump_id": 7, "product_id": 1, "tank_id": 3, "cashier_id": 11,
       "opening_reading": "1000", "closing_reading": "1200"}
    ],
    "fuel_vouchers": [
      {"cashier_id": 11, "product_id": 1, "quantity": 20, "stakeholder_id": 5}
    ],
    "tank_adjustments": [
      {"tank_id": 3, "product_id": 1, "quantity": 4, "operator": "-", "reason": "evaporation"}
    ],
    "other_transactions": [],
    "main_ledger_id": 1,
    "ledger_distributions": [{"ledger_id": 2, "amount": 200000}],
    "collected_amount": 500000
  }

VOUCHER RECIPIENT:
  At most one of stakeholder_id or expense_ledger_id may be set. The
  pair is converted to the tagged shift.VoucherRecipient; both set is
  rejected with shift.ErrInvalidRecipient. Neither set gives an unset
  recipient so half-filled drafts still parse; closing reports it.

USAGE:
  s, err := factory.ParseShift(body)
  payload := factory.FromDomain(s)

SEE ALSO:
  - shift/types.go: domain types
  - factory/catalog.go: station catalog payloads
  - backend/: the REST client that feeds these parsers
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/fuel-station/shift"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ShiftJSON is the wire representation of a sales shift.
type ShiftJSON struct {
	ID                  ID                     `json:"id,omitempty"`
	StationID           ID                     `json:"station_id"`
	TeamID              ID                     `json:"shift_team_id"`
	ShiftStart          Time                   `json:"shift_start"`
	ShiftEnd            *Time                  `json:"shift_end,omitempty"`
	Status              string                 `json:"status,omitempty"`
	ProductPrices       []ProductPriceJSON     `json:"product_prices"`
	PumpReadings        []PumpReadingJSON      `json:"pump_readings"`
	FuelVouchers        []FuelVoucherJSON      `json:"fuel_vouchers"`
	TankAdjustments     []TankAdjustmentJSON   `json:"tank_adjustments"`
	OtherTransactions   []OtherTransactionJSON `json:"other_transactions"`
	MainLedgerID        ID                     `json:"main_ledger_id,omitempty"`
	LedgerDistributions []DistributionJSON     `json:"ledger_distributions"`
	CollectedAmount     decimal.NullDecimal    `json:"collected_amount"`
	ClosedAt            *Time                  `json:"closed_at,omitempty"`
}

type ProductPriceJSON struct {
	ProductID   ID              `json:"product_id"`
	Price       decimal.Decimal `json:"price"`
	EffectiveAt Time            `json:"effective_at"`
}

type PumpReadingJSON struct {
	PumpID    ID              `json:"pump_id"`
	ProductID ID              `json:"product_id"`
	TankID    ID              `json:"tank_id"`
	CashierID ID              `json:"cashier_id"`
	Opening   decimal.Decimal `json:"opening_reading"`
	Closing   decimal.Decimal `json:"closing_reading"`
}

// FuelVoucherJSON carries the recipient as two optional fields.
type FuelVoucherJSON struct {
	ID              ID              `json:"id,omitempty"`
	CashierID       ID              `json:"cashier_id"`
	ProductID       ID              `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	StakeholderID   ID              `json:"stakeholder_id,omitempty"`
	ExpenseLedgerID ID              `json:"expense_ledger_id,omitempty"`
	Reference       string          `json:"reference,omitempty"`
}

type TankAdjustmentJSON struct {
	TankID    ID              `json:"tank_id"`
	ProductID ID              `json:"product_id"`
	CashierID ID              `json:"cashier_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Operator  string          `json:"operator"` // "+" or "-"
	Reason    string          `json:"reason,omitempty"`
}

type OtherTransactionJSON struct {
	CashierID   ID              `json:"cashier_id"`
	LedgerID    ID              `json:"ledger_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// DistributionJSON is an "other" ledger distribution. The main ledger
// amount is never sent by the form; it is always computed.
type DistributionJSON struct {
	LedgerID ID              `json:"ledger_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type DippingJSON struct {
	TankID   ID              `json:"tank_id"`
	Opening  decimal.Decimal `json:"opening_volume"`
	Closing  decimal.Decimal `json:"closing_volume"`
	Received decimal.Decimal `json:"received_volume"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseShift parses a shift payload. Both a bare shift object and a
// {"data": {...}} envelope are accepted.
func ParseShift(data []byte) (*shift.SalesShift, error) {
	var sj ShiftJSON
	if err := json.Unmarshal(unwrapData(data), &sj); err != nil {
		return nil, fmt.Errorf("failed to parse shift JSON: %w", err)
	}
	return sj.ToDomain()
}

// ToDomain converts the wire shift to a domain shift.
func (sj ShiftJSON) ToDomain() (*shift.SalesShift, error) {
	status := shift.Status(sj.Status)
	if status == "" {
		status = shift.StatusSuspended
	}
	if !status.Valid() {
		return nil, fmt.Errorf("unknown shift status %q", sj.Status)
	}

	s := &shift.SalesShift{
		ID:           shift.ShiftID(sj.ID),
		StationID:    shift.StationID(sj.StationID),
		TeamID:       shift.TeamID(sj.TeamID),
		ShiftStart:   sj.ShiftStart.Time,
		ShiftEnd:     ptrTime(sj.ShiftEnd),
		Status:       status,
		MainLedgerID: shift.LedgerID(sj.MainLedgerID),
		ClosedAt:     ptrTime(sj.ClosedAt),
	}
	if sj.CollectedAmount.Valid {
		v := sj.CollectedAmount.Decimal
		s.CollectedAmount = &v
	}

	for _, p := range sj.ProductPrices {
		s.ProductPrices = append(s.ProductPrices, shift.ProductPrice{
			ProductID:   shift.ProductID(p.ProductID),
			Price:       p.Price,
			EffectiveAt: p.EffectiveAt.Time,
		})
	}
	for _, r := range sj.PumpReadings {
		s.PumpReadings = append(s.PumpReadings, shift.PumpReading{
			PumpID:    shift.PumpID(r.PumpID),
			ProductID: shift.ProductID(r.ProductID),
			TankID:    shift.TankID(r.TankID),
			CashierID: shift.CashierID(r.CashierID),
			Opening:   r.Opening,
			Closing:   r.Closing,
		})
	}
	for i, v := range sj.FuelVouchers {
		recipient, err := v.recipient()
		if err != nil {
			return nil, fmt.Errorf("fuel_vouchers[%d]: %w", i, err)
		}
		s.FuelVouchers = append(s.FuelVouchers, shift.FuelVoucher{
			ID:        string(v.ID),
			CashierID: shift.CashierID(v.CashierID),
			ProductID: shift.ProductID(v.ProductID),
			Quantity:  v.Quantity,
			Recipient: recipient,
			Reference: v.Reference,
		})
	}
	for i, a := range sj.TankAdjustments {
		op := shift.Operator(a.Operator)
		if !op.Valid() {
			return nil, fmt.Errorf("tank_adjustments[%d]: %w %q", i, shift.ErrInvalidOperator, a.Operator)
		}
		s.TankAdjustments = append(s.TankAdjustments, shift.TankAdjustment{
			TankID:    shift.TankID(a.TankID),
			ProductID: shift.ProductID(a.ProductID),
			CashierID: shift.CashierID(a.CashierID),
			Quantity:  a.Quantity,
			Operator:  op,
			Reason:    a.Reason,
		})
	}
	for _, o := range sj.OtherTransactions {
		s.OtherTransactions = append(s.OtherTransactions, shift.OtherTransaction{
			CashierID:   shift.CashierID(o.CashierID),
			LedgerID:    shift.LedgerID(o.LedgerID),
			Amount:      o.Amount,
			Description: o.Description,
		})
	}
	for _, d := range sj.LedgerDistributions {
		s.Distributions = append(s.Distributions, shift.LedgerDistribution{
			LedgerID: shift.LedgerID(d.LedgerID),
			Kind:     shift.DistributionOther,
			Amount:   d.Amount,
		})
	}
	return s, nil
}

func (v FuelVoucherJSON) recipient() (shift.VoucherRecipient, error) {
	switch {
	case v.StakeholderID != "" && v.ExpenseLedgerID == "":
		return shift.StakeholderRecipient(shift.StakeholderID(v.StakeholderID)), nil
	case v.ExpenseLedgerID != "" && v.StakeholderID == "":
		return shift.ExpenseRecipient(shift.LedgerID(v.ExpenseLedgerID)), nil
	case v.StakeholderID == "" && v.ExpenseLedgerID == "":
		return shift.VoucherRecipient{}, nil
	}
	return shift.VoucherRecipient{}, fmt.Errorf("%w: set only one of stakeholder_id, expense_ledger_id",
		shift.ErrInvalidRecipient)
}

// FromDomain converts a domain shift to its wire form. Computed main
// ledger distributions are dropped; only "other" entries are sent.
func FromDomain(s shift.SalesShift) ShiftJSON {
	sj := ShiftJSON{
		ID:           ID(s.ID),
		StationID:    ID(s.StationID),
		TeamID:       ID(s.TeamID),
		ShiftStart:   Time{Time: s.ShiftStart},
		ShiftEnd:     wireTime(s.ShiftEnd),
		Status:       string(s.Status),
		MainLedgerID: ID(s.MainLedgerID),
		ClosedAt:     wireTime(s.ClosedAt),

		ProductPrices:       []ProductPriceJSON{},
		PumpReadings:        []PumpReadingJSON{},
		FuelVouchers:        []FuelVoucherJSON{},
		TankAdjustments:     []TankAdjustmentJSON{},
		OtherTransactions:   []OtherTransactionJSON{},
		LedgerDistributions: []DistributionJSON{},
	}
	if s.CollectedAmount != nil {
		sj.CollectedAmount = decimal.NewNullDecimal(*s.CollectedAmount)
	}

	sj.ProductPrices = append(sj.ProductPrices, PricesToJSON(s.ProductPrices)...)
	sj.PumpReadings = append(sj.PumpReadings, ReadingsToJSON(s.PumpReadings)...)
	for _, v := range s.FuelVouchers {
		vj := FuelVoucherJSON{
			ID:        ID(v.ID),
			CashierID: ID(v.CashierID),
			ProductID: ID(v.ProductID),
			Quantity:  v.Quantity,
			Reference: v.Reference,
		}
		switch v.Recipient.Kind {
		case shift.RecipientStakeholder:
			vj.StakeholderID = ID(v.Recipient.StakeholderID)
		case shift.RecipientExpense:
			vj.ExpenseLedgerID = ID(v.Recipient.LedgerID)
		}
		sj.FuelVouchers = append(sj.FuelVouchers, vj)
	}
	for _, a := range s.TankAdjustments {
		sj.TankAdjustments = append(sj.TankAdjustments, TankAdjustmentJSON{
			TankID:    ID(a.TankID),
			ProductID: ID(a.ProductID),
			CashierID: ID(a.CashierID),
			Quantity:  a.Quantity,
			Operator:  string(a.Operator),
			Reason:    a.Reason,
		})
	}
	for _, o := range s.OtherTransactions {
		sj.OtherTransactions = append(sj.OtherTransactions, OtherTransactionJSON{
			CashierID:   ID(o.CashierID),
			LedgerID:    ID(o.LedgerID),
			Amount:      o.Amount,
			Description: o.Description,
		})
	}
	for _, d := range s.Distributions {
		if d.Kind == shift.DistributionMain {
			continue
		}
		sj.LedgerDistributions = append(sj.LedgerDistributions, DistributionJSON{
			LedgerID: ID(d.LedgerID),
			Amount:   d.Amount,
		})
	}
	return sj
}

// ReadingsToJSON converts pump readings to wire form.
func ReadingsToJSON(readings []shift.PumpReading) []PumpReadingJSON {
	out := make([]PumpReadingJSON, 0, len(readings))
	for _, r := range readings {
		out = append(out, PumpReadingJSON{
			PumpID:    ID(r.PumpID),
			ProductID: ID(r.ProductID),
			TankID:    ID(r.TankID),
			CashierID: ID(r.CashierID),
			Opening:   r.Opening,
			Closing:   r.Closing,
		})
	}
	return out
}

func PricesToJSON(prices []shift.ProductPrice) []ProductPriceJSON {
	out := make([]ProductPriceJSON, 0, len(prices))
	for _, p := range prices {
		out = append(out, ProductPriceJSON{
			ProductID:   ID(p.ProductID),
			Price:       p.Price,
			EffectiveAt: Time{Time: p.EffectiveAt},
		})
	}
	return out
}

// MarshalShift encodes a domain shift in wire form.
func MarshalShift(s shift.SalesShift) ([]byte, error) {
	return json.Marshal(FromDomain(s))
}

// ParseDippings parses a dippings list, bare or enveloped.
func ParseDippings(data []byte) ([]shift.Dipping, error) {
	var rows []DippingJSON
	if err := unmarshalList(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse dippings JSON: %w", err)
	}
	out := make([]shift.Dipping, 0, len(rows))
	for _, r := range rows {
		out = append(out, shift.Dipping{
			TankID:   shift.TankID(r.TankID),
			Opening:  r.Opening,
			Closing:  r.Closing,
			Received: r.Received,
		})
	}
	return out, nil
}

// ParseReadings parses a pump readings list such as retrieveLastReadings.
func ParseReadings(data []byte) ([]shift.PumpReading, error) {
	var rows []PumpReadingJSON
	if err := unmarshalList(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse readings JSON: %w", err)
	}
	out := make([]shift.PumpReading, 0, len(rows))
	for _, r := range rows {
		out = append(out, shift.PumpReading{
			PumpID:    shift.PumpID(r.PumpID),
			ProductID: shift.ProductID(r.ProductID),
			TankID:    shift.TankID(r.TankID),
			CashierID: shift.CashierID(r.CashierID),
			Opening:   r.Opening,
			Closing:   r.Closing,
		})
	}
	return out, nil
}

// ParsePrices parses a productsSellingPrices response.
func ParsePrices(data []byte) ([]shift.ProductPrice, error) {
	var rows []ProductPriceJSON
	if err := unmarshalList(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse prices JSON: %w", err)
	}
	out := make([]shift.ProductPrice, 0, len(rows))
	for _, p := range rows {
		out = append(out, shift.ProductPrice{
			ProductID:   shift.ProductID(p.ProductID),
			Price:       p.Price,
			EffectiveAt: p.EffectiveAt.Time,
		})
	}
	return out, nil
}

// ParseVouchers parses a fuel voucher report.
func ParseVouchers(data []byte) ([]shift.FuelVoucher, error) {
	var rows []FuelVoucherJSON
	if err := unmarshalList(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse vouchers JSON: %w", err)
	}
	out := make([]shift.FuelVoucher, 0, len(rows))
	for i, v := range rows {
		recipient, err := v.recipient()
		if err != nil {
			return nil, fmt.Errorf("vouchers[%d]: %w", i, err)
		}
		out = append(out, shift.FuelVoucher{
			ID:        string(v.ID),
			CashierID: shift.CashierID(v.CashierID),
			ProductID: shift.ProductID(v.ProductID),
			Quantity:  v.Quantity,
			Recipient: recipient,
			Reference: v.Reference,
		})
	}
	return out, nil
}

// unmarshalList accepts a bare JSON array or any object with a "data" array
// (plain envelope or paginated page).
func unmarshalList[T any](data []byte, out *[]T) error {
	return json.Unmarshal(unwrapData(data), out)
}

// unwrapData returns the "data" member of an enveloped response, or data
// itself when it is not an object with that key.
func unwrapData(data []byte) []byte {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return env.Data
	}
	return data
}
