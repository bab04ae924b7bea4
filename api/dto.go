/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Shift payloads reuse
  the factory wire types so the browser and the backend see one format;
  the types here cover what only this service returns or accepts.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Query: Query-string parameters, validated like request bodies
  - *Response: Complex response wrappers

TYPES:
  Reconciliation:
    ReconciliationDTO, ProductLineDTO, CashierLineDTO, WarningDTO

  Close:
    CloseRequest, CloseResponse, ValidateResponse, IssueDTO

  Drafts and runs:
    DraftRequest, DraftDTO, RunDTO

  Vouchers:
    ConvertRequest, ConvertResponse

VALIDATION:
  Request and query types carry go-playground/validator tags. Decimal
  fields are validated as numbers (see validate.go).

SEE ALSO:
  - handlers.go: Uses these types
  - factory/shift.go: ShiftJSON and nested wire types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/fuel-station/backend"
	"github.com/warp/fuel-station/factory"
	"github.com/warp/fuel-station/shift"
)

// =============================================================================
// RECONCILIATION
// =============================================================================

type ProductLineDTO struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name,omitempty"`
	PumpSoldQty   decimal.Decimal `json:"pump_sold_qty"`
	GainQty       decimal.Decimal `json:"gain_qty"`
	LossQty       decimal.Decimal `json:"loss_qty"`
	AdjustedQty   decimal.Decimal `json:"adjusted_qty"`
	Price         decimal.Decimal `json:"price"`
	PriceKnown    bool            `json:"price_known"`
	Amount        decimal.Decimal `json:"amount"`
	VoucherQty    decimal.Decimal `json:"voucher_qty"`
	VoucherAmount decimal.Decimal `json:"voucher_amount"`
}

type CashierLineDTO struct {
	CashierID        string          `json:"cashier_id"`
	SalesAmount      decimal.Decimal `json:"sales_amount"`
	AdjustmentAmount decimal.Decimal `json:"adjustment_amount"`
	VoucherAmount    decimal.Decimal `json:"voucher_amount"`
	OtherAmount      decimal.Decimal `json:"other_amount"`
	ExpectedCash     decimal.Decimal `json:"expected_cash"`
}

type DistributionDTO struct {
	LedgerID string          `json:"ledger_id"`
	Kind     string          `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
}

type WarningDTO struct {
	Code      string `json:"code"`
	ProductID string `json:"product_id,omitempty"`
	Message   string `json:"message"`
}

// ReconciliationDTO is the result of a reconcile preview or a close.
type ReconciliationDTO struct {
	Products []ProductLineDTO `json:"products"`
	Cashiers []CashierLineDTO `json:"cashiers"`

	TotalProductsAmount    decimal.Decimal `json:"total_products_amount"`
	TotalVoucherAmount     decimal.Decimal `json:"total_voucher_amount"`
	TotalOtherTransactions decimal.Decimal `json:"total_other_transactions"`
	CashRemaining          decimal.Decimal `json:"cash_remaining"`
	TotalOtherDistributed  decimal.Decimal `json:"total_other_distributed"`
	MainLedgerAmount       decimal.Decimal `json:"main_ledger_amount"`
	Shortfall              decimal.Decimal `json:"shortfall"`

	Distributions []DistributionDTO `json:"distributions"`
	Balanced      bool              `json:"balanced"`

	CollectedAmount    *decimal.Decimal `json:"collected_amount"`
	Variance           *decimal.Decimal `json:"variance"`
	CollectionBalanced bool             `json:"collection_balanced"`

	Warnings []WarningDTO `json:"warnings"`
}

// =============================================================================
// CLOSE
// =============================================================================

type IssueDTO struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidateResponse is returned by the close check.
type ValidateResponse struct {
	Closeable      bool               `json:"closeable"`
	Issues         []IssueDTO         `json:"issues"`
	Reconciliation *ReconciliationDTO `json:"reconciliation,omitempty"`
}

// CloseRequest optionally sets the declared cash before closing.
type CloseRequest struct {
	CollectedAmount *decimal.Decimal `json:"collected_amount" validate:"omitempty,gte=0"`
}

type CloseResponse struct {
	Shift          factory.ShiftJSON `json:"shift"`
	Reconciliation ReconciliationDTO `json:"reconciliation"`
	RunID          string            `json:"run_id"`
}

// =============================================================================
// QUERIES
// =============================================================================

// ListShiftsQuery filters the station shift list.
type ListShiftsQuery struct {
	Page    int    `validate:"gte=0"`
	Limit   int    `validate:"gte=0,lte=100"`
	TeamID  string `validate:"max=64"`
	Status  string `validate:"omitempty,oneof=suspended closed"`
	Keyword string `validate:"max=120"`
	From    time.Time
	To      time.Time
}

func (q ListShiftsQuery) filter() backend.ShiftFilter {
	return backend.ShiftFilter{
		Page:    q.Page,
		Limit:   q.Limit,
		TeamID:  shift.TeamID(q.TeamID),
		Status:  shift.Status(q.Status),
		Keyword: q.Keyword,
		From:    q.From,
		To:      q.To,
	}
}

// ShiftPageDTO mirrors the backend's paginated list.
type ShiftPageDTO = factory.Page[factory.ShiftJSON]

// =============================================================================
// DRAFTS AND RUNS
// =============================================================================

// DraftRequest creates or replaces a locally saved suspended shift.
type DraftRequest struct {
	Label   string          `json:"label" validate:"max=120"`
	ShiftID string          `json:"shift_id" validate:"max=64"`
	Shift   json.RawMessage `json:"shift" validate:"required"`
}

type DraftDTO struct {
	ID        string          `json:"id"`
	StationID string          `json:"station_id"`
	ShiftID   string          `json:"shift_id,omitempty"`
	Label     string          `json:"label,omitempty"`
	Shift     json.RawMessage `json:"shift"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type RunDTO struct {
	ID                    string           `json:"id"`
	ShiftID               string           `json:"shift_id"`
	StationID             string           `json:"station_id"`
	CashRemaining         decimal.Decimal  `json:"cash_remaining"`
	TotalOtherDistributed decimal.Decimal  `json:"total_other_distributed"`
	MainLedgerAmount      decimal.Decimal  `json:"main_ledger_amount"`
	CollectedAmount       *decimal.Decimal `json:"collected_amount"`
	Variance              *decimal.Decimal `json:"variance"`
	Balanced              bool             `json:"balanced"`
	ClosedAt              string           `json:"closed_at"`
}

type DippingVarianceDTO struct {
	TankID      string          `json:"tank_id"`
	TankName    string          `json:"tank_name,omitempty"`
	DippedQty   decimal.Decimal `json:"dipped_qty"`
	PumpSoldQty decimal.Decimal `json:"pump_sold_qty"`
	Variance    decimal.Decimal `json:"variance"`
}

// =============================================================================
// VOUCHERS
// =============================================================================

// ConvertRequest carries exactly one of amount or quantity.
type ConvertRequest struct {
	Price    decimal.Decimal  `json:"price" validate:"gte=0"`
	Amount   *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
	Quantity *decimal.Decimal `json:"quantity" validate:"omitempty,gte=0"`
}

type ConvertResponse struct {
	Price    decimal.Decimal `json:"price"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type HealthDTO struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toReconciliationDTO(rec shift.Reconciliation, cat shift.Catalog) ReconciliationDTO {
	dto := ReconciliationDTO{
		Products:               make([]ProductLineDTO, 0, len(rec.Products)),
		Cashiers:               make([]CashierLineDTO, 0, len(rec.Cashiers)),
		TotalProductsAmount:    rec.TotalProductsAmount,
		TotalVoucherAmount:     rec.TotalVoucherAmount,
		TotalOtherTransactions: rec.TotalOtherTransactions,
		CashRemaining:          rec.CashRemaining,
		TotalOtherDistributed:  rec.TotalOtherDistributed,
		MainLedgerAmount:       rec.MainLedgerAmount,
		Shortfall:              rec.Shortfall,
		Distributions:          make([]DistributionDTO, 0, len(rec.Distributions)),
		Balanced:               rec.Balanced,
		CollectedAmount:        rec.CollectedAmount,
		Variance:               rec.Variance,
		CollectionBalanced:     rec.CollectionBalanced(),
		Warnings:               make([]WarningDTO, 0, len(rec.Warnings)),
	}
	for _, p := range rec.Products {
		dto.Products = append(dto.Products, ProductLineDTO{
			ProductID:     string(p.ProductID),
			ProductName:   cat.ProductName(p.ProductID),
			PumpSoldQty:   p.PumpSoldQty,
			GainQty:       p.GainQty,
			LossQty:       p.LossQty,
			AdjustedQty:   p.AdjustedQty,
			Price:         p.Price,
			PriceKnown:    p.PriceKnown,
			Amount:        p.Amount,
			VoucherQty:    p.VoucherQty,
			VoucherAmount: p.VoucherAmount,
		})
	}
	for _, c := range rec.Cashiers {
		dto.Cashiers = append(dto.Cashiers, CashierLineDTO{
			CashierID:        string(c.CashierID),
			SalesAmount:      c.SalesAmount,
			AdjustmentAmount: c.AdjustmentAmount,
			VoucherAmount:    c.VoucherAmount,
			OtherAmount:      c.OtherAmount,
			ExpectedCash:     c.ExpectedCash,
		})
	}
	for _, d := range rec.Distributions {
		dto.Distributions = append(dto.Distributions, DistributionDTO{
			LedgerID: string(d.LedgerID),
			Kind:     string(d.Kind),
			Amount:   d.Amount,
		})
	}
	for _, w := range rec.Warnings {
		dto.Warnings = append(dto.Warnings, WarningDTO{
			Code:      w.Code,
			ProductID: string(w.ProductID),
			Message:   w.Message,
		})
	}
	return dto
}

func toIssueDTOs(issues []shift.Issue) []IssueDTO {
	out := make([]IssueDTO, len(issues))
	for i, is := range issues {
		out[i] = IssueDTO{Code: is.Code, Field: is.Field, Message: is.Message}
	}
	return out
}

func toDraftDTO(d shift.Draft) DraftDTO {
	return DraftDTO{
		ID:        d.ID,
		StationID: string(d.StationID),
		ShiftID:   string(d.ShiftID),
		Label:     d.Label,
		Shift:     json.RawMessage(d.Payload),
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toRunDTO(r shift.Run) RunDTO {
	return RunDTO{
		ID:                    r.ID,
		ShiftID:               string(r.ShiftID),
		StationID:             string(r.StationID),
		CashRemaining:         r.CashRemaining,
		TotalOtherDistributed: r.TotalOtherDistributed,
		MainLedgerAmount:      r.MainLedgerAmount,
		CollectedAmount:       r.CollectedAmount,
		Variance:              r.Variance,
		Balanced:              r.Balanced,
		ClosedAt:              r.ClosedAt.UTC().Format(time.RFC3339),
	}
}
