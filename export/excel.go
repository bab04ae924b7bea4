/*
Package export renders shift summaries and voucher reports as Excel
workbooks and PDF documents.

PURPOSE:
  Station managers print or archive a closed shift. The layout is fixed:
  a merged title block, bordered and shaded header rows, one sub-table set
  per cashier (pumps, vouchers), the product summary, the ledger
  distribution and grand-total rows.

LAYOUT (ShiftWorkbook, sheet "Shift"):
  Kigali North - Sales Shift 812                       <- merged, title style
  Team Morning | 10/03/2025 06:00 - 14:00 | closed     <- merged
  Cashier c1                                           <- merged, section style
  Pump | Product | Opening | Closing | Sold | Price | Amount
  ...
  Product | Recipient | Quantity | Price | Amount      <- vouchers
  Expected cash                                  x     <- total style
  Products summary, Distributions, Totals

NUMBERS:
  Amounts and quantities are written as numeric cells. Values are
  converted from decimal only at this boundary, for display.

SEE ALSO:
  - export/pdf.go: the same summary as PDF
  - shift/reconcile.go: the figures being rendered
*/
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/fuel-station/shift"
)

const (
	ShiftSheet   = "Shift"
	VoucherSheet = "Vouchers"

	dateTimeLayout = "02/01/2006 15:04"
	tableWidth     = 9 // columns A..I
)

// =============================================================================
// SHEET WRITER
// =============================================================================

type styles struct {
	title, section, header, cell, number, total, totalNumber int
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	shaded := excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1}
	twoDecimals := 4 // #,##0.00

	defs := []*excelize.Style{
		{Font: &excelize.Font{Bold: true, Size: 14}, Alignment: &excelize.Alignment{Horizontal: "center"}},
		{Font: &excelize.Font{Bold: true}, Fill: excelize.Fill{Type: "pattern", Color: []string{"BDD7EE"}, Pattern: 1}, Border: border},
		{Font: &excelize.Font{Bold: true}, Fill: shaded, Border: border, Alignment: &excelize.Alignment{Horizontal: "center"}},
		{Border: border},
		{Border: border, NumFmt: twoDecimals},
		{Font: &excelize.Font{Bold: true}, Border: border},
		{Font: &excelize.Font{Bold: true}, Border: border, NumFmt: twoDecimals},
	}
	ids := make([]int, len(defs))
	for i, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return styles{}, fmt.Errorf("failed to create style: %w", err)
		}
		ids[i] = id
	}
	return styles{
		title: ids[0], section: ids[1], header: ids[2], cell: ids[3],
		number: ids[4], total: ids[5], totalNumber: ids[6],
	}, nil
}

// sheet writes rows top to bottom and keeps the first error.
type sheet struct {
	f      *excelize.File
	name   string
	row    int
	styles styles
	err    error
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func (s *sheet) keep(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

// merged writes text across the full table width.
func (s *sheet) merged(text string, style int) {
	s.row++
	first, last := cellName(1, s.row), cellName(tableWidth, s.row)
	s.keep(s.f.MergeCell(s.name, first, last))
	s.keep(s.f.SetCellValue(s.name, first, text))
	s.keep(s.f.SetCellStyle(s.name, first, last, style))
}

func (s *sheet) header(titles ...string) {
	s.row++
	for i, t := range titles {
		s.keep(s.f.SetCellValue(s.name, cellName(i+1, s.row), t))
	}
	s.keep(s.f.SetCellStyle(s.name, cellName(1, s.row), cellName(len(titles), s.row), s.styles.header))
}

// values writes one data row. Decimals become numeric cells.
func (s *sheet) values(total bool, vals ...any) {
	s.row++
	text, number := s.styles.cell, s.styles.number
	if total {
		text, number = s.styles.total, s.styles.totalNumber
	}
	for i, v := range vals {
		ref := cellName(i+1, s.row)
		style := text
		if d, ok := v.(decimal.Decimal); ok {
			v = d.InexactFloat64()
			style = number
		}
		s.keep(s.f.SetCellValue(s.name, ref, v))
		s.keep(s.f.SetCellStyle(s.name, ref, ref, style))
	}
}

func (s *sheet) blank() { s.row++ }

// =============================================================================
// SHIFT WORKBOOK
// =============================================================================

// ShiftWorkbook renders one shift and its reconciliation.
func ShiftWorkbook(s shift.SalesShift, rec shift.Reconciliation, cat shift.Catalog) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ShiftSheet); err != nil {
		f.Close()
		return nil, err
	}
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &sheet{f: f, name: ShiftSheet, styles: st}
	w.keep(f.SetColWidth(ShiftSheet, "A", "B", 18))
	w.keep(f.SetColWidth(ShiftSheet, "C", "I", 14))

	w.merged(fmt.Sprintf("%s - Sales Shift %s", stationName(cat, s), s.ID), st.title)
	w.merged(shiftSubtitle(s, cat), st.cell)
	w.blank()

	for _, line := range rec.Cashiers {
		writeCashier(w, s, rec, cat, line)
		w.blank()
	}

	w.merged("Products", st.section)
	w.header("Product", "Pump sold", "Gains (+)", "Losses (-)", "Sold", "Price", "Amount", "Voucher qty", "Voucher amount")
	for _, p := range rec.Products {
		w.values(false, cat.ProductName(p.ProductID), p.PumpSoldQty, p.GainQty, p.LossQty,
			p.AdjustedQty, p.Price, p.Amount, p.VoucherQty, p.VoucherAmount)
	}
	w.values(true, "Total", "", "", "", "", "", rec.TotalProductsAmount, "", rec.TotalVoucherAmount)
	w.blank()

	if len(s.OtherTransactions) > 0 {
		w.merged("Other transactions", st.section)
		w.header("Cashier", "Ledger", "Description", "Amount")
		for _, o := range s.OtherTransactions {
			w.values(false, string(o.CashierID), cat.LedgerName(o.LedgerID), o.Description, o.Amount)
		}
		w.values(true, "Total", "", "", rec.TotalOtherTransactions)
		w.blank()
	}

	w.merged("Distribution", st.section)
	w.header("Ledger", "Kind", "Amount")
	for _, d := range rec.Distributions {
		w.values(false, cat.LedgerName(d.LedgerID), string(d.Kind), d.Amount)
	}
	w.blank()

	w.merged("Totals", st.section)
	for _, row := range totalRows(rec) {
		w.values(true, row.label, row.value)
	}

	if w.err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write shift workbook: %w", w.err)
	}
	return f, nil
}

func writeCashier(w *sheet, s shift.SalesShift, rec shift.Reconciliation, cat shift.Catalog, line shift.CashierLine) {
	w.merged(cashierLabel(line.CashierID), w.styles.section)

	w.header("Pump", "Product", "Opening", "Closing", "Sold", "Price", "Amount")
	for _, r := range shift.ReadingsForCashier(s.PumpReadings, line.CashierID) {
		p, _ := rec.Product(r.ProductID)
		w.values(false, cat.PumpName(r.PumpID), cat.ProductName(r.ProductID),
			r.Opening, r.Closing, r.Sold(), p.Price, r.Sold().Mul(p.Price))
	}

	var vouchers []shift.FuelVoucher
	for _, v := range s.FuelVouchers {
		if v.CashierID == line.CashierID {
			vouchers = append(vouchers, v)
		}
	}
	if len(vouchers) > 0 {
		w.header("Product", "Recipient", "Quantity", "Price", "Amount")
		for _, v := range vouchers {
			p, _ := rec.Product(v.ProductID)
			w.values(false, cat.ProductName(v.ProductID), cat.RecipientName(v.Recipient),
				v.Quantity, p.Price, v.Quantity.Mul(p.Price))
		}
	}

	w.values(true, "Sales", line.SalesAmount)
	if !line.AdjustmentAmount.IsZero() {
		w.values(true, "Adjustments", line.AdjustmentAmount)
	}
	w.values(true, "Vouchers", line.VoucherAmount.Neg())
	if !line.OtherAmount.IsZero() {
		w.values(true, "Other transactions", line.OtherAmount.Neg())
	}
	w.values(true, "Expected cash", line.ExpectedCash)
}

type totalRow struct {
	label string
	value any
}

func totalRows(rec shift.Reconciliation) []totalRow {
	rows := []totalRow{
		{"Total products amount", rec.TotalProductsAmount},
		{"Total vouchers", rec.TotalVoucherAmount},
		{"Other transactions", rec.TotalOtherTransactions},
		{"Cash remaining", rec.CashRemaining},
		{"Other distributions", rec.TotalOtherDistributed},
		{"Main ledger", rec.MainLedgerAmount},
	}
	if !rec.Shortfall.IsZero() {
		rows = append(rows, totalRow{"Over-allocated by", rec.Shortfall})
	}
	if rec.CollectedAmount != nil {
		rows = append(rows, totalRow{"Collected", *rec.CollectedAmount})
	}
	if rec.Variance != nil {
		rows = append(rows, totalRow{"Variance", *rec.Variance})
	}
	rows = append(rows, totalRow{"Balanced", yesNo(rec.Balanced)})
	return rows
}

func stationName(cat shift.Catalog, s shift.SalesShift) string {
	if cat.Station.Name != "" {
		return cat.Station.Name
	}
	return string(s.StationID)
}

func shiftSubtitle(s shift.SalesShift, cat shift.Catalog) string {
	parts := []string{"Team " + cat.TeamName(s.TeamID)}
	period := s.ShiftStart.Format(dateTimeLayout)
	if s.ShiftEnd != nil {
		period += " - " + s.ShiftEnd.Format(dateTimeLayout)
	}
	parts = append(parts, period, string(s.Status))
	return strings.Join(parts, " | ")
}

func cashierLabel(id shift.CashierID) string {
	if id == "" {
		return "Unassigned"
	}
	return "Cashier " + string(id)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// WriteShiftWorkbook renders the shift workbook to w.
func WriteShiftWorkbook(w io.Writer, s shift.SalesShift, rec shift.Reconciliation, cat shift.Catalog) error {
	f, err := ShiftWorkbook(s, rec, cat)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// =============================================================================
// VOUCHER REPORT
// =============================================================================

// VoucherReportWorkbook lists vouchers with a per-product quantity total.
func VoucherReportWorkbook(vouchers []shift.FuelVoucher, cat shift.Catalog) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", VoucherSheet); err != nil {
		f.Close()
		return nil, err
	}
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w := &sheet{f: f, name: VoucherSheet, styles: st}
	w.keep(f.SetColWidth(VoucherSheet, "A", "F", 18))

	w.merged(stationName(cat, shift.SalesShift{})+" - Fuel Vouchers", st.title)
	w.header("Cashier", "Product", "Recipient", "Kind", "Quantity", "Reference")

	totals := make(map[shift.ProductID]decimal.Decimal)
	var order []shift.ProductID
	for _, v := range vouchers {
		w.values(false, string(v.CashierID), cat.ProductName(v.ProductID),
			cat.RecipientName(v.Recipient), string(v.Recipient.Kind), v.Quantity, v.Reference)
		if _, seen := totals[v.ProductID]; !seen {
			order = append(order, v.ProductID)
		}
		totals[v.ProductID] = totals[v.ProductID].Add(v.Quantity)
	}
	w.blank()
	for _, id := range order {
		w.values(true, "Total "+cat.ProductName(id), "", "", "", totals[id])
	}

	if w.err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write voucher workbook: %w", w.err)
	}
	return f, nil
}
