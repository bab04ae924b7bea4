package export

// pdf.go - A4 shift summary using go-pdf/fpdf.
// Same sections as the workbook: header, per-cashier tables, products,
// distribution and totals. Amounts are printed with two decimals,
// quantities with three.

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/warp/fuel-station/shift"
)

const (
	pdfMargin = 12.0
	rowHeight = 6.0
)

func money(d decimal.Decimal) string { return d.StringFixed(2) }
func qty(d decimal.Decimal) string   { return d.StringFixed(3) }

// pdfTable prints a header row and data rows. Numeric columns are right aligned.
type pdfTable struct {
	widths []float64
	aligns []string
}

func newTable(contentW float64, ratios []float64, aligns string) pdfTable {
	t := pdfTable{}
	for i, r := range ratios {
		t.widths = append(t.widths, contentW*r)
		t.aligns = append(t.aligns, string(aligns[i]))
	}
	return t
}

func (t pdfTable) header(pdf *fpdf.Fpdf, tr func(string) string, titles ...string) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(217, 217, 217)
	for i, title := range titles {
		ln := 0
		if i == len(titles)-1 {
			ln = 1
		}
		pdf.CellFormat(t.widths[i], rowHeight, tr(title), "1", ln, "C", true, 0, "")
	}
}

func (t pdfTable) row(pdf *fpdf.Fpdf, tr func(string) string, bold bool, cells ...string) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 8)
	for i, c := range cells {
		ln := 0
		if i == len(cells)-1 {
			ln = 1
		}
		pdf.CellFormat(t.widths[i], rowHeight, tr(c), "1", ln, t.aligns[i], false, 0, "")
	}
}

func section(pdf *fpdf.Fpdf, tr func(string) string, contentW float64, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(189, 215, 238)
	pdf.CellFormat(contentW, 7, tr(title), "1", 1, "L", true, 0, "")
}

// ShiftPDF writes the shift summary as a PDF document to w.
func ShiftPDF(w io.Writer, s shift.SalesShift, rec shift.Reconciliation, cat shift.Catalog) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr(fmt.Sprintf("%s - Sales Shift %s", stationName(cat, s), s.ID)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr(shiftSubtitle(s, cat)), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.Line(pdfMargin, pdf.GetY(), pageW-pdfMargin, pdf.GetY())

	// ── Cashiers ─────────────────────────────────────────────────────────────
	pumps := newTable(contentW, []float64{0.18, 0.16, 0.14, 0.14, 0.12, 0.12, 0.14}, "LLRRRRR")
	vouchers := newTable(contentW, []float64{0.2, 0.32, 0.16, 0.14, 0.18}, "LLRRR")
	totals := newTable(contentW, []float64{0.7, 0.3}, "LR")

	for _, line := range rec.Cashiers {
		section(pdf, tr, contentW, cashierLabel(line.CashierID))
		pumps.header(pdf, tr, "Pump", "Product", "Opening", "Closing", "Sold", "Price", "Amount")
		for _, r := range shift.ReadingsForCashier(s.PumpReadings, line.CashierID) {
			p, _ := rec.Product(r.ProductID)
			pumps.row(pdf, tr, false, cat.PumpName(r.PumpID), cat.ProductName(r.ProductID),
				qty(r.Opening), qty(r.Closing), qty(r.Sold()), money(p.Price), money(r.Sold().Mul(p.Price)))
		}

		first := true
		for _, v := range s.FuelVouchers {
			if v.CashierID != line.CashierID {
				continue
			}
			if first {
				pdf.Ln(1)
				vouchers.header(pdf, tr, "Product", "Recipient", "Quantity", "Price", "Amount")
				first = false
			}
			p, _ := rec.Product(v.ProductID)
			vouchers.row(pdf, tr, false, cat.ProductName(v.ProductID), cat.RecipientName(v.Recipient),
				qty(v.Quantity), money(p.Price), money(v.Quantity.Mul(p.Price)))
		}

		pdf.Ln(1)
		totals.row(pdf, tr, false, "Sales", money(line.SalesAmount))
		if !line.AdjustmentAmount.IsZero() {
			totals.row(pdf, tr, false, "Adjustments", money(line.AdjustmentAmount))
		}
		totals.row(pdf, tr, false, "Vouchers", money(line.VoucherAmount.Neg()))
		if !line.OtherAmount.IsZero() {
			totals.row(pdf, tr, false, "Other transactions", money(line.OtherAmount.Neg()))
		}
		totals.row(pdf, tr, true, "Expected cash", money(line.ExpectedCash))
	}

	// ── Products ─────────────────────────────────────────────────────────────
	section(pdf, tr, contentW, "Products")
	products := newTable(contentW, []float64{0.2, 0.14, 0.12, 0.12, 0.14, 0.12, 0.16}, "LRRRRRR")
	products.header(pdf, tr, "Product", "Pump sold", "Gains", "Losses", "Sold", "Price", "Amount")
	for _, p := range rec.Products {
		products.row(pdf, tr, false, cat.ProductName(p.ProductID), qty(p.PumpSoldQty), qty(p.GainQty),
			qty(p.LossQty), qty(p.AdjustedQty), money(p.Price), money(p.Amount))
	}

	// ── Distribution ─────────────────────────────────────────────────────────
	section(pdf, tr, contentW, "Distribution")
	dist := newTable(contentW, []float64{0.5, 0.2, 0.3}, "LLR")
	dist.header(pdf, tr, "Ledger", "Kind", "Amount")
	for _, d := range rec.Distributions {
		dist.row(pdf, tr, false, cat.LedgerName(d.LedgerID), string(d.Kind), money(d.Amount))
	}

	// ── Totals ───────────────────────────────────────────────────────────────
	section(pdf, tr, contentW, "Totals")
	for _, row := range totalRows(rec) {
		text := ""
		switch v := row.value.(type) {
		case decimal.Decimal:
			text = money(v)
		case string:
			text = v
		}
		totals.row(pdf, tr, true, row.label, text)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}
