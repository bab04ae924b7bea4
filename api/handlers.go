/*
handlers.go - HTTP API handlers for the fuel-station shift service

PURPOSE:
  Exposes the reconciliation engine, the backend proxy, exports and the
  local draft store via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the shift package.

ENDPOINTS:
  Reconciliation:
    POST   /api/reconcile                         Preview a shift's figures
    POST   /api/shifts/validate                   Close check, 422 with issues

  Shifts (backend):
    GET    /api/stations/{id}/shifts              Paginated shift list
    GET    /api/stations/{id}/shifts/export.xlsx  Backend shift list workbook
    POST   /api/shifts/{id}/close                 Validate, close, save, log run
    POST   /api/shifts/{id}/reopen                Back to suspended
    GET    /api/shifts/{id}/dipping-variances     Dipping vs pump quantities
    GET    /api/shifts/{id}/export.xlsx           Shift workbook
    GET    /api/shifts/{id}/export.pdf            Shift PDF

  Station data:
    GET    /api/stations/{id}/catalog
    GET    /api/stations/{id}/last-readings       Seeded opening readings
    GET    /api/stations/{id}/prices?at=          Prices effective at a time
    GET    /api/stations/{id}/available-pumps?assigned=p1,p2
    GET    /api/stations/{id}/products/{productID}/tanks

  Drafts and runs (local):
    GET    /api/stations/{id}/drafts
    POST   /api/stations/{id}/drafts
    GET    /api/drafts/{id}
    PUT    /api/drafts/{id}
    DELETE /api/drafts/{id}
    GET    /api/stations/{id}/runs

  Other:
    POST   /api/vouchers/convert                  Amount <-> quantity
    GET    /api/reports/vouchers.xlsx             Voucher report workbook
    GET    /healthz

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Backend: the system of record, behind an interface
  - Drafts / Runs: local stores
  - Options: close rules

ERROR HANDLING:
  Errors are returned as JSON {error, code, details}:
  - 400: Malformed JSON, invalid readings or operators
  - 404: Shift, draft or backend record not found
  - 409: Shift already closed / not closed
  - 422: Validation failed, shift cannot be closed
  - 502: Backend error or unreachable

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - shift/: the domain logic
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/warp/fuel-station/backend"
	"github.com/warp/fuel-station/export"
	"github.com/warp/fuel-station/factory"
	"github.com/warp/fuel-station/shift"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Backend is the subset of backend.Client the handlers use.
type Backend interface {
	ListStationShifts(ctx context.Context, station shift.StationID, f backend.ShiftFilter) (backend.ShiftPage, error)
	GetShift(ctx context.Context, id shift.ShiftID) (*shift.SalesShift, error)
	GetShiftFresh(ctx context.Context, id shift.ShiftID) (*shift.SalesShift, error)
	UpdateShift(ctx context.Context, s shift.SalesShift) (*shift.SalesShift, error)
	StationCatalog(ctx context.Context, station shift.StationID) (shift.Catalog, error)
	RetrieveLastReadings(ctx context.Context, station shift.StationID) ([]shift.PumpReading, error)
	ProductsSellingPrices(ctx context.Context, station shift.StationID, at time.Time) ([]shift.ProductPrice, error)
	Dippings(ctx context.Context, station shift.StationID) ([]shift.Dipping, error)
	FuelVouchersReport(ctx context.Context, f backend.ReportFilter) ([]shift.FuelVoucher, error)
	ExportSalesShiftsExcel(ctx context.Context, station shift.StationID, f backend.ShiftFilter) ([]byte, error)
}

// Pinger is a dependency checked by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Backend Backend
	Drafts  shift.DraftStore
	Runs    shift.RunLog
	Options shift.CloseOptions
	Checks  map[string]Pinger

	now   func() time.Time
	newID func() string
}

// NewHandler creates a new handler.
func NewHandler(b Backend, drafts shift.DraftStore, runs shift.RunLog) *Handler {
	return &Handler{
		Backend: b,
		Drafts:  drafts,
		Runs:    runs,
		Checks:  make(map[string]Pinger),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// Reconcile previews the figures of a shift posted in wire form. Warnings
// never fail the request.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	s, ok := readShift(w, r)
	if !ok {
		return
	}
	rec, err := shift.Reconcile(shift.InputFromShift(*s))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReconciliationDTO(rec, shift.Catalog{}))
}

// ValidateShift runs the close check without closing.
func (h *Handler) ValidateShift(w http.ResponseWriter, r *http.Request) {
	s, ok := readShift(w, r)
	if !ok {
		return
	}
	// The catalog only names products in messages
	cat, err := h.Backend.StationCatalog(r.Context(), s.StationID)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("station_id", string(s.StationID)).Msg("catalog unavailable, validating without names")
		cat = shift.Catalog{}
	}

	rec, err := shift.ValidateForClose(*s, cat, h.Options)
	var closeErr *shift.CloseError
	switch {
	case errors.As(err, &closeErr):
		resp := ValidateResponse{Issues: toIssueDTOs(closeErr.Issues)}
		if len(rec.Products) > 0 || len(rec.Cashiers) > 0 {
			dto := toReconciliationDTO(rec, cat)
			resp.Reconciliation = &dto
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case err != nil:
		writeDomainError(w, r, err)
	default:
		dto := toReconciliationDTO(rec, cat)
		writeJSON(w, http.StatusOK, ValidateResponse{Closeable: true, Issues: []IssueDTO{}, Reconciliation: &dto})
	}
}

func readShift(w http.ResponseWriter, r *http.Request) (*shift.SalesShift, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Failed to read body", err)
		return nil, false
	}
	s, err := factory.ParseShift(body)
	if err != nil {
		if shift.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "invalid_input", "Invalid shift", err)
		} else {
			writeError(w, http.StatusBadRequest, "invalid_json", "Invalid shift JSON", err)
		}
		return nil, false
	}
	return s, true
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// ListStationShifts proxies the backend's paginated shift list.
func (h *Handler) ListStationShifts(w http.ResponseWriter, r *http.Request) {
	query, ok := readShiftsQuery(w, r)
	if !ok {
		return
	}
	page, err := h.Backend.ListStationShifts(r.Context(), stationParam(r), query.filter())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	dto := ShiftPageDTO{
		Data:        make([]factory.ShiftJSON, 0, len(page.Shifts)),
		CurrentPage: page.Page,
		LastPage:    page.LastPage,
		PerPage:     query.Limit,
		Total:       page.Total,
	}
	for _, s := range page.Shifts {
		dto.Data = append(dto.Data, factory.FromDomain(s))
	}
	writeJSON(w, http.StatusOK, dto)
}

// ExportStationShifts returns the backend's workbook of the filtered
// shift list.
func (h *Handler) ExportStationShifts(w http.ResponseWriter, r *http.Request) {
	query, ok := readShiftsQuery(w, r)
	if !ok {
		return
	}
	station := stationParam(r)
	data, err := h.Backend.ExportSalesShiftsExcel(r.Context(), station, query.filter())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeFile(w, xlsxContentType, fmt.Sprintf("sales-shifts-%s.xlsx", station), data)
}

func readShiftsQuery(w http.ResponseWriter, r *http.Request) (ListShiftsQuery, bool) {
	q := r.URL.Query()
	query := ListShiftsQuery{
		TeamID:  q.Get("team"),
		Status:  q.Get("status"),
		Keyword: q.Get("keyword"),
	}
	var err error
	if query.Page, err = intParam(q.Get("page")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", "Invalid page", err)
		return query, false
	}
	if query.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", "Invalid limit", err)
		return query, false
	}
	if query.From, err = timeParam(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", "Invalid from date", err)
		return query, false
	}
	if query.To, err = timeParam(q.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", "Invalid to date", err)
		return query, false
	}
	return query, checkStruct(w, query)
}

// CloseShift fetches a shift, closes it, saves it back and logs the run.
func (h *Handler) CloseShift(w http.ResponseWriter, r *http.Request) {
	var req CloseRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	ctx := r.Context()
	s, cat, ok := h.loadShift(w, r, true)
	if !ok {
		return
	}
	if req.CollectedAmount != nil {
		s.CollectedAmount = req.CollectedAmount
	}

	rec, err := shift.Close(s, cat, h.Options, h.now())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	updated, err := h.Backend.UpdateShift(ctx, *s)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	run := shift.RunFromReconciliation(h.newID(), *s, rec, *s.ClosedAt)
	if err := h.Runs.RecordRun(ctx, run); err != nil {
		// The backend already holds the closed shift
		hlog.FromRequest(r).Error().Err(err).Str("shift_id", string(s.ID)).Msg("failed to record close run")
	}

	hlog.FromRequest(r).Info().
		Str("shift_id", string(s.ID)).
		Str("station_id", string(s.StationID)).
		Str("main_ledger_amount", rec.MainLedgerAmount.String()).
		Bool("collection_balanced", rec.CollectionBalanced()).
		Msg("shift closed")

	writeJSON(w, http.StatusOK, CloseResponse{
		Shift:          factory.FromDomain(*updated),
		Reconciliation: toReconciliationDTO(rec, cat),
		RunID:          run.ID,
	})
}

// ReopenShift returns a closed shift to suspended on the backend.
func (h *Handler) ReopenShift(w http.ResponseWriter, r *http.Request) {
	s, err := h.Backend.GetShiftFresh(r.Context(), shift.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if s.Status != shift.StatusClosed {
		writeError(w, http.StatusConflict, "not_closed", "Shift is not closed", nil)
		return
	}
	shift.Reopen(s)
	updated, err := h.Backend.UpdateShift(r.Context(), *s)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.FromDomain(*updated))
}

// DippingVariances compares the station's dippings with the shift's readings.
func (h *Handler) DippingVariances(w http.ResponseWriter, r *http.Request) {
	s, cat, ok := h.loadShift(w, r, false)
	if !ok {
		return
	}
	dippings, err := h.Backend.Dippings(r.Context(), s.StationID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	variances := shift.DippingVariances(dippings, s.PumpReadings, s.TankAdjustments)
	out := make([]DippingVarianceDTO, 0, len(variances))
	for _, v := range variances {
		out = append(out, DippingVarianceDTO{
			TankID:      string(v.TankID),
			TankName:    cat.TankName(v.TankID),
			DippedQty:   v.DippedQty,
			PumpSoldQty: v.PumpSoldQty,
			Variance:    v.Variance,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// loadShift fetches the shift named in the URL and its station catalog.
// fresh skips the query cache; use it when the shift is saved back.
func (h *Handler) loadShift(w http.ResponseWriter, r *http.Request, fresh bool) (*shift.SalesShift, shift.Catalog, bool) {
	get := h.Backend.GetShift
	if fresh {
		get = h.Backend.GetShiftFresh
	}
	s, err := get(r.Context(), shift.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, r, err)
		return nil, shift.Catalog{}, false
	}
	cat, err := h.Backend.StationCatalog(r.Context(), s.StationID)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, shift.Catalog{}, false
	}
	return s, cat, true
}

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

func (h *Handler) ExportShiftExcel(w http.ResponseWriter, r *http.Request) {
	h.exportShift(w, r, xlsxContentType, "xlsx", export.WriteShiftWorkbook)
}

func (h *Handler) ExportShiftPDF(w http.ResponseWriter, r *http.Request) {
	h.exportShift(w, r, pdfContentType, "pdf", export.ShiftPDF)
}

type renderFunc func(io.Writer, shift.SalesShift, shift.Reconciliation, shift.Catalog) error

func (h *Handler) exportShift(w http.ResponseWriter, r *http.Request, contentType, ext string, render renderFunc) {
	s, cat, ok := h.loadShift(w, r, false)
	if !ok {
		return
	}
	rec, err := shift.Reconcile(shift.InputFromShift(*s))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, *s, rec, cat); err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", "Failed to render export", err)
		return
	}
	writeFile(w, contentType, fmt.Sprintf("shift-%s.%s", s.ID, ext), buf.Bytes())
}

// ExportVoucherReport renders the backend's voucher report as a workbook.
func (h *Handler) ExportVoucherReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	station := shift.StationID(q.Get("station_id"))
	if station == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "Validation failed",
			map[string]string{"station_id": "is required"})
		return
	}
	from, err := timeParam(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", "Invalid from date", err)
		return
	}
	to, err := timeParam(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", "Invalid to date", err)
		return
	}

	ctx := r.Context()
	vouchers, err := h.Backend.FuelVouchersReport(ctx, backend.ReportFilter{StationID: station, From: from, To: to})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	cat, err := h.Backend.StationCatalog(ctx, station)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	f, err := export.VoucherReportWorkbook(vouchers, cat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", "Failed to render export", err)
		return
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", "Failed to render export", err)
		return
	}
	writeFile(w, xlsxContentType, fmt.Sprintf("fuel-vouchers-%s.xlsx", station), buf.Bytes())
}

func writeFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// =============================================================================
// STATION DATA HANDLERS
// =============================================================================

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := h.Backend.StationCatalog(r.Context(), stationParam(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.CatalogFromDomain(cat))
}

// GetLastReadings returns one reading per pump with the opening set to the
// previous shift's closing.
func (h *Handler) GetLastReadings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	station := stationParam(r)
	cat, err := h.Backend.StationCatalog(ctx, station)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	last, err := h.Backend.RetrieveLastReadings(ctx, station)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.ReadingsToJSON(shift.SeedOpeningReadings(last, cat.Pumps)))
}

// GetPrices returns the price of each catalog product effective at ?at
// (default now). Products without a price are left out.
func (h *Handler) GetPrices(w http.ResponseWriter, r *http.Request) {
	at := h.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		t, err := factory.ParseTime(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query", "Invalid at time", err)
			return
		}
		at = t
	}

	ctx := r.Context()
	station := stationParam(r)
	cat, err := h.Backend.StationCatalog(ctx, station)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	prices, err := h.Backend.ProductsSellingPrices(ctx, station, at)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	products := make([]shift.ProductID, 0, len(cat.Products))
	for _, p := range cat.Products {
		products = append(products, p.ID)
	}
	writeJSON(w, http.StatusOK, factory.PricesToJSON(shift.PricesAsOf(prices, products, at)))
}

// GetAvailablePumps lists the station pumps not in ?assigned.
func (h *Handler) GetAvailablePumps(w http.ResponseWriter, r *http.Request) {
	cat, err := h.Backend.StationCatalog(r.Context(), stationParam(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var assigned []shift.PumpID
	for _, id := range strings.Split(r.URL.Query().Get("assigned"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			assigned = append(assigned, shift.PumpID(id))
		}
	}
	writeJSON(w, http.StatusOK, factory.PumpsToJSON(shift.AvailablePumps(cat.Pumps, assigned)))
}

func (h *Handler) GetProductTanks(w http.ResponseWriter, r *http.Request) {
	cat, err := h.Backend.StationCatalog(r.Context(), stationParam(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	product := shift.ProductID(chi.URLParam(r, "productID"))
	writeJSON(w, http.StatusOK, factory.TanksToJSON(shift.TanksForProduct(cat.Tanks, cat.Pumps, product)))
}

// =============================================================================
// DRAFT HANDLERS
// =============================================================================

func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.Drafts.ListDrafts(r.Context(), stationParam(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]DraftDTO, len(drafts))
	for i, d := range drafts {
		out[i] = toDraftDTO(d)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateDraft saves a new draft for the station.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	h.saveDraft(w, r, h.newID(), stationParam(r), http.StatusCreated)
}

// UpdateDraft replaces an existing draft.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	existing, err := h.Drafts.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.saveDraft(w, r, existing.ID, existing.StationID, http.StatusOK)
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request, id string, station shift.StationID, status int) {
	var req DraftRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, err := factory.ParseShift(req.Shift)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Invalid shift", err)
		return
	}
	if s.StationID != "" && s.StationID != station {
		writeError(w, http.StatusUnprocessableEntity, "station_mismatch", "Shift belongs to another station", nil)
		return
	}
	s.StationID = station
	payload, err := factory.MarshalShift(*s)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "Failed to encode shift", err)
		return
	}

	ctx := r.Context()
	draft := shift.Draft{
		ID:        id,
		StationID: station,
		ShiftID:   shift.ShiftID(req.ShiftID),
		Label:     req.Label,
		Payload:   payload,
	}
	if err := h.Drafts.SaveDraft(ctx, draft); err != nil {
		writeDomainError(w, r, err)
		return
	}
	saved, err := h.Drafts.GetDraft(ctx, id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, status, toDraftDTO(saved))
}

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.Drafts.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraftDTO(d))
}

func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.Drafts.DeleteDraft(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRuns returns the station's close log, most recent first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Runs.ListRuns(r.Context(), stationParam(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]RunDTO, len(runs))
	for i, run := range runs {
		out[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// VOUCHER HANDLERS
// =============================================================================

// ConvertVoucher derives the quantity from an amount or the amount from a
// quantity at the given price.
func (h *Handler) ConvertVoucher(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if (req.Amount == nil) == (req.Quantity == nil) {
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", "Validation failed",
			map[string]string{"amount": "exactly one of amount or quantity is required"})
		return
	}

	resp := ConvertResponse{Price: req.Price}
	var err error
	if req.Amount != nil {
		resp.Amount = *req.Amount
		resp.Quantity, err = shift.QuantityFromAmount(*req.Amount, req.Price)
	} else {
		resp.Quantity = *req.Quantity
		resp.Amount, err = shift.AmountFromQuantity(*req.Quantity, req.Price)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HEALTH
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthDTO{Status: "ok", Checks: make(map[string]string, len(h.Checks))}
	status := http.StatusOK
	for name, p := range h.Checks {
		if err := p.Ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func stationParam(r *http.Request) shift.StationID {
	return shift.StationID(chi.URLParam(r, "id"))
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func timeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return factory.ParseTime(raw)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := ErrorResponse{Error: message, Code: code}
	switch d := details.(type) {
	case nil:
	case error:
		resp.Details = d.Error()
	default:
		resp.Details = d
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps shift, store and backend errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		closeErr *shift.CloseError
		apiErr   *backend.APIError
	)
	switch {
	case errors.As(err, &closeErr):
		status := http.StatusUnprocessableEntity
		if closeErr.Has(shift.IssueAlreadyClosed) {
			status = http.StatusConflict
		}
		writeError(w, status, "not_closeable", "Shift cannot be closed", toIssueDTOs(closeErr.Issues))
	case shift.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case shift.IsNotFound(err), backend.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", "Not found", err)
	case errors.As(err, &apiErr):
		hlog.FromRequest(r).Warn().Err(err).Int("backend_status", apiErr.Status).Msg("backend error")
		var details any
		if len(apiErr.Fields) > 0 {
			details = apiErr.Fields
		}
		writeError(w, http.StatusBadGateway, "backend_error", apiErr.Message, details)
	case errors.Is(err, backend.ErrUnreachable), errors.Is(err, context.DeadlineExceeded):
		hlog.FromRequest(r).Warn().Err(err).Msg("backend unreachable")
		writeError(w, http.StatusBadGateway, "backend_unreachable", backend.DefaultErrorMessage, nil)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", "Internal error", nil)
	}
}
