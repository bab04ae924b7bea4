/*
handlers_test.go - Unit tests for API handlers

Tests run the full router against a fake backend and the in-memory
store, covering reconcile preview, close, drafts, exports and error
mapping.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fuel-station/backend"
	"github.com/warp/fuel-station/factory"
	"github.com/warp/fuel-station/shift"
	"github.com/warp/fuel-station/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var (
	shiftStart = time.Date(2025, time.March, 10, 6, 0, 0, 0, time.UTC)
	closeTime  = time.Date(2025, time.March, 10, 14, 5, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeBackend is an in-memory Backend. GetShift serves cached copies
// from stale when present, the way the real client's query cache does.
type fakeBackend struct {
	mu         sync.Mutex
	shifts     map[shift.ShiftID]shift.SalesShift
	stale      map[shift.ShiftID]shift.SalesShift
	catalog    shift.Catalog
	catalogErr error
	last       []shift.PumpReading
	prices     []shift.ProductPrice
	dippings   []shift.Dipping
	vouchers   []shift.FuelVoucher
	err        error
	lastFilter backend.ShiftFilter
	updates    int
	workbook   []byte
}

func (f *fakeBackend) ListStationShifts(_ context.Context, station shift.StationID, flt backend.ShiftFilter) (backend.ShiftPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return backend.ShiftPage{}, f.err
	}
	f.lastFilter = flt
	page := backend.ShiftPage{Page: 1, LastPage: 1}
	for _, s := range f.shifts {
		if s.StationID == station {
			page.Shifts = append(page.Shifts, s)
		}
	}
	page.Total = len(page.Shifts)
	return page, nil
}

func (f *fakeBackend) GetShift(ctx context.Context, id shift.ShiftID) (*shift.SalesShift, error) {
	f.mu.Lock()
	cached, ok := f.stale[id]
	failing := f.err != nil
	f.mu.Unlock()
	if ok && !failing {
		return &cached, nil
	}
	return f.GetShiftFresh(ctx, id)
}

func (f *fakeBackend) GetShiftFresh(_ context.Context, id shift.ShiftID) (*shift.SalesShift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.shifts[id]
	if !ok {
		return nil, &backend.APIError{Status: http.StatusNotFound, Message: "Shift not found"}
	}
	return &s, nil
}

func (f *fakeBackend) UpdateShift(_ context.Context, s shift.SalesShift) (*shift.SalesShift, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shifts[s.ID] = s
	f.updates++
	return &s, nil
}

func (f *fakeBackend) StationCatalog(context.Context, shift.StationID) (shift.Catalog, error) {
	if f.catalogErr != nil {
		return shift.Catalog{}, f.catalogErr
	}
	return f.catalog, f.err
}

func (f *fakeBackend) RetrieveLastReadings(context.Context, shift.StationID) ([]shift.PumpReading, error) {
	return f.last, f.err
}

func (f *fakeBackend) ProductsSellingPrices(context.Context, shift.StationID, time.Time) ([]shift.ProductPrice, error) {
	return f.prices, f.err
}

func (f *fakeBackend) Dippings(context.Context, shift.StationID) ([]shift.Dipping, error) {
	return f.dippings, f.err
}

func (f *fakeBackend) FuelVouchersReport(context.Context, backend.ReportFilter) ([]shift.FuelVoucher, error) {
	return f.vouchers, f.err
}

func (f *fakeBackend) ExportSalesShiftsExcel(_ context.Context, _ shift.StationID, flt backend.ShiftFilter) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = flt
	return f.workbook, f.err
}

// workedShift reconciles to 700000 cash remaining, 500000 to the main ledger.
func workedShift() shift.SalesShift {
	end := shiftStart.Add(8 * time.Hour)
	collected := d("500000")
	s := shift.NewShift("812", "4", "morning", shiftStart)
	s.ShiftEnd = &end
	s.ProductPrices = []shift.ProductPrice{{ProductID: "A", Price: d("2500"), EffectiveAt: shiftStart.AddDate(0, 0, -9)}}
	s.PumpReadings = []shift.PumpReading{
		{PumpID: "p1", ProductID: "A", TankID: "t1", CashierID: "c1", Opening: d("1000"), Closing: d("1200")},
		{PumpID: "p2", ProductID: "A", TankID: "t1", CashierID: "c1", Opening: d("500"), Closing: d("600")},
	}
	s.FuelVouchers = []shift.FuelVoucher{
		{CashierID: "c1", ProductID: "A", Quantity: d("20"), Recipient: shift.StakeholderRecipient("acme")},
	}
	s.MainLedgerID = "cash"
	s.Distributions = []shift.LedgerDistribution{{LedgerID: "bank", Kind: shift.DistributionOther, Amount: d("200000")}}
	s.CollectedAmount = &collected
	return s
}

func testCatalog() shift.Catalog {
	return shift.Catalog{
		Station:  shift.Station{ID: "4", Name: "Kigali North"},
		Products: []shift.Product{{ID: "A", Name: "Diesel"}, {ID: "B", Name: "Super"}},
		Tanks: []shift.Tank{
			{ID: "t1", StationID: "4", ProductID: "A", Name: "Tank 1"},
			{ID: "t2", StationID: "4", ProductID: "B", Name: "Tank 2"},
		},
		Pumps: []shift.Pump{
			{ID: "p1", StationID: "4", TankID: "t1", ProductID: "A", Name: "Pump 1"},
			{ID: "p2", StationID: "4", TankID: "t1", ProductID: "A", Name: "Pump 2"},
			{ID: "p3", StationID: "4", TankID: "t2", ProductID: "B", Name: "Pump 3"},
		},
		Ledgers:      []shift.Ledger{{ID: "cash", Name: "Cash"}, {ID: "bank", Name: "Bank"}},
		Stakeholders: []shift.Stakeholder{{ID: "acme", Name: "Acme Transport"}},
	}
}

type testEnv struct {
	handler *Handler
	backend *fakeBackend
	store   *memory.Store
	router  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fb := &fakeBackend{
		shifts:  map[shift.ShiftID]shift.SalesShift{"812": workedShift()},
		catalog: testCatalog(),
	}
	store := memory.New()
	h := NewHandler(fb, store, store)
	h.now = func() time.Time { return closeTime }
	ids := 0
	h.newID = func() string {
		ids++
		return fmt.Sprintf("id-%d", ids)
	}
	return &testEnv{
		handler: h,
		backend: fb,
		store:   store,
		router:  NewRouter(h, RouterOptions{Logger: zerolog.Nop()}),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got.String())
}

// =============================================================================
// RECONCILE
// =============================================================================

func TestReconcile_WorkedExample(t *testing.T) {
	env := newTestEnv(t)
	body, err := factory.MarshalShift(workedShift())
	require.NoError(t, err)

	// WHEN: previewing the shift
	rec := env.do(t, http.MethodPost, "/api/reconcile", body)

	// THEN: the figures match the worked example
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[ReconciliationDTO](t, rec)
	assertDec(t, "750000", dto.TotalProductsAmount)
	assertDec(t, "50000", dto.TotalVoucherAmount)
	assertDec(t, "700000", dto.CashRemaining)
	assertDec(t, "500000", dto.MainLedgerAmount)
	assert.True(t, dto.Balanced)
	require.NotNil(t, dto.Variance)
	assertDec(t, "0", *dto.Variance)
	assert.True(t, dto.CollectionBalanced)
	require.Len(t, dto.Distributions, 2)
	assert.Equal(t, "main", dto.Distributions[0].Kind)
}

func TestReconcile_Errors(t *testing.T) {
	env := newTestEnv(t)

	t.Run("closing below opening is a client error", func(t *testing.T) {
		s := workedShift()
		s.PumpReadings[0].Closing = d("900")
		body, _ := factory.MarshalShift(s)

		rec := env.do(t, http.MethodPost, "/api/reconcile", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_input", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/reconcile", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("voucher without a recipient still previews", func(t *testing.T) {
		s := workedShift()
		s.FuelVouchers[0].Recipient = shift.VoucherRecipient{}
		body, _ := factory.MarshalShift(s)

		rec := env.do(t, http.MethodPost, "/api/reconcile", body)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assertDec(t, "50000", decode[ReconciliationDTO](t, rec).TotalVoucherAmount)
	})

	t.Run("voucher with two recipients", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/reconcile",
			`{"station_id": 4, "shift_start": "2025-03-10 06:00:00",
			  "fuel_vouchers": [{"product_id": 1, "quantity": 2, "stakeholder_id": 5, "expense_ledger_id": 6}]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_input", decode[ErrorResponse](t, rec).Code)
	})
}

func TestValidateShift(t *testing.T) {
	env := newTestEnv(t)

	t.Run("closeable shift", func(t *testing.T) {
		body, _ := factory.MarshalShift(workedShift())
		rec := env.do(t, http.MethodPost, "/api/shifts/validate", body)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[ValidateResponse](t, rec)
		assert.True(t, resp.Closeable)
		assert.Empty(t, resp.Issues)
	})

	t.Run("every issue is reported", func(t *testing.T) {
		// GIVEN: a voucher above the sold quantity and no collected amount
		s := workedShift()
		s.FuelVouchers[0].Quantity = d("400")
		s.CollectedAmount = nil
		body, _ := factory.MarshalShift(s)

		rec := env.do(t, http.MethodPost, "/api/shifts/validate", body)

		// THEN: 422 with both issues and the preview figures
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decode[ValidateResponse](t, rec)
		assert.False(t, resp.Closeable)
		codes := make([]string, len(resp.Issues))
		for i, is := range resp.Issues {
			codes[i] = is.Code
		}
		assert.Contains(t, codes, shift.IssueVoucherExceeds)
		assert.Contains(t, codes, shift.IssueMissingCollected)
		require.NotNil(t, resp.Reconciliation)
	})

	t.Run("missing recipient is an issue", func(t *testing.T) {
		s := workedShift()
		s.FuelVouchers[0].Recipient = shift.VoucherRecipient{}
		body, _ := factory.MarshalShift(s)

		rec := env.do(t, http.MethodPost, "/api/shifts/validate", body)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		resp := decode[ValidateResponse](t, rec)
		require.Len(t, resp.Issues, 1)
		assert.Equal(t, shift.IssueInvalidRecipient, resp.Issues[0].Code)
		assert.Equal(t, "fuel_vouchers[0]", resp.Issues[0].Field)
	})

	t.Run("catalog outage does not block the check", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.catalogErr = fmt.Errorf("GET /catalog: %w", backend.ErrUnreachable)
		body, _ := factory.MarshalShift(workedShift())

		rec := env.do(t, http.MethodPost, "/api/shifts/validate", body)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, decode[ValidateResponse](t, rec).Closeable)
	})
}

// =============================================================================
// CLOSE
// =============================================================================

func TestCloseShift_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// GIVEN: the collected amount is declared at close time
	s := env.backend.shifts["812"]
	s.CollectedAmount = nil
	env.backend.shifts["812"] = s

	// WHEN: closing
	rec := env.do(t, http.MethodPost, "/api/shifts/812/close", `{"collected_amount": "499000"}`)

	// THEN: the backend holds the closed shift
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[CloseResponse](t, rec)
	assert.Equal(t, "closed", resp.Shift.Status)
	assert.Equal(t, "id-1", resp.RunID)
	require.NotNil(t, resp.Reconciliation.Variance)
	assertDec(t, "-1000", *resp.Reconciliation.Variance)

	saved := env.backend.shifts["812"]
	assert.Equal(t, shift.StatusClosed, saved.Status)
	require.NotNil(t, saved.ClosedAt)
	assert.True(t, saved.ClosedAt.Equal(closeTime))
	assert.Equal(t, 1, env.backend.updates)

	// AND: the run is logged for the station
	runs, err := env.store.ListRuns(ctx, "4")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assertDec(t, "500000", runs[0].MainLedgerAmount)
	assert.True(t, runs[0].Balanced)
}

func TestCloseShift_SavesTheBackendsCurrentCopy(t *testing.T) {
	env := newTestEnv(t)

	// GIVEN: a cached copy, then another cashier moves p1's closing to 1500
	env.backend.stale = map[shift.ShiftID]shift.SalesShift{"812": workedShift()}
	s := env.backend.shifts["812"]
	s.PumpReadings[0].Closing = d("1500")
	env.backend.shifts["812"] = s

	rec := env.do(t, http.MethodGet, "/api/shifts/812/dipping-variances", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN: closing
	rec = env.do(t, http.MethodPost, "/api/shifts/812/close", nil)

	// THEN: the saved shift keeps the newer reading
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := env.backend.shifts["812"]
	assert.Equal(t, shift.StatusClosed, saved.Status)
	assertDec(t, "1500", saved.PumpReadings[0].Closing)
	assertDec(t, "1500", decode[CloseResponse](t, rec).Shift.PumpReadings[0].Closing)
}

func TestCloseShift_Failures(t *testing.T) {
	t.Run("already closed", func(t *testing.T) {
		env := newTestEnv(t)
		s := env.backend.shifts["812"]
		s.Status = shift.StatusClosed
		env.backend.shifts["812"] = s

		rec := env.do(t, http.MethodPost, "/api/shifts/812/close", nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Zero(t, env.backend.updates)
	})

	t.Run("not balanced", func(t *testing.T) {
		env := newTestEnv(t)
		s := env.backend.shifts["812"]
		s.Distributions[0].Amount = d("900000")
		env.backend.shifts["812"] = s

		rec := env.do(t, http.MethodPost, "/api/shifts/812/close", nil)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "not_closeable", decode[ErrorResponse](t, rec).Code)
		assert.Zero(t, env.backend.updates)
	})

	t.Run("negative collected amount", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/shifts/812/close", `{"collected_amount": -5}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "validation_failed", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("unknown shift", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(t, http.MethodPost, "/api/shifts/999/close", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("backend unreachable", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.err = fmt.Errorf("GET /x: %w", backend.ErrUnreachable)
		rec := env.do(t, http.MethodPost, "/api/shifts/812/close", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, backend.DefaultErrorMessage, decode[ErrorResponse](t, rec).Error)
	})

	t.Run("backend error message is passed on", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.err = &backend.APIError{Status: http.StatusInternalServerError, Message: "Database offline"}
		rec := env.do(t, http.MethodPost, "/api/shifts/812/close", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "Database offline", decode[ErrorResponse](t, rec).Error)
	})
}

func TestReopenShift(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/shifts/812/reopen", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/shifts/812/close", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/shifts/812/reopen", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, shift.StatusSuspended, env.backend.shifts["812"].Status)
	assert.Nil(t, env.backend.shifts["812"].ClosedAt)
}

// =============================================================================
// STATION DATA
// =============================================================================

func TestListStationShifts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/stations/4/shifts?page=2&limit=10&status=closed&from=2025-03-01", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[ShiftPageDTO](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, factory.ID("812"), page.Data[0].ID)
	assert.Equal(t, 2, env.backend.lastFilter.Page)
	assert.Equal(t, shift.StatusClosed, env.backend.lastFilter.Status)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), env.backend.lastFilter.From)

	rec = env.do(t, http.MethodGet, "/api/stations/4/shifts?status=open", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/stations/4/shifts?limit=many", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportStationShifts(t *testing.T) {
	env := newTestEnv(t)
	env.backend.workbook = []byte("PK\x03\x04")

	rec := env.do(t, http.MethodGet, "/api/stations/4/shifts/export.xlsx?status=closed&team=2", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales-shifts-4.xlsx")
	assert.Equal(t, env.backend.workbook, rec.Body.Bytes())
	assert.Equal(t, shift.StatusClosed, env.backend.lastFilter.Status)
	assert.Equal(t, shift.TeamID("2"), env.backend.lastFilter.TeamID)

	rec = env.do(t, http.MethodGet, "/api/stations/4/shifts/export.xlsx?status=open", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetLastReadings(t *testing.T) {
	env := newTestEnv(t)
	env.backend.last = []shift.PumpReading{
		{PumpID: "p1", ProductID: "A", Opening: d("800"), Closing: d("1000")},
	}

	rec := env.do(t, http.MethodGet, "/api/stations/4/last-readings", nil)

	// THEN: every pump is seeded, p1 from its last closing
	require.Equal(t, http.StatusOK, rec.Code)
	readings := decode[[]factory.PumpReadingJSON](t, rec)
	require.Len(t, readings, 3)
	assertDec(t, "1000", readings[0].Opening)
	assertDec(t, "0", readings[2].Opening)
}

func TestGetPrices(t *testing.T) {
	env := newTestEnv(t)
	env.backend.prices = []shift.ProductPrice{
		{ProductID: "A", Price: d("2400"), EffectiveAt: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)},
		{ProductID: "A", Price: d("2500"), EffectiveAt: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)},
	}

	rec := env.do(t, http.MethodGet, "/api/stations/4/prices?at=2025-02-15", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	prices := decode[[]factory.ProductPriceJSON](t, rec)
	require.Len(t, prices, 1)
	assertDec(t, "2400", prices[0].Price)
}

func TestPumpAndTankPickers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/stations/4/available-pumps?assigned=p1,p3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pumps := decode[[]factory.PumpJSON](t, rec)
	require.Len(t, pumps, 1)
	assert.Equal(t, factory.ID("p2"), pumps[0].ID)

	rec = env.do(t, http.MethodGet, "/api/stations/4/products/B/tanks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tanks := decode[[]factory.TankJSON](t, rec)
	require.Len(t, tanks, 1)
	assert.Equal(t, factory.ID("t2"), tanks[0].ID)
}

func TestDippingVariances(t *testing.T) {
	env := newTestEnv(t)
	env.backend.dippings = []shift.Dipping{
		{TankID: "t1", Opening: d("5000"), Closing: d("4690"), Received: d("0")},
	}

	rec := env.do(t, http.MethodGet, "/api/shifts/812/dipping-variances", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[[]DippingVarianceDTO](t, rec)
	require.Len(t, out, 1)
	assert.Equal(t, "Tank 1", out[0].TankName)
	assertDec(t, "310", out[0].DippedQty)
	assertDec(t, "300", out[0].PumpSoldQty)
	assertDec(t, "10", out[0].Variance)
}

// =============================================================================
// EXPORTS
// =============================================================================

func TestExports(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/shifts/812/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "shift-812.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = env.do(t, http.MethodGet, "/api/shifts/812/export.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	env.backend.vouchers = workedShift().FuelVouchers
	rec = env.do(t, http.MethodGet, "/api/reports/vouchers.xlsx?station_id=4&from=2025-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = env.do(t, http.MethodGet, "/api/reports/vouchers.xlsx", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// =============================================================================
// DRAFTS AND RUNS
// =============================================================================

func TestDrafts_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	payload, err := factory.MarshalShift(workedShift())
	require.NoError(t, err)

	// WHEN: saving a draft
	rec := env.do(t, http.MethodPost, "/api/stations/4/drafts", DraftRequest{Label: "morning", Shift: payload})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[DraftDTO](t, rec)
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, "4", created.StationID)

	// THEN: it is listed and its payload parses back
	rec = env.do(t, http.MethodGet, "/api/stations/4/drafts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]DraftDTO](t, rec)
	require.Len(t, list, 1)
	s, err := factory.ParseShift(list[0].Shift)
	require.NoError(t, err)
	assert.Len(t, s.PumpReadings, 2)

	// WHEN: updating the label
	rec = env.do(t, http.MethodPut, "/api/drafts/id-1", DraftRequest{Label: "morning v2", Shift: payload})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "morning v2", decode[DraftDTO](t, rec).Label)

	// WHEN: deleting
	rec = env.do(t, http.MethodDelete, "/api/drafts/id-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/drafts/id-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDrafts_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/stations/4/drafts", `{"label": "no shift"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	other := workedShift()
	other.StationID = "9"
	payload, _ := factory.MarshalShift(other)
	rec = env.do(t, http.MethodPost, "/api/stations/4/drafts", DraftRequest{Shift: payload})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "station_mismatch", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPut, "/api/drafts/missing", DraftRequest{Shift: payload})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRuns(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/shifts/812/close", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/stations/4/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]RunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, "812", runs[0].ShiftID)
	assert.Equal(t, closeTime.Format(time.RFC3339), runs[0].ClosedAt)
}

// =============================================================================
// VOUCHERS AND HEALTH
// =============================================================================

func TestConvertVoucher(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/vouchers/convert", `{"price": "2500", "amount": "50000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertDec(t, "20", decode[ConvertResponse](t, rec).Quantity)

	rec = env.do(t, http.MethodPost, "/api/vouchers/convert", `{"price": 2500, "quantity": 1.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assertDec(t, "3750", decode[ConvertResponse](t, rec).Amount)

	// zero price is refused by the domain guard
	rec = env.do(t, http.MethodPost, "/api/vouchers/convert", `{"price": 0, "amount": 100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/vouchers/convert", `{"price": 2500, "amount": 1, "quantity": 1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return fmt.Errorf("connection refused") }

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.handler.Checks["redis"] = failingPinger{}
	rec = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "connection refused"))
}
