package cli

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shiftFile = `{
  "id": 812, "station_id": 4, "shift_team_id": 2,
  "shift_start": "2025-03-10 06:00:00", "shift_end": "2025-03-10 14:00:00",
  "product_prices": [{"product_id": 1, "price": 2500, "effective_at": "2025-03-01 00:00:00"}],
  "pump_readings": [
    {"pump_id": 1, "product_id": 1, "tank_id": 1, "cashier_id": 7, "opening_reading": 1000, "closing_reading": 1200},
    {"pump_id": 2, "product_id": 1, "tank_id": 1, "cashier_id": 7, "opening_reading": 500, "closing_reading": 600}
  ],
  "fuel_vouchers": [{"cashier_id": 7, "product_id": 1, "quantity": %s, "stakeholder_id": 3}],
  "main_ledger_id": 1,
  "ledger_distributions": [{"ledger_id": 2, "amount": 200000}],
  "collected_amount": %s
}`

const catalogFile = `{"data": {
  "station": {"id": 4, "name": "Kigali North"},
  "products": [{"id": 1, "name": "Diesel"}],
  "ledgers": [{"id": 1, "name": "Cash"}, {"id": 2, "name": "Bank"}],
  "stakeholders": [{"id": 3, "name": "Acme Transport"}]
}}`

func init() {
	color.NoColor = true
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func shiftFixture(t *testing.T, voucherQty, collected string) string {
	return writeFixture(t, "shift.json", fmt.Sprintf(shiftFile, voucherQty, collected))
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestReconcileCmd(t *testing.T) {
	// GIVEN: the worked example shift and its catalog
	shiftPath := shiftFixture(t, "20", "500000")
	catalogPath := writeFixture(t, "catalog.json", catalogFile)

	// WHEN: reconciling
	out, err := run(t, ReconcileCmd(), shiftPath, "--catalog", catalogPath)

	// THEN: names and totals are printed
	require.NoError(t, err)
	assert.Contains(t, out, "Diesel")
	assert.Contains(t, out, "750000.00")
	assert.Contains(t, out, "Cash remaining:")
	assert.Contains(t, out, "700000.00")
	assert.Contains(t, out, "Bank")
	assert.Contains(t, out, "Balanced")
	assert.NotContains(t, out, "Not balanced")
}

func TestReconcileCmd_Errors(t *testing.T) {
	_, err := run(t, ReconcileCmd(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, ReconcileCmd())
	assert.Error(t, err)
}

func TestValidateCmd(t *testing.T) {
	t.Run("closeable", func(t *testing.T) {
		out, err := run(t, ValidateCmd(), shiftFixture(t, "20", "500000"))
		require.NoError(t, err)
		assert.Contains(t, out, "ready to close")
	})

	t.Run("issues are listed", func(t *testing.T) {
		out, err := run(t, ValidateCmd(), shiftFixture(t, "400", "null"))
		require.Error(t, err)
		assert.Contains(t, out, "[voucher_exceeds_sold]")
		assert.Contains(t, out, "[missing_collected_amount]")
	})

	t.Run("strict collection", func(t *testing.T) {
		path := shiftFixture(t, "20", "499000")

		_, err := run(t, ValidateCmd(), path)
		assert.NoError(t, err)

		out, err := run(t, ValidateCmd(), path, "--strict")
		require.Error(t, err)
		assert.Contains(t, out, "[collection_variance]")
	})
}

func TestExportCmd(t *testing.T) {
	shiftPath := shiftFixture(t, "20", "500000")
	dir := t.TempDir()

	for _, format := range []string{"xlsx", "pdf"} {
		t.Run(format, func(t *testing.T) {
			target := filepath.Join(dir, "out."+format)
			out, err := run(t, ExportCmd(), format, shiftPath, "-o", target)
			require.NoError(t, err)
			assert.Contains(t, out, "wrote")

			data, err := os.ReadFile(target)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}

	_, err := run(t, ExportCmd(), "csv", shiftPath)
	assert.Error(t, err)
}

func newStationBackend(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/fuelStations/stations/4/getStationShifts", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": [
			{"id": 811, "station_id": 4, "shift_team_id": 1, "shift_start": "2025-03-09 22:00:00", "shift_end": "2025-03-10 06:00:00", "status": "closed"},
			{"id": 812, "station_id": 4, "shift_team_id": 2, "shift_start": "2025-03-10 06:00:00", "status": "suspended"}
		], "current_page": 1, "last_page": 1, "per_page": 15, "total": 2}`)
	})
	mux.HandleFunc("/api/fuelStations/stations/4/retrieveLastReadings", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": [{"pump_id": 1, "product_id": 1, "opening_reading": 1000, "closing_reading": 1200.5}]}`)
	})
	mux.HandleFunc("/api/fuelStations/salesShifts/812", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			io.WriteString(w, `{"data": {"id": 812, "station_id": 4, "shift_start": "2025-03-10 06:00:00"}}`)
		}
	})
	mux.HandleFunc("/api/fuelStations/salesShifts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("X-XSRF-TOKEN") != "token" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		io.WriteString(w, `{"data": {"id": 900, "station_id": 4, "shift_start": "2025-03-10 06:00:00"}}`)
	})
	mux.HandleFunc("/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "token", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/fuelStations/stations/17/userStations", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": [{"id": 4, "name": "Kigali North", "location": "Gasabo"}]}`)
	})
	mux.HandleFunc("/api/fuelStations/dippings/dippingReport", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("station_id") != "4" || r.URL.Query().Get("from") != "2025-03-01" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `[{"tank_id": 1, "opening_volume": 5000, "closing_volume": 4690, "received_volume": 0}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestShiftsListCmd(t *testing.T) {
	srv := newStationBackend(t)

	out, err := run(t, ShiftsCmd(), "list", "--station", "4", "--backend", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "811")
	assert.Contains(t, out, "2025-03-10 06:00")
	assert.Contains(t, out, "suspended")
	assert.Contains(t, out, "Page 1 of 1 (2 shifts)")

	_, err = run(t, ShiftsCmd(), "list", "--station", "4", "--status", "open", "--backend", srv.URL)
	assert.Error(t, err)

	_, err = run(t, ShiftsCmd(), "list", "--backend", srv.URL)
	assert.Error(t, err, "station is required")
}

func TestShiftsGetCmd(t *testing.T) {
	srv := newStationBackend(t)
	target := filepath.Join(t.TempDir(), "shift-812.json")

	_, err := run(t, ShiftsCmd(), "get", "812", "--backend", srv.URL, "-o", target)
	require.NoError(t, err)

	// THEN: the file is readable by the offline commands
	s, err := readShiftFile(target)
	require.NoError(t, err)
	assert.Equal(t, "812", string(s.ID))
}

func TestReadingsLastCmd(t *testing.T) {
	srv := newStationBackend(t)

	out, err := run(t, ReadingsCmd(), "last", "--station", "4", "--backend", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "1200.500")
}

func TestShiftsCreateCmd(t *testing.T) {
	srv := newStationBackend(t)

	out, err := run(t, ShiftsCmd(), "create", shiftFixture(t, "20", "500000"), "--backend", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "created shift 900 at station 4")
}

func TestShiftsDeleteCmd(t *testing.T) {
	srv := newStationBackend(t)

	out, err := run(t, ShiftsCmd(), "delete", "812", "--station", "4", "--backend", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted shift 812")

	_, err = run(t, ShiftsCmd(), "delete", "812", "--backend", srv.URL)
	assert.Error(t, err, "station is required")
}

func TestStationsCmd(t *testing.T) {
	srv := newStationBackend(t)

	out, err := run(t, StationsCmd(), "--user", "17", "--backend", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "Kigali North")
	assert.Contains(t, out, "Gasabo")
}

func TestDippingsReportCmd(t *testing.T) {
	srv := newStationBackend(t)

	out, err := run(t, DippingsCmd(), "report", "--station", "4", "--from", "2025-03-01", "--backend", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "4690.000")
	assert.Contains(t, out, "310.000")

	_, err = run(t, DippingsCmd(), "report", "--station", "4", "--from", "March", "--backend", srv.URL)
	assert.Error(t, err)
}
