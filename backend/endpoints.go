package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/warp/fuel-station/factory"
	"github.com/warp/fuel-station/shift"
)

const dateLayout = "2006-01-02"

// =============================================================================
// FILTERS
// =============================================================================

// ShiftFilter selects a page of a station's shifts. Zero fields are not sent.
type ShiftFilter struct {
	Page    int
	Limit   int
	TeamID  shift.TeamID
	Status  shift.Status
	Keyword string
	From    time.Time
	To      time.Time
}

func (f ShiftFilter) values() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.TeamID != "" {
		q.Set("shift_team_id", string(f.TeamID))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Keyword != "" {
		q.Set("keyword", f.Keyword)
	}
	if !f.From.IsZero() {
		q.Set("from", f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format(dateLayout))
	}
	return q
}

// ReportFilter selects a station's report rows over a date range.
type ReportFilter struct {
	StationID shift.StationID
	From      time.Time
	To        time.Time
}

func (f ReportFilter) values() url.Values {
	q := url.Values{}
	if f.StationID != "" {
		q.Set("station_id", string(f.StationID))
	}
	if !f.From.IsZero() {
		q.Set("from", f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format(dateLayout))
	}
	return q
}

// reportBody is the JSON body of the export endpoints.
type reportBody struct {
	StationID string `json:"station_id,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	TeamID    string `json:"shift_team_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Keyword   string `json:"keyword,omitempty"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// ShiftPage is one page of a station's shift list.
type ShiftPage struct {
	Shifts   []shift.SalesShift
	Page     int
	LastPage int
	Total    int
}

func stationScope(id shift.StationID) string { return "station:" + string(id) }
func shiftScope(id shift.ShiftID) string     { return "shift:" + string(id) }

// =============================================================================
// SHIFTS
// =============================================================================

// ListStationShifts returns a page of the station's shifts.
func (c *Client) ListStationShifts(ctx context.Context, station shift.StationID, f ShiftFilter) (ShiftPage, error) {
	path := "/api/fuelStations/stations/" + url.PathEscape(string(station)) + "/getStationShifts"
	data, err := c.get(ctx, stationScope(station), path, f.values())
	if err != nil {
		return ShiftPage{}, err
	}

	var page factory.Page[factory.ShiftJSON]
	if err := json.Unmarshal(data, &page); err != nil {
		return ShiftPage{}, fmt.Errorf("failed to parse shift page: %w", err)
	}
	out := ShiftPage{Page: page.CurrentPage, LastPage: page.LastPage, Total: page.Total}
	for i, sj := range page.Data {
		s, err := sj.ToDomain()
		if err != nil {
			return ShiftPage{}, fmt.Errorf("shift %d of page: %w", i, err)
		}
		out.Shifts = append(out.Shifts, *s)
	}
	return out, nil
}

func shiftPath(id shift.ShiftID) string {
	return "/api/fuelStations/salesShifts/" + url.PathEscape(string(id))
}

func (c *Client) GetShift(ctx context.Context, id shift.ShiftID) (*shift.SalesShift, error) {
	data, err := c.get(ctx, shiftScope(id), shiftPath(id), nil)
	if err != nil {
		return nil, err
	}
	return factory.ParseShift(data)
}

// GetShiftFresh reads the shift from the backend even when a cached copy
// exists. Callers that save the shift back must read it this way.
func (c *Client) GetShiftFresh(ctx context.Context, id shift.ShiftID) (*shift.SalesShift, error) {
	data, err := c.fetch(ctx, shiftScope(id), shiftPath(id), nil)
	if err != nil {
		return nil, err
	}
	return factory.ParseShift(data)
}

// CreateShift posts a new shift and returns the backend's copy.
func (c *Client) CreateShift(ctx context.Context, s shift.SalesShift) (*shift.SalesShift, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/fuelStations/salesShifts", nil, factory.FromDomain(s))
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, stationScope(s.StationID))
	return factory.ParseShift(data)
}

// UpdateShift replaces a shift on the backend.
func (c *Client) UpdateShift(ctx context.Context, s shift.SalesShift) (*shift.SalesShift, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("update shift: %w", shift.ErrShiftNotFound)
	}
	data, err := c.do(ctx, http.MethodPut, shiftPath(s.ID), nil, factory.FromDomain(s))
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, stationScope(s.StationID), shiftScope(s.ID))
	return factory.ParseShift(data)
}

// DeleteShift removes a shift. The station is only used to drop its
// cached lists.
func (c *Client) DeleteShift(ctx context.Context, station shift.StationID, id shift.ShiftID) error {
	if _, err := c.do(ctx, http.MethodDelete, shiftPath(id), nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx, stationScope(station), shiftScope(id))
	return nil
}

// =============================================================================
// STATION DATA
// =============================================================================

// StationCatalog returns pumps, tanks, products, teams, ledgers and
// stakeholders of a station.
func (c *Client) StationCatalog(ctx context.Context, station shift.StationID) (shift.Catalog, error) {
	path := "/api/fuelStations/stations/" + url.PathEscape(string(station)) + "/catalog"
	data, err := c.get(ctx, stationScope(station), path, nil)
	if err != nil {
		return shift.Catalog{}, err
	}
	return factory.ParseCatalog(data)
}

// UserStations lists the stations a user may work at.
func (c *Client) UserStations(ctx context.Context, userID string) ([]shift.Station, error) {
	path := "/api/fuelStations/stations/" + url.PathEscape(userID) + "/userStations"
	data, err := c.get(ctx, "user:"+userID, path, nil)
	if err != nil {
		return nil, err
	}
	return factory.ParseStations(data)
}

// RetrieveLastReadings returns the closing readings of the station's
// most recent shift.
func (c *Client) RetrieveLastReadings(ctx context.Context, station shift.StationID) ([]shift.PumpReading, error) {
	path := "/api/fuelStations/stations/" + url.PathEscape(string(station)) + "/retrieveLastReadings"
	data, err := c.get(ctx, stationScope(station), path, nil)
	if err != nil {
		return nil, err
	}
	return factory.ParseReadings(data)
}

// ProductsSellingPrices returns the prices effective at a time.
func (c *Client) ProductsSellingPrices(ctx context.Context, station shift.StationID, at time.Time) ([]shift.ProductPrice, error) {
	q := url.Values{}
	q.Set("station_id", string(station))
	q.Set("date", at.UTC().Format(time.RFC3339))
	data, err := c.get(ctx, stationScope(station), "/api/fuelStations/salesShifts/productsSellingPrices", q)
	if err != nil {
		return nil, err
	}
	return factory.ParsePrices(data)
}

// Dippings returns the station's recorded tank dippings.
func (c *Client) Dippings(ctx context.Context, station shift.StationID) ([]shift.Dipping, error) {
	path := "/api/fuelStations/stations/" + url.PathEscape(string(station)) + "/dippings"
	data, err := c.get(ctx, stationScope(station), path, nil)
	if err != nil {
		return nil, err
	}
	return factory.ParseDippings(data)
}

// =============================================================================
// REPORTS AND EXPORTS
// =============================================================================

// DippingReport returns the dippings recorded over a date range.
func (c *Client) DippingReport(ctx context.Context, f ReportFilter) ([]shift.Dipping, error) {
	data, err := c.get(ctx, stationScope(f.StationID), "/api/fuelStations/dippings/dippingReport", f.values())
	if err != nil {
		return nil, err
	}
	return factory.ParseDippings(data)
}

func (c *Client) FuelVouchersReport(ctx context.Context, f ReportFilter) ([]shift.FuelVoucher, error) {
	data, err := c.get(ctx, stationScope(f.StationID), "/api/fuelStations/stations/fuelVouchersReport", f.values())
	if err != nil {
		return nil, err
	}
	return factory.ParseVouchers(data)
}

// ExportFuelVouchersExcel returns the backend-generated workbook bytes.
func (c *Client) ExportFuelVouchersExcel(ctx context.Context, f ReportFilter) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/api/exports/excel/fuelVouchers/", nil, reportBody{
		StationID: string(f.StationID),
		From:      formatDate(f.From),
		To:        formatDate(f.To),
	})
}

// ExportSalesShiftsExcel returns the backend-generated workbook bytes.
func (c *Client) ExportSalesShiftsExcel(ctx context.Context, station shift.StationID, f ShiftFilter) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/api/exports/excel/salesShifts/", nil, reportBody{
		StationID: string(station),
		From:      formatDate(f.From),
		To:        formatDate(f.To),
		TeamID:    string(f.TeamID),
		Status:    string(f.Status),
		Keyword:   f.Keyword,
	})
}
