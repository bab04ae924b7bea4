package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/fuel-station/shift"
)

// CatalogJSON is the station configuration payload: one station with its
// products, tanks, pumps, shift teams, ledgers and stakeholders.
type CatalogJSON struct {
	Station      StationJSON   `json:"station"`
	Products     []ProductJSON `json:"products"`
	Tanks        []TankJSON    `json:"tanks"`
	Pumps        []PumpJSON    `json:"pumps"`
	Teams        []TeamJSON    `json:"shift_teams"`
	Ledgers      []NamedJSON   `json:"ledgers"`
	Stakeholders []NamedJSON   `json:"stakeholders"`
}

type StationJSON struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

type ProductJSON struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type TankJSON struct {
	ID        ID              `json:"id"`
	StationID ID              `json:"station_id"`
	ProductID ID              `json:"product_id"`
	Name      string          `json:"name"`
	Capacity  decimal.Decimal `json:"capacity"`
}

type PumpJSON struct {
	ID        ID     `json:"id"`
	StationID ID     `json:"station_id"`
	TankID    ID     `json:"tank_id"`
	ProductID ID     `json:"product_id"`
	Name      string `json:"name"`
}

type TeamJSON struct {
	ID        ID     `json:"id"`
	StationID ID     `json:"station_id"`
	Name      string `json:"name"`
	Cashiers  []ID   `json:"cashiers"`
}

// NamedJSON covers ledgers and stakeholders, which only carry a name.
type NamedJSON struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// ParseCatalog parses a station catalog payload, bare or enveloped.
func ParseCatalog(data []byte) (shift.Catalog, error) {
	var cj CatalogJSON
	if err := json.Unmarshal(unwrapData(data), &cj); err != nil {
		return shift.Catalog{}, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return cj.ToDomain(), nil
}

// ToDomain converts the wire catalog. Pumps and tanks without a station
// inherit the catalog's station.
func (cj CatalogJSON) ToDomain() shift.Catalog {
	station := shift.StationID(cj.Station.ID)
	orStation := func(id ID) shift.StationID {
		if id == "" {
			return station
		}
		return shift.StationID(id)
	}

	cat := shift.Catalog{
		Station: shift.Station{ID: station, Name: cj.Station.Name, Location: cj.Station.Location},
	}
	for _, p := range cj.Products {
		cat.Products = append(cat.Products, shift.Product{ID: shift.ProductID(p.ID), Name: p.Name})
	}
	for _, t := range cj.Tanks {
		cat.Tanks = append(cat.Tanks, shift.Tank{
			ID:        shift.TankID(t.ID),
			StationID: orStation(t.StationID),
			ProductID: shift.ProductID(t.ProductID),
			Name:      t.Name,
			Capacity:  t.Capacity,
		})
	}
	for _, p := range cj.Pumps {
		cat.Pumps = append(cat.Pumps, shift.Pump{
			ID:        shift.PumpID(p.ID),
			StationID: orStation(p.StationID),
			TankID:    shift.TankID(p.TankID),
			ProductID: shift.ProductID(p.ProductID),
			Name:      p.Name,
		})
	}
	for _, t := range cj.Teams {
		team := shift.ShiftTeam{ID: shift.TeamID(t.ID), StationID: orStation(t.StationID), Name: t.Name}
		for _, c := range t.Cashiers {
			team.Members = append(team.Members, shift.CashierID(c))
		}
		cat.Teams = append(cat.Teams, team)
	}
	for _, l := range cj.Ledgers {
		cat.Ledgers = append(cat.Ledgers, shift.Ledger{ID: shift.LedgerID(l.ID), Name: l.Name})
	}
	for _, s := range cj.Stakeholders {
		cat.Stakeholders = append(cat.Stakeholders, shift.Stakeholder{ID: shift.StakeholderID(s.ID), Name: s.Name})
	}
	return cat
}

// CatalogFromDomain converts a catalog to its wire form.
func CatalogFromDomain(c shift.Catalog) CatalogJSON {
	cj := CatalogJSON{
		Station: StationJSON{ID: ID(c.Station.ID), Name: c.Station.Name, Location: c.Station.Location},
	}
	for _, p := range c.Products {
		cj.Products = append(cj.Products, ProductJSON{ID: ID(p.ID), Name: p.Name})
	}
	cj.Tanks = TanksToJSON(c.Tanks)
	cj.Pumps = PumpsToJSON(c.Pumps)
	for _, t := range c.Teams {
		tj := TeamJSON{ID: ID(t.ID), StationID: ID(t.StationID), Name: t.Name}
		for _, m := range t.Members {
			tj.Cashiers = append(tj.Cashiers, ID(m))
		}
		cj.Teams = append(cj.Teams, tj)
	}
	for _, l := range c.Ledgers {
		cj.Ledgers = append(cj.Ledgers, NamedJSON{ID: ID(l.ID), Name: l.Name})
	}
	for _, s := range c.Stakeholders {
		cj.Stakeholders = append(cj.Stakeholders, NamedJSON{ID: ID(s.ID), Name: s.Name})
	}
	return cj
}

func TanksToJSON(tanks []shift.Tank) []TankJSON {
	out := make([]TankJSON, 0, len(tanks))
	for _, t := range tanks {
		out = append(out, TankJSON{
			ID: ID(t.ID), StationID: ID(t.StationID), ProductID: ID(t.ProductID), Name: t.Name, Capacity: t.Capacity,
		})
	}
	return out
}

func PumpsToJSON(pumps []shift.Pump) []PumpJSON {
	out := make([]PumpJSON, 0, len(pumps))
	for _, p := range pumps {
		out = append(out, PumpJSON{
			ID: ID(p.ID), StationID: ID(p.StationID), TankID: ID(p.TankID), ProductID: ID(p.ProductID), Name: p.Name,
		})
	}
	return out
}

// ParseStations parses a userStations response.
func ParseStations(data []byte) ([]shift.Station, error) {
	var rows []StationJSON
	if err := unmarshalList(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse stations JSON: %w", err)
	}
	out := make([]shift.Station, 0, len(rows))
	for _, s := range rows {
		out = append(out, shift.Station{ID: shift.StationID(s.ID), Name: s.Name, Location: s.Location})
	}
	return out, nil
}
