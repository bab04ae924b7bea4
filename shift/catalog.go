package shift

// Catalog is the station configuration a shift is recorded against.
// It is fetched from the backend once per screen and used for lookups.
type Catalog struct {
	Station      Station
	Products     []Product
	Tanks        []Tank
	Pumps        []Pump
	Teams        []ShiftTeam
	Ledgers      []Ledger
	Stakeholders []Stakeholder
}

func (c Catalog) ProductName(id ProductID) string {
	for _, p := range c.Products {
		if p.ID == id {
			return p.Name
		}
	}
	return string(id)
}

func (c Catalog) PumpName(id PumpID) string {
	for _, p := range c.Pumps {
		if p.ID == id {
			return p.Name
		}
	}
	return string(id)
}

func (c Catalog) TankName(id TankID) string {
	for _, t := range c.Tanks {
		if t.ID == id {
			return t.Name
		}
	}
	return string(id)
}

func (c Catalog) LedgerName(id LedgerID) string {
	for _, l := range c.Ledgers {
		if l.ID == id {
			return l.Name
		}
	}
	return string(id)
}

func (c Catalog) StakeholderName(id StakeholderID) string {
	for _, s := range c.Stakeholders {
		if s.ID == id {
			return s.Name
		}
	}
	return string(id)
}

func (c Catalog) TeamName(id TeamID) string {
	for _, t := range c.Teams {
		if t.ID == id {
			return t.Name
		}
	}
	return string(id)
}

// RecipientName renders a voucher recipient for reports.
func (c Catalog) RecipientName(r VoucherRecipient) string {
	switch r.Kind {
	case RecipientStakeholder:
		return c.StakeholderName(r.StakeholderID)
	case RecipientExpense:
		return c.LedgerName(r.LedgerID)
	}
	return ""
}

// Pump returns the pump with the given ID.
func (c Catalog) Pump(id PumpID) (Pump, bool) {
	for _, p := range c.Pumps {
		if p.ID == id {
			return p, true
		}
	}
	return Pump{}, false
}
