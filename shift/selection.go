package shift

// AvailablePumps returns the pumps not already assigned to another cashier
// in the same shift. Order of all is preserved.
func AvailablePumps(all []Pump, assignedElsewhere []PumpID) []Pump {
	taken := make(map[PumpID]struct{}, len(assignedElsewhere))
	for _, id := range assignedElsewhere {
		taken[id] = struct{}{}
	}
	out := make([]Pump, 0, len(all))
	for _, p := range all {
		if _, ok := taken[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// AssignedPumps lists the pumps read by cashiers other than the given one.
// Feed the result to AvailablePumps when building a cashier's pump picker.
func AssignedPumps(readings []PumpReading, except CashierID) []PumpID {
	var ids []PumpID
	seen := make(map[PumpID]struct{})
	for _, r := range readings {
		if r.CashierID == except {
			continue
		}
		if _, ok := seen[r.PumpID]; ok {
			continue
		}
		seen[r.PumpID] = struct{}{}
		ids = append(ids, r.PumpID)
	}
	return ids
}

// TanksForProduct returns the tanks linked to a product through a pump.
// A tank that stores the product but feeds no pump is not returned.
func TanksForProduct(tanks []Tank, pumps []Pump, productID ProductID) []Tank {
	linked := make(map[TankID]struct{})
	for _, p := range pumps {
		if p.ProductID == productID {
			linked[p.TankID] = struct{}{}
		}
	}
	var out []Tank
	for _, t := range tanks {
		if _, ok := linked[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// ProductsForPumps returns the distinct products sold by the given pumps,
// in first-seen order.
func ProductsForPumps(pumps []Pump) []ProductID {
	var out []ProductID
	seen := make(map[ProductID]struct{})
	for _, p := range pumps {
		if _, ok := seen[p.ProductID]; ok {
			continue
		}
		seen[p.ProductID] = struct{}{}
		out = append(out, p.ProductID)
	}
	return out
}
