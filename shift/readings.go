package shift

import (
	"github.com/shopspring/decimal"
)

// SeedOpeningReadings builds the next shift's readings from the previous
// shift's closing values. Every pump gets a reading; pumps never read
// before start at zero. Opening and closing are equal until the cashier
// enters a closing value.
func SeedOpeningReadings(last []PumpReading, pumps []Pump) []PumpReading {
	closing := make(map[PumpID]decimal.Decimal, len(last))
	for _, r := range last {
		closing[r.PumpID] = r.Closing
	}
	out := make([]PumpReading, 0, len(pumps))
	for _, p := range pumps {
		open := closing[p.ID]
		out = append(out, PumpReading{
			PumpID:    p.ID,
			ProductID: p.ProductID,
			TankID:    p.TankID,
			Opening:   open,
			Closing:   open,
		})
	}
	return out
}

// ReadingsForCashier returns the readings recorded by one cashier.
func ReadingsForCashier(readings []PumpReading, cashier CashierID) []PumpReading {
	var out []PumpReading
	for _, r := range readings {
		if r.CashierID == cashier {
			out = append(out, r)
		}
	}
	return out
}
