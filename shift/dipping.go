package shift

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DippingVariance compares the volume a tank lost according to manual
// dipping with the quantity its pumps recorded as sold.
type DippingVariance struct {
	TankID      TankID
	DippedQty   decimal.Decimal // opening + received - closing
	PumpSoldQty decimal.Decimal // readings through this tank, after adjustments
	Variance    decimal.Decimal // DippedQty - PumpSoldQty; positive means unexplained loss
}

// Dipped is the volume the tank lost by dipping: opening + received - closing.
func (d Dipping) Dipped() decimal.Decimal {
	return d.Opening.Add(d.Received).Sub(d.Closing)
}

// DippingVariances computes one variance per dipped tank.
// Adjustments are applied with the same sign convention as Reconcile.
func DippingVariances(dippings []Dipping, readings []PumpReading, adjustments []TankAdjustment) []DippingVariance {
	sold := make(map[TankID]decimal.Decimal)
	for _, r := range readings {
		sold[r.TankID] = sold[r.TankID].Add(r.Sold())
	}
	for _, a := range adjustments {
		sold[a.TankID] = sold[a.TankID].Add(a.SignedQuantity())
	}

	out := make([]DippingVariance, 0, len(dippings))
	for _, d := range dippings {
		dipped := d.Dipped()
		pumped := sold[d.TankID]
		out = append(out, DippingVariance{
			TankID:      d.TankID,
			DippedQty:   dipped,
			PumpSoldQty: pumped,
			Variance:    dipped.Sub(pumped),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TankID < out[j].TankID })
	return out
}
