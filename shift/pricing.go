package shift

import (
	"fmt"
	"time"
)

// PriceAsOf returns the latest price for a product effective at or before at.
func PriceAsOf(prices []ProductPrice, productID ProductID, at time.Time) (ProductPrice, error) {
	var (
		best  ProductPrice
		found bool
	)
	for _, p := range prices {
		if p.ProductID != productID || p.EffectiveAt.After(at) {
			continue
		}
		if !found || p.EffectiveAt.After(best.EffectiveAt) {
			best = p
			found = true
		}
	}
	if !found {
		return ProductPrice{}, fmt.Errorf("%w %s at %s", ErrPriceNotFound, productID, at.Format(time.RFC3339))
	}
	return best, nil
}

// PricesAsOf resolves the effective price of each product at a time,
// typically the shift start. Products without a price are skipped.
func PricesAsOf(prices []ProductPrice, products []ProductID, at time.Time) []ProductPrice {
	out := make([]ProductPrice, 0, len(products))
	for _, id := range products {
		if p, err := PriceAsOf(prices, id, at); err == nil {
			out = append(out, p)
		}
	}
	return out
}
