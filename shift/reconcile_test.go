package shift_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fuel-station/shift"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got.String())
}

func reading(pump, product, cashier, opening, closing string) shift.PumpReading {
	return shift.PumpReading{
		PumpID:    shift.PumpID(pump),
		ProductID: shift.ProductID(product),
		TankID:    shift.TankID("tank-" + product),
		CashierID: shift.CashierID(cashier),
		Opening:   d(opening),
		Closing:   d(closing),
	}
}

func price(product, p string) shift.ProductPrice {
	return shift.ProductPrice{
		ProductID:   shift.ProductID(product),
		Price:       d(p),
		EffectiveAt: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

func voucher(product, cashier, qty string) shift.FuelVoucher {
	return shift.FuelVoucher{
		CashierID: shift.CashierID(cashier),
		ProductID: shift.ProductID(product),
		Quantity:  d(qty),
		Recipient: shift.StakeholderRecipient("acme-transport"),
	}
}

func adjustment(product string, op shift.Operator, qty string) shift.TankAdjustment {
	return shift.TankAdjustment{
		TankID:    shift.TankID("tank-" + product),
		ProductID: shift.ProductID(product),
		Quantity:  d(qty),
		Operator:  op,
	}
}

func other(ledger, amount string) shift.LedgerDistribution {
	return shift.LedgerDistribution{LedgerID: shift.LedgerID(ledger), Kind: shift.DistributionOther, Amount: d(amount)}
}

// scenarioInput is the worked example: two pumps on A at 2500, one voucher,
// one other distribution.
func scenarioInput() shift.Input {
	return shift.Input{
		PumpReadings: []shift.PumpReading{
			reading("p1", "A", "c1", "1000", "1200"),
			reading("p2", "A", "c1", "500", "600"),
		},
		ProductPrices:      []shift.ProductPrice{price("A", "2500")},
		FuelVouchers:       []shift.FuelVoucher{voucher("A", "c1", "20")},
		OtherDistributions: []shift.LedgerDistribution{other("bank", "200000")},
		MainLedgerID:       "cash",
		CollectedAmount:    dp("500000"),
	}
}

// =============================================================================
// END-TO-END SCENARIO
// =============================================================================

func TestReconcile_EndToEndScenario(t *testing.T) {
	rec, err := shift.Reconcile(scenarioInput())
	require.NoError(t, err)

	a, ok := rec.Product("A")
	require.True(t, ok)
	assertDec(t, "300", a.PumpSoldQty)
	assertDec(t, "750000", rec.TotalProductsAmount)
	assertDec(t, "50000", rec.TotalVoucherAmount)
	assertDec(t, "700000", rec.CashRemaining)
	assertDec(t, "200000", rec.TotalOtherDistributed)
	assertDec(t, "500000", rec.MainLedgerAmount)
	assert.True(t, rec.Balanced)

	require.NotNil(t, rec.Variance)
	assertDec(t, "0", *rec.Variance)
	assert.True(t, rec.CollectionBalanced())
	assert.Empty(t, rec.Warnings)
}

func TestReconcile_DistributionsListMainFirst(t *testing.T) {
	rec, err := shift.Reconcile(scenarioInput())
	require.NoError(t, err)

	require.Len(t, rec.Distributions, 2)
	assert.Equal(t, shift.DistributionMain, rec.Distributions[0].Kind)
	assert.Equal(t, shift.LedgerID("cash"), rec.Distributions[0].LedgerID)
	assertDec(t, "500000", rec.Distributions[0].Amount)
	assert.Equal(t, shift.DistributionOther, rec.Distributions[1].Kind)
	assertDec(t, "200000", rec.Distributions[1].Amount)
}

// =============================================================================
// AGGREGATION ORDER
// =============================================================================

func TestReconcile_ReadingOrderDoesNotMatter(t *testing.T) {
	readings := []shift.PumpReading{
		reading("p1", "A", "c1", "1000", "1200.5"),
		reading("p2", "B", "c1", "10", "90"),
		reading("p3", "A", "c2", "500", "600.25"),
		reading("p4", "B", "c2", "0", "7.125"),
	}
	prices := []shift.ProductPrice{price("A", "2500"), price("B", "2700")}

	forward, err := shift.Reconcile(shift.Input{PumpReadings: readings, ProductPrices: prices})
	require.NoError(t, err)

	reversed := make([]shift.PumpReading, len(readings))
	for i, r := range readings {
		reversed[len(readings)-1-i] = r
	}
	backward, err := shift.Reconcile(shift.Input{PumpReadings: reversed, ProductPrices: prices})
	require.NoError(t, err)

	for _, id := range []shift.ProductID{"A", "B"} {
		f, _ := forward.Product(id)
		b, _ := backward.Product(id)
		assert.True(t, f.PumpSoldQty.Equal(b.PumpSoldQty), "product %s", id)
	}
	assert.True(t, forward.TotalProductsAmount.Equal(backward.TotalProductsAmount))
	assert.Equal(t, forward.Products[0].ProductID, backward.Products[0].ProductID)
}

// =============================================================================
// BALANCE IDENTITY AND CLAMPING
// =============================================================================

func TestReconcile_BalanceIdentityWithoutClamp(t *testing.T) {
	cases := []struct {
		name  string
		other []shift.LedgerDistribution
	}{
		{"no other distributions", nil},
		{"partial", []shift.LedgerDistribution{other("bank", "100000"), other("momo", "50000.5")}},
		{"exactly all", []shift.LedgerDistribution{other("bank", "700000")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := scenarioInput()
			in.OtherDistributions = tc.other
			rec, err := shift.Reconcile(in)
			require.NoError(t, err)

			assert.True(t, rec.CashRemaining.Equal(rec.MainLedgerAmount.Add(rec.TotalOtherDistributed)))
			assert.True(t, rec.Balanced)
			assert.True(t, rec.Shortfall.IsZero())
		})
	}
}

func TestReconcile_OverAllocationClampsMainLedger(t *testing.T) {
	// GIVEN: other distributions above cash remaining (700000)
	in := scenarioInput()
	in.OtherDistributions = []shift.LedgerDistribution{other("bank", "750000")}

	// WHEN: reconciling
	rec, err := shift.Reconcile(in)
	require.NoError(t, err)

	// THEN: main ledger is clamped at zero, and the shortfall is surfaced
	assertDec(t, "0", rec.MainLedgerAmount)
	assertDec(t, "50000", rec.Shortfall)
	assert.False(t, rec.Balanced)
	assert.True(t, rec.HasWarning(shift.WarnOverAllocated))
}

// =============================================================================
// ADJUSTMENT SIGN CONVENTION
// =============================================================================

func TestReconcile_AdjustmentSigns(t *testing.T) {
	base := shift.Input{
		PumpReadings:  []shift.PumpReading{reading("p1", "A", "c1", "0", "100")},
		ProductPrices: []shift.ProductPrice{price("A", "10")},
	}

	t.Run("loss increases sold quantity", func(t *testing.T) {
		in := base
		in.TankAdjustments = []shift.TankAdjustment{adjustment("A", shift.OpLoss, "10")}
		rec, err := shift.Reconcile(in)
		require.NoError(t, err)
		a, _ := rec.Product("A")
		assertDec(t, "110", a.AdjustedQty)
		assertDec(t, "1100", rec.TotalProductsAmount)
	})

	t.Run("gain reduces sold quantity", func(t *testing.T) {
		in := base
		in.TankAdjustments = []shift.TankAdjustment{adjustment("A", shift.OpGain, "10")}
		rec, err := shift.Reconcile(in)
		require.NoError(t, err)
		a, _ := rec.Product("A")
		assertDec(t, "90", a.AdjustedQty)
		assertDec(t, "900", rec.TotalProductsAmount)
	})

	t.Run("both accumulate", func(t *testing.T) {
		in := base
		in.TankAdjustments = []shift.TankAdjustment{
			adjustment("A", shift.OpGain, "10"),
			adjustment("A", shift.OpLoss, "4"),
			adjustment("A", shift.OpLoss, "1"),
		}
		rec, err := shift.Reconcile(in)
		require.NoError(t, err)
		a, _ := rec.Product("A")
		assertDec(t, "10", a.GainQty)
		assertDec(t, "5", a.LossQty)
		assertDec(t, "95", a.AdjustedQty)
	})
}

// =============================================================================
// PER-CASHIER BREAKDOWN
// =============================================================================

func TestReconcile_CashierLinesSumToCashRemaining(t *testing.T) {
	in := shift.Input{
		PumpReadings: []shift.PumpReading{
			reading("p1", "A", "c1", "0", "100"),
			reading("p2", "B", "c2", "0", "50"),
		},
		ProductPrices: []shift.ProductPrice{price("A", "10"), price("B", "20")},
		TankAdjustments: []shift.TankAdjustment{
			func() shift.TankAdjustment {
				a := adjustment("B", shift.OpLoss, "5")
				a.CashierID = "c2"
				return a
			}(),
		},
		FuelVouchers: []shift.FuelVoucher{voucher("A", "c1", "10")},
		OtherTransactions: []shift.OtherTransaction{
			{CashierID: "c2", LedgerID: "fuel-expense", Amount: d("30"), Description: "generator"},
		},
	}

	rec, err := shift.Reconcile(in)
	require.NoError(t, err)

	c1, ok := rec.Cashier("c1")
	require.True(t, ok)
	assertDec(t, "1000", c1.SalesAmount)
	assertDec(t, "100", c1.VoucherAmount)
	assertDec(t, "900", c1.ExpectedCash)

	c2, ok := rec.Cashier("c2")
	require.True(t, ok)
	assertDec(t, "1000", c2.SalesAmount)
	assertDec(t, "100", c2.AdjustmentAmount)
	assertDec(t, "30", c2.OtherAmount)
	assertDec(t, "1070", c2.ExpectedCash)

	sum := decimal.Zero
	for _, c := range rec.Cashiers {
		sum = sum.Add(c.ExpectedCash)
	}
	assert.True(t, sum.Equal(rec.CashRemaining))
	assertDec(t, "1970", rec.CashRemaining)
}

// =============================================================================
// INPUT ERRORS AND WARNINGS
// =============================================================================

func TestReconcile_ClosingBelowOpeningRejected(t *testing.T) {
	_, err := shift.Reconcile(shift.Input{
		PumpReadings: []shift.PumpReading{reading("p7", "A", "c1", "500", "499.9")},
	})

	var rangeErr *shift.ReadingRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, shift.PumpID("p7"), rangeErr.PumpID)
	assert.True(t, errors.Is(err, shift.ErrReadingRange))
	assert.True(t, shift.IsClientError(err))
}

func TestReconcile_InvalidOperatorRejected(t *testing.T) {
	_, err := shift.Reconcile(shift.Input{
		TankAdjustments: []shift.TankAdjustment{adjustment("A", "*", "1")},
	})
	assert.ErrorIs(t, err, shift.ErrInvalidOperator)
}

func TestReconcile_NegativeQuantitiesRejected(t *testing.T) {
	_, err := shift.Reconcile(shift.Input{
		FuelVouchers: []shift.FuelVoucher{voucher("A", "c1", "-1")},
	})
	assert.ErrorIs(t, err, shift.ErrNegativeQuantity)

	_, err = shift.Reconcile(shift.Input{
		OtherDistributions: []shift.LedgerDistribution{other("bank", "-5")},
	})
	assert.ErrorIs(t, err, shift.ErrNegativeAmount)
}

func TestReconcile_VoucherWithoutPumpIsFlagged(t *testing.T) {
	// GIVEN: product B has a voucher but no pump sold it
	in := scenarioInput()
	in.ProductPrices = append(in.ProductPrices, price("B", "3000"))
	in.FuelVouchers = append(in.FuelVouchers, voucher("B", "c1", "5"))

	rec, err := shift.Reconcile(in)
	require.NoError(t, err)

	// THEN: the voucher still counts against cash and a warning is raised
	assertDec(t, "65000", rec.TotalVoucherAmount)
	assertDec(t, "685000", rec.CashRemaining)
	assert.True(t, rec.HasWarning(shift.WarnVoucherWithoutSales))
}

func TestReconcile_MissingPriceIsFlagged(t *testing.T) {
	rec, err := shift.Reconcile(shift.Input{
		PumpReadings: []shift.PumpReading{reading("p1", "A", "c1", "0", "10")},
	})
	require.NoError(t, err)

	a, _ := rec.Product("A")
	assert.False(t, a.PriceKnown)
	assertDec(t, "0", a.Amount)
	assert.True(t, rec.HasWarning(shift.WarnMissingPrice))
}

func TestReconcile_LatestPricePerProductWins(t *testing.T) {
	older := price("A", "2400")
	newer := price("A", "2500")
	newer.EffectiveAt = older.EffectiveAt.Add(24 * time.Hour)

	rec, err := shift.Reconcile(shift.Input{
		PumpReadings:  []shift.PumpReading{reading("p1", "A", "c1", "0", "1")},
		ProductPrices: []shift.ProductPrice{newer, older},
	})
	require.NoError(t, err)
	assertDec(t, "2500", rec.TotalProductsAmount)
}

func TestReconcile_NoCollectedAmountLeavesVarianceUnset(t *testing.T) {
	in := scenarioInput()
	in.CollectedAmount = nil

	rec, err := shift.Reconcile(in)
	require.NoError(t, err)
	assert.Nil(t, rec.Variance)
	assert.False(t, rec.CollectionBalanced())
}

func TestReconcile_VarianceSign(t *testing.T) {
	in := scenarioInput()

	in.CollectedAmount = dp("499000")
	rec, err := shift.Reconcile(in)
	require.NoError(t, err)
	assertDec(t, "-1000", *rec.Variance)

	in.CollectedAmount = dp("500000.004")
	rec, err = shift.Reconcile(in)
	require.NoError(t, err)
	assert.True(t, rec.CollectionBalanced(), "within tolerance")
}
