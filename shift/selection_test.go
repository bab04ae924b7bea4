package shift_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fuel-station/shift"
)

var (
	stationPumps = []shift.Pump{
		{ID: "p1", TankID: "t1", ProductID: "A", Name: "Pump 1"},
		{ID: "p2", TankID: "t1", ProductID: "A", Name: "Pump 2"},
		{ID: "p3", TankID: "t2", ProductID: "B", Name: "Pump 3"},
	}
	stationTanks = []shift.Tank{
		{ID: "t1", ProductID: "A", Name: "Diesel tank"},
		{ID: "t2", ProductID: "B", Name: "Super tank"},
		{ID: "t3", ProductID: "A", Name: "Diesel reserve"},
	}
)

func TestAvailablePumps_ExcludesAssigned(t *testing.T) {
	// GIVEN: cashier c2 already reads p2
	readings := []shift.PumpReading{
		reading("p1", "A", "c1", "0", "10"),
		reading("p2", "A", "c2", "0", "10"),
	}

	// WHEN: building c1's picker
	pumps := shift.AvailablePumps(stationPumps, shift.AssignedPumps(readings, "c1"))

	// THEN: p2 is gone, c1's own pump stays, order is kept
	require.Len(t, pumps, 2)
	assert.Equal(t, shift.PumpID("p1"), pumps[0].ID)
	assert.Equal(t, shift.PumpID("p3"), pumps[1].ID)
}

func TestAvailablePumps_NothingAssigned(t *testing.T) {
	assert.Equal(t, stationPumps, shift.AvailablePumps(stationPumps, nil))
}

func TestAssignedPumps_Deduplicates(t *testing.T) {
	readings := []shift.PumpReading{
		reading("p1", "A", "c2", "0", "10"),
		reading("p1", "A", "c3", "10", "20"),
		reading("p3", "B", "c3", "0", "5"),
	}
	assert.Equal(t, []shift.PumpID{"p1", "p3"}, shift.AssignedPumps(readings, "c1"))
}

func TestTanksForProduct_OnlyPumpLinkedTanks(t *testing.T) {
	tanks := shift.TanksForProduct(stationTanks, stationPumps, "A")

	// t3 stores A but feeds no pump
	require.Len(t, tanks, 1)
	assert.Equal(t, shift.TankID("t1"), tanks[0].ID)

	assert.Empty(t, shift.TanksForProduct(stationTanks, stationPumps, "C"))
}

func TestProductsForPumps(t *testing.T) {
	assert.Equal(t, []shift.ProductID{"A", "B"}, shift.ProductsForPumps(stationPumps))
}

// =============================================================================
// OPENING READINGS
// =============================================================================

func TestSeedOpeningReadings_CarriesClosingForward(t *testing.T) {
	// GIVEN: the previous shift read p1 and p3 only
	last := []shift.PumpReading{
		reading("p1", "A", "c1", "1000", "1250.5"),
		reading("p3", "B", "c2", "80", "120"),
	}

	// WHEN: seeding the next shift
	seeded := shift.SeedOpeningReadings(last, stationPumps)

	// THEN: every pump gets a reading, unread pumps start at zero
	require.Len(t, seeded, 3)
	assertDec(t, "1250.5", seeded[0].Opening)
	assertDec(t, "1250.5", seeded[0].Closing)
	assertDec(t, "0", seeded[1].Opening)
	assertDec(t, "120", seeded[2].Opening)
	assert.Equal(t, shift.TankID("t2"), seeded[2].TankID)
	for _, r := range seeded {
		assert.True(t, r.Sold().IsZero())
		assert.Empty(t, r.CashierID)
	}
}

func TestReadingsForCashier(t *testing.T) {
	readings := []shift.PumpReading{
		reading("p1", "A", "c1", "0", "10"),
		reading("p2", "A", "c2", "0", "10"),
		reading("p3", "B", "c1", "0", "10"),
	}
	got := shift.ReadingsForCashier(readings, "c1")
	require.Len(t, got, 2)
	assert.Equal(t, shift.PumpID("p3"), got[1].PumpID)
}
