package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuelEstimatorRollingRate(t *testing.T) {
	var e FuelEstimator
	// 1.8 kg/lap burn: 50.0, 48.2, 46.4, 44.6.
	e.AddLapSample(1, 50.0)
	e.AddLapSample(2, 48.2)
	e.AddLapSample(3, 46.4)
	e.AddLapSample(4, 44.6)

	assert.Equal(t, 3, e.SampleCount())
	assert.InDelta(t, 1.8, e.Rate(), 1e-9)
	assert.InDelta(t, 11.111, e.RemainingLaps(20.0), 1e-3)
}

func TestFuelEstimatorIgnoresStaleLaps(t *testing.T) {
	var e FuelEstimator
	e.AddLapSample(3, 40.0)
	e.AddLapSample(3, 38.0) // duplicate lap
	e.AddLapSample(2, 39.0) // lap went backwards
	e.AddLapSample(4, 38.0)
	assert.Equal(t, 1, e.SampleCount())
	assert.InDelta(t, 2.0, e.Rate(), 1e-9)
}

func TestFuelEstimatorRefuelDoesNotPollute(t *testing.T) {
	var e FuelEstimator
	e.AddLapSample(1, 10.0)
	e.AddLapSample(2, 8.0)
	e.AddLapSample(3, 50.0) // flashback or practice refuel: negative delta
	e.AddLapSample(4, 48.0)
	assert.Equal(t, 2, e.SampleCount())
	assert.InDelta(t, 2.0, e.Rate(), 1e-9)
}

func TestFuelEstimatorRegression(t *testing.T) {
	var e FuelEstimator
	for lap := 1; lap <= 6; lap++ {
		e.AddLapSample(lap, 60.0-1.5*float64(lap))
	}
	rate, ok := e.RegressionRate()
	require.True(t, ok)
	assert.InDelta(t, 1.5, rate, 1e-9)

	// With 10 laps of fuel and 8 laps left, surplus is 2.
	surplus := e.SurplusLaps(15.0, 8, true)
	assert.InDelta(t, 2.0, surplus, 1e-6)
}

func TestFuelEstimatorRegressionNeedsSamples(t *testing.T) {
	var e FuelEstimator
	e.AddLapSample(1, 50)
	e.AddLapSample(2, 48)
	_, ok := e.RegressionRate()
	assert.False(t, ok)
}

func TestTargetRateModes(t *testing.T) {
	assert.InDelta(t, 2.0, TargetRateAverage(20.0, 10), 1e-9)
	assert.Zero(t, TargetRateAverage(20.0, 0))

	var e FuelEstimator
	e.AddLapSample(1, 24.0)
	e.AddLapSample(2, 22.0)
	// 2 kg/lap rolling rate, 20 kg in tank, 6 laps left: may burn
	// 20 - 2*5 = 10 this lap.
	assert.InDelta(t, 10.0, e.TargetRateNextLap(20.0, 6), 1e-9)
	assert.InDelta(t, 20.0, e.TargetRateNextLap(20.0, 1), 1e-9)
}

func TestFitWearQuadratic(t *testing.T) {
	// wear = 2 + 1*lap + 0.5*lap^2, exact fit.
	var samples []WearSample
	for lap := 1.0; lap <= 5; lap++ {
		samples = append(samples, WearSample{LapInStint: lap, WearPct: 2 + lap + 0.5*lap*lap})
	}
	fit := FitWear(samples)
	require.Equal(t, FitQuadratic, fit.Kind)
	assert.InDelta(t, 2.0, fit.Coeff[0], 1e-6)
	assert.InDelta(t, 1.0, fit.Coeff[1], 1e-6)
	assert.InDelta(t, 0.5, fit.Coeff[2], 1e-6)

	v, ok := fit.PredictAt(6)
	require.True(t, ok)
	assert.InDelta(t, 26.0, v, 1e-6)
}

func TestFitWearClampsAtHundred(t *testing.T) {
	// Steep wear: {5, 15, 30} at laps 1..3 must clamp at lap 10.
	fit := FitWear([]WearSample{
		{LapInStint: 1, WearPct: 5},
		{LapInStint: 2, WearPct: 15},
		{LapInStint: 3, WearPct: 30},
	})
	require.NotEqual(t, FitNone, fit.Kind)
	v, ok := fit.PredictAt(10)
	require.True(t, ok)
	assert.LessOrEqual(t, v, 100.0)
	assert.Greater(t, v, 50.0)
}

func TestFitWearFallsBackToLinear(t *testing.T) {
	// Two samples cannot support a quadratic.
	fit := FitWear([]WearSample{
		{LapInStint: 1, WearPct: 4},
		{LapInStint: 2, WearPct: 8},
	})
	require.Equal(t, FitLinear, fit.Kind)
	v, ok := fit.PredictAt(5)
	require.True(t, ok)
	assert.InDelta(t, 20.0, v, 1e-6)
}

func TestFitWearNotEnoughData(t *testing.T) {
	fit := FitWear([]WearSample{{LapInStint: 1, WearPct: 4}})
	assert.Equal(t, FitNone, fit.Kind)
	_, ok := fit.PredictAt(3)
	assert.False(t, ok)
}

func TestPredictCorners(t *testing.T) {
	var perCorner [Corners][]WearSample
	for c := 0; c < Corners; c++ {
		rate := float64(c + 1)
		for lap := 1.0; lap <= 3; lap++ {
			perCorner[c] = append(perCorner[c], WearSample{LapInStint: lap, WearPct: rate * lap})
		}
	}
	p := PredictCorners(perCorner, 10)
	assert.True(t, p.HaveAll)
	assert.InDelta(t, 10.0, p.PerCorner[CornerRL], 1e-6)
	assert.InDelta(t, 40.0, p.PerCorner[CornerFR], 1e-6)
	assert.InDelta(t, 25.0, p.Average, 1e-6)
	assert.InDelta(t, 40.0, p.MaxCorner, 1e-6)
}

func TestSessionRecords(t *testing.T) {
	var rec SessionRecords
	assert.True(t, rec.UpdateLap(4, 10, 92000, 30000, 31000, 31000))
	assert.Equal(t, 4, rec.FastestLap.DriverIdx)

	// Equal time does not take the record.
	assert.False(t, rec.UpdateLap(7, 11, 92000, 30000, 31000, 31000))
	assert.Equal(t, 4, rec.FastestLap.DriverIdx)

	// A faster sector alone updates just that record.
	assert.True(t, rec.UpdateLap(7, 12, 93000, 29500, 32000, 32000))
	assert.Equal(t, 7, rec.FastestS1.DriverIdx)
	assert.Equal(t, 4, rec.FastestLap.DriverIdx)

	// Zero times are missing data, not records.
	assert.False(t, rec.UpdateLap(9, 13, 0, 0, 0, 0))
}

func TestCompoundRecords(t *testing.T) {
	c := NewCompoundRecords()
	c.OnStintClosed("medium", 0, 5, 40) // 8 %/lap
	c.OnStintClosed("medium", 3, 8, 48) // 6 %/lap, longer
	c.OnStintClosed("soft", 1, 4, 50)

	all := c.All()
	byName := map[string]CompoundRecord{}
	for _, r := range all {
		byName[r.Compound] = r
	}
	med := byName["medium"]
	assert.Equal(t, 8, med.LongestStint)
	assert.Equal(t, 3, med.LongestDriver)
	assert.InDelta(t, 6.0, med.LowestWearPerLap, 1e-9)
	assert.Equal(t, 3, med.LowestDriver)
	assert.InDelta(t, 48.0, med.HighestTotalWear, 1e-9)
	assert.Equal(t, 2, med.Stints)

	soft := byName["soft"]
	assert.Equal(t, 4, soft.LongestStint)
	assert.Equal(t, 1, soft.LongestDriver)
}

func TestSpeedTrapRecords(t *testing.T) {
	var s SpeedTrapRecords
	assert.True(t, s.Observe(3, 310.5))
	assert.False(t, s.Observe(3, 305.0))
	assert.True(t, s.Observe(3, 322.1))
	assert.Equal(t, float32(322.1), s.Max(3))
	assert.Zero(t, s.Max(9))
	assert.False(t, s.Observe(-1, 300))
}

func TestAdjacentCars(t *testing.T) {
	positions := make([]uint8, 22)
	// Grid: driver i holds position i+1 for the first 10 drivers.
	for i := 0; i < 10; i++ {
		positions[i] = uint8(i + 1)
	}

	ahead, behind := AdjacentCars(positions, 4, 2) // P5
	assert.Equal(t, []int{3, 2}, ahead)            // P4 then P3
	assert.Equal(t, []int{5, 6}, behind)           // P6 then P7

	// Leader has nobody ahead.
	ahead, behind = AdjacentCars(positions, 0, 2)
	assert.Empty(t, ahead)
	assert.Equal(t, []int{1, 2}, behind)

	// Unclassified reference car yields nothing.
	ahead, behind = AdjacentCars(positions, 15, 2)
	assert.Nil(t, ahead)
	assert.Nil(t, behind)
}
