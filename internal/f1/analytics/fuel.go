// Package analytics derives higher-order race insight from the state the
// race model accumulates: fuel-rate estimation, tyre-wear prediction,
// lap/sector/compound record tracking, and pace comparison. Everything here
// is pure computation; the race model owns the data and the triggering.
package analytics

import (
	"gonum.org/v1/gonum/stat"
)

// Window sizes for the rolling fuel-rate estimate.
const (
	fuelDeltaWindow = 10 // deltas retained
	fuelRateWindow  = 3  // deltas averaged into the current rate
)

// FuelEstimator tracks one driver's per-lap fuel consumption. Samples are
// fuel-in-tank readings at lap boundaries; consecutive samples yield per-lap
// deltas.
type FuelEstimator struct {
	lastLap  int
	lastFuel float64
	primed   bool

	deltas []float64 // most recent last, len <= fuelDeltaWindow

	// Per-lap consumption curve for the regression: x = lap index,
	// y = cumulative fuel consumed since the first sample.
	lapIdx   []float64
	consumed []float64
	firstF   float64
}

// AddLapSample records the fuel in tank at the completion of the given lap.
// Out-of-order or duplicate laps are ignored.
func (e *FuelEstimator) AddLapSample(lap int, fuelInTank float64) {
	if e.primed && lap <= e.lastLap {
		return
	}
	if !e.primed {
		e.primed = true
		e.firstF = fuelInTank
	} else {
		delta := e.lastFuel - fuelInTank
		if delta > 0 {
			e.deltas = append(e.deltas, delta)
			if len(e.deltas) > fuelDeltaWindow {
				e.deltas = e.deltas[1:]
			}
		}
	}
	e.lastLap = lap
	e.lastFuel = fuelInTank

	e.lapIdx = append(e.lapIdx, float64(lap))
	e.consumed = append(e.consumed, e.firstF-fuelInTank)
}

// SampleCount returns the number of recorded deltas.
func (e *FuelEstimator) SampleCount() int { return len(e.deltas) }

// Rate returns the rolling fuel rate in kg/lap: the mean of the most recent
// deltas. Zero until at least one delta exists.
func (e *FuelEstimator) Rate() float64 {
	if len(e.deltas) == 0 {
		return 0
	}
	window := e.deltas
	if len(window) > fuelRateWindow {
		window = window[len(window)-fuelRateWindow:]
	}
	return stat.Mean(window, nil)
}

// RegressionRate fits fuel consumed against lap index by least squares and
// returns the slope in kg/lap. ok is false with fewer than three samples or
// a non-positive slope.
func (e *FuelEstimator) RegressionRate() (rate float64, ok bool) {
	if len(e.lapIdx) < 3 {
		return 0, false
	}
	_, slope := stat.LinearRegression(e.lapIdx, e.consumed, nil, false)
	if slope <= 0 {
		return 0, false
	}
	return slope, true
}

// RemainingLaps converts the current tank contents into laps of fuel using
// the rolling rate. Never negative; zero when no rate is available.
func (e *FuelEstimator) RemainingLaps(fuelInTank float64) float64 {
	rate := e.Rate()
	if rate <= 0 || fuelInTank <= 0 {
		return 0
	}
	return fuelInTank / rate
}

// SurplusLaps is remaining fuel laps minus race laps left. useRegression
// selects the regression slope instead of the rolling mean.
func (e *FuelEstimator) SurplusLaps(fuelInTank float64, lapsLeft int, useRegression bool) float64 {
	rate := e.Rate()
	if useRegression {
		if rr, ok := e.RegressionRate(); ok {
			rate = rr
		}
	}
	if rate <= 0 {
		return 0
	}
	return fuelInTank/rate - float64(lapsLeft)
}

// TargetRateAverage is the kg/lap that exactly empties the tank over the
// laps left: the "average remaining" target mode.
func TargetRateAverage(fuelInTank float64, lapsLeft int) float64 {
	if lapsLeft <= 0 || fuelInTank <= 0 {
		return 0
	}
	return fuelInTank / float64(lapsLeft)
}

// TargetRateNextLap is the kg the driver may burn on the next lap while
// still finishing at the current rolling rate: the "next lap" target mode.
func (e *FuelEstimator) TargetRateNextLap(fuelInTank float64, lapsLeft int) float64 {
	if lapsLeft <= 0 || fuelInTank <= 0 {
		return 0
	}
	if lapsLeft == 1 {
		return fuelInTank
	}
	return fuelInTank - e.Rate()*float64(lapsLeft-1)
}
