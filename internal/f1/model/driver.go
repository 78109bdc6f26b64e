package model

import (
	"github.com/pitwall-live/pitwall/internal/f1/analytics"
	"github.com/pitwall-live/pitwall/internal/f1/codec"
)

// driverState is the writer-private mutable state for one participant slot.
// Everything the outside world sees is materialized into the snapshot on
// publish; append-only slices (history, warnings, positionsByLap) are shared
// with snapshots, everything mutable is copied.
type driverState struct {
	index  int
	active bool
	part   codec.ParticipantData
	state  DriverState

	// Live lap progress from the most recent lap-data packet.
	curLapNum     int
	curLapMS      uint32
	sector        int
	liveS1MS      uint32
	liveS2MS      uint32
	lapInvalid    bool
	lapProgress   float32 // percent of lap distance
	position      uint8
	gridPos       uint8
	deltaAheadMS  uint32
	deltaLeaderMS uint32
	pitStatus     codec.PitStatus
	numPitStops   uint8
	sectorStatus  [3]SectorStatus

	// Warning and penalty counters mirrored for change detection.
	penalties      uint8
	totalWarnings  uint8
	cornerWarnings uint8
	unservedDT     uint8
	unservedSG     uint8

	lastLapMS uint32
	bestLapMS uint32
	bestS1MS  uint32
	bestS2MS  uint32
	bestS3MS  uint32

	history        []CompletedLap // append-only
	positionsByLap []uint8        // append-only, index = lap-1
	warnings       []WarningEvent // append-only
	stints         []Stint        // copied on publish

	// Wear tracking for the open stint.
	stintWearSamples [analytics.Corners][]analytics.WearSample
	stintStartWear   [4]float32
	wearPred         *analytics.WearPrediction

	curWear       [4]float32
	damage        codec.CarDamageData
	haveDamage    bool
	status        codec.CarStatusData
	haveStatus    bool
	tyreSets      []TyreSetInfo
	fittedSet     int
	maxSpeedLap   float32 // top speed seen this lap, km/h
	speedTrapBest float32

	fuel           analytics.FuelEstimator
	classification *ClassificationInfo
}

func newDriverState(index int) *driverState {
	return &driverState{
		index:     index,
		state:     StateRacing,
		fittedSet: -1,
		sectorStatus: [3]SectorStatus{
			SectorNA, SectorNA, SectorNA,
		},
	}
}

// openStint returns the open stint, or nil.
func (d *driverState) openStint() *Stint {
	if n := len(d.stints); n > 0 && d.stints[n-1].Open {
		return &d.stints[n-1]
	}
	return nil
}

// currentCompound is the visual compound currently fitted, from car status.
func (d *driverState) currentCompound() string {
	if !d.haveStatus {
		return ""
	}
	return d.status.VisualTyreCompound.String()
}

// worstCornerWear is the maximum wear across the four corners.
func worstCornerWear(w [4]float32) float32 {
	max := w[0]
	for _, v := range w[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// ensureStint opens the first stint lazily once lap data flows.
func (d *driverState) ensureStint(lap int) {
	if len(d.stints) == 0 {
		d.stints = append(d.stints, Stint{
			StartLap: lap,
			EndLap:   lap,
			Open:     true,
			TyreSet:  d.fittedSet,
			Compound: d.currentCompound(),
		})
		d.stintStartWear = d.curWear
	}
}

// sectorStatusFor classifies a completed sector time. Tie rule: matching the
// session best exactly is green, not purple; purple requires strictly
// beating it.
func sectorStatusFor(timeMS, personalBestMS, sessionBestMS uint32, invalid bool) SectorStatus {
	if timeMS == 0 {
		return SectorNA
	}
	if invalid {
		return SectorInvalid
	}
	if sessionBestMS > 0 && timeMS < sessionBestMS {
		return SectorPurple
	}
	if personalBestMS == 0 || timeMS <= personalBestMS {
		return SectorGreen
	}
	return SectorYellow
}

// row materializes the published dashboard row.
func (d *driverState) row(fuelFromRegression bool, lapsLeft int) DriverRow {
	row := DriverRow{
		Index:          d.index,
		Active:         d.active,
		Name:           d.part.Name,
		TeamID:         d.part.TeamID,
		RaceNumber:     d.part.RaceNumber,
		IsAI:           d.part.AIControlled,
		Position:       d.position,
		GridPosition:   d.gridPos,
		State:          d.state,
		CurrentLap:     d.curLapNum,
		CompletedLaps:  len(d.history),
		LastLapMS:      d.lastLapMS,
		BestLapMS:      d.bestLapMS,
		CurrentLapMS:   d.curLapMS,
		Sector:         d.sector,
		SectorStatus:   d.sectorStatus,
		DeltaAheadMS:   d.deltaAheadMS,
		DeltaLeaderMS:  d.deltaLeaderMS,
		PitStatus:      d.pitStatus.String(),
		NumPitStops:    d.numPitStops,
		Penalties:      d.penalties,
		TotalWarnings:  d.totalWarnings,
		CornerWarnings: d.cornerWarnings,
		SpeedTrapKMH:   d.speedTrapBest,
		WearPrediction: d.wearPred,
	}

	if d.haveStatus {
		s := d.status
		row.Status = CarStatusInfo{
			FuelInTankKG:      s.FuelInTank,
			FuelCapacityKG:    s.FuelCapacity,
			FuelRemainingLaps: s.FuelRemainingLaps,
			FuelMix:           s.FuelMix.String(),
			ERSStorePct:       ersPercent(s.ERSStoreEnergy),
			ERSDeployMode:     s.ERSDeployMode.String(),
			ERSDeployedPct:    ersPercent(s.ERSDeployedThisLap),
			ERSHarvestedMGUK:  s.ERSHarvestedMGUK,
			ERSHarvestedMGUH:  s.ERSHarvestedMGUH,
			DRSAllowed:        s.DRSAllowed,
			VisualCompound:    s.VisualTyreCompound.String(),
			ActualCompound:    s.ActualTyreCompound.String(),
			TyreAgeLaps:       s.TyresAgeLaps,
		}
		row.FuelRateKGLap = d.fuel.Rate()
		if fuelFromRegression {
			if rr, ok := d.fuel.RegressionRate(); ok {
				row.FuelRateKGLap = rr
			}
		}
		if row.FuelRateKGLap > 0 {
			row.FuelLapsLeft = float64(s.FuelInTank) / row.FuelRateKGLap
		} else {
			row.FuelLapsLeft = float64(s.FuelRemainingLaps)
		}
		if row.FuelLapsLeft < 0 {
			row.FuelLapsLeft = 0
		}
		row.FuelSurplusLaps = d.fuel.SurplusLaps(float64(s.FuelInTank), lapsLeft, fuelFromRegression)
		row.FuelTargetAvgKG = analytics.TargetRateAverage(float64(s.FuelInTank), lapsLeft)
		row.FuelTargetNextKG = d.fuel.TargetRateNextLap(float64(s.FuelInTank), lapsLeft)
	}

	if d.haveDamage {
		dm := d.damage
		row.Damage = DamageInfo{
			TyresWear:      dm.TyresWear,
			TyresDamage:    dm.TyresDamage,
			FrontLeftWing:  dm.FrontLeftWingDamage,
			FrontRightWing: dm.FrontRightWingDamage,
			RearWing:       dm.RearWingDamage,
			Floor:          dm.FloorDamage,
			Diffuser:       dm.DiffuserDamage,
			Sidepod:        dm.SidepodDamage,
			GearboxDamage:  dm.GearBoxDamage,
			EngineDamage:   dm.EngineDamage,
		}
	}
	return row
}

// ersPercent converts a joule reading to percent of the regulation store.
func ersPercent(joules float32) float64 {
	pct := float64(joules) / codec.ERSMaxCapacityJoules * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
