// Package model is the single-writer aggregator of all game state. One
// goroutine calls Apply with decoded packets; any number of readers take
// immutable snapshots and build detail views from them.
package model

import (
	"fmt"
	"sync/atomic"

	"github.com/pitwall-live/pitwall/internal/f1/analytics"
	"github.com/pitwall-live/pitwall/internal/f1/codec"
	"github.com/pitwall-live/pitwall/internal/monitoring"
	"github.com/pitwall-live/pitwall/internal/timeutil"
)

// Config carries the model's behavioural knobs.
type Config struct {
	// UDPActionCode injects a custom marker when the matching button bit
	// arrives in a BUTN event. Negative disables.
	UDPActionCode int

	// NumAdjacentCars is the default pace-comparator window per side.
	NumAdjacentCars int

	// FuelRateFromRegression selects the regression slope over the rolling
	// mean for the published fuel rate.
	FuelRateFromRegression bool

	// OnSessionEnd receives the archived model when the session ends or a
	// session swap replaces it. Called from the writer goroutine.
	OnSessionEnd func(*Archive)

	Clock timeutil.Clock
}

// Model owns the race state. Apply is single-writer; all other exported
// methods are safe for concurrent readers.
type Model struct {
	cfg   Config
	clock timeutil.Clock

	snap atomic.Pointer[Snapshot]

	physics physicsSlot

	// Writer-private state below.
	haveSession bool
	uid         uint64
	session     SessionInfo
	sessionType codec.SessionType
	drivers     [codec.MaxCars]*driverState
	numActive   int
	playerIdx   int
	counters    Counters
	lastFrame   map[codec.Kind]uint32
	records     analytics.SessionRecords
	compounds   *analytics.CompoundRecords
	traps       analytics.SpeedTrapRecords
	collisions  []Collision
	collisionKeys map[collisionKey]struct{}
	markers     []CustomMarker
	archived    bool
}

type collisionKey struct {
	low, high int
	lapOfLow  int
}

// New builds an empty model.
func New(cfg Config) *Model {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.NumAdjacentCars <= 0 {
		cfg.NumAdjacentCars = 2
	}
	m := &Model{cfg: cfg, clock: cfg.Clock}
	m.reset(0, 0)
	m.publish()
	return m
}

// reset replaces all writer state for a new session.
func (m *Model) reset(uid uint64, format uint16) {
	m.haveSession = false
	m.uid = uid
	m.session = SessionInfo{UID: uid, Format: format}
	m.sessionType = codec.SessionUnknown
	for i := range m.drivers {
		m.drivers[i] = newDriverState(i)
	}
	m.numActive = 0
	m.playerIdx = 0
	m.lastFrame = make(map[codec.Kind]uint32)
	m.records = analytics.SessionRecords{}
	m.compounds = analytics.NewCompoundRecords()
	m.traps = analytics.SpeedTrapRecords{}
	m.collisions = nil
	m.collisionKeys = make(map[collisionKey]struct{})
	m.markers = nil
	m.archived = false
	m.physics.reset()
}

// Snapshot returns the current immutable view. Never nil.
func (m *Model) Snapshot() *Snapshot { return m.snap.Load() }

// Apply folds one decoded packet into the model. Must be called from a
// single goroutine.
func (m *Model) Apply(pkt codec.Packet) {
	h := pkt.PacketHeader()

	if m.uid != 0 && h.SessionUID != 0 && h.SessionUID != m.uid {
		m.swapSession(h)
	}
	if m.uid == 0 && h.SessionUID != 0 {
		m.uid = h.SessionUID
		m.session.UID = h.SessionUID
		m.session.Format = h.PacketFormat
	}

	kind := pkt.Kind()
	if last, ok := m.lastFrame[kind]; ok && h.OverallFrameID < last {
		m.counters.Stale++
		// Publish so the drop is visible in the very next snapshot.
		m.publish()
		return
	}
	m.lastFrame[kind] = h.OverallFrameID
	m.counters.Applied++

	switch p := pkt.(type) {
	case *codec.SessionPacket:
		m.applySession(p)
	case *codec.ParticipantsPacket:
		m.applyParticipants(p)
	case *codec.LapDataPacket:
		m.applyLapData(p)
	case *codec.EventPacket:
		m.applyEvent(p)
	case *codec.CarStatusPacket:
		m.applyCarStatus(p)
	case *codec.CarDamagePacket:
		m.applyCarDamage(p)
	case *codec.SessionHistoryPacket:
		m.applySessionHistory(p)
	case *codec.TyreSetsPacket:
		m.applyTyreSets(p)
	case *codec.FinalClassificationPacket:
		m.applyFinalClassification(p)
	case *codec.CarTelemetryPacket:
		m.applyCarTelemetry(p)
		return // physics slot only, no snapshot publish
	case *codec.MotionPacket:
		m.physics.applyMotion(p)
		return
	case *codec.MotionExPacket:
		m.physics.applyMotionEx(p)
		return
	default:
		// Car setups, lobby info, time trial: nothing published yet.
		return
	}

	m.publish()
}

// swapSession archives the outgoing model and installs a fresh one seeded
// from the new packet's header.
func (m *Model) swapSession(h codec.Header) {
	monitoring.Logf("session change: %d -> %d", m.uid, h.SessionUID)
	m.archiveNow("session_swap")
	m.counters.SessionSwaps++
	swaps := m.counters.SessionSwaps
	applied := m.counters.Applied
	stale := m.counters.Stale
	viol := m.counters.InvariantViolations
	m.reset(h.SessionUID, h.PacketFormat)
	m.counters = Counters{Applied: applied, Stale: stale, InvariantViolations: viol, SessionSwaps: swaps}
	m.publish()
}

// archiveNow invokes the archive hook once per session's worth of data.
func (m *Model) archiveNow(reason string) {
	if m.archived || m.cfg.OnSessionEnd == nil || !m.haveSession {
		return
	}
	m.archived = true
	m.cfg.OnSessionEnd(m.buildArchive(reason))
}

func (m *Model) applySession(p *codec.SessionPacket) {
	m.haveSession = true
	m.sessionType = p.SessionType

	info := &m.session
	info.UID = p.Header.SessionUID
	info.Format = p.Header.PacketFormat
	info.Type = p.SessionType.String()
	info.IsRace = p.SessionType.IsRace()
	info.TrackID = p.TrackID
	info.TotalLaps = p.TotalLaps
	info.TrackLengthM = p.TrackLength
	info.TimeLeftSec = p.SessionTimeLeft
	info.DurationSec = p.SessionDuration
	info.PitSpeedLimit = p.PitSpeedLimit
	info.Weather = p.Weather.String()
	info.TrackTempC = p.TrackTemperature
	info.AirTempC = p.AirTemperature
	info.SafetyCar = p.SafetyCarStatus.String()
	info.PitWindowIdeal = p.PitStopWindowIdealLap
	info.PitWindowLatest = p.PitStopWindowLatest
	info.PlayerCarIndex = int(p.Header.PlayerCarIndex)
	m.playerIdx = int(p.Header.PlayerCarIndex)

	// nil when absent so the archive survives a JSON round trip unchanged.
	var forecast []ForecastSample
	for _, s := range p.Forecast {
		forecast = append(forecast, ForecastSample{
			SessionType:   s.SessionType.String(),
			TimeOffsetMin: s.TimeOffsetMin,
			Weather:       s.Weather.String(),
			TrackTempC:    s.TrackTemperature,
			AirTempC:      s.AirTemperature,
			RainPct:       s.RainPercentage,
		})
	}
	info.Forecast = forecast
}

func (m *Model) applyParticipants(p *codec.ParticipantsPacket) {
	m.numActive = int(p.NumActiveCars)
	for i, part := range p.Cars {
		d := m.drivers[i]
		d.active = true
		d.part = part
	}
	for i := m.numActive; i < codec.MaxCars; i++ {
		m.drivers[i].active = false
	}
	m.playerIdx = int(p.Header.PlayerCarIndex)
	m.session.PlayerCarIndex = m.playerIdx
}

func (m *Model) applyLapData(p *codec.LapDataPacket) {
	for i := 0; i < codec.MaxCars; i++ {
		m.applyLapDataCar(m.drivers[i], p.Cars[i])
	}
}

func (m *Model) applyLapDataCar(d *driverState, ld codec.LapData) {
	if d.state.IsTerminal() {
		return
	}
	newLap := int(ld.CurrentLapNum)
	if newLap == 0 {
		return
	}

	if d.curLapNum > 0 && newLap < d.curLapNum {
		// Lap number went backwards inside a session: bug signal.
		m.counters.InvariantViolations++
		return
	}

	if d.curLapNum == 0 {
		d.curLapNum = newLap
		d.ensureStint(newLap)
	}

	// Detect warning/penalty counter changes before mutating them.
	m.detectWarningChanges(d, ld)

	if newLap > d.curLapNum {
		m.completeLap(d, ld, newLap)
	}

	// Sector transitions within the current lap.
	ns := int(ld.Sector)
	if ns != d.sector {
		switch {
		case d.sector == 0 && ns == 1:
			d.liveS1MS = ld.Sector1TimeMS
			d.sectorStatus[0] = sectorStatusFor(d.liveS1MS, d.bestS1MS, m.records.FastestS1.TimeMS, ld.CurrentLapInvalid)
		case d.sector == 1 && ns == 2:
			d.liveS2MS = ld.Sector2TimeMS
			d.sectorStatus[1] = sectorStatusFor(d.liveS2MS, d.bestS2MS, m.records.FastestS2.TimeMS, ld.CurrentLapInvalid)
		}
		d.sector = ns
	}
	if ns == 0 {
		// Keep tracking the live sector-1 split until the boundary.
		d.liveS1MS = ld.Sector1TimeMS
	} else if ns == 1 {
		d.liveS2MS = ld.Sector2TimeMS
	}

	d.curLapMS = ld.CurrentLapTimeMS
	d.lapInvalid = ld.CurrentLapInvalid
	d.position = ld.CarPosition
	d.gridPos = ld.GridPosition
	d.deltaAheadMS = ld.DeltaToCarInFrontMS
	d.deltaLeaderMS = ld.DeltaToRaceLeaderMS
	d.pitStatus = ld.PitStatus
	d.numPitStops = ld.NumPitStops
	d.penalties = ld.Penalties
	d.totalWarnings = ld.TotalWarnings
	d.cornerWarnings = ld.CornerCuttingWarnings
	d.unservedDT = ld.NumUnservedDriveThrough
	d.unservedSG = ld.NumUnservedStopGo
	if m.session.TrackLengthM > 0 && ld.LapDistance > 0 {
		d.lapProgress = ld.LapDistance / float32(m.session.TrackLengthM) * 100
	}

	switch {
	case ld.ResultStatus == codec.ResultDNF:
		d.state = StateDNF
	case ld.ResultStatus == codec.ResultDisqualified:
		d.state = StateDSQ
	case ld.ResultStatus == codec.ResultRetired:
		d.state = StateRetired
	case ld.ResultStatus == codec.ResultFinished:
		d.state = StateFinished
	case ld.PitStatus != codec.PitNone:
		d.state = StatePitting
	default:
		d.state = StateRacing
	}
}

// completeLap moves the in-progress lap into history and rolls the stint,
// fuel, and record state forward.
func (m *Model) completeLap(d *driverState, ld codec.LapData, newLap int) {
	prevLap := d.curLapNum
	lapMS := ld.LastLapTimeMS

	s1 := d.liveS1MS
	s2 := d.liveS2MS
	var s3 uint32
	if lapMS > s1+s2 {
		s3 = lapMS - s1 - s2
	}

	valid := !d.lapInvalid

	lap := CompletedLap{
		LapNum:      prevLap,
		LapTimeMS:   lapMS,
		Sector1MS:   s1,
		Sector2MS:   s2,
		Sector3MS:   s3,
		Valid:       valid,
		TyreSet:     d.fittedSet,
		Compound:    d.currentCompound(),
		TopSpeedKMH: d.maxSpeedLap,
		Position:    ld.CarPosition,
	}
	if d.haveStatus {
		lap.FuelInTankKG = d.status.FuelInTank
		lap.ERSStorePct = ersPercent(d.status.ERSStoreEnergy)
		d.fuel.AddLapSample(prevLap, float64(d.status.FuelInTank))
	}
	d.history = append(d.history, lap)
	d.positionsByLap = append(d.positionsByLap, ld.CarPosition)

	// Final sector colours for the completed lap.
	d.sectorStatus[2] = sectorStatusFor(s3, d.bestS3MS, m.records.FastestS3.TimeMS, !valid)

	d.lastLapMS = lapMS
	if valid {
		if lapMS > 0 && (d.bestLapMS == 0 || lapMS < d.bestLapMS) {
			d.bestLapMS = lapMS
		}
		if s1 > 0 && (d.bestS1MS == 0 || s1 < d.bestS1MS) {
			d.bestS1MS = s1
		}
		if s2 > 0 && (d.bestS2MS == 0 || s2 < d.bestS2MS) {
			d.bestS2MS = s2
		}
		if s3 > 0 && (d.bestS3MS == 0 || s3 < d.bestS3MS) {
			d.bestS3MS = s3
		}
		m.records.UpdateLap(d.index, prevLap, lapMS, s1, s2, s3)
	}

	m.rollStint(d, prevLap, newLap)

	d.curLapNum = newLap
	d.maxSpeedLap = 0
	d.liveS1MS = 0
	d.liveS2MS = 0
	d.sectorStatus = [3]SectorStatus{SectorNA, SectorNA, SectorNA}
	d.sector = 0
}

// rollStint samples wear into the open stint and closes it when the fitted
// tyre set changed at the lap boundary.
func (m *Model) rollStint(d *driverState, prevLap, newLap int) {
	d.ensureStint(prevLap)
	st := d.openStint()

	// Wear sample at the boundary, from the most recent damage snapshot.
	if d.haveDamage {
		st.WearHistory = append(st.WearHistory, LapWear{Lap: prevLap, Wear: d.curWear})
		lapInStint := float64(prevLap - st.StartLap + 1)
		for c := 0; c < analytics.Corners; c++ {
			d.stintWearSamples[c] = append(d.stintWearSamples[c], analytics.WearSample{
				LapInStint: lapInStint,
				WearPct:    float64(d.curWear[c]),
			})
		}
	}

	compound := d.currentCompound()
	changed := (d.fittedSet >= 0 && st.TyreSet >= 0 && d.fittedSet != st.TyreSet) ||
		(compound != "" && st.Compound != "" && compound != st.Compound)

	if changed {
		st.EndLap = prevLap
		st.Open = false
		m.compounds.OnStintClosed(st.Compound, d.index,
			st.EndLap-st.StartLap+1,
			float64(worstCornerWear(d.curWear)-worstCornerWear(d.stintStartWear)))
		d.stints = append(d.stints, Stint{
			StartLap: newLap,
			EndLap:   newLap,
			Open:     true,
			TyreSet:  d.fittedSet,
			Compound: compound,
		})
		d.stintStartWear = d.curWear
		d.stintWearSamples = [analytics.Corners][]analytics.WearSample{}
		d.wearPred = nil
	} else {
		st.EndLap = newLap
		if st.Compound == "" {
			st.Compound = compound
		}
		if st.TyreSet < 0 {
			st.TyreSet = d.fittedSet
		}
		m.refreshWearPrediction(d, st)
	}
}

// refreshWearPrediction refits the corner wear curves and caches the
// race-end outlook for the row payload.
func (m *Model) refreshWearPrediction(d *driverState, st *Stint) {
	targetLap := float64(st.EndLap - st.StartLap + 1)
	if total := int(m.session.TotalLaps); total > st.EndLap {
		targetLap += float64(total - st.EndLap)
	}
	pred := analytics.PredictCorners(d.stintWearSamples, targetLap)
	if pred.FitKind == analytics.FitNone.String() {
		d.wearPred = nil
		return
	}
	d.wearPred = &pred
}

// detectWarningChanges appends warning events for counter increments seen in
// the incoming lap data.
func (m *Model) detectWarningChanges(d *driverState, ld codec.LapData) {
	check := func(kind string, oldV, newV uint8) {
		if newV == oldV {
			return
		}
		d.warnings = append(d.warnings, WarningEvent{
			Lap:         int(ld.CurrentLapNum),
			Sector:      int(ld.Sector),
			LapProgress: d.lapProgress,
			Kind:        kind,
			OldValue:    int(oldV),
			NewValue:    int(newV),
		})
	}
	check("corner_cutting", d.cornerWarnings, ld.CornerCuttingWarnings)
	check("total_warnings", d.totalWarnings, ld.TotalWarnings)
	check("time_penalty", d.penalties, ld.Penalties)
	check("drive_through", d.unservedDT, ld.NumUnservedDriveThrough)
	check("stop_go", d.unservedSG, ld.NumUnservedStopGo)
}

func (m *Model) applyEvent(p *codec.EventPacket) {
	switch p.Code {
	case codec.EventSessionStarted:
		// A fresh green light with the same UID keeps the model.
	case codec.EventSessionEnded, codec.EventChequeredFlag:
		if p.Code == codec.EventSessionEnded {
			m.archiveNow("session_end")
		}
	case codec.EventFastestLap:
		if e := p.FastestLap; e != nil {
			lapMS := uint32(e.LapTime * 1000)
			m.records.UpdateLap(int(e.CarIdx), m.drivers[int(e.CarIdx)%codec.MaxCars].curLapNum, lapMS, 0, 0, 0)
		}
	case codec.EventRetirement:
		if e := p.Retirement; e != nil && int(e.CarIdx) < codec.MaxCars {
			m.drivers[e.CarIdx].state = StateRetired
		}
	case codec.EventPenaltyIssued:
		if e := p.Penalty; e != nil && int(e.CarIdx) < codec.MaxCars {
			d := m.drivers[e.CarIdx]
			d.warnings = append(d.warnings, WarningEvent{
				Lap:         int(e.LapNum),
				Sector:      d.sector,
				LapProgress: d.lapProgress,
				Kind:        e.PenaltyType.String(),
				NewValue:    int(e.Time),
			})
		}
	case codec.EventSpeedTrap:
		if e := p.SpeedTrap; e != nil {
			if m.traps.Observe(int(e.CarIdx), e.Speed) {
				if int(e.CarIdx) < codec.MaxCars {
					m.drivers[e.CarIdx].speedTrapBest = e.Speed
				}
			}
		}
	case codec.EventCollision:
		if e := p.Collision; e != nil {
			m.recordCollision(int(e.Vehicle1Idx), int(e.Vehicle2Idx))
		}
	case codec.EventButton:
		if e := p.Buttons; e != nil && m.cfg.UDPActionCode >= 0 {
			if e.ButtonStatus&uint32(m.cfg.UDPActionCode) != 0 {
				m.addMarkerLocked("udp_action")
			}
		}
	}
}

// recordCollision stores a contact keyed by the ordered pair and the lower
// index's lap; repeats within the same lap coalesce.
func (m *Model) recordCollision(i, j int) {
	if i == j || i < 0 || j < 0 || i >= codec.MaxCars || j >= codec.MaxCars {
		return
	}
	low, high := i, j
	if low > high {
		low, high = high, low
	}
	key := collisionKey{low: low, high: high, lapOfLow: m.drivers[low].curLapNum}
	if _, seen := m.collisionKeys[key]; seen {
		return
	}
	m.collisionKeys[key] = struct{}{}
	m.collisions = append(m.collisions, Collision{
		Driver1:    low,
		Driver2:    high,
		Driver1Lap: m.drivers[low].curLapNum,
		Driver2Lap: m.drivers[high].curLapNum,
	})
}

func (m *Model) applyCarStatus(p *codec.CarStatusPacket) {
	for i := 0; i < codec.MaxCars; i++ {
		d := m.drivers[i]
		d.status = p.Cars[i]
		d.haveStatus = true
	}
}

func (m *Model) applyCarDamage(p *codec.CarDamagePacket) {
	for i := 0; i < codec.MaxCars; i++ {
		d := m.drivers[i]
		d.damage = p.Cars[i]
		d.curWear = p.Cars[i].TyresWear
		d.haveDamage = true
	}
}

// applySessionHistory backfills authoritative lap and sector times. The
// history packet's sector splits are trusted over locally reconstructed
// ones.
func (m *Model) applySessionHistory(p *codec.SessionHistoryPacket) {
	idx := int(p.CarIdx)
	if idx >= codec.MaxCars {
		return
	}
	d := m.drivers[idx]
	for i := range d.history {
		lapNum := d.history[i].LapNum
		if lapNum < 1 || lapNum > len(p.Laps) {
			continue
		}
		h := p.Laps[lapNum-1]
		if h.LapTimeMS == 0 {
			continue
		}
		// History entries are shared with snapshots; replace, not mutate.
		lap := d.history[i]
		lap.LapTimeMS = h.LapTimeMS
		lap.Sector1MS = h.Sector1TimeMS
		lap.Sector2MS = h.Sector2TimeMS
		lap.Sector3MS = h.Sector3TimeMS
		lap.Valid = h.ValidFlags&codec.LapValidOverall != 0
		if lap != d.history[i] {
			fresh := make([]CompletedLap, len(d.history))
			copy(fresh, d.history)
			fresh[i] = lap
			d.history = fresh
		}
		if lap.Valid {
			m.records.UpdateLap(idx, lapNum, h.LapTimeMS, h.Sector1TimeMS, h.Sector2TimeMS, h.Sector3TimeMS)
		}
	}
	if n := int(p.BestLapTimeLapNum); n >= 1 && n <= len(p.Laps) {
		if t := p.Laps[n-1].LapTimeMS; t > 0 && (d.bestLapMS == 0 || t < d.bestLapMS) {
			d.bestLapMS = t
		}
	}
}

func (m *Model) applyTyreSets(p *codec.TyreSetsPacket) {
	idx := int(p.CarIdx)
	if idx >= codec.MaxCars {
		return
	}
	d := m.drivers[idx]
	sets := make([]TyreSetInfo, 0, codec.TyreSetCount)
	for i, s := range p.Sets {
		sets = append(sets, TyreSetInfo{
			Index:          i,
			ActualCompound: s.ActualCompound.String(),
			VisualCompound: s.VisualCompound.String(),
			WearPct:        s.Wear,
			Available:      s.Available,
			LifeSpanLaps:   s.LifeSpan,
			UsableLifeLaps: s.UsableLife,
			DeltaTimeMS:    s.LapDeltaTimeMS,
			Fitted:         s.Fitted,
		})
	}
	d.tyreSets = sets
	d.fittedSet = int(p.FittedIdx)
}

func (m *Model) applyFinalClassification(p *codec.FinalClassificationPacket) {
	for i, c := range p.Cars {
		if i >= codec.MaxCars {
			break
		}
		d := m.drivers[i]
		d.classification = &ClassificationInfo{
			Position:     c.Position,
			NumLaps:      c.NumLaps,
			GridPosition: c.GridPosition,
			Points:       c.Points,
			NumPitStops:  c.NumPitStops,
			ResultStatus: c.ResultStatus.String(),
			BestLapMS:    c.BestLapTimeMS,
			RaceTimeSec:  c.TotalRaceTimeSec,
			PenaltiesSec: c.PenaltiesTimeSec,
		}
		// Classification overrides inferred position and state.
		d.position = c.Position
		switch c.ResultStatus {
		case codec.ResultDNF:
			d.state = StateDNF
		case codec.ResultDisqualified:
			d.state = StateDSQ
		case codec.ResultRetired:
			d.state = StateRetired
		case codec.ResultFinished, codec.ResultNotClassified:
			d.state = StateFinished
		}
		if c.BestLapTimeMS > 0 && (d.bestLapMS == 0 || c.BestLapTimeMS < d.bestLapMS) {
			d.bestLapMS = c.BestLapTimeMS
		}
	}
	m.archiveNow("final_classification")
}

func (m *Model) applyCarTelemetry(p *codec.CarTelemetryPacket) {
	for i := 0; i < codec.MaxCars; i++ {
		d := m.drivers[i]
		if s := float32(p.Cars[i].Speed); s > d.maxSpeedLap {
			d.maxSpeedLap = s
		}
	}
	m.physics.applyTelemetry(p)
}

// AddMarker injects a custom marker from an external trigger (IPC command
// or dashboard action). Safe only from the writer goroutine; external
// surfaces route it through the apply loop.
func (m *Model) AddMarker(eventType string) {
	m.addMarkerLocked(eventType)
	m.publish()
}

func (m *Model) addMarkerLocked(eventType string) {
	p := m.drivers[m.playerIdx%codec.MaxCars]
	m.markers = append(m.markers, CustomMarker{
		Lap:          p.curLapNum,
		Sector:       p.sector,
		LapProgress:  p.lapProgress,
		EventType:    eventType,
		TrackID:      m.session.TrackID,
		CurrentLapMS: p.curLapMS,
	})
	monitoring.Debugf("custom marker: %s lap=%d sector=%d", eventType, p.curLapNum, p.sector)
}

// publish materializes a new immutable snapshot and swaps it in.
func (m *Model) publish() {
	lapsLeft := 0
	if m.session.IsRace {
		playerLap := m.drivers[m.playerIdx%codec.MaxCars].curLapNum
		if total := int(m.session.TotalLaps); total > playerLap {
			lapsLeft = total - playerLap
		}
	}

	s := &Snapshot{
		Session:    m.session,
		NumActive:  m.numActive,
		UpdatedAt:  m.clock.Now(),
		Counters:   m.counters,
		records:    m.records,
		compounds:  m.compounds.All(),
		collisions: m.collisions,
		markers:    m.markers,
	}

	s.Drivers = make([]DriverRow, codec.MaxCars)
	for i, d := range m.drivers {
		s.Drivers[i] = d.row(m.cfg.FuelRateFromRegression, lapsLeft)
		s.Drivers[i].IsPlayer = i == m.playerIdx

		stints := make([]Stint, len(d.stints))
		copy(stints, d.stints)

		var cls *ClassificationInfo
		if d.classification != nil {
			c := *d.classification
			cls = &c
		}
		s.details[i] = snapshotDetail{
			history:        d.history,
			stints:         stints,
			tyreSets:       d.tyreSets,
			warnings:       d.warnings,
			classification: cls,
			positions:      d.positionsByLap,
		}
	}
	m.snap.Store(s)
}

// DriverDetail returns the extended per-driver record from the current
// snapshot.
func (m *Model) DriverDetail(index int) (DriverDetail, error) {
	s := m.Snapshot()
	if index < 0 || index >= codec.MaxCars {
		return DriverDetail{}, fmt.Errorf("driver index %d out of range", index)
	}
	det := s.details[index]

	var collisions []Collision
	for _, c := range s.collisions {
		if c.Driver1 == index || c.Driver2 == index {
			collisions = append(collisions, c)
		}
	}
	return DriverDetail{
		Row:            s.Drivers[index],
		LapHistory:     det.history,
		Stints:         det.stints,
		TyreSets:       det.tyreSets,
		Warnings:       det.warnings,
		Collisions:     collisions,
		Classification: det.classification,
		Positions:      det.positions,
	}, nil
}

// RaceStats returns the aggregated records view from the current snapshot.
func (m *Model) RaceStats() RaceStats {
	s := m.Snapshot()
	stats := RaceStats{
		SessionUID:      s.Session.UID,
		Records:         s.records,
		CompoundRecords: s.compounds,
		Collisions:      s.collisions,
		Markers:         s.markers,
		SpeedTraps:      make(map[int]float32),
		Positions:       make(map[int][]uint8),
	}
	for i := range s.Drivers {
		if v := s.Drivers[i].SpeedTrapKMH; v > 0 {
			stats.SpeedTraps[i] = v
		}
		if p := s.details[i].positions; len(p) > 0 {
			stats.Positions[i] = p
		}
	}
	return stats
}

// Pace builds the player-centric adjacent-car comparison from the current
// snapshot. n <= 0 uses the configured default window.
func (m *Model) Pace(n int) PaceComparison {
	if n <= 0 {
		n = m.cfg.NumAdjacentCars
	}
	s := m.Snapshot()
	playerIdx := s.Session.PlayerCarIndex
	if playerIdx < 0 || playerIdx >= codec.MaxCars {
		return PaceComparison{PlayerIdx: playerIdx}
	}

	positions := make([]uint8, codec.MaxCars)
	for i := range s.Drivers {
		positions[i] = s.Drivers[i].Position
	}
	ahead, behind := analytics.AdjacentCars(positions, playerIdx, n)

	playerLap := lastLapOf(s, playerIdx)
	build := func(indices []int) []PaceEntry {
		entries := make([]PaceEntry, 0, len(indices))
		for _, idx := range indices {
			other := lastLapOf(s, idx)
			row := s.Drivers[idx]
			e := PaceEntry{
				Index:       idx,
				Name:        row.Name,
				Position:    row.Position,
				LastLapMS:   row.LastLapMS,
				ERSStorePct: row.Status.ERSStorePct,
				ERSMode:     row.Status.ERSDeployMode,
			}
			if playerLap != nil && other != nil {
				e.DeltaLapMS = int64(other.LapTimeMS) - int64(playerLap.LapTimeMS)
				e.DeltaS1MS = int64(other.Sector1MS) - int64(playerLap.Sector1MS)
				e.DeltaS2MS = int64(other.Sector2MS) - int64(playerLap.Sector2MS)
				e.DeltaS3MS = int64(other.Sector3MS) - int64(playerLap.Sector3MS)
			}
			entries = append(entries, e)
		}
		return entries
	}
	return PaceComparison{
		PlayerIdx: playerIdx,
		Ahead:     build(ahead),
		Behind:    build(behind),
	}
}

func lastLapOf(s *Snapshot, idx int) *CompletedLap {
	h := s.details[idx].history
	if len(h) == 0 {
		return nil
	}
	return &h[len(h)-1]
}
