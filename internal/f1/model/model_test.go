package model

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-live/pitwall/internal/f1/codec"
	"github.com/pitwall-live/pitwall/internal/timeutil"
)

// frameCounter hands out increasing frame ids across a test.
type frameCounter struct{ n uint32 }

func (f *frameCounter) header(uid uint64) codec.Header {
	f.n++
	return codec.Header{
		PacketFormat:   codec.FormatF124,
		SessionUID:     uid,
		FrameID:        f.n,
		OverallFrameID: f.n,
		PlayerCarIndex: 0,
	}
}

func newTestModel(t *testing.T, cfg Config) *Model {
	t.Helper()
	if cfg.Clock == nil {
		cfg.Clock = timeutil.NewMockClock(time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC))
	}
	if cfg.UDPActionCode == 0 {
		cfg.UDPActionCode = -1
	}
	return New(cfg)
}

func sessionPacket(h codec.Header, totalLaps uint8) *codec.SessionPacket {
	return &codec.SessionPacket{
		Header:      h,
		SessionType: codec.SessionRace,
		TrackID:     7, // silverstone
		TotalLaps:   totalLaps,
		TrackLength: 5891,
	}
}

func statusPacket(h codec.Header, car int, fuel float32, visual codec.VisualCompound) *codec.CarStatusPacket {
	p := &codec.CarStatusPacket{Header: h}
	p.Cars[car] = codec.CarStatusData{
		FuelInTank:         fuel,
		FuelCapacity:       110,
		VisualTyreCompound: visual,
		ActualTyreCompound: codec.CompoundC3,
		ERSStoreEnergy:     2_000_000,
	}
	return p
}

func lapPacket(h codec.Header, car int, lapNum uint8, lastLapMS uint32) *codec.LapDataPacket {
	p := &codec.LapDataPacket{Header: h}
	p.Cars[car] = codec.LapData{
		CurrentLapNum: lapNum,
		LastLapTimeMS: lastLapMS,
		CarPosition:   uint8(car + 1),
		ResultStatus:  codec.ResultActive,
		DriverStatus:  codec.DriverOnTrack,
	}
	return p
}

func damagePacket(h codec.Header, car int, wear float32) *codec.CarDamagePacket {
	p := &codec.CarDamagePacket{Header: h}
	p.Cars[car] = codec.CarDamageData{
		TyresWear: [4]float32{wear, wear, wear, wear},
	}
	return p
}

func TestSessionSwapArchivesAndResets(t *testing.T) {
	var archived []*Archive
	m := newTestModel(t, Config{OnSessionEnd: func(a *Archive) { archived = append(archived, a) }})
	var fc frameCounter

	m.Apply(sessionPacket(fc.header(100), 52))
	for i := 0; i < 99; i++ {
		m.Apply(lapPacket(fc.header(100), 0, 1, 0))
	}
	require.Equal(t, uint64(100), m.Snapshot().Session.UID)

	// One packet with a different UID swaps the model.
	m.Apply(lapPacket(fc.header(200), 0, 1, 0))

	s := m.Snapshot()
	assert.Equal(t, uint64(200), s.Session.UID)
	assert.Zero(t, s.NumActive)
	assert.Empty(t, s.Session.Type)
	assert.Equal(t, uint64(1), s.Counters.SessionSwaps)

	require.Len(t, archived, 1)
	assert.Equal(t, "session_swap", archived[0].Reason)
	assert.Equal(t, uint64(100), archived[0].Session.UID)
}

func TestLapCompletionBuildsHistory(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	m.Apply(sessionPacket(fc.header(1), 10))
	m.Apply(statusPacket(fc.header(1), 0, 50, codec.VisualMedium))
	m.Apply(lapPacket(fc.header(1), 0, 1, 0))
	m.Apply(lapPacket(fc.header(1), 0, 2, 92_000))
	m.Apply(lapPacket(fc.header(1), 0, 3, 91_500))

	det, err := m.DriverDetail(0)
	require.NoError(t, err)
	require.Len(t, det.LapHistory, 2)
	assert.Equal(t, 1, det.LapHistory[0].LapNum)
	assert.Equal(t, uint32(92_000), det.LapHistory[0].LapTimeMS)
	assert.Equal(t, "medium", det.LapHistory[0].Compound)
	assert.Equal(t, float32(50), det.LapHistory[0].FuelInTankKG)

	row := m.Snapshot().Drivers[0]
	assert.Equal(t, 3, row.CurrentLap)
	assert.Equal(t, 2, row.CompletedLaps)
	assert.Equal(t, uint32(91_500), row.LastLapMS)
	assert.Equal(t, uint32(91_500), row.BestLapMS)
}

func TestLapNumberBackwardsIsInvariantViolation(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	m.Apply(lapPacket(fc.header(1), 0, 5, 0))
	m.Apply(lapPacket(fc.header(1), 0, 3, 0))

	s := m.Snapshot()
	assert.Equal(t, uint64(1), s.Counters.InvariantViolations)
	assert.Equal(t, 5, s.Drivers[0].CurrentLap)
}

func TestStalePacketDropped(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	m.Apply(lapPacket(fc.header(1), 0, 1, 0))
	m.Apply(lapPacket(fc.header(1), 0, 2, 0))
	stale := lapPacket(codec.Header{PacketFormat: codec.FormatF124, SessionUID: 1, OverallFrameID: 1}, 0, 9, 0)
	m.Apply(stale)

	s := m.Snapshot()
	assert.Equal(t, uint64(1), s.Counters.Stale)
	assert.Equal(t, 2, s.Drivers[0].CurrentLap)
}

func TestStintClosureOnCompoundChange(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	m.Apply(sessionPacket(fc.header(1), 20))
	m.Apply(statusPacket(fc.header(1), 0, 60, codec.VisualMedium))
	// Complete laps 1..4 on mediums.
	for lap := uint8(1); lap <= 5; lap++ {
		m.Apply(lapPacket(fc.header(1), 0, lap, 90_000))
	}
	// Pit at the end of lap 5: softs fitted before the crossing.
	m.Apply(statusPacket(fc.header(1), 0, 55, codec.VisualSoft))
	m.Apply(lapPacket(fc.header(1), 0, 6, 94_000))

	det, err := m.DriverDetail(0)
	require.NoError(t, err)
	require.Len(t, det.Stints, 2)

	first, second := det.Stints[0], det.Stints[1]
	assert.Equal(t, 1, first.StartLap)
	assert.Equal(t, 5, first.EndLap)
	assert.False(t, first.Open)
	assert.Equal(t, "medium", first.Compound)

	assert.Equal(t, 6, second.StartLap)
	assert.True(t, second.Open)
	assert.Equal(t, "soft", second.Compound)

	stats := m.RaceStats()
	require.Len(t, stats.CompoundRecords, 1)
	assert.Equal(t, "medium", stats.CompoundRecords[0].Compound)
	assert.Equal(t, 5, stats.CompoundRecords[0].LongestStint)
}

func TestFuelEstimateInRow(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	m.Apply(sessionPacket(fc.header(1), 50))
	fuels := []float32{50.0, 48.2, 46.4, 44.6}
	for i, f := range fuels {
		m.Apply(statusPacket(fc.header(1), 0, f, codec.VisualMedium))
		m.Apply(lapPacket(fc.header(1), 0, uint8(i+2), 90_000))
	}
	m.Apply(statusPacket(fc.header(1), 0, 20.0, codec.VisualMedium))
	m.Apply(lapPacket(fc.header(1), 0, 5, 90_000))

	row := m.Snapshot().Drivers[0]
	assert.InDelta(t, 1.8, row.FuelRateKGLap, 1e-5)
	assert.InDelta(t, 11.111, row.FuelLapsLeft, 1e-2)

	// 50 total laps, lap 5 in progress: 45 to go on 20 kg at 1.8 kg/lap.
	assert.InDelta(t, 20.0/1.8-45, row.FuelSurplusLaps, 1e-2)
	assert.InDelta(t, 20.0/45, row.FuelTargetAvgKG, 1e-3)
	assert.InDelta(t, 20.0-1.8*44, row.FuelTargetNextKG, 1e-2)
}

func TestPlayerRowFlagged(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	m.Apply(sessionPacket(fc.header(1), 10))
	m.Apply(lapPacket(fc.header(1), 1, 1, 0))

	snap := m.Snapshot()
	assert.True(t, snap.Drivers[snap.Session.PlayerCarIndex].IsPlayer)
	for i, d := range snap.Drivers {
		if i != snap.Session.PlayerCarIndex {
			assert.False(t, d.IsPlayer, "car %d", i)
		}
	}
}

func TestWearPredictionClamped(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	m.Apply(sessionPacket(fc.header(1), 30))
	m.Apply(statusPacket(fc.header(1), 0, 60, codec.VisualSoft))
	m.Apply(lapPacket(fc.header(1), 0, 1, 0))
	wear := []float32{5, 15, 30}
	for i, w := range wear {
		m.Apply(damagePacket(fc.header(1), 0, w))
		m.Apply(lapPacket(fc.header(1), 0, uint8(i+2), 90_000))
	}

	row := m.Snapshot().Drivers[0]
	require.NotNil(t, row.WearPrediction)
	assert.LessOrEqual(t, row.WearPrediction.MaxCorner, 100.0)
	assert.LessOrEqual(t, row.WearPrediction.Average, 100.0)
	assert.Greater(t, row.WearPrediction.Average, 0.0)
}

func TestCollisionDeDup(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	m.Apply(lapPacket(fc.header(1), 3, 5, 0))
	m.Apply(lapPacket(fc.header(1), 7, 5, 0))

	collide := func() *codec.EventPacket {
		return &codec.EventPacket{
			Header:    fc.header(1),
			Code:      codec.EventCollision,
			Collision: &codec.CollisionEvent{Vehicle1Idx: 7, Vehicle2Idx: 3},
		}
	}
	m.Apply(collide())
	m.Apply(collide())

	stats := m.RaceStats()
	require.Len(t, stats.Collisions, 1)
	assert.Equal(t, 3, stats.Collisions[0].Driver1)
	assert.Equal(t, 7, stats.Collisions[0].Driver2)
	assert.Equal(t, 5, stats.Collisions[0].Driver1Lap)
}

func TestSectorTieIsGreenNotPurple(t *testing.T) {
	// Equal to the session best: green. Strictly faster: purple.
	assert.Equal(t, SectorGreen, sectorStatusFor(30_000, 30_000, 30_000, false))
	assert.Equal(t, SectorPurple, sectorStatusFor(29_999, 30_000, 30_000, false))
	assert.Equal(t, SectorYellow, sectorStatusFor(31_000, 30_000, 29_000, false))
	assert.Equal(t, SectorInvalid, sectorStatusFor(31_000, 30_000, 29_000, true))
	assert.Equal(t, SectorNA, sectorStatusFor(0, 30_000, 29_000, false))
	// First ever time with no references is green.
	assert.Equal(t, SectorGreen, sectorStatusFor(30_000, 0, 0, false))
}

func TestFinalClassificationMerge(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	m.Apply(sessionPacket(fc.header(1), 5))
	m.Apply(lapPacket(fc.header(1), 0, 5, 90_000))
	m.Apply(lapPacket(fc.header(1), 1, 5, 91_000))

	p := &codec.FinalClassificationPacket{Header: fc.header(1), NumCars: 2}
	p.Cars = []codec.FinalClassificationData{
		{Position: 1, NumLaps: 5, Points: 25, ResultStatus: codec.ResultFinished, BestLapTimeMS: 89_500},
		{Position: 0, ResultStatus: codec.ResultDNF},
	}
	m.Apply(p)

	s := m.Snapshot()
	assert.Equal(t, StateFinished, s.Drivers[0].State)
	assert.Equal(t, uint8(1), s.Drivers[0].Position)
	assert.Equal(t, uint32(89_500), s.Drivers[0].BestLapMS)
	assert.Equal(t, StateDNF, s.Drivers[1].State)

	// Terminal state inhibits further lap updates.
	m.Apply(lapPacket(fc.header(1), 1, 9, 0))
	assert.Equal(t, 5, m.Snapshot().Drivers[1].CurrentLap)

	det, err := m.DriverDetail(0)
	require.NoError(t, err)
	require.NotNil(t, det.Classification)
	assert.Equal(t, uint8(25), det.Classification.Points)
}

func TestWarningEvents(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	base := lapPacket(fc.header(1), 0, 3, 0)
	m.Apply(base)

	next := lapPacket(fc.header(1), 0, 3, 0)
	next.Cars[0].CornerCuttingWarnings = 1
	next.Cars[0].TotalWarnings = 1
	m.Apply(next)

	det, err := m.DriverDetail(0)
	require.NoError(t, err)
	require.Len(t, det.Warnings, 2)
	kinds := []string{det.Warnings[0].Kind, det.Warnings[1].Kind}
	assert.Contains(t, kinds, "corner_cutting")
	assert.Contains(t, kinds, "total_warnings")
	assert.Equal(t, 0, det.Warnings[0].OldValue)
	assert.Equal(t, 1, det.Warnings[0].NewValue)
}

func TestSpeedTrapRecordsInStats(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	trap := func(car uint8, speed float32) *codec.EventPacket {
		return &codec.EventPacket{
			Header:    fc.header(1),
			Code:      codec.EventSpeedTrap,
			SpeedTrap: &codec.SpeedTrapEvent{CarIdx: car, Speed: speed},
		}
	}
	m.Apply(trap(4, 310))
	m.Apply(trap(4, 325))
	m.Apply(trap(4, 300))

	stats := m.RaceStats()
	assert.Equal(t, float32(325), stats.SpeedTraps[4])
}

func TestCustomMarkerFromButtonEvent(t *testing.T) {
	m := newTestModel(t, Config{UDPActionCode: 0x0800})
	var fc frameCounter

	m.Apply(lapPacket(fc.header(1), 0, 4, 0))
	m.Apply(&codec.EventPacket{
		Header:  fc.header(1),
		Code:    codec.EventButton,
		Buttons: &codec.ButtonsEvent{ButtonStatus: 0x0800},
	})
	// A different button does nothing.
	m.Apply(&codec.EventPacket{
		Header:  fc.header(1),
		Code:    codec.EventButton,
		Buttons: &codec.ButtonsEvent{ButtonStatus: 0x0001},
	})

	stats := m.RaceStats()
	require.Len(t, stats.Markers, 1)
	assert.Equal(t, "udp_action", stats.Markers[0].EventType)
	assert.Equal(t, 4, stats.Markers[0].Lap)
}

func TestPaceComparison(t *testing.T) {
	m := newTestModel(t, Config{NumAdjacentCars: 1})
	var fc frameCounter

	m.Apply(sessionPacket(fc.header(1), 10))
	// Three cars: player P2 (car 0), ahead P1 (car 1), behind P3 (car 2).
	// Each completes lap 1 so last-lap deltas are defined.
	for car, pos := range map[int]uint8{0: 2, 1: 1, 2: 3} {
		p := lapPacket(fc.header(1), car, 1, 0)
		p.Cars[car].CarPosition = pos
		m.Apply(p)
		p = lapPacket(fc.header(1), car, 2, 90_000+uint32(car)*500)
		p.Cars[car].CarPosition = pos
		m.Apply(p)
	}

	pace := m.Pace(0)
	assert.Equal(t, 0, pace.PlayerIdx)
	require.Len(t, pace.Ahead, 1)
	require.Len(t, pace.Behind, 1)
	assert.Equal(t, 1, pace.Ahead[0].Index)
	assert.Equal(t, 2, pace.Behind[0].Index)
	assert.Equal(t, int64(500), pace.Ahead[0].DeltaLapMS)
}

func TestArchiveRoundTrip(t *testing.T) {
	var archives []*Archive
	m := newTestModel(t, Config{OnSessionEnd: func(a *Archive) { archives = append(archives, a) }})
	var fc frameCounter

	m.Apply(sessionPacket(fc.header(1), 5))
	parts := &codec.ParticipantsPacket{Header: fc.header(1), NumActiveCars: 2}
	parts.Cars = []codec.ParticipantData{
		{Name: "VERSTAPPEN", TeamID: 9, RaceNumber: 1},
		{Name: "NORRIS", TeamID: 4, RaceNumber: 4},
	}
	m.Apply(parts)
	m.Apply(statusPacket(fc.header(1), 0, 40, codec.VisualHard))
	m.Apply(lapPacket(fc.header(1), 0, 1, 0))
	m.Apply(lapPacket(fc.header(1), 0, 2, 92_000))
	m.Apply(&codec.EventPacket{Header: fc.header(1), Code: codec.EventSessionEnded})

	require.Len(t, archives, 1)
	a := archives[0]
	assert.Equal(t, "session_end", a.Reason)

	dir := t.TempDir()
	path, err := a.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, a.Filename()), path)
	assert.Contains(t, a.Filename(), "silverstone_race_")

	loaded, err := LoadArchive(path)
	require.NoError(t, err)
	if diff := cmp.Diff(a, loaded); diff != "" {
		t.Errorf("archive changed across save/load (-saved +loaded):\n%s", diff)
	}
	require.Len(t, loaded.Participants, 2)
	assert.Equal(t, "VERSTAPPEN", loaded.Participants[0].Name)
	require.Len(t, loaded.Participants[0].LapHistory, 1)
	assert.Equal(t, uint32(92_000), loaded.Participants[0].LapHistory[0].LapTimeMS)
}

func TestSnapshotMonotonicUnderReaders(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	m.Apply(sessionPacket(fc.header(1), 10))
	s1 := m.Snapshot()
	m.Apply(lapPacket(fc.header(1), 0, 2, 90_000))
	s2 := m.Snapshot()
	m.Apply(lapPacket(fc.header(1), 0, 3, 89_000))
	s3 := m.Snapshot()

	// Earlier snapshots are unchanged by later applies.
	assert.Equal(t, 0, s1.Drivers[0].CurrentLap)
	assert.Equal(t, 2, s2.Drivers[0].CurrentLap)
	assert.Equal(t, 3, s3.Drivers[0].CurrentLap)
	assert.LessOrEqual(t, s2.Drivers[0].CompletedLaps, s3.Drivers[0].CompletedLaps)
}

func TestPhysicsSlot(t *testing.T) {
	m := newTestModel(t, Config{})
	var fc frameCounter

	tp := &codec.CarTelemetryPacket{Header: fc.header(1)}
	tp.Cars[0].Speed = 287
	tp.Cars[0].Gear = 7
	m.Apply(tp)

	v := m.Physics()
	assert.Equal(t, uint16(287), v.Cars[0].SpeedKMH)
	assert.Equal(t, int8(7), v.Cars[0].Gear)

	// Physics packets do not publish a new snapshot.
	before := m.Snapshot()
	mp := &codec.MotionPacket{Header: fc.header(1)}
	mp.Cars[0].WorldPositionX = 12.5
	m.Apply(mp)
	assert.Same(t, before, m.Snapshot())
	assert.Equal(t, float32(12.5), m.Physics().Cars[0].WorldX)
}
