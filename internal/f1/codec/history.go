package codec

// Lap-valid bit flags in session-history lap records.
const (
	LapValidOverall uint8 = 1 << 0
	LapValidSector1 uint8 = 1 << 1
	LapValidSector2 uint8 = 1 << 2
	LapValidSector3 uint8 = 1 << 3
)

// maxLapHistory is the lap-history array length on the wire.
const maxLapHistory = 100

// maxTyreStints is the stint array length on the wire.
const maxTyreStints = 8

// LapHistoryData is one completed (or in-progress) lap in the session
// history packet. Sector minute parts are folded into milliseconds.
type LapHistoryData struct {
	LapTimeMS     uint32
	Sector1TimeMS uint32
	Sector2TimeMS uint32
	Sector3TimeMS uint32
	ValidFlags    uint8
}

// TyreStintHistoryData is one stint entry in the session history packet.
type TyreStintHistoryData struct {
	EndLap         uint8 // 255 = current stint
	ActualCompound TyreCompound
	VisualCompound VisualCompound
}

// SessionHistoryPacket carries one car's full lap and stint history.
type SessionHistoryPacket struct {
	Header            Header
	CarIdx            uint8
	NumLaps           uint8
	NumTyreStints     uint8
	BestLapTimeLapNum uint8
	BestSector1LapNum uint8
	BestSector2LapNum uint8
	BestSector3LapNum uint8
	Laps              []LapHistoryData
	TyreStints        []TyreStintHistoryData
}

func (p *SessionHistoryPacket) PacketHeader() Header { return p.Header }
func (p *SessionHistoryPacket) Kind() Kind           { return KindSessionHistory }

func decodeSessionHistory(h Header, r *reader) *SessionHistoryPacket {
	p := &SessionHistoryPacket{Header: h}
	p.CarIdx = r.u8()
	p.NumLaps = r.u8()
	p.NumTyreStints = r.u8()
	p.BestLapTimeLapNum = r.u8()
	p.BestSector1LapNum = r.u8()
	p.BestSector2LapNum = r.u8()
	p.BestSector3LapNum = r.u8()

	numLaps := int(p.NumLaps)
	if numLaps > maxLapHistory {
		numLaps = maxLapHistory
	}
	laps := make([]LapHistoryData, 0, numLaps)
	for i := 0; i < maxLapHistory; i++ {
		var l LapHistoryData
		l.LapTimeMS = r.u32()
		s1 := uint32(r.u16())
		s1min := uint32(r.u8())
		s2 := uint32(r.u16())
		s2min := uint32(r.u8())
		s3 := uint32(r.u16())
		s3min := uint32(r.u8())
		l.Sector1TimeMS = s1min*60000 + s1
		l.Sector2TimeMS = s2min*60000 + s2
		l.Sector3TimeMS = s3min*60000 + s3
		l.ValidFlags = r.u8()
		if i < numLaps {
			laps = append(laps, l)
		}
	}
	p.Laps = laps

	numStints := int(p.NumTyreStints)
	if numStints > maxTyreStints {
		numStints = maxTyreStints
	}
	stints := make([]TyreStintHistoryData, 0, numStints)
	for i := 0; i < maxTyreStints; i++ {
		s := TyreStintHistoryData{
			EndLap:         r.u8(),
			ActualCompound: CompoundFromRaw(h.PacketFormat, r.u8()),
			VisualCompound: VisualCompoundFromRaw(r.u8()),
		}
		if i < numStints {
			stints = append(stints, s)
		}
	}
	p.TyreStints = stints
	return p
}

// TyreSetCount is the inventory size on the wire: 13 dry + 7 wet sets.
const TyreSetCount = 20

// TyreSetData is one entry of a car's tyre-set inventory.
type TyreSetData struct {
	ActualCompound     TyreCompound
	VisualCompound     VisualCompound
	Wear               uint8 // percent
	Available          bool
	RecommendedSession uint8
	LifeSpan           uint8 // laps remaining
	UsableLife         uint8 // recommended max laps
	LapDeltaTimeMS     int16 // delta vs fitted set
	Fitted             bool
}

// TyreSetsPacket carries one car's full tyre-set inventory.
type TyreSetsPacket struct {
	Header    Header
	CarIdx    uint8
	Sets      [TyreSetCount]TyreSetData
	FittedIdx uint8
}

func (p *TyreSetsPacket) PacketHeader() Header { return p.Header }
func (p *TyreSetsPacket) Kind() Kind           { return KindTyreSets }

func decodeTyreSets(h Header, r *reader) *TyreSetsPacket {
	p := &TyreSetsPacket{Header: h}
	p.CarIdx = r.u8()
	for i := 0; i < TyreSetCount; i++ {
		s := &p.Sets[i]
		s.ActualCompound = CompoundFromRaw(h.PacketFormat, r.u8())
		s.VisualCompound = VisualCompoundFromRaw(r.u8())
		s.Wear = r.u8()
		s.Available = r.u8() != 0
		s.RecommendedSession = r.u8()
		s.LifeSpan = r.u8()
		s.UsableLife = r.u8()
		s.LapDeltaTimeMS = r.i16()
		s.Fitted = r.u8() != 0
	}
	p.FittedIdx = r.u8()
	return p
}
