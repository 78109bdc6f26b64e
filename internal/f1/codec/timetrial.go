package codec

// TimeTrialDataSet is one of the three reference laps in the time-trial
// packet (session best, personal best, rival).
type TimeTrialDataSet struct {
	CarIdx              uint8
	TeamID              uint8
	LapTimeMS           uint32
	Sector1TimeMS       uint32
	Sector2TimeMS       uint32
	Sector3TimeMS       uint32
	TractionControl     uint8
	GearboxAssist       uint8
	AntiLockBrakes      bool
	EqualCarPerformance bool
	CustomSetup         bool
	Valid               bool
}

// TimeTrialPacket exists from format 2024 onward.
type TimeTrialPacket struct {
	Header             Header
	PlayerSessionBest  TimeTrialDataSet
	PersonalBest       TimeTrialDataSet
	Rival              TimeTrialDataSet
}

func (p *TimeTrialPacket) PacketHeader() Header { return p.Header }
func (p *TimeTrialPacket) Kind() Kind           { return KindTimeTrial }

func decodeTimeTrial(h Header, r *reader) *TimeTrialPacket {
	p := &TimeTrialPacket{Header: h}
	p.PlayerSessionBest = decodeTimeTrialSet(r)
	p.PersonalBest = decodeTimeTrialSet(r)
	p.Rival = decodeTimeTrialSet(r)
	return p
}

func decodeTimeTrialSet(r *reader) TimeTrialDataSet {
	return TimeTrialDataSet{
		CarIdx:              r.u8(),
		TeamID:              r.u8(),
		LapTimeMS:           r.u32(),
		Sector1TimeMS:       r.u32(),
		Sector2TimeMS:       r.u32(),
		Sector3TimeMS:       r.u32(),
		TractionControl:     r.u8(),
		GearboxAssist:       r.u8(),
		AntiLockBrakes:      r.u8() != 0,
		EqualCarPerformance: r.u8() != 0,
		CustomSetup:         r.u8() != 0,
		Valid:               r.u8() != 0,
	}
}
