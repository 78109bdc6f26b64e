package codec

// LapData is the per-car lap progression record. All times are integral
// milliseconds; minute parts on the wire are folded in here.
type LapData struct {
	LastLapTimeMS            uint32
	CurrentLapTimeMS         uint32
	Sector1TimeMS            uint32
	Sector2TimeMS            uint32
	DeltaToCarInFrontMS      uint32
	DeltaToRaceLeaderMS      uint32
	LapDistance              float32 // metres around current lap, may be negative before the line
	TotalDistance            float32 // metres in session
	SafetyCarDelta           float32 // seconds
	CarPosition              uint8
	CurrentLapNum            uint8
	PitStatus                PitStatus
	NumPitStops              uint8
	Sector                   uint8 // 0..2
	CurrentLapInvalid        bool
	Penalties                uint8 // accumulated penalty seconds
	TotalWarnings            uint8
	CornerCuttingWarnings    uint8
	NumUnservedDriveThrough  uint8
	NumUnservedStopGo        uint8
	GridPosition             uint8
	DriverStatus             DriverStatus
	ResultStatus             ResultStatus
	PitLaneTimerActive       bool
	PitLaneTimeInLaneMS      uint32
	PitStopTimerMS           uint32
	PitStopShouldServePen    bool
	SpeedTrapFastestSpeed    float32 // km/h, format 2024+
	SpeedTrapFastestLap      uint8   // format 2024+
}

// LapDataPacket carries lap data for every car plus time-trial pointers.
type LapDataPacket struct {
	Header               Header
	Cars                 [MaxCars]LapData
	TimeTrialPBCarIdx    uint8
	TimeTrialRivalCarIdx uint8
}

func (p *LapDataPacket) PacketHeader() Header { return p.Header }
func (p *LapDataPacket) Kind() Kind           { return KindLapData }

func decodeLapData(h Header, r *reader) *LapDataPacket {
	p := &LapDataPacket{Header: h}
	for i := 0; i < MaxCars; i++ {
		p.Cars[i] = decodeLapDataCar(h.PacketFormat, r)
	}
	p.TimeTrialPBCarIdx = r.u8()
	p.TimeTrialRivalCarIdx = r.u8()
	return p
}

func decodeLapDataCar(format uint16, r *reader) LapData {
	var d LapData
	d.LastLapTimeMS = r.u32()
	d.CurrentLapTimeMS = r.u32()

	s1 := uint32(r.u16())
	s1min := uint32(r.u8())
	s2 := uint32(r.u16())
	s2min := uint32(r.u8())
	d.Sector1TimeMS = s1min*60000 + s1
	d.Sector2TimeMS = s2min*60000 + s2

	df := uint32(r.u16())
	var dfMin, dlMin uint32
	dl := uint32(r.u16())
	if format >= FormatF124 {
		// 2024 split the deltas into ms + minute parts.
		dfMin = uint32(r.u8())
		dlMin = uint32(r.u8())
	}
	d.DeltaToCarInFrontMS = dfMin*60000 + df
	d.DeltaToRaceLeaderMS = dlMin*60000 + dl

	d.LapDistance = r.f32()
	d.TotalDistance = r.f32()
	d.SafetyCarDelta = r.f32()
	d.CarPosition = r.u8()
	d.CurrentLapNum = r.u8()
	d.PitStatus = PitStatus(r.u8())
	d.NumPitStops = r.u8()
	d.Sector = r.u8()
	d.CurrentLapInvalid = r.u8() != 0
	d.Penalties = r.u8()
	d.TotalWarnings = r.u8()
	d.CornerCuttingWarnings = r.u8()
	d.NumUnservedDriveThrough = r.u8()
	d.NumUnservedStopGo = r.u8()
	d.GridPosition = r.u8()
	d.DriverStatus = DriverStatus(r.u8())
	d.ResultStatus = ResultStatus(r.u8())
	d.PitLaneTimerActive = r.u8() != 0
	d.PitLaneTimeInLaneMS = uint32(r.u16())
	d.PitStopTimerMS = uint32(r.u16())
	d.PitStopShouldServePen = r.u8() != 0
	if format >= FormatF124 {
		d.SpeedTrapFastestSpeed = r.f32()
		d.SpeedTrapFastestLap = r.u8()
	}
	return d
}
