package codec

// MaxWeatherSamples is the forecast array length on the wire.
const MaxWeatherSamples = 64

// MaxMarshalZones is the marshal-zone array length on the wire.
const MaxMarshalZones = 21

// WeatherForecastSample is a single forecast entry.
type WeatherForecastSample struct {
	SessionType      SessionType
	TimeOffsetMin    uint8
	Weather          Weather
	TrackTemperature int8
	AirTemperature   int8
	RainPercentage   uint8
}

// MarshalZone is a track segment with its current flag.
type MarshalZone struct {
	ZoneStart float32 // fraction of lap distance
	ZoneFlag  int8    // -1 invalid, 0 none, 1 green, 2 blue, 3 yellow
}

// SessionPacket carries the session state. Fields present only from format
// 2024 onward are zero for format 2023.
type SessionPacket struct {
	Header           Header
	Weather          Weather
	TrackTemperature int8 // celsius
	AirTemperature   int8 // celsius
	TotalLaps        uint8
	TrackLength      uint16 // metres
	SessionType      SessionType
	SessionTypeRaw   uint8
	TrackID          int8
	Formula          uint8
	SessionTimeLeft  uint16 // seconds
	SessionDuration  uint16 // seconds
	PitSpeedLimit    uint8  // km/h
	GamePaused       bool
	IsSpectating     bool
	SpectatorCarIdx  uint8

	MarshalZones    []MarshalZone
	SafetyCarStatus SafetyCarStatus
	NetworkGame     bool
	Forecast        []WeatherForecastSample
	ForecastApprox  bool // forecast accuracy 1 = approximate

	AIDifficulty          uint8
	PitStopWindowIdealLap uint8
	PitStopWindowLatest   uint8
	PitStopRejoinPosition uint8
	GameMode              uint8
	RuleSet               uint8
	TimeOfDay             uint32 // minutes since midnight
	SessionLength         uint8

	// Format 2024+.
	NumSafetyCarPeriods        uint8
	NumVirtualSafetyCarPeriods uint8
	NumRedFlagPeriods          uint8
	Sector2LapDistanceStart    float32
	Sector3LapDistanceStart    float32
}

func (p *SessionPacket) PacketHeader() Header { return p.Header }
func (p *SessionPacket) Kind() Kind           { return KindSession }

func decodeSession(h Header, r *reader) *SessionPacket {
	p := &SessionPacket{Header: h}
	format := h.PacketFormat

	p.Weather = Weather(r.u8())
	p.TrackTemperature = r.i8()
	p.AirTemperature = r.i8()
	p.TotalLaps = r.u8()
	p.TrackLength = r.u16()
	p.SessionTypeRaw = r.u8()
	p.SessionType = SessionTypeFromRaw(format, p.SessionTypeRaw)
	p.TrackID = r.i8()
	p.Formula = r.u8()
	p.SessionTimeLeft = r.u16()
	p.SessionDuration = r.u16()
	p.PitSpeedLimit = r.u8()
	p.GamePaused = r.u8() != 0
	p.IsSpectating = r.u8() != 0
	p.SpectatorCarIdx = r.u8()
	r.skip(1) // SLI Pro support

	numZones := int(r.u8())
	zones := make([]MarshalZone, 0, numZones)
	for i := 0; i < MaxMarshalZones; i++ {
		z := MarshalZone{ZoneStart: r.f32(), ZoneFlag: r.i8()}
		if i < numZones {
			zones = append(zones, z)
		}
	}
	p.MarshalZones = zones

	p.SafetyCarStatus = SafetyCarStatus(r.u8())
	p.NetworkGame = r.u8() != 0

	numSamples := int(r.u8())
	samples := make([]WeatherForecastSample, 0, numSamples)
	for i := 0; i < MaxWeatherSamples; i++ {
		s := WeatherForecastSample{
			SessionType:      SessionTypeFromRaw(format, r.u8()),
			TimeOffsetMin:    r.u8(),
			Weather:          Weather(r.u8()),
			TrackTemperature: r.i8(),
		}
		r.skip(1) // track temperature change
		s.AirTemperature = r.i8()
		r.skip(1) // air temperature change
		s.RainPercentage = r.u8()
		if i < numSamples {
			samples = append(samples, s)
		}
	}
	p.Forecast = samples
	p.ForecastApprox = r.u8() != 0

	p.AIDifficulty = r.u8()
	r.skip(12) // season/weekend/session link identifiers
	p.PitStopWindowIdealLap = r.u8()
	p.PitStopWindowLatest = r.u8()
	p.PitStopRejoinPosition = r.u8()
	r.skip(9) // assist settings block
	p.GameMode = r.u8()
	p.RuleSet = r.u8()
	p.TimeOfDay = r.u32()
	p.SessionLength = r.u8()

	if format >= FormatF124 {
		r.skip(4) // speed/temperature display units for both players
		p.NumSafetyCarPeriods = r.u8()
		p.NumVirtualSafetyCarPeriods = r.u8()
		p.NumRedFlagPeriods = r.u8()
		r.skip(28) // car damage/collision/experience rule settings
		numSessions := int(r.u8())
		_ = numSessions
		r.skip(12) // weekend structure session ids
		p.Sector2LapDistanceStart = r.f32()
		p.Sector3LapDistanceStart = r.f32()
	}
	return p
}
