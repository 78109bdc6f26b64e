package codec

// Event string codes carried in the event packet.
const (
	EventSessionStarted     = "SSTA"
	EventSessionEnded       = "SEND"
	EventFastestLap         = "FTLP"
	EventRetirement         = "RTMT"
	EventDRSEnabled         = "DRSE"
	EventDRSDisabled        = "DRSD"
	EventTeamMateInPits     = "TMPT"
	EventChequeredFlag      = "CHQF"
	EventRaceWinner         = "RCWN"
	EventPenaltyIssued      = "PENA"
	EventSpeedTrap          = "SPTP"
	EventStartLights        = "STLG"
	EventLightsOut          = "LGOT"
	EventDriveThroughServed = "DTSV"
	EventStopGoServed       = "SGSV"
	EventFlashback          = "FLBK"
	EventButton             = "BUTN"
	EventRedFlag            = "RDFL"
	EventOvertake           = "OVTK"
	EventCollision          = "COLL" // format 2024+
	EventSafetyCar          = "SCAR" // format 2024+
)

// EventPacket is the decoded event with its per-code payload. Exactly one of
// the payload pointers is non-nil for codes that carry data; codes without a
// payload (SSTA, SEND, DRSE, ...) have all pointers nil.
type EventPacket struct {
	Header Header
	Code   string

	FastestLap    *FastestLapEvent
	Retirement    *RetirementEvent
	TeamMateInPit *TeamMateInPitsEvent
	RaceWinner    *RaceWinnerEvent
	Penalty       *PenaltyEvent
	SpeedTrap     *SpeedTrapEvent
	StartLights   *StartLightsEvent
	DriveThrough  *DriveThroughServedEvent
	StopGo        *StopGoServedEvent
	Flashback     *FlashbackEvent
	Buttons       *ButtonsEvent
	Overtake      *OvertakeEvent
	Collision     *CollisionEvent
	SafetyCar     *SafetyCarEvent
}

func (p *EventPacket) PacketHeader() Header { return p.Header }
func (p *EventPacket) Kind() Kind           { return KindEvent }

// FastestLapEvent reports a new session-fastest lap.
type FastestLapEvent struct {
	CarIdx  uint8
	LapTime float32 // seconds
}

// RetirementEvent reports a car leaving the session.
type RetirementEvent struct {
	CarIdx uint8
	Reason uint8 // format 2025+, zero otherwise
}

// TeamMateInPitsEvent reports the player's team mate entering the pits.
type TeamMateInPitsEvent struct {
	CarIdx uint8
}

// RaceWinnerEvent reports the race winner.
type RaceWinnerEvent struct {
	CarIdx uint8
}

// PenaltyEvent reports a penalty, warning, or lap invalidation.
type PenaltyEvent struct {
	PenaltyType      PenaltyType
	InfringementType InfringementType
	CarIdx           uint8
	OtherCarIdx      uint8
	Time             uint8 // penalty seconds, 255 when n/a
	LapNum           uint8
	PlacesGained     uint8
}

// SpeedTrapEvent reports a speed-trap reading.
type SpeedTrapEvent struct {
	CarIdx                 uint8
	Speed                  float32 // km/h
	IsOverallFastest       bool
	IsDriverFastestInSess  bool
	FastestVehicleIdx      uint8
	FastestSpeedInSession  float32
}

// StartLightsEvent reports the number of lights showing.
type StartLightsEvent struct {
	NumLights uint8
}

// DriveThroughServedEvent reports a served drive-through penalty.
type DriveThroughServedEvent struct {
	CarIdx uint8
}

// StopGoServedEvent reports a served stop-go penalty.
type StopGoServedEvent struct {
	CarIdx   uint8
	StopTime float32 // seconds, format 2024+
}

// FlashbackEvent reports a flashback activation.
type FlashbackEvent struct {
	FrameID     uint32
	SessionTime float32
}

// ButtonsEvent reports the current button bit mask.
type ButtonsEvent struct {
	ButtonStatus uint32
}

// OvertakeEvent reports one car overtaking another.
type OvertakeEvent struct {
	OvertakingCarIdx     uint8
	BeingOvertakenCarIdx uint8
}

// CollisionEvent reports contact between two cars (format 2024+).
type CollisionEvent struct {
	Vehicle1Idx uint8
	Vehicle2Idx uint8
}

// SafetyCarEvent reports a safety-car deployment status change (format 2024+).
type SafetyCarEvent struct {
	Type      uint8 // 0 none, 1 full, 2 virtual, 3 formation
	EventType uint8 // 0 deployed, 1 returning, 2 returned, 3 resume race
}

func decodeEvent(h Header, r *reader) *EventPacket {
	p := &EventPacket{Header: h, Code: r.ascii4()}

	switch p.Code {
	case EventFastestLap:
		p.FastestLap = &FastestLapEvent{CarIdx: r.u8(), LapTime: r.f32()}
	case EventRetirement:
		e := &RetirementEvent{CarIdx: r.u8()}
		if h.PacketFormat >= FormatF125 {
			e.Reason = r.u8()
		}
		p.Retirement = e
	case EventTeamMateInPits:
		p.TeamMateInPit = &TeamMateInPitsEvent{CarIdx: r.u8()}
	case EventRaceWinner:
		p.RaceWinner = &RaceWinnerEvent{CarIdx: r.u8()}
	case EventPenaltyIssued:
		p.Penalty = &PenaltyEvent{
			PenaltyType:      PenaltyType(r.u8()),
			InfringementType: InfringementType(r.u8()),
			CarIdx:           r.u8(),
			OtherCarIdx:      r.u8(),
			Time:             r.u8(),
			LapNum:           r.u8(),
			PlacesGained:     r.u8(),
		}
	case EventSpeedTrap:
		p.SpeedTrap = &SpeedTrapEvent{
			CarIdx:                r.u8(),
			Speed:                 r.f32(),
			IsOverallFastest:      r.u8() != 0,
			IsDriverFastestInSess: r.u8() != 0,
			FastestVehicleIdx:     r.u8(),
			FastestSpeedInSession: r.f32(),
		}
	case EventStartLights:
		p.StartLights = &StartLightsEvent{NumLights: r.u8()}
	case EventDriveThroughServed:
		p.DriveThrough = &DriveThroughServedEvent{CarIdx: r.u8()}
	case EventStopGoServed:
		e := &StopGoServedEvent{CarIdx: r.u8()}
		if h.PacketFormat >= FormatF124 {
			e.StopTime = r.f32()
		}
		p.StopGo = e
	case EventFlashback:
		p.Flashback = &FlashbackEvent{FrameID: r.u32(), SessionTime: r.f32()}
	case EventButton:
		p.Buttons = &ButtonsEvent{ButtonStatus: r.u32()}
	case EventOvertake:
		p.Overtake = &OvertakeEvent{OvertakingCarIdx: r.u8(), BeingOvertakenCarIdx: r.u8()}
	case EventCollision:
		p.Collision = &CollisionEvent{Vehicle1Idx: r.u8(), Vehicle2Idx: r.u8()}
	case EventSafetyCar:
		p.SafetyCar = &SafetyCarEvent{Type: r.u8(), EventType: r.u8()}
	}
	// Codes without a payload, and codes from future patches, decode to just
	// the string code.
	return p
}
