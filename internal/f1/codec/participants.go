package codec

// driverNameLen is the fixed width of the name field on the wire.
const driverNameLen = 48

// ParticipantData describes one car's driver slot.
type ParticipantData struct {
	AIControlled    bool
	DriverID        uint8 // 255 for network humans
	NetworkID       uint8
	TeamID          uint8
	MyTeam          bool
	RaceNumber      uint8
	Nationality     uint8
	Name            string
	TelemetryPublic bool // "your telemetry" restricted/public toggle
	ShowOnlineNames bool
	TechLevel       uint16 // format 2024+
	Platform        uint8  // 1 steam, 3 psn, 4 xbox, 6 origin, 255 unknown
	LiveryColours   [][3]uint8
}

// ParticipantsPacket lists the active cars. Cars is sized by the active-car
// count on the wire, at most MaxCars.
type ParticipantsPacket struct {
	Header        Header
	NumActiveCars uint8
	Cars          []ParticipantData
}

func (p *ParticipantsPacket) PacketHeader() Header { return p.Header }
func (p *ParticipantsPacket) Kind() Kind           { return KindParticipants }

func decodeParticipants(h Header, r *reader) *ParticipantsPacket {
	p := &ParticipantsPacket{Header: h}
	p.NumActiveCars = r.u8()
	if p.NumActiveCars > MaxCars {
		p.NumActiveCars = MaxCars
	}

	cars := make([]ParticipantData, 0, p.NumActiveCars)
	for i := 0; i < MaxCars; i++ {
		d := decodeParticipant(h.PacketFormat, r)
		if i < int(p.NumActiveCars) {
			cars = append(cars, d)
		}
	}
	p.Cars = cars
	return p
}

func decodeParticipant(format uint16, r *reader) ParticipantData {
	var d ParticipantData
	d.AIControlled = r.u8() != 0
	d.DriverID = r.u8()
	d.NetworkID = r.u8()
	d.TeamID = r.u8()
	d.MyTeam = r.u8() != 0
	d.RaceNumber = r.u8()
	d.Nationality = r.u8()
	d.Name = r.str(driverNameLen)
	d.TelemetryPublic = r.u8() != 0
	d.ShowOnlineNames = r.u8() != 0
	if format >= FormatF124 {
		d.TechLevel = r.u16()
	}
	d.Platform = r.u8()
	if format >= FormatF125 {
		numColours := int(r.u8())
		if numColours > 4 {
			numColours = 4
		}
		colours := make([][3]uint8, 0, numColours)
		for i := 0; i < 4; i++ {
			c := [3]uint8{r.u8(), r.u8(), r.u8()}
			if i < numColours {
				colours = append(colours, c)
			}
		}
		d.LiveryColours = colours
	}
	return d
}
