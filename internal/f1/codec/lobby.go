package codec

// LobbyInfoData is one multiplayer lobby slot.
type LobbyInfoData struct {
	AIControlled    bool
	TeamID          uint8
	Nationality     uint8
	Platform        uint8
	Name            string
	CarNumber       uint8
	TelemetryPublic bool   // format 2024+
	ShowOnlineNames bool   // format 2024+
	TechLevel       uint16 // format 2024+
	ReadyStatus     uint8  // 0 not ready, 1 ready, 2 spectating
}

// LobbyInfoPacket lists the multiplayer lobby members.
type LobbyInfoPacket struct {
	Header     Header
	NumPlayers uint8
	Players    []LobbyInfoData
}

func (p *LobbyInfoPacket) PacketHeader() Header { return p.Header }
func (p *LobbyInfoPacket) Kind() Kind           { return KindLobbyInfo }

func decodeLobbyInfo(h Header, r *reader) *LobbyInfoPacket {
	p := &LobbyInfoPacket{Header: h}
	p.NumPlayers = r.u8()
	if p.NumPlayers > MaxCars {
		p.NumPlayers = MaxCars
	}

	players := make([]LobbyInfoData, 0, p.NumPlayers)
	for i := 0; i < MaxCars; i++ {
		var d LobbyInfoData
		d.AIControlled = r.u8() != 0
		d.TeamID = r.u8()
		d.Nationality = r.u8()
		d.Platform = r.u8()
		d.Name = r.str(driverNameLen)
		d.CarNumber = r.u8()
		if h.PacketFormat >= FormatF124 {
			d.TelemetryPublic = r.u8() != 0
			d.ShowOnlineNames = r.u8() != 0
			d.TechLevel = r.u16()
		}
		d.ReadyStatus = r.u8()
		if i < int(p.NumPlayers) {
			players = append(players, d)
		}
	}
	p.Players = players
	return p
}
