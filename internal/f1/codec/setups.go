package codec

// CarSetupData is one car's setup sheet. Other cars' setups are zeroed by
// the game in multiplayer.
type CarSetupData struct {
	FrontWing              uint8
	RearWing               uint8
	OnThrottle             uint8 // differential percent
	OffThrottle            uint8
	FrontCamber            float32
	RearCamber             float32
	FrontToe               float32
	RearToe                float32
	FrontSuspension        uint8
	RearSuspension         uint8
	FrontAntiRollBar       uint8
	RearAntiRollBar        uint8
	FrontSuspensionHeight  uint8
	RearSuspensionHeight   uint8
	BrakePressure          uint8 // percent
	BrakeBias              uint8 // percent
	EngineBraking          uint8 // format 2024+
	RearLeftTyrePressure   float32 // psi
	RearRightTyrePressure  float32
	FrontLeftTyrePressure  float32
	FrontRightTyrePressure float32
	Ballast                uint8
	FuelLoad               float32 // kg
}

// CarSetupsPacket carries setups for all cars, plus the next front wing
// value for the player on format 2024+.
type CarSetupsPacket struct {
	Header             Header
	Cars               [MaxCars]CarSetupData
	NextFrontWingValue float32
}

func (p *CarSetupsPacket) PacketHeader() Header { return p.Header }
func (p *CarSetupsPacket) Kind() Kind           { return KindCarSetups }

func decodeCarSetups(h Header, r *reader) *CarSetupsPacket {
	p := &CarSetupsPacket{Header: h}
	for i := 0; i < MaxCars; i++ {
		c := &p.Cars[i]
		c.FrontWing = r.u8()
		c.RearWing = r.u8()
		c.OnThrottle = r.u8()
		c.OffThrottle = r.u8()
		c.FrontCamber = r.f32()
		c.RearCamber = r.f32()
		c.FrontToe = r.f32()
		c.RearToe = r.f32()
		c.FrontSuspension = r.u8()
		c.RearSuspension = r.u8()
		c.FrontAntiRollBar = r.u8()
		c.RearAntiRollBar = r.u8()
		c.FrontSuspensionHeight = r.u8()
		c.RearSuspensionHeight = r.u8()
		c.BrakePressure = r.u8()
		c.BrakeBias = r.u8()
		if h.PacketFormat >= FormatF124 {
			c.EngineBraking = r.u8()
		}
		c.RearLeftTyrePressure = r.f32()
		c.RearRightTyrePressure = r.f32()
		c.FrontLeftTyrePressure = r.f32()
		c.FrontRightTyrePressure = r.f32()
		c.Ballast = r.u8()
		c.FuelLoad = r.f32()
	}
	if h.PacketFormat >= FormatF124 {
		p.NextFrontWingValue = r.f32()
	}
	return p
}
