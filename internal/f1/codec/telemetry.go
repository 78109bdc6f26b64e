package codec

// CarTelemetryData is the per-car high-rate telemetry sample. Corner arrays
// are ordered RL, RR, FL, FR as on the wire.
type CarTelemetryData struct {
	Speed                   uint16  // km/h
	Throttle                float32 // 0..1
	Steer                   float32 // -1..1
	Brake                   float32 // 0..1
	Clutch                  uint8   // 0..100
	Gear                    int8    // -1 reverse, 0 neutral
	EngineRPM               uint16
	DRSOpen                 bool
	RevLightsPercent        uint8
	RevLightsBitValue       uint16
	BrakesTemperature       [4]uint16 // celsius
	TyresSurfaceTemperature [4]uint8  // celsius
	TyresInnerTemperature   [4]uint8  // celsius
	EngineTemperature       uint16    // celsius
	TyresPressure           [4]float32 // psi
	SurfaceType             [4]Surface
}

// CarTelemetryPacket carries telemetry for all cars plus the player MFD state.
type CarTelemetryPacket struct {
	Header                   Header
	Cars                     [MaxCars]CarTelemetryData
	MFDPanelIndex            uint8 // 255 closed
	MFDPanelIndexSecondary   uint8
	SuggestedGear            int8 // 0 = none available
}

func (p *CarTelemetryPacket) PacketHeader() Header { return p.Header }
func (p *CarTelemetryPacket) Kind() Kind           { return KindCarTelemetry }

func decodeCarTelemetry(h Header, r *reader) *CarTelemetryPacket {
	p := &CarTelemetryPacket{Header: h}
	for i := 0; i < MaxCars; i++ {
		c := &p.Cars[i]
		c.Speed = r.u16()
		c.Throttle = r.f32()
		c.Steer = r.f32()
		c.Brake = r.f32()
		c.Clutch = r.u8()
		c.Gear = r.i8()
		c.EngineRPM = r.u16()
		c.DRSOpen = r.u8() != 0
		c.RevLightsPercent = r.u8()
		c.RevLightsBitValue = r.u16()
		for w := 0; w < 4; w++ {
			c.BrakesTemperature[w] = r.u16()
		}
		for w := 0; w < 4; w++ {
			c.TyresSurfaceTemperature[w] = r.u8()
		}
		for w := 0; w < 4; w++ {
			c.TyresInnerTemperature[w] = r.u8()
		}
		c.EngineTemperature = r.u16()
		for w := 0; w < 4; w++ {
			c.TyresPressure[w] = r.f32()
		}
		for w := 0; w < 4; w++ {
			c.SurfaceType[w] = Surface(r.u8())
		}
	}
	p.MFDPanelIndex = r.u8()
	p.MFDPanelIndexSecondary = r.u8()
	p.SuggestedGear = r.i8()
	return p
}
