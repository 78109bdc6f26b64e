package codec

// CarDamageData is the per-car wear and damage state. Corner arrays are
// ordered RL, RR, FL, FR as on the wire. Wear is percent, damage fields are
// percent of component health lost.
type CarDamageData struct {
	TyresWear            [4]float32
	TyresDamage          [4]uint8
	BrakesDamage         [4]uint8
	TyreBlisters         [4]uint8 // format 2025+
	FrontLeftWingDamage  uint8
	FrontRightWingDamage uint8
	RearWingDamage       uint8
	FloorDamage          uint8
	DiffuserDamage       uint8
	SidepodDamage        uint8
	DRSFault             bool
	ERSFault             bool
	GearBoxDamage        uint8
	EngineDamage         uint8
	EngineMGUHWear       uint8
	EngineESWear         uint8
	EngineCEWear         uint8
	EngineICEWear        uint8
	EngineMGUKWear       uint8
	EngineTCWear         uint8
	EngineBlown          bool
	EngineSeized         bool
}

// CarDamagePacket carries damage for all cars.
type CarDamagePacket struct {
	Header Header
	Cars   [MaxCars]CarDamageData
}

func (p *CarDamagePacket) PacketHeader() Header { return p.Header }
func (p *CarDamagePacket) Kind() Kind           { return KindCarDamage }

func decodeCarDamage(h Header, r *reader) *CarDamagePacket {
	p := &CarDamagePacket{Header: h}
	for i := 0; i < MaxCars; i++ {
		c := &p.Cars[i]
		for w := 0; w < 4; w++ {
			c.TyresWear[w] = clampPercent(r.f32())
		}
		for w := 0; w < 4; w++ {
			c.TyresDamage[w] = r.u8()
		}
		for w := 0; w < 4; w++ {
			c.BrakesDamage[w] = r.u8()
		}
		if h.PacketFormat >= FormatF125 {
			for w := 0; w < 4; w++ {
				c.TyreBlisters[w] = r.u8()
			}
		}
		c.FrontLeftWingDamage = r.u8()
		c.FrontRightWingDamage = r.u8()
		c.RearWingDamage = r.u8()
		c.FloorDamage = r.u8()
		c.DiffuserDamage = r.u8()
		c.SidepodDamage = r.u8()
		c.DRSFault = r.u8() != 0
		c.ERSFault = r.u8() != 0
		c.GearBoxDamage = r.u8()
		c.EngineDamage = r.u8()
		c.EngineMGUHWear = r.u8()
		c.EngineESWear = r.u8()
		c.EngineCEWear = r.u8()
		c.EngineICEWear = r.u8()
		c.EngineMGUKWear = r.u8()
		c.EngineTCWear = r.u8()
		c.EngineBlown = r.u8() != 0
		c.EngineSeized = r.u8() != 0
	}
	return p
}

func clampPercent(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
