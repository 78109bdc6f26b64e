package codec

// CarStatusData is the per-car fuel, ERS and tyre status.
type CarStatusData struct {
	TractionControl     uint8 // 0 off, 1 medium, 2 full
	AntiLockBrakes      bool
	FuelMix             FuelMix
	FrontBrakeBias      uint8 // percent
	PitLimiterOn        bool
	FuelInTank          float32 // kg
	FuelCapacity        float32 // kg
	FuelRemainingLaps   float32 // game-reported estimate
	MaxRPM              uint16
	IdleRPM             uint16
	MaxGears            uint8
	DRSAllowed          bool
	DRSActivationDist   uint16 // metres, 0 = not available
	ActualTyreCompound  TyreCompound
	VisualTyreCompound  VisualCompound
	TyresAgeLaps        uint8
	VehicleFIAFlags     int8 // -1 invalid, 0 none, 1 green, 2 blue, 3 yellow, 4 red
	EnginePowerICE      float32 // watts, format 2023+
	EnginePowerMGUK     float32 // watts
	ERSStoreEnergy      float32 // joules
	ERSDeployMode       ERSDeployMode
	ERSHarvestedMGUK    float32 // joules this lap
	ERSHarvestedMGUH    float32 // joules this lap
	ERSDeployedThisLap  float32 // joules
	NetworkPaused       bool
}

// ERSMaxCapacityJoules is the regulation ERS store capacity per lap.
const ERSMaxCapacityJoules = 4_000_000

// CarStatusPacket carries status for all cars.
type CarStatusPacket struct {
	Header Header
	Cars   [MaxCars]CarStatusData
}

func (p *CarStatusPacket) PacketHeader() Header { return p.Header }
func (p *CarStatusPacket) Kind() Kind           { return KindCarStatus }

func decodeCarStatus(h Header, r *reader) *CarStatusPacket {
	p := &CarStatusPacket{Header: h}
	for i := 0; i < MaxCars; i++ {
		c := &p.Cars[i]
		c.TractionControl = r.u8()
		c.AntiLockBrakes = r.u8() != 0
		c.FuelMix = FuelMix(r.u8())
		c.FrontBrakeBias = r.u8()
		c.PitLimiterOn = r.u8() != 0
		c.FuelInTank = r.f32()
		c.FuelCapacity = r.f32()
		c.FuelRemainingLaps = r.f32()
		c.MaxRPM = r.u16()
		c.IdleRPM = r.u16()
		c.MaxGears = r.u8()
		c.DRSAllowed = r.u8() != 0
		c.DRSActivationDist = r.u16()
		c.ActualTyreCompound = CompoundFromRaw(h.PacketFormat, r.u8())
		c.VisualTyreCompound = VisualCompoundFromRaw(r.u8())
		c.TyresAgeLaps = r.u8()
		c.VehicleFIAFlags = r.i8()
		c.EnginePowerICE = r.f32()
		c.EnginePowerMGUK = r.f32()
		c.ERSStoreEnergy = r.f32()
		c.ERSDeployMode = ERSDeployMode(r.u8())
		c.ERSHarvestedMGUK = r.f32()
		c.ERSHarvestedMGUH = r.f32()
		c.ERSDeployedThisLap = r.f32()
		c.NetworkPaused = r.u8() != 0
	}
	return p
}
