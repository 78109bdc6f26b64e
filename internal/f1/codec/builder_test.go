package codec

import (
	"encoding/binary"
	"math"
)

// builder assembles synthetic packets for tests, mirroring the reader's
// little-endian field order.
type builder struct {
	buf []byte
}

func (b *builder) u8(v uint8)   { b.buf = append(b.buf, v) }
func (b *builder) i8(v int8)    { b.u8(uint8(v)) }
func (b *builder) u16(v uint16) { b.buf = binary.LittleEndian.AppendUint16(b.buf, v) }
func (b *builder) i16(v int16)  { b.u16(uint16(v)) }
func (b *builder) u32(v uint32) { b.buf = binary.LittleEndian.AppendUint32(b.buf, v) }
func (b *builder) u64(v uint64) { b.buf = binary.LittleEndian.AppendUint64(b.buf, v) }
func (b *builder) f32(v float32) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, math.Float32bits(v))
}
func (b *builder) f64(v float64) {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, math.Float64bits(v))
}

func (b *builder) ascii4(code string) {
	b.buf = append(b.buf, code[:4]...)
}

// str writes a NUL-padded fixed-width string field.
func (b *builder) str(s string, width int) {
	raw := []byte(s)
	if len(raw) > width {
		raw = raw[:width]
	}
	b.buf = append(b.buf, raw...)
	for i := len(raw); i < width; i++ {
		b.buf = append(b.buf, 0)
	}
}

// pad appends n zero bytes.
func (b *builder) pad(n int) {
	b.buf = append(b.buf, make([]byte, n)...)
}

// header writes a format-year header with the given packet id.
func (b *builder) header(format uint16, id uint8, sessionUID uint64, frameID uint32) {
	b.u16(format)
	b.u8(uint8(format % 100)) // game year
	b.u8(1)                   // game major
	b.u8(4)                   // game minor
	b.u8(1)                   // packet version
	b.u8(id)
	b.u64(sessionUID)
	b.f32(12.5) // session time
	b.u32(frameID)
	b.u32(frameID) // overall frame id
	b.u8(0)        // player car index
	b.u8(255)      // secondary player
}

// lapDataCar writes one car's lap-data block for the given format year.
func (b *builder) lapDataCar(format uint16, d LapData) {
	b.u32(d.LastLapTimeMS)
	b.u32(d.CurrentLapTimeMS)
	b.u16(uint16(d.Sector1TimeMS % 60000))
	b.u8(uint8(d.Sector1TimeMS / 60000))
	b.u16(uint16(d.Sector2TimeMS % 60000))
	b.u8(uint8(d.Sector2TimeMS / 60000))
	b.u16(uint16(d.DeltaToCarInFrontMS % 60000))
	b.u16(uint16(d.DeltaToRaceLeaderMS % 60000))
	if format >= FormatF124 {
		b.u8(uint8(d.DeltaToCarInFrontMS / 60000))
		b.u8(uint8(d.DeltaToRaceLeaderMS / 60000))
	}
	b.f32(d.LapDistance)
	b.f32(d.TotalDistance)
	b.f32(d.SafetyCarDelta)
	b.u8(d.CarPosition)
	b.u8(d.CurrentLapNum)
	b.u8(uint8(d.PitStatus))
	b.u8(d.NumPitStops)
	b.u8(d.Sector)
	if d.CurrentLapInvalid {
		b.u8(1)
	} else {
		b.u8(0)
	}
	b.u8(d.Penalties)
	b.u8(d.TotalWarnings)
	b.u8(d.CornerCuttingWarnings)
	b.u8(d.NumUnservedDriveThrough)
	b.u8(d.NumUnservedStopGo)
	b.u8(d.GridPosition)
	b.u8(uint8(d.DriverStatus))
	b.u8(uint8(d.ResultStatus))
	b.u8(0)
	b.u16(uint16(d.PitLaneTimeInLaneMS))
	b.u16(uint16(d.PitStopTimerMS))
	b.u8(0)
	if format >= FormatF124 {
		b.f32(d.SpeedTrapFastestSpeed)
		b.u8(d.SpeedTrapFastestLap)
	}
}

// buildLapDataPacket produces a full lap-data datagram where every car
// carries the same block.
func buildLapDataPacket(format uint16, sessionUID uint64, frameID uint32, d LapData) []byte {
	var b builder
	b.header(format, uint8(KindLapData), sessionUID, frameID)
	for i := 0; i < MaxCars; i++ {
		b.lapDataCar(format, d)
	}
	b.u8(255) // time trial PB car
	b.u8(255) // time trial rival car
	return b.buf
}

// buildCarStatusPacket produces a car-status datagram where every car
// carries the same block.
func buildCarStatusPacket(format uint16, sessionUID uint64, frameID uint32, c CarStatusData) []byte {
	var b builder
	b.header(format, uint8(KindCarStatus), sessionUID, frameID)
	for i := 0; i < MaxCars; i++ {
		b.carStatus(format, c)
	}
	return b.buf
}

func (b *builder) carStatus(format uint16, c CarStatusData) {
	b.u8(c.TractionControl)
	b.u8(0)
	b.u8(uint8(c.FuelMix))
	b.u8(c.FrontBrakeBias)
	b.u8(0)
	b.f32(c.FuelInTank)
	b.f32(c.FuelCapacity)
	b.f32(c.FuelRemainingLaps)
	b.u16(c.MaxRPM)
	b.u16(c.IdleRPM)
	b.u8(c.MaxGears)
	if c.DRSAllowed {
		b.u8(1)
	} else {
		b.u8(0)
	}
	b.u16(c.DRSActivationDist)
	b.u8(rawCompound(c.ActualTyreCompound))
	b.u8(rawVisual(c.VisualTyreCompound))
	b.u8(c.TyresAgeLaps)
	b.i8(c.VehicleFIAFlags)
	b.f32(c.EnginePowerICE)
	b.f32(c.EnginePowerMGUK)
	b.f32(c.ERSStoreEnergy)
	b.u8(uint8(c.ERSDeployMode))
	b.f32(c.ERSHarvestedMGUK)
	b.f32(c.ERSHarvestedMGUH)
	b.f32(c.ERSDeployedThisLap)
	b.u8(0)
}

func rawCompound(c TyreCompound) uint8 {
	switch c {
	case CompoundC5:
		return 16
	case CompoundC4:
		return 17
	case CompoundC3:
		return 18
	case CompoundC2:
		return 19
	case CompoundC1:
		return 20
	case CompoundC0:
		return 21
	case CompoundC6:
		return 22
	case CompoundInter:
		return 7
	case CompoundWet:
		return 8
	}
	return 0
}

func rawVisual(v VisualCompound) uint8 {
	switch v {
	case VisualSoft:
		return 16
	case VisualMedium:
		return 17
	case VisualHard:
		return 18
	case VisualInter:
		return 7
	case VisualWet:
		return 8
	}
	return 0
}

// buildEventPacket produces an event datagram with the given code and
// pre-encoded payload bytes.
func buildEventPacket(format uint16, sessionUID uint64, code string, payload func(*builder)) []byte {
	var b builder
	b.header(format, uint8(KindEvent), sessionUID, 1)
	b.ascii4(code)
	if payload != nil {
		payload(&b)
	}
	return b.buf
}

// buildTyreSetsPacket produces a tyre-sets datagram for one car.
func buildTyreSetsPacket(format uint16, sessionUID uint64, carIdx uint8, sets [TyreSetCount]TyreSetData, fitted uint8) []byte {
	var b builder
	b.header(format, uint8(KindTyreSets), sessionUID, 1)
	b.u8(carIdx)
	for _, s := range sets {
		b.u8(rawCompound(s.ActualCompound))
		b.u8(rawVisual(s.VisualCompound))
		b.u8(s.Wear)
		if s.Available {
			b.u8(1)
		} else {
			b.u8(0)
		}
		b.u8(s.RecommendedSession)
		b.u8(s.LifeSpan)
		b.u8(s.UsableLife)
		b.i16(s.LapDeltaTimeMS)
		if s.Fitted {
			b.u8(1)
		} else {
			b.u8(0)
		}
	}
	b.u8(fitted)
	return b.buf
}
