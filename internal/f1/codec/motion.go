package codec

// CarMotionData is the world-space motion sample for one car.
type CarMotionData struct {
	WorldPositionX     float32 // metres
	WorldPositionY     float32
	WorldPositionZ     float32
	WorldVelocityX     float32 // m/s
	WorldVelocityY     float32
	WorldVelocityZ     float32
	WorldForwardDirX   int16 // normalised, divide by 32767
	WorldForwardDirY   int16
	WorldForwardDirZ   int16
	WorldRightDirX     int16
	WorldRightDirY     int16
	WorldRightDirZ     int16
	GForceLateral      float32
	GForceLongitudinal float32
	GForceVertical     float32
	Yaw                float32 // radians
	Pitch              float32
	Roll               float32
}

// MotionPacket carries motion data for all cars.
type MotionPacket struct {
	Header Header
	Cars   [MaxCars]CarMotionData
}

func (p *MotionPacket) PacketHeader() Header { return p.Header }
func (p *MotionPacket) Kind() Kind           { return KindMotion }

func decodeMotion(h Header, r *reader) *MotionPacket {
	p := &MotionPacket{Header: h}
	for i := 0; i < MaxCars; i++ {
		c := &p.Cars[i]
		c.WorldPositionX = r.f32()
		c.WorldPositionY = r.f32()
		c.WorldPositionZ = r.f32()
		c.WorldVelocityX = r.f32()
		c.WorldVelocityY = r.f32()
		c.WorldVelocityZ = r.f32()
		c.WorldForwardDirX = r.i16()
		c.WorldForwardDirY = r.i16()
		c.WorldForwardDirZ = r.i16()
		c.WorldRightDirX = r.i16()
		c.WorldRightDirY = r.i16()
		c.WorldRightDirZ = r.i16()
		c.GForceLateral = r.f32()
		c.GForceLongitudinal = r.f32()
		c.GForceVertical = r.f32()
		c.Yaw = r.f32()
		c.Pitch = r.f32()
		c.Roll = r.f32()
	}
	return p
}

// MotionExPacket carries extended physics for the player car only. Wheel
// arrays are ordered RL, RR, FL, FR.
type MotionExPacket struct {
	Header                 Header
	SuspensionPosition     [4]float32
	SuspensionVelocity     [4]float32
	SuspensionAcceleration [4]float32
	WheelSpeed             [4]float32 // m/s
	WheelSlipRatio         [4]float32
	WheelSlipAngle         [4]float32
	WheelLatForce          [4]float32
	WheelLongForce         [4]float32
	HeightOfCOGAboveGround float32
	LocalVelocityX         float32
	LocalVelocityY         float32
	LocalVelocityZ         float32
	AngularVelocityX       float32
	AngularVelocityY       float32
	AngularVelocityZ       float32
	AngularAccelerationX   float32
	AngularAccelerationY   float32
	AngularAccelerationZ   float32
	FrontWheelsAngle       float32 // radians
	WheelVertForce         [4]float32

	// Format 2024+.
	FrontAeroHeight float32
	RearAeroHeight  float32
	FrontRollAngle  float32
	RearRollAngle   float32
	ChassisYaw      float32

	// Format 2025+.
	ChassisPitch    float32
	WheelCamber     [4]float32
	WheelCamberGain [4]float32
}

func (p *MotionExPacket) PacketHeader() Header { return p.Header }
func (p *MotionExPacket) Kind() Kind           { return KindMotionEx }

func decodeMotionEx(h Header, r *reader) *MotionExPacket {
	p := &MotionExPacket{Header: h}
	readWheels := func(dst *[4]float32) {
		for w := 0; w < 4; w++ {
			dst[w] = r.f32()
		}
	}
	readWheels(&p.SuspensionPosition)
	readWheels(&p.SuspensionVelocity)
	readWheels(&p.SuspensionAcceleration)
	readWheels(&p.WheelSpeed)
	readWheels(&p.WheelSlipRatio)
	readWheels(&p.WheelSlipAngle)
	readWheels(&p.WheelLatForce)
	readWheels(&p.WheelLongForce)
	p.HeightOfCOGAboveGround = r.f32()
	p.LocalVelocityX = r.f32()
	p.LocalVelocityY = r.f32()
	p.LocalVelocityZ = r.f32()
	p.AngularVelocityX = r.f32()
	p.AngularVelocityY = r.f32()
	p.AngularVelocityZ = r.f32()
	p.AngularAccelerationX = r.f32()
	p.AngularAccelerationY = r.f32()
	p.AngularAccelerationZ = r.f32()
	p.FrontWheelsAngle = r.f32()
	readWheels(&p.WheelVertForce)

	if h.PacketFormat >= FormatF124 {
		p.FrontAeroHeight = r.f32()
		p.RearAeroHeight = r.f32()
		p.FrontRollAngle = r.f32()
		p.RearRollAngle = r.f32()
		p.ChassisYaw = r.f32()
	}
	if h.PacketFormat >= FormatF125 {
		p.ChassisPitch = r.f32()
		readWheels(&p.WheelCamber)
		readWheels(&p.WheelCamberGain)
	}
	return p
}
