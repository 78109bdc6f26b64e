package model

import (
	"sync"

	"github.com/pitwall-live/pitwall/internal/f1/codec"
)

// CarPhysics is the high-rate per-car sample for overlays that want
// freshness over immutability.
type CarPhysics struct {
	WorldX   float32 `json:"world_x"`
	WorldY   float32 `json:"world_y"`
	WorldZ   float32 `json:"world_z"`
	SpeedKMH uint16  `json:"speed_kmh"`
	Gear     int8    `json:"gear"`
	RPM      uint16  `json:"rpm"`
	Throttle float32 `json:"throttle"`
	Brake    float32 `json:"brake"`
	DRSOpen  bool    `json:"drs_open"`
}

// PhysicsView is a copy of the physics slot taken under its lock.
type PhysicsView struct {
	Cars             [codec.MaxCars]CarPhysics `json:"cars"`
	FrontWheelsAngle float32                   `json:"front_wheels_angle"`
	SuggestedGear    int8                      `json:"suggested_gear"`
	MFDPanel         uint8                     `json:"mfd_panel"`
	FrameID          uint32                    `json:"frame_id"`
}

// physicsSlot holds the mutable 60 Hz fields behind a short mutex, outside
// the snapshot discipline.
type physicsSlot struct {
	mu   sync.Mutex
	view PhysicsView
}

func (p *physicsSlot) reset() {
	p.mu.Lock()
	p.view = PhysicsView{}
	p.mu.Unlock()
}

func (p *physicsSlot) applyMotion(pkt *codec.MotionPacket) {
	p.mu.Lock()
	for i := 0; i < codec.MaxCars; i++ {
		c := &p.view.Cars[i]
		c.WorldX = pkt.Cars[i].WorldPositionX
		c.WorldY = pkt.Cars[i].WorldPositionY
		c.WorldZ = pkt.Cars[i].WorldPositionZ
	}
	p.view.FrameID = pkt.Header.OverallFrameID
	p.mu.Unlock()
}

func (p *physicsSlot) applyTelemetry(pkt *codec.CarTelemetryPacket) {
	p.mu.Lock()
	for i := 0; i < codec.MaxCars; i++ {
		c := &p.view.Cars[i]
		t := pkt.Cars[i]
		c.SpeedKMH = t.Speed
		c.Gear = t.Gear
		c.RPM = t.EngineRPM
		c.Throttle = t.Throttle
		c.Brake = t.Brake
		c.DRSOpen = t.DRSOpen
	}
	p.view.SuggestedGear = pkt.SuggestedGear
	p.view.MFDPanel = pkt.MFDPanelIndex
	p.view.FrameID = pkt.Header.OverallFrameID
	p.mu.Unlock()
}

func (p *physicsSlot) applyMotionEx(pkt *codec.MotionExPacket) {
	p.mu.Lock()
	p.view.FrontWheelsAngle = pkt.FrontWheelsAngle
	p.view.FrameID = pkt.Header.OverallFrameID
	p.mu.Unlock()
}

func (p *physicsSlot) snapshot() PhysicsView {
	p.mu.Lock()
	v := p.view
	p.mu.Unlock()
	return v
}

// Physics returns a copy of the current physics slot.
func (m *Model) Physics() PhysicsView {
	return m.physics.snapshot()
}
