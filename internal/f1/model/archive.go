package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pitwall-live/pitwall/internal/f1/analytics"
)

// Archive is the structured session dump written at session end. Reloading
// it reproduces every exposed field of the model it was built from.
type Archive struct {
	Reason       string                     `json:"reason"`
	ArchivedAt   time.Time                  `json:"archived_at"`
	Session      SessionInfo                `json:"session"`
	Participants []ArchivedDriver           `json:"participants"`
	Records      analytics.SessionRecords   `json:"records"`
	Compounds    []analytics.CompoundRecord `json:"compound_records"`
	Collisions   []Collision                `json:"collisions"`
	Markers      []CustomMarker             `json:"custom_markers"`
}

// ArchivedDriver is one participant's full record in the archive.
type ArchivedDriver struct {
	Index          int                 `json:"index"`
	Name           string              `json:"name"`
	TeamID         uint8               `json:"team_id"`
	RaceNumber     uint8               `json:"race_number"`
	IsAI           bool                `json:"is_ai"`
	State          DriverState         `json:"state"`
	LapHistory     []CompletedLap      `json:"lap_history"`
	Stints         []Stint             `json:"stints"`
	TyreSets       []TyreSetInfo       `json:"tyre_sets,omitempty"`
	Damage         DamageInfo          `json:"damage"`
	Warnings       []WarningEvent      `json:"warnings,omitempty"`
	Positions      []uint8             `json:"positions_by_lap,omitempty"`
	SpeedTrapKMH   float32             `json:"speed_trap_kmh"`
	Classification *ClassificationInfo `json:"final_classification,omitempty"`
}

// buildArchive assembles the archive from writer state. Writer goroutine
// only.
func (m *Model) buildArchive(reason string) *Archive {
	a := &Archive{
		Reason:     reason,
		ArchivedAt: m.clock.Now(),
		Session:    m.session,
		Records:    m.records,
		Compounds:  m.compounds.All(),
		Collisions: m.collisions,
		Markers:    m.markers,
	}
	for i, d := range m.drivers {
		if !d.active && len(d.history) == 0 {
			continue
		}
		ad := ArchivedDriver{
			Index:          i,
			Name:           d.part.Name,
			TeamID:         d.part.TeamID,
			RaceNumber:     d.part.RaceNumber,
			IsAI:           d.part.AIControlled,
			State:          d.state,
			LapHistory:     d.history,
			Stints:         append([]Stint(nil), d.stints...),
			TyreSets:       d.tyreSets,
			Warnings:       d.warnings,
			Positions:      d.positionsByLap,
			SpeedTrapKMH:   d.speedTrapBest,
			Classification: d.classification,
		}
		if d.haveDamage {
			ad.Damage = DamageInfo{
				TyresWear:      d.damage.TyresWear,
				TyresDamage:    d.damage.TyresDamage,
				FrontLeftWing:  d.damage.FrontLeftWingDamage,
				FrontRightWing: d.damage.FrontRightWingDamage,
				RearWing:       d.damage.RearWingDamage,
				Floor:          d.damage.FloorDamage,
				Diffuser:       d.damage.DiffuserDamage,
				Sidepod:        d.damage.SidepodDamage,
				GearboxDamage:  d.damage.GearBoxDamage,
				EngineDamage:   d.damage.EngineDamage,
			}
		}
		a.Participants = append(a.Participants, ad)
	}
	return a
}

// Filename builds the archive filename from session identity.
func (a *Archive) Filename() string {
	return fmt.Sprintf("%s_%s_%s.json",
		TrackName(a.Session.TrackID), a.Session.Type,
		a.ArchivedAt.Format("20060102-150405"))
}

// Save writes the archive as indented JSON under dir, creating it if
// needed. Returns the written path.
func (a *Archive) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}
	path := filepath.Join(dir, a.Filename())
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	return path, nil
}

// LoadArchive reads an archive back from disk.
func LoadArchive(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode archive %s: %w", filepath.Base(path), err)
	}
	return &a, nil
}
