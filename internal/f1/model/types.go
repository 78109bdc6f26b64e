package model

import (
	"time"

	"github.com/pitwall-live/pitwall/internal/f1/analytics"
	"github.com/pitwall-live/pitwall/internal/f1/codec"
)

// SectorStatus is the colour class of a sector time relative to personal
// and session bests.
type SectorStatus string

const (
	SectorNA      SectorStatus = "na"
	SectorInvalid SectorStatus = "invalid"
	SectorYellow  SectorStatus = "yellow"
	SectorGreen   SectorStatus = "green"
	SectorPurple  SectorStatus = "purple"
)

// DriverState is the participant lifecycle state. Terminal states inhibit
// further lap updates.
type DriverState string

const (
	StateRacing   DriverState = "racing"
	StatePitting  DriverState = "pitting"
	StateDNF      DriverState = "dnf"
	StateDSQ      DriverState = "dsq"
	StateRetired  DriverState = "retired"
	StateFinished DriverState = "finished"
)

// IsTerminal reports whether the state blocks lap-data mutation.
func (s DriverState) IsTerminal() bool {
	switch s {
	case StateDNF, StateDSQ, StateRetired, StateFinished:
		return true
	}
	return false
}

// SessionInfo is the published session header.
type SessionInfo struct {
	UID             uint64              `json:"uid"`
	Format          uint16              `json:"format"`
	Type            string              `json:"type"`
	IsRace          bool                `json:"is_race"`
	TrackID         int8                `json:"track_id"`
	TotalLaps       uint8               `json:"total_laps"`
	TrackLengthM    uint16              `json:"track_length_m"`
	TimeLeftSec     uint16              `json:"time_left_sec"`
	DurationSec     uint16              `json:"duration_sec"`
	PitSpeedLimit   uint8               `json:"pit_speed_limit_kmh"`
	Weather         string              `json:"weather"`
	TrackTempC      int8                `json:"track_temp_c"`
	AirTempC        int8                `json:"air_temp_c"`
	SafetyCar       string              `json:"safety_car"`
	Forecast        []ForecastSample    `json:"forecast,omitempty"`
	PitWindowIdeal  uint8               `json:"pit_window_ideal_lap"`
	PitWindowLatest uint8               `json:"pit_window_latest_lap"`
	PlayerCarIndex  int                 `json:"player_car_index"`
}

// ForecastSample is one weather-forecast entry.
type ForecastSample struct {
	SessionType   string `json:"session_type"`
	TimeOffsetMin uint8  `json:"time_offset_min"`
	Weather       string `json:"weather"`
	TrackTempC    int8   `json:"track_temp_c"`
	AirTempC      int8   `json:"air_temp_c"`
	RainPct       uint8  `json:"rain_pct"`
}

// CompletedLap is one lap in a driver's history.
type CompletedLap struct {
	LapNum       int     `json:"lap_num"`
	LapTimeMS    uint32  `json:"lap_time_ms"`
	Sector1MS    uint32  `json:"s1_ms"`
	Sector2MS    uint32  `json:"s2_ms"`
	Sector3MS    uint32  `json:"s3_ms"`
	Valid        bool    `json:"valid"`
	TyreSet      int     `json:"tyre_set"`
	Compound     string  `json:"compound"`
	TopSpeedKMH  float32 `json:"top_speed_kmh"`
	Position     uint8   `json:"position"`
	FuelInTankKG float32 `json:"fuel_in_tank_kg"`
	ERSStorePct  float64 `json:"ers_store_pct"`
}

// Stint is a contiguous run on one tyre set.
type Stint struct {
	StartLap    int       `json:"start_lap"`
	EndLap      int       `json:"end_lap"` // equals current lap while open
	Open        bool      `json:"open"`
	TyreSet     int       `json:"tyre_set"`
	Compound    string    `json:"compound"`
	WearHistory []LapWear `json:"wear_history,omitempty"`
}

// LapWear is the per-corner wear sample taken at one lap boundary.
type LapWear struct {
	Lap  int        `json:"lap"`
	Wear [4]float32 `json:"wear"` // RL, RR, FL, FR
}

// CarStatusInfo is the published subset of the car-status packet.
type CarStatusInfo struct {
	FuelInTankKG      float32 `json:"fuel_in_tank_kg"`
	FuelCapacityKG    float32 `json:"fuel_capacity_kg"`
	FuelRemainingLaps float32 `json:"fuel_remaining_laps_game"`
	FuelMix           string  `json:"fuel_mix"`
	ERSStorePct       float64 `json:"ers_store_pct"`
	ERSDeployMode     string  `json:"ers_deploy_mode"`
	ERSDeployedPct    float64 `json:"ers_deployed_pct"`
	ERSHarvestedMGUK  float32 `json:"ers_harvested_mguk_j"`
	ERSHarvestedMGUH  float32 `json:"ers_harvested_mguh_j"`
	DRSAllowed        bool    `json:"drs_allowed"`
	VisualCompound    string  `json:"visual_compound"`
	ActualCompound    string  `json:"actual_compound"`
	TyreAgeLaps       uint8   `json:"tyre_age_laps"`
}

// DamageInfo is the published subset of the car-damage packet.
type DamageInfo struct {
	TyresWear     [4]float32 `json:"tyres_wear"` // RL, RR, FL, FR
	TyresDamage   [4]uint8   `json:"tyres_damage"`
	FrontLeftWing uint8      `json:"front_left_wing"`
	FrontRightWing uint8     `json:"front_right_wing"`
	RearWing      uint8      `json:"rear_wing"`
	Floor         uint8      `json:"floor"`
	Diffuser      uint8      `json:"diffuser"`
	Sidepod       uint8      `json:"sidepod"`
	GearboxDamage uint8      `json:"gearbox_damage"`
	EngineDamage  uint8      `json:"engine_damage"`
}

// TyreSetInfo is one entry of the published tyre-set inventory.
type TyreSetInfo struct {
	Index          int    `json:"index"`
	ActualCompound string `json:"actual_compound"`
	VisualCompound string `json:"visual_compound"`
	WearPct        uint8  `json:"wear_pct"`
	Available      bool   `json:"available"`
	LifeSpanLaps   uint8  `json:"life_span_laps"`
	UsableLifeLaps uint8  `json:"usable_life_laps"`
	DeltaTimeMS    int16  `json:"delta_time_ms"`
	Fitted         bool   `json:"fitted"`
}

// WarningEvent records a change in a driver's penalty or warning counters.
type WarningEvent struct {
	Lap         int     `json:"lap"`
	Sector      int     `json:"sector"`
	LapProgress float32 `json:"lap_progress_pct"`
	Kind        string  `json:"kind"` // corner_cutting, time_penalty, drive_through, stop_go, total_warnings
	OldValue    int     `json:"old_value"`
	NewValue    int     `json:"new_value"`
}

// Collision is a de-duplicated car-to-car contact record.
type Collision struct {
	Driver1    int `json:"driver_1"`
	Driver2    int `json:"driver_2"`
	Driver1Lap int `json:"driver_1_lap"`
	Driver2Lap int `json:"driver_2_lap"`
}

// CustomMarker bookmarks a moment in the session.
type CustomMarker struct {
	Lap           int     `json:"lap"`
	Sector        int     `json:"sector"`
	LapProgress   float32 `json:"lap_progress_pct"`
	EventType     string  `json:"event_type"`
	TrackID       int8    `json:"track_id"`
	CurrentLapMS  uint32  `json:"current_lap_ms"`
	SessionTime   float32 `json:"session_time"`
}

// ClassificationInfo is one row of the final classification.
type ClassificationInfo struct {
	Position     uint8   `json:"position"`
	NumLaps      uint8   `json:"num_laps"`
	GridPosition uint8   `json:"grid_position"`
	Points       uint8   `json:"points"`
	NumPitStops  uint8   `json:"num_pit_stops"`
	ResultStatus string  `json:"result_status"`
	BestLapMS    uint32  `json:"best_lap_ms"`
	RaceTimeSec  float64 `json:"race_time_sec"`
	PenaltiesSec uint8   `json:"penalties_sec"`
}

// DriverRow is the per-driver dashboard row in every snapshot.
type DriverRow struct {
	Index          int             `json:"index"`
	Active         bool            `json:"active"`
	Name           string          `json:"name"`
	TeamID         uint8           `json:"team_id"`
	RaceNumber     uint8           `json:"race_number"`
	IsPlayer       bool            `json:"is_player"`
	IsAI           bool            `json:"is_ai"`
	Position       uint8           `json:"position"`
	GridPosition   uint8           `json:"grid_position"`
	State          DriverState     `json:"state"`
	CurrentLap     int             `json:"current_lap"`
	CompletedLaps  int             `json:"completed_laps"`
	LastLapMS      uint32          `json:"last_lap_ms"`
	BestLapMS      uint32          `json:"best_lap_ms"`
	CurrentLapMS   uint32          `json:"current_lap_ms"`
	Sector         int             `json:"sector"`
	SectorStatus   [3]SectorStatus `json:"sector_status"`
	DeltaAheadMS   uint32          `json:"delta_ahead_ms"`
	DeltaLeaderMS  uint32          `json:"delta_leader_ms"`
	PitStatus      string          `json:"pit_status"`
	NumPitStops    uint8           `json:"num_pit_stops"`
	Penalties      uint8           `json:"penalties_sec"`
	TotalWarnings  uint8           `json:"total_warnings"`
	CornerWarnings uint8           `json:"corner_cutting_warnings"`
	Status         CarStatusInfo   `json:"status"`
	Damage         DamageInfo      `json:"damage"`
	FuelRateKGLap  float64         `json:"fuel_rate_kg_lap"`
	FuelLapsLeft   float64         `json:"fuel_laps_left"`

	// Fuel strategy block: surplus over the laps left plus both target-rate
	// modes (empty-at-the-flag average, allowance for the next lap).
	FuelSurplusLaps  float64 `json:"fuel_surplus_laps"`
	FuelTargetAvgKG  float64 `json:"fuel_target_avg_kg_lap"`
	FuelTargetNextKG float64 `json:"fuel_target_next_lap_kg"`

	SpeedTrapKMH   float32                   `json:"speed_trap_kmh"`
	WearPrediction *analytics.WearPrediction `json:"wear_prediction,omitempty"`
}

// DriverDetail is the extended per-driver record served on demand.
type DriverDetail struct {
	Row        DriverRow      `json:"row"`
	LapHistory []CompletedLap `json:"lap_history"`
	Stints     []Stint        `json:"stints"`
	TyreSets   []TyreSetInfo  `json:"tyre_sets,omitempty"`
	Warnings   []WarningEvent `json:"warnings,omitempty"`
	Collisions []Collision    `json:"collisions,omitempty"`
	Classification *ClassificationInfo `json:"classification,omitempty"`
	Positions  []uint8        `json:"positions_by_lap,omitempty"`
}

// PaceComparison is the player-centric adjacent-car view.
type PaceComparison struct {
	PlayerIdx int           `json:"player_index"`
	Ahead     []PaceEntry   `json:"ahead"`
	Behind    []PaceEntry   `json:"behind"`
}

// PaceEntry is one car in the pace comparison with last-lap sector deltas
// relative to the player (positive = slower than player).
type PaceEntry struct {
	Index        int     `json:"index"`
	Name         string  `json:"name"`
	Position     uint8   `json:"position"`
	LastLapMS    uint32  `json:"last_lap_ms"`
	DeltaS1MS    int64   `json:"delta_s1_ms"`
	DeltaS2MS    int64   `json:"delta_s2_ms"`
	DeltaS3MS    int64   `json:"delta_s3_ms"`
	DeltaLapMS   int64   `json:"delta_lap_ms"`
	ERSStorePct  float64 `json:"ers_store_pct"`
	ERSMode      string  `json:"ers_mode"`
}

// RaceStats is the aggregated-records view served on demand.
type RaceStats struct {
	SessionUID      uint64                     `json:"session_uid"`
	Records         analytics.SessionRecords   `json:"records"`
	CompoundRecords []analytics.CompoundRecord `json:"compound_records"`
	Collisions      []Collision                `json:"collisions"`
	Markers         []CustomMarker             `json:"custom_markers"`
	SpeedTraps      map[int]float32            `json:"speed_traps"`
	Positions       map[int][]uint8            `json:"positions_by_lap"`
}

// Counters is the model's discrepancy bookkeeping.
type Counters struct {
	Applied            uint64 `json:"applied"`
	Stale              uint64 `json:"stale"`
	InvariantViolations uint64 `json:"invariant_violations"`
	SessionSwaps       uint64 `json:"session_swaps"`
}

// Snapshot is the immutable published view of the race. Slices reachable
// from a snapshot are either append-only or copied on publish; readers may
// hold one indefinitely.
type Snapshot struct {
	Session   SessionInfo `json:"session"`
	Drivers   []DriverRow `json:"drivers"`
	NumActive int         `json:"num_active"`
	UpdatedAt time.Time   `json:"updated_at"`
	Counters  Counters    `json:"counters"`

	records    analytics.SessionRecords
	compounds  []analytics.CompoundRecord
	collisions []Collision
	markers    []CustomMarker
	speedTraps map[int]float32
	positions  map[int][]uint8

	details [codec.MaxCars]snapshotDetail
}

// snapshotDetail holds the per-driver deep data the row omits.
type snapshotDetail struct {
	history        []CompletedLap
	stints         []Stint
	tyreSets       []TyreSetInfo
	warnings       []WarningEvent
	classification *ClassificationInfo
	positions      []uint8
}
