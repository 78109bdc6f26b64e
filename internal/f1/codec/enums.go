package codec

import "fmt"

// Enum decoding policy: every enum is carried as a small named type whose
// String method resolves through a closed table. Raw values outside the table
// keep their numeric value and render as "unknown(N)" so nothing is lost on
// the wire even when a future game patch extends an enum.

// Weather condition. Stable across format years 2023-2025.
type Weather uint8

const (
	WeatherClear      Weather = 0
	WeatherLightCloud Weather = 1
	WeatherOvercast   Weather = 2
	WeatherLightRain  Weather = 3
	WeatherHeavyRain  Weather = 4
	WeatherStorm      Weather = 5
)

var weatherNames = map[Weather]string{
	WeatherClear:      "clear",
	WeatherLightCloud: "light_cloud",
	WeatherOvercast:   "overcast",
	WeatherLightRain:  "light_rain",
	WeatherHeavyRain:  "heavy_rain",
	WeatherStorm:      "storm",
}

func (w Weather) String() string { return enumName(weatherNames, w) }

// SessionType is the version-neutral session classification. The on-wire
// numbering changed between format 2023 and 2024, so raw values must go
// through SessionTypeFromRaw.
type SessionType uint8

const (
	SessionUnknown SessionType = iota
	SessionPractice1
	SessionPractice2
	SessionPractice3
	SessionShortPractice
	SessionQualifying1
	SessionQualifying2
	SessionQualifying3
	SessionShortQualifying
	SessionOneShotQualifying
	SessionSprintShootout1
	SessionSprintShootout2
	SessionSprintShootout3
	SessionShortSprintShootout
	SessionOneShotSprintShootout
	SessionRace
	SessionRace2
	SessionRace3
	SessionTimeTrial
)

var sessionTypeNames = map[SessionType]string{
	SessionUnknown:               "unknown",
	SessionPractice1:             "practice_1",
	SessionPractice2:             "practice_2",
	SessionPractice3:             "practice_3",
	SessionShortPractice:         "short_practice",
	SessionQualifying1:           "qualifying_1",
	SessionQualifying2:           "qualifying_2",
	SessionQualifying3:           "qualifying_3",
	SessionShortQualifying:       "short_qualifying",
	SessionOneShotQualifying:     "one_shot_qualifying",
	SessionSprintShootout1:       "sprint_shootout_1",
	SessionSprintShootout2:       "sprint_shootout_2",
	SessionSprintShootout3:       "sprint_shootout_3",
	SessionShortSprintShootout:   "short_sprint_shootout",
	SessionOneShotSprintShootout: "one_shot_sprint_shootout",
	SessionRace:                  "race",
	SessionRace2:                 "race_2",
	SessionRace3:                 "race_3",
	SessionTimeTrial:             "time_trial",
}

func (s SessionType) String() string { return enumName(sessionTypeNames, s) }

// IsRace reports whether the session is one of the race variants.
func (s SessionType) IsRace() bool {
	return s == SessionRace || s == SessionRace2 || s == SessionRace3
}

// sessionType2023 maps the format-2023 on-wire values.
var sessionType2023 = map[uint8]SessionType{
	0: SessionUnknown, 1: SessionPractice1, 2: SessionPractice2, 3: SessionPractice3,
	4: SessionShortPractice, 5: SessionQualifying1, 6: SessionQualifying2, 7: SessionQualifying3,
	8: SessionShortQualifying, 9: SessionOneShotQualifying,
	10: SessionSprintShootout1, 11: SessionSprintShootout2, 12: SessionSprintShootout3,
	13: SessionShortSprintShootout, 14: SessionOneShotSprintShootout,
	15: SessionRace, 16: SessionRace2, 17: SessionRace3, 18: SessionTimeTrial,
}

// sessionType2024 maps the format-2024/2025 on-wire values (identical tables).
var sessionType2024 = map[uint8]SessionType{
	0: SessionUnknown, 1: SessionPractice1, 2: SessionPractice2, 3: SessionPractice3,
	4: SessionShortPractice, 5: SessionQualifying1, 6: SessionQualifying2, 7: SessionQualifying3,
	8: SessionShortQualifying, 9: SessionOneShotQualifying,
	10: SessionSprintShootout1, 11: SessionSprintShootout2, 12: SessionSprintShootout3,
	13: SessionShortSprintShootout, 14: SessionOneShotSprintShootout,
	15: SessionRace, 16: SessionRace2, 17: SessionRace3, 18: SessionTimeTrial,
}

// SessionTypeFromRaw normalizes an on-wire session type for the given format
// year. Unknown raw values map to SessionUnknown; the caller keeps the raw
// byte if it needs to surface it.
func SessionTypeFromRaw(format uint16, raw uint8) SessionType {
	table := sessionType2024
	if format == FormatF123 {
		table = sessionType2023
	}
	if st, ok := table[raw]; ok {
		return st
	}
	return SessionUnknown
}

// SafetyCarStatus reported in the session packet.
type SafetyCarStatus uint8

const (
	SafetyCarNone      SafetyCarStatus = 0
	SafetyCarFull      SafetyCarStatus = 1
	SafetyCarVirtual   SafetyCarStatus = 2
	SafetyCarFormation SafetyCarStatus = 3
)

var safetyCarNames = map[SafetyCarStatus]string{
	SafetyCarNone:      "none",
	SafetyCarFull:      "safety_car",
	SafetyCarVirtual:   "virtual_safety_car",
	SafetyCarFormation: "formation_lap",
}

func (s SafetyCarStatus) String() string { return enumName(safetyCarNames, s) }

// ERSDeployMode is the discrete deployment strategy.
type ERSDeployMode uint8

const (
	ERSModeNone     ERSDeployMode = 0
	ERSModeMedium   ERSDeployMode = 1
	ERSModeHotlap   ERSDeployMode = 2
	ERSModeOvertake ERSDeployMode = 3
)

var ersModeNames = map[ERSDeployMode]string{
	ERSModeNone:     "none",
	ERSModeMedium:   "medium",
	ERSModeHotlap:   "hotlap",
	ERSModeOvertake: "overtake",
}

func (m ERSDeployMode) String() string { return enumName(ersModeNames, m) }

// FuelMix setting.
type FuelMix uint8

const (
	FuelMixLean     FuelMix = 0
	FuelMixStandard FuelMix = 1
	FuelMixRich     FuelMix = 2
	FuelMixMax      FuelMix = 3
)

var fuelMixNames = map[FuelMix]string{
	FuelMixLean:     "lean",
	FuelMixStandard: "standard",
	FuelMixRich:     "rich",
	FuelMixMax:      "max",
}

func (m FuelMix) String() string { return enumName(fuelMixNames, m) }

// TyreCompound is the version-neutral actual compound.
type TyreCompound uint8

const (
	CompoundUnknown TyreCompound = iota
	CompoundC6
	CompoundC5
	CompoundC4
	CompoundC3
	CompoundC2
	CompoundC1
	CompoundC0
	CompoundInter
	CompoundWet
	CompoundClassicDry
	CompoundClassicWet
	CompoundF2SuperSoft
	CompoundF2Soft
	CompoundF2Medium
	CompoundF2Hard
	CompoundF2Wet
)

var compoundNames = map[TyreCompound]string{
	CompoundUnknown:     "unknown",
	CompoundC6:          "C6",
	CompoundC5:          "C5",
	CompoundC4:          "C4",
	CompoundC3:          "C3",
	CompoundC2:          "C2",
	CompoundC1:          "C1",
	CompoundC0:          "C0",
	CompoundInter:       "intermediate",
	CompoundWet:         "wet",
	CompoundClassicDry:  "classic_dry",
	CompoundClassicWet:  "classic_wet",
	CompoundF2SuperSoft: "f2_supersoft",
	CompoundF2Soft:      "f2_soft",
	CompoundF2Medium:    "f2_medium",
	CompoundF2Hard:      "f2_hard",
	CompoundF2Wet:       "f2_wet",
}

func (c TyreCompound) String() string { return enumName(compoundNames, c) }

// CompoundFromRaw normalizes an on-wire actual-compound id for the given
// format year. C0 exists from format 2024, C6 from format 2025.
func CompoundFromRaw(format uint16, raw uint8) TyreCompound {
	switch raw {
	case 7:
		return CompoundInter
	case 8:
		return CompoundWet
	case 9:
		return CompoundClassicDry
	case 10:
		return CompoundClassicWet
	case 11:
		return CompoundF2SuperSoft
	case 12:
		return CompoundF2Soft
	case 13:
		return CompoundF2Medium
	case 14:
		return CompoundF2Hard
	case 15:
		return CompoundF2Wet
	case 16:
		return CompoundC5
	case 17:
		return CompoundC4
	case 18:
		return CompoundC3
	case 19:
		return CompoundC2
	case 20:
		return CompoundC1
	case 21:
		if format >= FormatF124 {
			return CompoundC0
		}
	case 22:
		if format >= FormatF125 {
			return CompoundC6
		}
	}
	return CompoundUnknown
}

// VisualCompound is the slick colour band (or inter/wet) shown on screen.
type VisualCompound uint8

const (
	VisualUnknown VisualCompound = iota
	VisualSoft
	VisualMedium
	VisualHard
	VisualInter
	VisualWet
)

var visualNames = map[VisualCompound]string{
	VisualUnknown: "unknown",
	VisualSoft:    "soft",
	VisualMedium:  "medium",
	VisualHard:    "hard",
	VisualInter:   "intermediate",
	VisualWet:     "wet",
}

func (v VisualCompound) String() string { return enumName(visualNames, v) }

// VisualCompoundFromRaw normalizes an on-wire visual-compound id. The table
// is identical for 2023-2025.
func VisualCompoundFromRaw(raw uint8) VisualCompound {
	switch raw {
	case 16:
		return VisualSoft
	case 17:
		return VisualMedium
	case 18:
		return VisualHard
	case 7:
		return VisualInter
	case 8:
		return VisualWet
	}
	return VisualUnknown
}

// PenaltyType from the PENA event.
type PenaltyType uint8

const (
	PenaltyDriveThrough             PenaltyType = 0
	PenaltyStopGo                   PenaltyType = 1
	PenaltyGrid                     PenaltyType = 2
	PenaltyReminder                 PenaltyType = 3
	PenaltyTime                     PenaltyType = 4
	PenaltyWarning                  PenaltyType = 5
	PenaltyDisqualified             PenaltyType = 6
	PenaltyRemovedFromFormation     PenaltyType = 7
	PenaltyParkedTooLong            PenaltyType = 8
	PenaltyTyreRegulations          PenaltyType = 9
	PenaltyLapInvalidated           PenaltyType = 10
	PenaltyThisAndNextInvalidated   PenaltyType = 11
	PenaltyLapInvalidatedNoReason   PenaltyType = 12
	PenaltyThisNextInvalidNoReason  PenaltyType = 13
	PenaltyThisAndPrevInvalidated   PenaltyType = 14
	PenaltyThisPrevInvalidNoReason  PenaltyType = 15
	PenaltyRetired                  PenaltyType = 16
	PenaltyBlackFlagTimer           PenaltyType = 17
)

var penaltyNames = map[PenaltyType]string{
	PenaltyDriveThrough:            "drive_through",
	PenaltyStopGo:                  "stop_go",
	PenaltyGrid:                    "grid_penalty",
	PenaltyReminder:                "penalty_reminder",
	PenaltyTime:                    "time_penalty",
	PenaltyWarning:                 "warning",
	PenaltyDisqualified:            "disqualified",
	PenaltyRemovedFromFormation:    "removed_from_formation_lap",
	PenaltyParkedTooLong:           "parked_too_long",
	PenaltyTyreRegulations:         "tyre_regulations",
	PenaltyLapInvalidated:          "lap_invalidated",
	PenaltyThisAndNextInvalidated:  "this_and_next_lap_invalidated",
	PenaltyLapInvalidatedNoReason:  "lap_invalidated_without_reason",
	PenaltyThisNextInvalidNoReason: "this_and_next_lap_invalidated_without_reason",
	PenaltyThisAndPrevInvalidated:  "this_and_previous_lap_invalidated",
	PenaltyThisPrevInvalidNoReason: "this_and_previous_lap_invalidated_without_reason",
	PenaltyRetired:                 "retired",
	PenaltyBlackFlagTimer:          "black_flag_timer",
}

func (p PenaltyType) String() string { return enumName(penaltyNames, p) }

// InfringementType accompanies a penalty. Only the commonly observed codes
// are named; the rest render as unknown(N).
type InfringementType uint8

var infringementNames = map[InfringementType]string{
	0:  "blocking_slow_driving",
	1:  "blocking_wrong_way",
	2:  "reversing_off_start_line",
	3:  "big_collision",
	4:  "small_collision",
	5:  "collision_failed_give_back_single",
	6:  "collision_failed_give_back_multiple",
	7:  "corner_cutting_time_gain",
	8:  "corner_cutting_overtake_single",
	9:  "corner_cutting_overtake_multiple",
	10: "crossed_pit_exit_lane",
	11: "ignoring_blue_flags",
	12: "ignoring_yellow_flags",
	13: "ignoring_drive_through",
	14: "too_many_drive_throughs",
	15: "drive_through_reminder_serve_within_n_laps",
	16: "drive_through_reminder_serve_this_lap",
	17: "pit_lane_speeding",
	18: "parked_for_too_long",
	19: "ignoring_tyre_regulations",
	20: "too_many_penalties",
	21: "multiple_warnings",
	22: "approaching_disqualification",
	23: "tyre_regulations_select_single",
	24: "tyre_regulations_select_multiple",
	25: "lap_invalidated_corner_cutting",
	26: "lap_invalidated_running_wide",
	27: "corner_cutting_ran_wide_minor_gain",
	28: "corner_cutting_ran_wide_significant_gain",
	29: "corner_cutting_ran_wide_extreme_gain",
	30: "lap_invalidated_wall_riding",
	31: "lap_invalidated_flashback_used",
	32: "lap_invalidated_reset_to_track",
	33: "blocking_pitlane",
	34: "jump_start",
	35: "safety_car_to_car_collision",
	36: "safety_car_illegal_overtake",
	37: "safety_car_exceeding_allowed_pace",
	38: "virtual_safety_car_exceeding_allowed_pace",
	39: "formation_lap_below_allowed_speed",
	40: "formation_lap_parking",
	41: "retired_mechanical_failure",
	42: "retired_terminally_damaged",
	43: "safety_car_falling_too_far_back",
	44: "black_flag_timer",
	45: "unserved_stop_go_penalty",
	46: "unserved_drive_through_penalty",
	47: "engine_component_change",
	48: "gearbox_change",
	49: "parc_ferme_change",
	50: "league_grid_penalty",
	51: "retry_penalty",
	52: "illegal_time_gain",
	53: "mandatory_pitstop",
	54: "attribute_assigned",
}

func (i InfringementType) String() string { return enumName(infringementNames, i) }

// ResultStatus is the per-driver classification state.
type ResultStatus uint8

const (
	ResultInvalid       ResultStatus = 0
	ResultInactive      ResultStatus = 1
	ResultActive        ResultStatus = 2
	ResultFinished      ResultStatus = 3
	ResultDNF           ResultStatus = 4
	ResultDisqualified  ResultStatus = 5
	ResultNotClassified ResultStatus = 6
	ResultRetired       ResultStatus = 7
)

var resultStatusNames = map[ResultStatus]string{
	ResultInvalid:       "invalid",
	ResultInactive:      "inactive",
	ResultActive:        "active",
	ResultFinished:      "finished",
	ResultDNF:           "dnf",
	ResultDisqualified:  "disqualified",
	ResultNotClassified: "not_classified",
	ResultRetired:       "retired",
}

func (s ResultStatus) String() string { return enumName(resultStatusNames, s) }

// IsTerminal reports whether the status inhibits further lap updates.
func (s ResultStatus) IsTerminal() bool {
	switch s {
	case ResultFinished, ResultDNF, ResultDisqualified, ResultNotClassified, ResultRetired:
		return true
	}
	return false
}

// PitStatus from the lap data packet.
type PitStatus uint8

const (
	PitNone    PitStatus = 0
	PitPitting PitStatus = 1
	PitInArea  PitStatus = 2
)

var pitStatusNames = map[PitStatus]string{
	PitNone:    "none",
	PitPitting: "pitting",
	PitInArea:  "in_pit_area",
}

func (p PitStatus) String() string { return enumName(pitStatusNames, p) }

// DriverStatus from the lap data packet.
type DriverStatus uint8

const (
	DriverInGarage  DriverStatus = 0
	DriverFlyingLap DriverStatus = 1
	DriverInLap     DriverStatus = 2
	DriverOutLap    DriverStatus = 3
	DriverOnTrack   DriverStatus = 4
)

var driverStatusNames = map[DriverStatus]string{
	DriverInGarage:  "in_garage",
	DriverFlyingLap: "flying_lap",
	DriverInLap:     "in_lap",
	DriverOutLap:    "out_lap",
	DriverOnTrack:   "on_track",
}

func (d DriverStatus) String() string { return enumName(driverStatusNames, d) }

// Surface under a wheel, from the motion-ex packet.
type Surface uint8

var surfaceNames = map[Surface]string{
	0:  "tarmac",
	1:  "rumble_strip",
	2:  "concrete",
	3:  "rock",
	4:  "gravel",
	5:  "mud",
	6:  "sand",
	7:  "grass",
	8:  "water",
	9:  "cobblestone",
	10: "metal",
	11: "ridged",
}

func (s Surface) String() string { return enumName(surfaceNames, s) }

// enumName resolves v through the closed table, falling back to unknown(N).
func enumName[K ~uint8](table map[K]string, v K) string {
	if name, ok := table[v]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}
