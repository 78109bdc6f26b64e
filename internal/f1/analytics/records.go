package analytics

// RecordHolder identifies the current owner of one session record.
type RecordHolder struct {
	DriverIdx int    `json:"driver_index"`
	LapNum    int    `json:"lap_num"`
	TimeMS    uint32 `json:"time_ms"`
	Held      bool   `json:"held"`
}

// beats reports whether t improves on the record. An equal time does not
// take a record: the first setter keeps it.
func (r RecordHolder) beats(t uint32) bool {
	return t > 0 && (!r.Held || t < r.TimeMS)
}

// SessionRecords tracks the global fastest lap and sector times.
type SessionRecords struct {
	FastestLap RecordHolder `json:"fastest_lap"`
	FastestS1  RecordHolder `json:"fastest_s1"`
	FastestS2  RecordHolder `json:"fastest_s2"`
	FastestS3  RecordHolder `json:"fastest_s3"`
}

// UpdateLap folds one completed lap into the records. Zero times (missing
// sectors) are ignored. Returns true if any record changed hands.
func (s *SessionRecords) UpdateLap(driver, lapNum int, lapMS, s1MS, s2MS, s3MS uint32) bool {
	changed := false
	update := func(r *RecordHolder, t uint32) {
		if r.beats(t) {
			*r = RecordHolder{DriverIdx: driver, LapNum: lapNum, TimeMS: t, Held: true}
			changed = true
		}
	}
	update(&s.FastestLap, lapMS)
	update(&s.FastestS1, s1MS)
	update(&s.FastestS2, s2MS)
	update(&s.FastestS3, s3MS)
	return changed
}

// CompoundRecord is the per-compound aggregate over all closed stints.
type CompoundRecord struct {
	Compound        string  `json:"compound"`
	LongestStint    int     `json:"longest_stint_laps"`
	LongestDriver   int     `json:"longest_stint_driver"`
	LowestWearPerLap float64 `json:"lowest_wear_per_lap"`
	LowestDriver    int     `json:"lowest_wear_driver"`
	HighestTotalWear float64 `json:"highest_total_wear"`
	HighestDriver   int     `json:"highest_wear_driver"`
	Stints          int     `json:"stints"`
}

// CompoundRecords aggregates stint outcomes keyed by visual compound.
type CompoundRecords struct {
	byCompound map[string]*CompoundRecord
}

// NewCompoundRecords returns an empty aggregate.
func NewCompoundRecords() *CompoundRecords {
	return &CompoundRecords{byCompound: make(map[string]*CompoundRecord)}
}

// OnStintClosed folds one finished stint into the compound's records.
// totalWear is the worst-corner wear accumulated over the stint.
func (c *CompoundRecords) OnStintClosed(compound string, driver, stintLaps int, totalWear float64) {
	if compound == "" || stintLaps <= 0 {
		return
	}
	rec, ok := c.byCompound[compound]
	if !ok {
		rec = &CompoundRecord{
			Compound:         compound,
			LowestWearPerLap: -1,
		}
		c.byCompound[compound] = rec
	}
	rec.Stints++

	if stintLaps > rec.LongestStint {
		rec.LongestStint = stintLaps
		rec.LongestDriver = driver
	}
	if totalWear > 0 {
		wearPerLap := totalWear / float64(stintLaps)
		if rec.LowestWearPerLap < 0 || wearPerLap < rec.LowestWearPerLap {
			rec.LowestWearPerLap = wearPerLap
			rec.LowestDriver = driver
		}
		if totalWear > rec.HighestTotalWear {
			rec.HighestTotalWear = totalWear
			rec.HighestDriver = driver
		}
	}
}

// All returns the per-compound records in stable map iteration-independent
// order is not needed by consumers; callers sort if they render.
func (c *CompoundRecords) All() []CompoundRecord {
	out := make([]CompoundRecord, 0, len(c.byCompound))
	for _, rec := range c.byCompound {
		out = append(out, *rec)
	}
	return out
}

// SpeedTrapRecords tracks the per-driver maximum trap speed.
type SpeedTrapRecords struct {
	maxSpeed [32]float32
}

// Observe records one trap reading. Returns true if it is a new personal
// maximum for the driver.
func (s *SpeedTrapRecords) Observe(driver int, speedKMH float32) bool {
	if driver < 0 || driver >= len(s.maxSpeed) || speedKMH <= 0 {
		return false
	}
	if speedKMH > s.maxSpeed[driver] {
		s.maxSpeed[driver] = speedKMH
		return true
	}
	return false
}

// Max returns the driver's best trap speed, zero if none seen.
func (s *SpeedTrapRecords) Max(driver int) float32 {
	if driver < 0 || driver >= len(s.maxSpeed) {
		return 0
	}
	return s.maxSpeed[driver]
}
