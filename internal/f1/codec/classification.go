package codec

// FinalClassificationData is one car's final result.
type FinalClassificationData struct {
	Position          uint8
	NumLaps           uint8
	GridPosition      uint8
	Points            uint8
	NumPitStops       uint8
	ResultStatus      ResultStatus
	ResultReason      uint8 // format 2025+
	BestLapTimeMS     uint32
	TotalRaceTimeSec  float64 // without penalties
	PenaltiesTimeSec  uint8
	NumPenalties      uint8
	NumTyreStints     uint8
	TyreStintsActual  []TyreCompound
	TyreStintsVisual  []VisualCompound
	TyreStintsEndLaps []uint8
}

// FinalClassificationPacket is sent once at session end.
type FinalClassificationPacket struct {
	Header  Header
	NumCars uint8
	Cars    []FinalClassificationData
}

func (p *FinalClassificationPacket) PacketHeader() Header { return p.Header }
func (p *FinalClassificationPacket) Kind() Kind           { return KindFinalClassification }

func decodeFinalClassification(h Header, r *reader) *FinalClassificationPacket {
	p := &FinalClassificationPacket{Header: h}
	p.NumCars = r.u8()
	if p.NumCars > MaxCars {
		p.NumCars = MaxCars
	}

	cars := make([]FinalClassificationData, 0, p.NumCars)
	for i := 0; i < MaxCars; i++ {
		d := decodeClassifiedCar(h.PacketFormat, r)
		if i < int(p.NumCars) {
			cars = append(cars, d)
		}
	}
	p.Cars = cars
	return p
}

func decodeClassifiedCar(format uint16, r *reader) FinalClassificationData {
	var d FinalClassificationData
	d.Position = r.u8()
	d.NumLaps = r.u8()
	d.GridPosition = r.u8()
	d.Points = r.u8()
	d.NumPitStops = r.u8()
	d.ResultStatus = ResultStatus(r.u8())
	if format >= FormatF125 {
		d.ResultReason = r.u8()
	}
	d.BestLapTimeMS = r.u32()
	d.TotalRaceTimeSec = r.f64()
	d.PenaltiesTimeSec = r.u8()
	d.NumPenalties = r.u8()
	d.NumTyreStints = r.u8()

	numStints := int(d.NumTyreStints)
	if numStints > maxTyreStints {
		numStints = maxTyreStints
	}
	actual := make([]TyreCompound, 0, numStints)
	for i := 0; i < maxTyreStints; i++ {
		c := CompoundFromRaw(format, r.u8())
		if i < numStints {
			actual = append(actual, c)
		}
	}
	visual := make([]VisualCompound, 0, numStints)
	for i := 0; i < maxTyreStints; i++ {
		c := VisualCompoundFromRaw(r.u8())
		if i < numStints {
			visual = append(visual, c)
		}
	}
	endLaps := make([]uint8, 0, numStints)
	for i := 0; i < maxTyreStints; i++ {
		l := r.u8()
		if i < numStints {
			endLaps = append(endLaps, l)
		}
	}
	d.TyreStintsActual = actual
	d.TyreStintsVisual = visual
	d.TyreStintsEndLaps = endLaps
	return d
}
