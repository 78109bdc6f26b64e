package analytics

import (
	"gonum.org/v1/gonum/mat"
)

// Corner indexes wear arrays in wire order.
const (
	CornerRL = 0
	CornerRR = 1
	CornerFL = 2
	CornerFR = 3
	Corners  = 4
)

// WearSample is one per-lap wear observation for a single corner.
type WearSample struct {
	LapInStint float64
	WearPct    float64
}

// WearFitKind reports which model produced a prediction.
type WearFitKind int

const (
	FitNone WearFitKind = iota
	FitLinear
	FitQuadratic
)

func (k WearFitKind) String() string {
	switch k {
	case FitLinear:
		return "linear"
	case FitQuadratic:
		return "quadratic"
	default:
		return "none"
	}
}

// WearFit is a fitted wear curve wear = c0 + c1*lap + c2*lap^2 for one
// corner over the current stint.
type WearFit struct {
	Kind  WearFitKind
	Coeff [3]float64
}

// FitWear fits a degree-2 least-squares polynomial over the stint's wear
// samples. With fewer than three samples, or when the quadratic system is
// singular, it falls back to a linear fit; below two samples there is no
// fit at all.
func FitWear(samples []WearSample) WearFit {
	if len(samples) >= 3 {
		if coeff, ok := polyFit(samples, 2); ok {
			return WearFit{Kind: FitQuadratic, Coeff: coeff}
		}
	}
	if len(samples) >= 2 {
		if coeff, ok := polyFit(samples, 1); ok {
			return WearFit{Kind: FitLinear, Coeff: coeff}
		}
	}
	return WearFit{Kind: FitNone}
}

// polyFit solves the Vandermonde least-squares system by QR. ok is false
// when the factorization cannot produce a finite solution.
func polyFit(samples []WearSample, degree int) ([3]float64, bool) {
	n := len(samples)
	cols := degree + 1

	a := mat.NewDense(n, cols, nil)
	b := mat.NewVecDense(n, nil)
	for i, s := range samples {
		x := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, x)
			x *= s.LapInStint
		}
		b.SetVec(i, s.WearPct)
	}

	var qr mat.QR
	qr.Factorize(a)

	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return [3]float64{}, false
	}

	var coeff [3]float64
	for j := 0; j < cols; j++ {
		v := sol.At(j, 0)
		if v != v { // NaN from a degenerate system
			return [3]float64{}, false
		}
		coeff[j] = v
	}
	return coeff, true
}

// PredictAt evaluates the fitted curve at a lap-in-stint value. Results are
// clamped to [0, 100]; ok is false when no fit exists.
func (f WearFit) PredictAt(lapInStint float64) (pct float64, ok bool) {
	if f.Kind == FitNone {
		return 0, false
	}
	v := f.Coeff[0] + f.Coeff[1]*lapInStint + f.Coeff[2]*lapInStint*lapInStint
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v, true
}

// WearPrediction is the per-corner outlook at one target lap.
type WearPrediction struct {
	TargetLap  float64    `json:"target_lap"`
	PerCorner  [4]float64 `json:"per_corner"` // RL, RR, FL, FR
	Average    float64    `json:"average"`
	MaxCorner  float64    `json:"max_corner"`
	FitKind    string     `json:"fit"`
	HaveAll    bool       `json:"-"`
}

// PredictCorners fits each corner independently and evaluates all four at
// the target lap. HaveAll is false if any corner lacked enough samples; the
// average and max then cover only the fitted corners.
func PredictCorners(perCorner [Corners][]WearSample, targetLap float64) WearPrediction {
	p := WearPrediction{TargetLap: targetLap, HaveAll: true, FitKind: FitNone.String()}
	fitted := 0
	sum := 0.0
	worstKind := FitQuadratic
	for c := 0; c < Corners; c++ {
		fit := FitWear(perCorner[c])
		v, ok := fit.PredictAt(targetLap)
		if !ok {
			p.HaveAll = false
			continue
		}
		if fit.Kind < worstKind {
			worstKind = fit.Kind
		}
		p.PerCorner[c] = v
		sum += v
		if v > p.MaxCorner {
			p.MaxCorner = v
		}
		fitted++
	}
	if fitted == 0 {
		p.HaveAll = false
		return p
	}
	p.Average = sum / float64(fitted)
	p.FitKind = worstKind.String()
	return p
}
