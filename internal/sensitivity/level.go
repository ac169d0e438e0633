package sensitivity

import "math"

// Level nivel cualitativo de sensibilidad
type Level string

const (
	Low      Level = "low"
	Medium   Level = "medium"
	High     Level = "high"
	VeryHigh Level = "very high"
)

// Umbrales inferiores (inclusivos) de cada nivel
const (
	MediumThreshold   = 0.3
	HighThreshold     = 0.5
	VeryHighThreshold = 1.0
)

// Classify traduce el valor absoluto del coeficiente a uno de cuatro niveles
func Classify(coeff float64) Level {
	coeff = math.Abs(coeff)
	switch {
	case coeff >= VeryHighThreshold:
		return VeryHigh
	case coeff >= HighThreshold:
		return High
	case coeff >= MediumThreshold:
		return Medium
	default:
		return Low
	}
}

// Levels clasifica una lista de coeficientes
func Levels(coeffs []float64) []Level {
	out := make([]Level, 0, len(coeffs))
	for _, c := range coeffs {
		out = append(out, Classify(c))
	}
	return out
}

// Rank orden del nivel, de 0 (low) a 3 (very high)
func (l Level) Rank() int {
	switch l {
	case Medium:
		return 1
	case High:
		return 2
	case VeryHigh:
		return 3
	}
	return 0
}

// Highest nivel más alto entre los registros; Low si no hay ninguno
func Highest(records []Record) Level {
	best := Low
	for _, r := range records {
		if r.Level.Rank() > best.Rank() {
			best = r.Level
		}
	}
	return best
}
