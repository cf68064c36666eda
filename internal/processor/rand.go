package processor

import "math/rand/v2"

// Rand supplies the random draws used by the speed jitter and pixel shift
// stages. Tests inject deterministic implementations to assert exact bounds.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }

// uniform maps a draw from rng into [center-radius, center+radius].
func uniform(rng Rand, center, radius float64) float64 {
	return center + (rng.Float64()*2-1)*radius
}
