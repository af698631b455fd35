package mathutil

import "math"

// Epsilon is the tolerance used for on-plane and degenerate-length checks.
const Epsilon = 1e-9

// ModelFlip converts Z-up (DirectX / BMD) to Y-up: Rx(-90°).
var ModelFlip = RotX(math.Pi / -2)

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
