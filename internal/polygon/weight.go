package polygon

// SkinWeight holds up to four (bone index, weight) influences for one vertex.
type SkinWeight struct {
	Bone   [4]int
	Weight [4]float64
}

// RigidWeight binds a vertex fully to a single bone.
func RigidWeight(bone int) SkinWeight {
	return SkinWeight{Bone: [4]int{bone, 0, 0, 0}, Weight: [4]float64{1, 0, 0, 0}}
}

// Sum returns the total of the four weights.
func (w SkinWeight) Sum() float64 {
	return w.Weight[0] + w.Weight[1] + w.Weight[2] + w.Weight[3]
}

// Normalize rescales the weights to sum to 1. A zero sum is left untouched.
func (w *SkinWeight) Normalize() {
	sum := w.Sum()
	if sum == 0 {
		return
	}
	inv := 1 / sum
	for k := range w.Weight {
		w.Weight[k] *= inv
	}
}

// lerpWeight interpolates a slot only when both ends reference the same bone
// in it; otherwise the slot is taken from whichever end is nearer.
func lerpWeight(a, b SkinWeight, s float64) SkinWeight {
	var out SkinWeight
	for k := 0; k < 4; k++ {
		switch {
		case a.Bone[k] == b.Bone[k]:
			out.Bone[k] = a.Bone[k]
			out.Weight[k] = a.Weight[k] + (b.Weight[k]-a.Weight[k])*s
		case s < 0.5:
			out.Bone[k], out.Weight[k] = a.Bone[k], a.Weight[k]
		default:
			out.Bone[k], out.Weight[k] = b.Bone[k], b.Weight[k]
		}
	}
	out.Normalize()
	return out
}
