package polygon

import "mu-decal-projector/internal/mathutil"

// EvalScratch is reusable per-goroutine storage for EvaluateWorldSpace.
type EvalScratch struct {
	skin mathutil.Mat4
}

// PrepareForEvaluation caches receiver state so EvaluateWorldSpace never has
// to reach back into the surface.
func (p *Polygon) PrepareForEvaluation(s Snapshot) {
	p.snap = s
}

// EvaluateWorldSpace recomputes world positions and normals from the model
// attributes, skinned through palette when the receiver has a skin root and
// transformed by the cached world matrix otherwise. Edges and the face
// normal are rebuilt afterwards.
func (p *Polygon) EvaluateWorldSpace(palette []mathutil.Mat4, scratch *EvalScratch) {
	a := p.arena
	skinned := p.snap.HasSkinRoot && len(palette) > 0

	for v := 0; v < p.count; v++ {
		i := p.base + v
		mp, mn := a.modelPosition[i], a.modelNormal[i]

		if skinned && SkinMatrix(palette, a.weight[i], &scratch.skin) {
			a.position[i] = scratch.skin.MulPoint(mp)
			a.normal[i] = scratch.skin.MulDir(mn).Normalize()
			continue
		}
		a.position[i] = p.snap.World.MulPoint(mp)
		a.normal[i] = p.snap.NormalMatrix.MulVec3(mn).Normalize()
	}

	p.Finish()
}

// SkinMatrix writes Σ wₖ·palette[boneₖ] into dst. It reports false when no
// influence references a valid bone.
func SkinMatrix(palette []mathutil.Mat4, w SkinWeight, dst *mathutil.Mat4) bool {
	*dst = mathutil.Mat4{}
	used := false
	for k := 0; k < 4; k++ {
		b := w.Bone[k]
		if w.Weight[k] == 0 || b < 0 || b >= len(palette) {
			continue
		}
		dst.AddScaled(&palette[b], w.Weight[k])
		used = true
	}
	return used
}
