package surface

import (
	"fmt"

	"mu-decal-projector/internal/bmd"
	"mu-decal-projector/internal/mathutil"
	"mu-decal-projector/internal/polygon"
	"mu-decal-projector/internal/skeleton"
)

// FromBMD turns a parsed BMD model into one receiver per sub-mesh.
// BMD vertices are stored relative to their bone, so they are resolved
// through the bind pose into model space. With skinned set, sub-meshes
// share one skeleton and carry rigid single-bone weights.
func FromBMD(name string, meshes []bmd.Mesh, bones []bmd.Bone, world mathutil.Mat4, skinned bool) ([]*Surface, error) {
	var skel *skeleton.Skeleton
	if len(bones) > 0 {
		var err error
		if skel, err = skeleton.FromBMD(bones); err != nil {
			return nil, fmt.Errorf(prefix+"%s: %w", name, err)
		}
	}

	out := make([]*Surface, 0, len(meshes))
	for i := range meshes {
		mesh := convertBMDMesh(&meshes[i], skel)
		if mesh.TriangleCount() == 0 {
			continue
		}
		subName := fmt.Sprintf("%s#%d", name, i)

		var (
			s   *Surface
			err error
		)
		if skinned && skel != nil {
			s, err = NewSkinned(subName, mesh, skel, world)
		} else {
			mesh.Weights = nil
			s, err = NewStatic(subName, mesh, world)
		}
		if err != nil {
			return nil, err
		}
		s.Sub = i
		out = append(out, s)
	}
	return out, nil
}

// convertBMDMesh flattens BMD triangles and quads into an unshared triangle
// list; BMD indexes positions and normals independently.
func convertBMDMesh(m *bmd.Mesh, skel *skeleton.Skeleton) *Mesh {
	out := &Mesh{}

	corner := func(tri *bmd.Triangle, k int) bool {
		vi, ni := int(tri.VI[k]), int(tri.NI[k])
		if vi < 0 || vi >= len(m.Verts) {
			return false
		}
		v := m.Verts[vi]
		pos := mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
		var nrm mathutil.Vec3
		if ni >= 0 && ni < len(m.Normals) {
			n := m.Normals[ni]
			nrm = mathutil.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}
		}

		bone := 0
		if vi < len(m.Nodes) {
			bone = int(m.Nodes[vi])
		}
		if skel != nil && bone >= 0 && bone < skel.Len() {
			bw := skel.BindWorld(bone)
			pos = bw.MulPoint(pos)
			nrm = bw.MulDir(nrm)
		} else {
			bone = 0
		}

		out.Positions = append(out.Positions, pos)
		out.Normals = append(out.Normals, nrm.Normalize())
		out.Weights = append(out.Weights, polygon.RigidWeight(bone))
		return true
	}

	emit := func(tri *bmd.Triangle, a, b, c int) {
		base := len(out.Positions)
		if !corner(tri, a) || !corner(tri, b) || !corner(tri, c) {
			out.Positions = out.Positions[:base]
			out.Normals = out.Normals[:base]
			out.Weights = out.Weights[:base]
			return
		}
		out.Indices = append(out.Indices, base, base+1, base+2)
	}

	for i := range m.Tris {
		tri := &m.Tris[i]
		tri.Fan(func(a, b, c int) { emit(tri, a, b, c) })
	}
	return out
}
