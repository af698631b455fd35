// Package skeleton evaluates bone hierarchies into skinning palettes.
package skeleton

import (
	"errors"
	"fmt"

	"mu-decal-projector/internal/bmd"
	"mu-decal-projector/internal/mathutil"
)

const prefix = "skeleton: "

// Bone is one joint in local space relative to its parent.
// Parent is -1 for roots; a parent must precede its children.
type Bone struct {
	Name     string
	Parent   int
	Position mathutil.Vec3
	Rotation mathutil.Quat
}

// Skeleton holds a bind pose and a mutable current pose.
type Skeleton struct {
	bind        []Bone
	pose        []Bone
	bindWorld   []mathutil.Mat4
	inverseBind []mathutil.Mat4
}

// New builds a skeleton whose current pose starts at the bind pose.
func New(bones []Bone) (*Skeleton, error) {
	if len(bones) == 0 {
		return nil, errors.New(prefix + "no bones")
	}
	for i, b := range bones {
		if b.Parent >= i {
			return nil, fmt.Errorf(prefix+"bone %d (%q) has parent %d that does not precede it", i, b.Name, b.Parent)
		}
	}

	s := &Skeleton{
		bind: append([]Bone(nil), bones...),
		pose: append([]Bone(nil), bones...),
	}
	s.bindWorld = BuildWorldMatrices(s.bind)
	s.inverseBind = make([]mathutil.Mat4, len(bones))
	for i, w := range s.bindWorld {
		s.inverseBind[i] = w.Inverse()
	}
	return s, nil
}

// FromBMD converts BMD bind-pose bones. Dummy bones become identity roots.
func FromBMD(bones []bmd.Bone) (*Skeleton, error) {
	out := make([]Bone, len(bones))
	for i, b := range bones {
		if b.IsDummy {
			out[i] = Bone{Parent: -1, Rotation: mathutil.QuatIdentity()}
			continue
		}
		parent := b.Parent
		if parent >= i {
			parent = -1
		}
		out[i] = Bone{
			Parent:   parent,
			Position: mathutil.Vec3(b.BindPosition),
			Rotation: mathutil.EulerToQuat(b.BindRotation[0], b.BindRotation[1], b.BindRotation[2]),
		}
	}
	return New(out)
}

// BuildWorldMatrices computes the world transform for each bone.
// Returns a slice of 4×4 matrices indexed by bone index.
func BuildWorldMatrices(bones []Bone) []mathutil.Mat4 {
	worlds := make([]mathutil.Mat4, len(bones))
	for i, bone := range bones {
		local := mathutil.FromMat3Translation(mathutil.QuatToMat3(bone.Rotation), bone.Position)

		// Chain with parent
		if bone.Parent >= 0 && bone.Parent < i {
			worlds[i] = mathutil.Mat4Mul(worlds[bone.Parent], local)
		} else {
			worlds[i] = local
		}
	}
	return worlds
}

// Len returns the number of bones.
func (s *Skeleton) Len() int { return len(s.bind) }

// BindWorld returns bone i's bind-pose world matrix.
func (s *Skeleton) BindWorld(i int) mathutil.Mat4 { return s.bindWorld[i] }

// SetPose moves bone i to a new local position and rotation.
func (s *Skeleton) SetPose(i int, pos mathutil.Vec3, rot mathutil.Quat) error {
	if i < 0 || i >= len(s.pose) {
		return fmt.Errorf(prefix+"bone index %d out of range [0, %d)", i, len(s.pose))
	}
	s.pose[i].Position = pos
	s.pose[i].Rotation = rot
	return nil
}

// ResetPose returns every bone to the bind pose.
func (s *Skeleton) ResetPose() {
	copy(s.pose, s.bind)
}

// Palette writes root × poseWorld[i] × inverseBind[i] for every bone into dst,
// growing it if needed, and returns it.
func (s *Skeleton) Palette(root mathutil.Mat4, dst []mathutil.Mat4) []mathutil.Mat4 {
	if cap(dst) < len(s.pose) {
		dst = make([]mathutil.Mat4, len(s.pose))
	}
	dst = dst[:len(s.pose)]
	for i, w := range BuildWorldMatrices(s.pose) {
		dst[i] = mathutil.Mat4Mul(root, mathutil.Mat4Mul(w, s.inverseBind[i]))
	}
	return dst
}
