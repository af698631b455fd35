package mathutil

import "github.com/go-gl/mathgl/mgl64"

// Quat is a rotation quaternion stored (x, y, z, w).
type Quat [4]float64

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

func fromMgl(q mgl64.Quat) Quat { return Quat{q.V[0], q.V[1], q.V[2], q.W} }

func (q Quat) mgl() mgl64.Quat {
	return mgl64.Quat{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}
}

// AxisAngle returns the rotation of angle radians about axis.
func AxisAngle(axis Vec3, angle float64) Quat {
	return fromMgl(mgl64.QuatRotate(angle, mgl64.Vec3(axis.Normalize())))
}

// EulerToQuat converts Euler XYZ radians (X applied first) to Rz·Ry·Rx.
func EulerToQuat(rx, ry, rz float64) Quat {
	q := mgl64.QuatRotate(rz, axisZ).
		Mul(mgl64.QuatRotate(ry, axisY)).
		Mul(mgl64.QuatRotate(rx, axisX))
	return fromMgl(q)
}

// Mul returns q·r, the rotation r followed by q.
func (q Quat) Mul(r Quat) Quat {
	return fromMgl(q.mgl().Mul(r.mgl()))
}

// Normalize returns q scaled to unit length.
func (q Quat) Normalize() Quat {
	return fromMgl(q.mgl().Normalize())
}

// QuatToMat3 converts q to a row-major rotation matrix.
func QuatToMat3(q Quat) Mat3 {
	return fromMglMat3(q.mgl().Normalize().Mat4().Mat3())
}

// Rotate returns v rotated by q.
func (q Quat) Rotate(v Vec3) Vec3 {
	return Vec3(q.mgl().Normalize().Rotate(mgl64.Vec3(v)))
}
