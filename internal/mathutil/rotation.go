package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RotX returns the rotation of a radians about X.
func RotX(a float64) Mat3 { return fromMglMat3(mgl64.Rotate3DX(a)) }

// RotY returns the rotation of a radians about Y.
func RotY(a float64) Mat3 { return fromMglMat3(mgl64.Rotate3DY(a)) }

// RotZ returns the rotation of a radians about Z.
func RotZ(a float64) Mat3 { return fromMglMat3(mgl64.Rotate3DZ(a)) }

func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// EulerDegToQuat converts Euler XYZ angles given in degrees, as job files
// write them.
func EulerDegToQuat(e Vec3) Quat {
	return EulerToQuat(Deg2Rad(e[0]), Deg2Rad(e[1]), Deg2Rad(e[2]))
}
