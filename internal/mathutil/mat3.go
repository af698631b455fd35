package mathutil

import "github.com/go-gl/mathgl/mgl64"

// Mat3 is a row-major 3×3 matrix.
//
// Reinterpreting the array as a column-major mgl64.Mat3 yields the
// transpose, which is what the helpers below rely on.
type Mat3 [9]float64

func Mat3Identity() Mat3 {
	return Mat3(mgl64.Ident3())
}

// fromMglMat3 converts a column-major mgl64 matrix to row-major.
func fromMglMat3(m mgl64.Mat3) Mat3 {
	return Mat3(m.Transpose())
}

// Mat3Mul returns a × b. (a·b)ᵀ = bᵀ·aᵀ.
func Mat3Mul(a, b Mat3) Mat3 {
	return Mat3(mgl64.Mat3(b).Mul3(mgl64.Mat3(a)))
}

// MulVec3 returns m × v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

func (m Mat3) Det() float64 {
	return mgl64.Mat3(m).Det()
}

// Inverse returns m⁻¹, or the identity when m is singular.
func (m Mat3) Inverse() Mat3 {
	if m.Det() == 0 {
		return Mat3Identity()
	}
	return Mat3(mgl64.Mat3(m).Inv())
}

func (m Mat3) Transpose() Mat3 {
	return Mat3(mgl64.Mat3(m).Transpose())
}

// NormalMatrix returns the inverse-transpose of the upper 3×3 of m.
func NormalMatrix(m Mat4) Mat3 {
	return m.Upper3().Inverse().Transpose()
}
