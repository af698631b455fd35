package mathutil

// Plane is a plane equation (nx, ny, nz, d). A point p is on the positive
// side when n·p + d >= 0.
type Plane [4]float64

// PlaneFromPoint returns the plane with normal n passing through p.
func PlaneFromPoint(n, p Vec3) Plane {
	return Plane{n[0], n[1], n[2], -n.Dot(p)}
}

// Normal returns the (n_x, n_y, n_z) part of the plane.
func (p Plane) Normal() Vec3 {
	return Vec3{p[0], p[1], p[2]}
}

// Dot returns n·v + d, the signed distance scaled by |n|.
func (p Plane) Dot(v Vec3) float64 {
	return p[0]*v[0] + p[1]*v[1] + p[2]*v[2] + p[3]
}

// DotDir returns n·v, treating v as a direction (w = 0).
func (p Plane) DotDir(v Vec3) float64 {
	return p[0]*v[0] + p[1]*v[1] + p[2]*v[2]
}
