package astrometry

import "math"

// Rotation is a 3x3 orthonormal rotation matrix in row-major order.
type Rotation [3][3]float64

// IdentityRotation returns the identity rotation.
func IdentityRotation() Rotation {
	return Rotation{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply rotates the vector v.
func (r Rotation) Apply(v [3]float64) [3]float64 {
	return [3]float64{
		r[0][0]*v[0] + r[0][1]*v[1] + r[0][2]*v[2],
		r[1][0]*v[0] + r[1][1]*v[1] + r[1][2]*v[2],
		r[2][0]*v[0] + r[2][1]*v[1] + r[2][2]*v[2],
	}
}

// Transpose returns the inverse rotation.
func (r Rotation) Transpose() Rotation {
	var t Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = r[j][i]
		}
	}
	return t
}

// Compose returns the rotation equivalent to applying s first, then r.
func (r Rotation) Compose(s Rotation) Rotation {
	var out Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += r[i][k] * s[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// Angle returns the rotation angle in radians, in [0, pi].
func (r Rotation) Angle() float64 {
	trace := r[0][0] + r[1][1] + r[2][2]
	c := (trace - 1) / 2
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}

// AngleTo returns the relative rotation angle between r and s in radians.
func (r Rotation) AngleTo(s Rotation) float64 {
	return r.Transpose().Compose(s).Angle()
}

// AxisAngle returns the Rodrigues rotation of angle radians about the given
// axis. The axis need not be normalised; a zero axis yields the identity.
func AxisAngle(axis [3]float64, angle float64) Rotation {
	norm := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if norm == 0 {
		return IdentityRotation()
	}
	x, y, z := axis[0]/norm, axis[1]/norm, axis[2]/norm
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	return Rotation{
		{t*x*x + c, t*x*y - s*z, t*x*z + s*y},
		{t*x*y + s*z, t*y*y + c, t*y*z - s*x},
		{t*x*z - s*y, t*y*z + s*x, t*z*z + c},
	}
}

// RotationBetween returns the minimal rotation taking unit vector a onto
// unit vector b: a rotation about their cross product by the angle between
// them. Antiparallel inputs rotate about an arbitrary perpendicular axis.
func RotationBetween(a, b [3]float64) Rotation {
	axis := [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	angle := math.Acos(dot)
	if axis[0] == 0 && axis[1] == 0 && axis[2] == 0 {
		if dot > 0 {
			return IdentityRotation()
		}
		// Antiparallel: pick any axis perpendicular to a.
		perp := [3]float64{-a[1], a[0], 0}
		if perp[0] == 0 && perp[1] == 0 {
			perp = [3]float64{0, -a[2], a[1]}
		}
		return AxisAngle(perp, math.Pi)
	}
	return AxisAngle(axis, angle)
}
