package numeric

import "math"

// Mat4 is a row-major 4x4 affine transform: [r0; r1; r2; r3].
type Mat4 struct {
	M [4][4]float64
}

// Identity returns the 4x4 identity transform.
func Identity() Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		m.M[i][i] = 1
	}
	return m
}

// Translation returns a transform that adds d to every point.
func Translation(d Vec3) Mat4 {
	m := Identity()
	m.M[0][3] = d.X
	m.M[1][3] = d.Y
	m.M[2][3] = d.Z
	return m
}

// Scaling returns a transform that scales each axis independently.
func Scaling(s Vec3) Mat4 {
	var m Mat4
	m.M[0][0] = s.X
	m.M[1][1] = s.Y
	m.M[2][2] = s.Z
	m.M[3][3] = 1
	return m
}

// RotationZ returns a right-handed rotation of angle radians about +Z.
func RotationZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	m := Identity()
	m.M[0][0], m.M[0][1] = c, -s
	m.M[1][0], m.M[1][1] = s, c
	return m
}

// Mul returns the matrix product a*b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a.M[i][k] * b.M[k][j]
			}
			out.M[i][j] = sum
		}
	}
	return out
}

// Apply transforms point p as a homogeneous column vector [p,1].
func (a Mat4) Apply(p Vec3) Vec3 {
	x := a.M[0][0]*p.X + a.M[0][1]*p.Y + a.M[0][2]*p.Z + a.M[0][3]
	y := a.M[1][0]*p.X + a.M[1][1]*p.Y + a.M[1][2]*p.Z + a.M[1][3]
	z := a.M[2][0]*p.X + a.M[2][1]*p.Y + a.M[2][2]*p.Z + a.M[2][3]
	return Vec3{x, y, z}
}
