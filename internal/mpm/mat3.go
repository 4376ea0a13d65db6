package mpm

import "gonum.org/v1/gonum/spatial/r3"

// Mat3 is a row-major 3x3 matrix. The kernel does all per-particle algebra on
// this value type; gonum is only used for the decomposition in Polar.
type Mat3 [3][3]float64

func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func Diag(a, b, c float64) Mat3 {
	return Mat3{{a, 0, 0}, {0, b, 0}, {0, 0, c}}
}

// Outer returns u v^T.
func Outer(u, v r3.Vec) Mat3 {
	return Mat3{
		{u.X * v.X, u.X * v.Y, u.X * v.Z},
		{u.Y * v.X, u.Y * v.Y, u.Y * v.Z},
		{u.Z * v.X, u.Z * v.Y, u.Z * v.Z},
	}
}

func (a Mat3) Mul(b Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j]
		}
	}
	return r
}

func (a Mat3) MulVec(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: a[0][0]*v.X + a[0][1]*v.Y + a[0][2]*v.Z,
		Y: a[1][0]*v.X + a[1][1]*v.Y + a[1][2]*v.Z,
		Z: a[2][0]*v.X + a[2][1]*v.Y + a[2][2]*v.Z,
	}
}

func (a Mat3) T() Mat3 {
	return Mat3{
		{a[0][0], a[1][0], a[2][0]},
		{a[0][1], a[1][1], a[2][1]},
		{a[0][2], a[1][2], a[2][2]},
	}
}

func (a Mat3) Add(b Mat3) Mat3 {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a[i][j] += b[i][j]
		}
	}
	return a
}

func (a Mat3) Sub(b Mat3) Mat3 {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a[i][j] -= b[i][j]
		}
	}
	return a
}

func (a Mat3) Scale(s float64) Mat3 {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a[i][j] *= s
		}
	}
	return a
}

func (a Mat3) Det() float64 {
	return a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])
}

func (a Mat3) Trace() float64 { return a[0][0] + a[1][1] + a[2][2] }

// component returns v.X, v.Y or v.Z for d = 0, 1, 2.
func component(v r3.Vec, d int) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
