package mpm

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// svdWorkspace holds the gonum buffers for repeated 3x3 decompositions. One
// workspace is used per worker chunk; it is not safe for concurrent use.
type svdWorkspace struct {
	data []float64
	a    *mat.Dense
	svd  mat.SVD
	u, v mat.Dense
	vals []float64
}

func newSVDWorkspace() *svdWorkspace {
	data := make([]float64, 9)
	return &svdWorkspace{
		data: data,
		a:    mat.NewDense(3, 3, data),
		vals: make([]float64, 3),
	}
}

// Polar decomposes f = U diag(sig) V^T with U and V proper rotations. When f
// is inverted the last singular value carries the negative sign.
func Polar(f Mat3) (u Mat3, sig [3]float64, v Mat3, ok bool) {
	return newSVDWorkspace().decompose(f)
}

func (ws *svdWorkspace) decompose(f Mat3) (u Mat3, sig [3]float64, v Mat3, ok bool) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			x := f[i][j]
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return u, sig, v, false
			}
			ws.data[i*3+j] = x
		}
	}
	if !ws.svd.Factorize(ws.a, mat.SVDFull) {
		return u, sig, v, false
	}
	ws.svd.UTo(&ws.u)
	ws.svd.VTo(&ws.v)
	ws.svd.Values(ws.vals)

	for i := 0; i < 3; i++ {
		sig[i] = ws.vals[i]
		for j := 0; j < 3; j++ {
			u[i][j] = ws.u.At(i, j)
			v[i][j] = ws.v.At(i, j)
		}
	}

	if u.Det() < 0 {
		for i := 0; i < 3; i++ {
			u[i][2] = -u[i][2]
		}
		sig[2] = -sig[2]
	}
	if v.Det() < 0 {
		for i := 0; i < 3; i++ {
			v[i][2] = -v[i][2]
		}
		sig[2] = -sig[2]
	}
	return u, sig, v, true
}
