package mpm

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func matClose(a, b Mat3, tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a[i][j]-b[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

func TestMat3Algebra(t *testing.T) {
	a := Mat3{{1, 2, 3}, {0, 1, 4}, {5, 6, 0}}

	if got := a.Det(); math.Abs(got-1) > 1e-12 {
		t.Errorf("Det() = %v, want 1", got)
	}
	if !matClose(a.Mul(Identity()), a, 0) {
		t.Error("A*I != A")
	}
	if !matClose(a.T().T(), a, 0) {
		t.Error("transpose is not an involution")
	}
	if got := a.Trace(); got != 2 {
		t.Errorf("Trace() = %v, want 2", got)
	}

	v := a.MulVec(r3.Vec{X: 1, Y: 1, Z: 1})
	if v != (r3.Vec{X: 6, Y: 5, Z: 11}) {
		t.Errorf("MulVec = %v", v)
	}

	o := Outer(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 4, Y: 5, Z: 6})
	if o[1][2] != 12 || o[2][0] != 12 {
		t.Errorf("Outer = %v", o)
	}
}

func TestPolarReconstructs(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for n := 0; n < 50; n++ {
		var f Mat3
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				f[i][j] = rnd.NormFloat64() * 0.3
			}
			f[i][i] += 1
		}
		if n%5 == 0 {
			// reflected input
			f[0] = [3]float64{-f[0][0], -f[0][1], -f[0][2]}
		}

		u, sig, v, ok := Polar(f)
		if !ok {
			t.Fatalf("case %d: factorization failed", n)
		}
		if math.Abs(u.Det()-1) > 1e-9 || math.Abs(v.Det()-1) > 1e-9 {
			t.Fatalf("case %d: U or V not a rotation (det %v, %v)", n, u.Det(), v.Det())
		}
		back := u.Mul(Diag(sig[0], sig[1], sig[2])).Mul(v.T())
		if !matClose(back, f, 1e-9) {
			t.Fatalf("case %d: U S V^T = %v, want %v", n, back, f)
		}
		if f.Det() < 0 && sig[2] >= 0 {
			t.Errorf("case %d: inverted input should carry a negative singular value", n)
		}
	}
}

func TestPolarRejectsNaN(t *testing.T) {
	f := Identity()
	f[1][1] = math.NaN()
	if _, _, _, ok := Polar(f); ok {
		t.Error("expected failure for NaN input")
	}
}

func TestWeightsPartitionOfUnity(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for n := 0; n < 100; n++ {
		fx := [3]float64{0.5 + rnd.Float64(), 0.5 + rnd.Float64(), 0.5 + rnd.Float64()}
		w, dw := weights(fx)
		sum := 0.0
		var gsum [3]float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				for k := 0; k < 3; k++ {
					sum += w[i][0] * w[j][1] * w[k][2]
					gsum[0] += dw[i][0] * w[j][1] * w[k][2]
					gsum[1] += w[i][0] * dw[j][1] * w[k][2]
					gsum[2] += w[i][0] * w[j][1] * dw[k][2]
				}
			}
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Fatalf("weights sum to %v at %v", sum, fx)
		}
		for d := 0; d < 3; d++ {
			if math.Abs(gsum[d]) > 1e-12 {
				t.Fatalf("gradient weights sum to %v at %v", gsum, fx)
			}
		}
	}
}

func TestGridIndexRoundTrip(t *testing.T) {
	g := NewGrid(9)
	for _, c := range [][3]int{{0, 0, 0}, {8, 8, 8}, {1, 2, 3}, {7, 0, 5}} {
		i, j, k := g.Coords(g.Index(c[0], c[1], c[2]))
		if i != c[0] || j != c[1] || k != c[2] {
			t.Errorf("Coords(Index(%v)) = %d,%d,%d", c, i, j, k)
		}
	}
}
