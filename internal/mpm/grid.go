package mpm

import "gonum.org/v1/gonum/spatial/r3"

// Grid is the background lattice of N^3 nodes on the unit cube. Vel holds
// momentum during the scatter and velocity after the grid update.
type Grid struct {
	N    int
	Mass []float64
	Vel  []r3.Vec
}

func NewGrid(n int) *Grid {
	return &Grid{
		N:    n,
		Mass: make([]float64, n*n*n),
		Vel:  make([]r3.Vec, n*n*n),
	}
}

func (g *Grid) Index(i, j, k int) int { return (i*g.N+j)*g.N + k }

// Coords is the inverse of Index.
func (g *Grid) Coords(idx int) (i, j, k int) {
	k = idx % g.N
	j = (idx / g.N) % g.N
	i = idx / (g.N * g.N)
	return i, j, k
}

func (g *Grid) Clear() {
	clear(g.Mass)
	clear(g.Vel)
}

func (g *Grid) TotalMass() float64 {
	total := 0.0
	for _, m := range g.Mass {
		total += m
	}
	return total
}

// ActiveNodes counts nodes that received mass in the last scatter.
func (g *Grid) ActiveNodes() int {
	n := 0
	for _, m := range g.Mass {
		if m > 0 {
			n++
		}
	}
	return n
}
