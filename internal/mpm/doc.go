// Package mpm implements an explicit MLS-MPM solver for elastic, plastic
// (snow) and fluid materials in the unit cube.
//
// A Solver owns a Grid and a Particles set. Each substep clears the grid,
// scatters particle mass and momentum to it (P2G), applies gravity and the
// wall condition on the nodes, then gathers velocities back and advects the
// particles (G2P). Scatter work is split across a compute.Backend.
package mpm
