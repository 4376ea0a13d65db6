// Package scene turns a scene configuration into a ready-to-run solver:
// bodies are sampled into particles (random cubes, OBJ point clouds, filled
// OBJ meshes) and materials into the solver's material table.
package scene
