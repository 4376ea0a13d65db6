// Package objio reads Wavefront OBJ geometry and writes per-frame particle
// point clouds in the same format.
package objio
