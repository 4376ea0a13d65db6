// Package metrics provides per-frame scalar observations of a particle set.
package metrics
