// Package optim sweeps scene parameters over a grid and keeps the
// combination that scores best on a run metric.
package optim
