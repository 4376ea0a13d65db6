// Package sim drives a Stepper frame by frame, feeding metrics and observers
// (frame writers, progress bars) after every frame.
package sim
