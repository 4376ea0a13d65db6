// Package viz provides the terminal preview of a running scene.
//
// Particles are projected by a [Camera] onto a braille [Canvas] (2x4 dots per
// character) and coloured by material kind. [Preview] is a Bubble Tea model
// that steps the solver one frame per tick and draws a side panel with the
// kinetic energy history.
//
// # Key Bindings
//
//	Space   - Pause/Resume simulation
//	R       - Reset to the initial particles
//	W/A/S/D - Point gravity up/left/down/right (arrows work too)
//	0       - Zero gravity
//	X/Y/Z   - Rotate the camera (shift reverses)
//	+/-     - Zoom
//	O       - Write the current frame as an OBJ point cloud
//	G       - Toggle GIF recording
//	T       - Cycle color themes
//	?       - Show help overlay
//
// [Watch] feeds config file changes back into a running preview.
package viz
