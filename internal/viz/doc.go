// Package viz draws running particle simulations in the terminal.
//
// Particles are projected through an orbiting [Camera] onto a braille
// [Canvas] and shaded by how densely each character cell is populated. The
// live [Model] is a Bubble Tea program that steps an experiment once per
// frame next to a stats panel with a particle count graph.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	N      - Advance one step
//	[ ]    - Halve/double the time scale
//	Arrows - Orbit the camera
//	+ -    - Zoom
//	F      - Frame all particles
//	T      - Cycle color themes
//	R      - Restart
//	?      - Help overlay
package viz
