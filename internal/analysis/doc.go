// Package analysis summarizes saved runs: frequency content of per-step
// series such as the live particle count, and the spatial spread of a
// particle snapshot.
package analysis
