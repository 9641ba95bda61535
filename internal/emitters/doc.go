// Package emitters creates particles: once per step from points and mesh
// surfaces, or along the path of moving particles as a forwarding listener.
//
// Emitters keep a fractional carry between steps so low rates still emit on
// average. A single emitter value must therefore not be shared by two
// simulations.
package emitters
