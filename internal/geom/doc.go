// Package geom provides triangle meshes and the random sampling helpers
// emitters and events use to place and launch particles.
package geom
