// Package events implements the discrete events particle types can react to
// during a step: reaching an age, hitting a plane and bursting into children.
//
// Every event finds the earliest time factor at which a particle meets its
// condition within the particle's remaining duration and reports it with
// EventFilterInterface.TriggerParticle. Execute then runs with the particle
// state advanced to that moment.
package events
