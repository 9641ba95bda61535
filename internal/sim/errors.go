package sim

import "errors"

var (
	// ErrNoParticleTypes indicates a description without any particle type.
	ErrNoParticleTypes = errors.New("sim: description has no particle types")

	// ErrDuplicateType indicates two particle types sharing a name.
	ErrDuplicateType = errors.New("sim: duplicate particle type")

	// ErrMissingIntegrator indicates a particle type without an integrator.
	ErrMissingIntegrator = errors.New("sim: particle type has no integrator")

	// ErrInvalidOffset indicates an integrator offset that is not a Float3
	// attribute of the particle type.
	ErrInvalidOffset = errors.New("sim: integrator offset must be a float3 attribute")

	// ErrInvalidBlockSize indicates a non-positive block size.
	ErrInvalidBlockSize = errors.New("sim: block size must be positive")

	// ErrNonPositiveStep indicates a step duration that is zero or negative.
	ErrNonPositiveStep = errors.New("sim: step duration must be positive")

	// ErrEventStorage indicates an event payload above MaxEventStorage.
	ErrEventStorage = errors.New("sim: event storage exceeds maximum")
)
