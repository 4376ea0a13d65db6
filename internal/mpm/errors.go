package mpm

import "errors"

var (
	// ErrInvalidParams indicates solver or material parameters outside their valid range.
	ErrInvalidParams = errors.New("mpm: invalid parameters")

	// ErrOutOfDomain indicates a particle outside the simulation domain interior.
	ErrOutOfDomain = errors.New("mpm: particle outside domain")

	// ErrNoParticles indicates a solver built without particles.
	ErrNoParticles = errors.New("mpm: no particles")
)
