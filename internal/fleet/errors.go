package fleet

import "errors"

var (
	// ErrNotFound is returned when a drone id is unknown to the registry.
	ErrNotFound = errors.New("drone not found")

	// ErrInvalidState is returned when a requested transition is illegal from
	// the drone's current status, e.g. assigning a drone that is not idle or
	// recalling a drone that is under maintenance.
	ErrInvalidState = errors.New("operation not allowed in current drone status")

	// ErrInsufficientBattery is returned when a drone's battery is below the
	// minimum required for an assignment.
	ErrInsufficientBattery = errors.New("drone battery too low for assignment")

	// ErrOutOfRange is returned when a destination exceeds the drone's
	// maximum range from its current position.
	ErrOutOfRange = errors.New("destination exceeds drone range")

	// ErrNoCapacity is returned by the assigner when the fleet has no idle
	// drone at all.
	ErrNoCapacity = errors.New("no idle drone available")

	// ErrNoSuitableDrone is returned by the assigner when idle drones exist
	// but none satisfies the battery, payload, and range constraints.
	ErrNoSuitableDrone = errors.New("no drone satisfies the dispatch constraints")

	// ErrConflict is returned when an operation lost a race to a concurrent
	// mutation of the same drone. Callers may retry.
	ErrConflict = errors.New("lost race to concurrent drone mutation")
)
