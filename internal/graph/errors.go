package graph

import "errors"

// Sentinel errors returned from Create-time resolution. Host failures
// are not translated; they propagate wrapped only with path context so
// errors.Is still reaches the host's own sentinels.
var (
	// ErrResolution marks an unresolvable parent or input reference at
	// creation time (bad path, missing name, empty chain used as input).
	ErrResolution = errors.New("unresolvable reference")

	// ErrValidation marks an out-of-range index or an otherwise invalid
	// descriptor field discovered at creation time.
	ErrValidation = errors.New("invalid value")

	// ErrCycle marks a true circular dependency: a descriptor whose own
	// transitive inputs require it to already exist.
	ErrCycle = errors.New("circular dependency")

	// ErrEmptyChain is returned when an operation needs at least one
	// chain element.
	ErrEmptyChain = errors.New("chain is empty")
)
