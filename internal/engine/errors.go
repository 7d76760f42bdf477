package engine

import "errors"

// Admission errors reject the entire operation with no state change.
// They are caller mistakes or environment conditions, reported
// synchronously with a specific reason.
var (
	ErrPaused               = errors.New("engine is paused")
	ErrPolicyExists         = errors.New("active policy already exists")
	ErrInvalidCoverage      = errors.New("coverage must be positive")
	ErrOracleUnhealthy      = errors.New("oracle unhealthy")
	ErrInsufficientCapacity = errors.New("insufficient pool capacity")
	ErrUnauthorized         = errors.New("caller not authorized")
	ErrExceedsExcess        = errors.New("withdrawal exceeds excess funds")
	ErrNoActivePolicy       = errors.New("no active policy")
	ErrNotExpired           = errors.New("policy not yet expired")
)

// ErrReentrantCall is an integrity failure: the engine was re-entered
// from inside a running operation's token transfer. The nested call
// aborts with no effect; independent concurrent callers never see this,
// they wait for the operation lock instead.
var ErrReentrantCall = errors.New("reentrant call detected")
