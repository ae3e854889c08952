package om

import "errors"

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// Errors are grouped by the stage that produces them. All of them are
// sentinels: call sites wrap them with context via fmt.Errorf and %w, and
// callers match with errors.Is.

// Registration errors.
var (
	ErrDuplicateType = errors.New("type name already registered")
	ErrUnknownParent = errors.New("parent type not registered")
	ErrCyclicParent  = errors.New("cyclic parent chain")
	ErrBadDescriptor = errors.New("invalid type descriptor")
)

// Instantiation errors.
var (
	ErrUnknownType      = errors.New("unknown type")
	ErrAbstractType     = errors.New("type is abstract")
	ErrAllocationFailed = errors.New("instance allocation failed")
	ErrInitFailed       = errors.New("instance init failed")
)

// Dispatch errors.
var (
	ErrSlotUnset     = errors.New("operation slot unset")
	ErrWrongReceiver = errors.New("wrong receiver type")
)

// Handle errors.
var (
	ErrStaleHandle = errors.New("stale instance handle")
)
