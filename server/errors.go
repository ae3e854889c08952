package server

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/chazu/totem/om"
)

// codeFor maps object model errors onto connect codes. Anything the
// taxonomy doesn't cover is an internal error.
func codeFor(err error) connect.Code {
	switch {
	case errors.Is(err, om.ErrUnknownType), errors.Is(err, om.ErrStaleHandle):
		return connect.CodeNotFound
	case errors.Is(err, om.ErrAbstractType), errors.Is(err, om.ErrWrongReceiver):
		return connect.CodeInvalidArgument
	case errors.Is(err, om.ErrAllocationFailed):
		return connect.CodeResourceExhausted
	case errors.Is(err, om.ErrSlotUnset):
		return connect.CodeUnimplemented
	default:
		return connect.CodeInternal
	}
}
