package om

import "fmt"

// ---------------------------------------------------------------------------
// Operation implementations
// ---------------------------------------------------------------------------

// OpFunc is a virtual-operation implementation. The receiver is the
// instance the operation was dispatched on; args arrive as the caller
// passed them.
type OpFunc func(recv *Instance, args []any) (any, error)

// Op0Func is an implementation taking no arguments.
type Op0Func func(recv *Instance) (any, error)

// Op1Func is an implementation taking one argument.
type Op1Func func(recv *Instance, arg any) (any, error)

// Op2Func is an implementation taking two arguments.
type Op2Func func(recv *Instance, arg1, arg2 any) (any, error)

// Op3Func is an implementation taking three arguments.
type Op3Func func(recv *Instance, arg1, arg2, arg3 any) (any, error)

// Op0 wraps a zero-argument implementation, rejecting stray arguments.
// The name is only used in the arity error message.
func Op0(name string, fn Op0Func) OpFunc {
	return func(recv *Instance, args []any) (any, error) {
		if len(args) != 0 {
			return nil, arityError(name, 0, len(args))
		}
		return fn(recv)
	}
}

// Op1 wraps a one-argument implementation.
func Op1(name string, fn Op1Func) OpFunc {
	return func(recv *Instance, args []any) (any, error) {
		if len(args) != 1 {
			return nil, arityError(name, 1, len(args))
		}
		return fn(recv, args[0])
	}
}

// Op2 wraps a two-argument implementation.
func Op2(name string, fn Op2Func) OpFunc {
	return func(recv *Instance, args []any) (any, error) {
		if len(args) != 2 {
			return nil, arityError(name, 2, len(args))
		}
		return fn(recv, args[0], args[1])
	}
}

// Op3 wraps a three-argument implementation.
func Op3(name string, fn Op3Func) OpFunc {
	return func(recv *Instance, args []any) (any, error) {
		if len(args) != 3 {
			return nil, arityError(name, 3, len(args))
		}
		return fn(recv, args[0], args[1], args[2])
	}
}

func arityError(name string, want, got int) error {
	return fmt.Errorf("operation %q expects %d arguments, got %d", name, want, got)
}
