package om

import "fmt"

// ---------------------------------------------------------------------------
// Instance: a live object
// ---------------------------------------------------------------------------

// State tracks where an instance is in its lifecycle. Transitions only
// move forward; there is no resurrection after Destroyed.
type State uint8

const (
	// StateAllocated: storage exists, zeroed, no hook has run.
	StateAllocated State = iota

	// StateInstanceInitializing: the parent-first init chain is running.
	StateInstanceInitializing

	// StatePostInitializing: the parent-first post-init chain is running.
	// Dispatch is already permitted.
	StatePostInitializing

	// StateReady: fully constructed, in service.
	StateReady

	// StateFinalizing: the child-first finalizer chain is running.
	StateFinalizing

	// StateDestroyed: torn down, storage released.
	StateDestroyed
)

// String implements the Stringer interface.
func (s State) String() string {
	switch s {
	case StateAllocated:
		return "Allocated"
	case StateInstanceInitializing:
		return "InstanceInitializing"
	case StatePostInitializing:
		return "PostInitializing"
	case StateReady:
		return "Ready"
	case StateFinalizing:
		return "Finalizing"
	case StateDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Instance is one live object: a reference to its class and built table,
// the slot vector sized for the whole chain, and the lifecycle state.
//
// Instances carry no locking. At most one goroutine may mutate an
// instance at a time; that discipline belongs to the caller (the server
// package funnels all mutation through one worker goroutine).
type Instance struct {
	class  *Class
	vtable *VTable
	state  State
	slots  []any
}

// Class returns the instance's most-derived class.
func (inst *Instance) Class() *Class { return inst.class }

// TypeName returns the registered name of the instance's class.
func (inst *Instance) TypeName() string { return inst.class.name }

// State returns the current lifecycle state.
func (inst *Instance) State() State { return inst.state }

// NumSlots returns the total slot count of the instance.
func (inst *Instance) NumSlots() int { return inst.class.numSlots }

// ---------------------------------------------------------------------------
// Slot access
// ---------------------------------------------------------------------------

// Get reads a slot by name, resolving through the whole chain with the
// child's names shadowing the parent's. Panics if the name is not
// declared anywhere in the chain or the instance is destroyed.
func (inst *Instance) Get(name string) any {
	return inst.slots[inst.namedSlot(name)]
}

// Set writes a slot by name. Panics if the name is not declared anywhere
// in the chain or the instance is destroyed.
func (inst *Instance) Set(name string, value any) {
	inst.slots[inst.namedSlot(name)] = value
}

// GetAt reads a slot by index. Panics if the index is out of range or the
// instance is destroyed.
func (inst *Instance) GetAt(index int) any {
	inst.checkLive()
	if index < 0 || index >= len(inst.slots) {
		panic("totem: Instance.GetAt: index out of range")
	}
	return inst.slots[index]
}

// SetAt writes a slot by index. Panics if the index is out of range or
// the instance is destroyed.
func (inst *Instance) SetAt(index int, value any) {
	inst.checkLive()
	if index < 0 || index >= len(inst.slots) {
		panic("totem: Instance.SetAt: index out of range")
	}
	inst.slots[index] = value
}

func (inst *Instance) namedSlot(name string) int {
	inst.checkLive()
	idx := inst.class.SlotIndex(name)
	if idx < 0 {
		panic(fmt.Sprintf("totem: type %s has no slot %q", inst.class.name, name))
	}
	return idx
}

func (inst *Instance) checkLive() {
	if inst.state == StateDestroyed {
		panic(fmt.Sprintf("totem: slot access on destroyed %s instance", inst.class.name))
	}
}
