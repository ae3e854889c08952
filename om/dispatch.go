package om

import "fmt"

// ---------------------------------------------------------------------------
// Virtual dispatch
// ---------------------------------------------------------------------------

// Invoke dispatches a virtual operation on the instance: the selector is
// resolved in the instance's own table and the bound implementation runs
// with the instance as receiver. Resolution happens on every call; the
// table itself is the only cache.
//
// A selector whose slot is unset, or one never declared in the chain,
// fails with ErrSlotUnset. Invoking outside PostInitializing or Ready is
// a programming error and panics.
func (inst *Instance) Invoke(selector string, args ...any) (any, error) {
	if inst.state != StatePostInitializing && inst.state != StateReady {
		panic(fmt.Sprintf("totem: invoke of %q on %s instance in state %s",
			selector, inst.class.name, inst.state))
	}

	fn, err := inst.resolve(selector)
	if err != nil {
		return nil, err
	}
	return fn(inst, args)
}

// Responds returns true if dispatching the selector on this instance
// would find an implementation. This is the presence check that pairs
// with optional slots like "unparent".
func (inst *Instance) Responds(selector string) bool {
	id := inst.class.reg.selectors.Lookup(selector)
	if id < 0 {
		return false
	}
	return inst.vtable.Lookup(id) != nil
}

// resolve maps a selector to the implementation bound in the instance's
// table.
func (inst *Instance) resolve(selector string) (OpFunc, error) {
	id := inst.class.reg.selectors.Lookup(selector)
	if id < 0 {
		return nil, fmt.Errorf("type %s declares no operation %q: %w",
			inst.class.name, selector, ErrSlotUnset)
	}
	idx := inst.class.opSlotIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("type %s declares no operation %q: %w",
			inst.class.name, selector, ErrSlotUnset)
	}
	slot := inst.vtable.slots[idx]
	if slot.fn == nil {
		return nil, fmt.Errorf("type %s: operation %q: %w",
			inst.class.name, selector, ErrSlotUnset)
	}
	return slot.fn, nil
}

// InvokeOn dispatches a virtual operation through this class as the
// static receiver type: the instance must be of this class or a
// descendant, otherwise the call fails with ErrWrongReceiver. Dispatch
// itself is still virtual, through the instance's own table.
func (c *Class) InvokeOn(inst *Instance, selector string, args ...any) (any, error) {
	if !inst.class.Is(c) {
		return nil, fmt.Errorf("%s instance is not a %s: %w",
			inst.class.name, c.name, ErrWrongReceiver)
	}
	return inst.Invoke(selector, args...)
}

// ---------------------------------------------------------------------------
// Built-in operations
// ---------------------------------------------------------------------------

// Unparent dispatches the root-declared "unparent" operation. The slot is
// empty unless a descriptor in the chain provided the Unparent hook, in
// which case registration installed it; an empty slot fails with
// ErrSlotUnset like any other.
func (inst *Instance) Unparent() error {
	_, err := inst.Invoke(UnparentSelector)
	return err
}

// CanUnparent returns true if an unparent implementation is installed in
// the instance's chain.
func (inst *Instance) CanUnparent() bool {
	return inst.Responds(UnparentSelector)
}
