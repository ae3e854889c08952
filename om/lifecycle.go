package om

import "fmt"

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// NewInstance allocates and initializes an instance of this class.
//
// Abstract types are rejected before anything is allocated. Allocation
// sizes the slot vector for the whole chain, zeroed. Instance-init hooks
// then run parent-first, each against a view of its own slot region; if
// one fails, the levels that did initialize are finalized child-first and
// the error is returned wrapped in ErrInitFailed. Post-init hooks run
// parent-first only after every instance-init has completed, with the
// shared instance. Dispatch is permitted from post-init onwards.
func (c *Class) NewInstance() (*Instance, error) {
	if c.info.Abstract {
		return nil, fmt.Errorf("cannot instantiate %s: %w", c.name, ErrAbstractType)
	}
	if c.reg.maxSlots > 0 && c.numSlots > c.reg.maxSlots {
		return nil, fmt.Errorf("type %s needs %d slots, cap is %d: %w",
			c.name, c.numSlots, c.reg.maxSlots, ErrAllocationFailed)
	}

	vt := c.VTable() // first instantiation builds the table

	inst := &Instance{
		class:  c,
		vtable: vt,
		state:  StateAllocated,
		slots:  make([]any, c.numSlots),
	}

	chain := c.chain()

	inst.state = StateInstanceInitializing
	for i, t := range chain {
		if t.info.InstanceInit == nil {
			continue
		}
		if err := t.info.InstanceInit(&InstanceView{inst: inst, owner: t}); err != nil {
			// Tear down only the levels whose init completed.
			inst.state = StateFinalizing
			inst.runFinalizers(chain[:i])
			inst.destroy()
			return nil, fmt.Errorf("new %s: %w at %s: %w", c.name, ErrInitFailed, t.name, err)
		}
	}

	inst.state = StatePostInitializing
	for _, t := range chain {
		if t.info.InstancePostInit != nil {
			t.info.InstancePostInit(inst)
		}
	}

	inst.state = StateReady
	return inst, nil
}

// ---------------------------------------------------------------------------
// Teardown
// ---------------------------------------------------------------------------

// Finalize tears the instance down: finalizer hooks run child-first, then
// the storage is released. Finalization never fails from the caller's
// point of view; a failing hook is reported to the registry's diagnostic
// sink and teardown continues with the rest of the chain. Calling
// Finalize again, or on an instance that is not Ready, is a no-op.
func (inst *Instance) Finalize() {
	if inst.state != StateReady {
		return
	}
	inst.state = StateFinalizing
	inst.runFinalizers(inst.class.chain())
	inst.destroy()
}

// runFinalizers runs the finalizer hooks of the given chain prefix in
// child-first order, reporting each failure to the diagnostic sink. The
// prefix holds exactly the levels whose instance-init completed, so a
// level that never initialized is never finalized.
func (inst *Instance) runFinalizers(initialized []*Class) {
	for i := len(initialized) - 1; i >= 0; i-- {
		t := initialized[i]
		if t.info.InstanceFinalize == nil {
			continue
		}
		if err := t.info.InstanceFinalize(inst); err != nil {
			inst.class.reg.sink.FinalizationError(inst.class.name, t.name, err)
		}
	}
}

// destroy releases the slot storage and marks the instance dead.
func (inst *Instance) destroy() {
	inst.slots = nil
	inst.state = StateDestroyed
}
