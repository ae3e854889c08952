package om

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// InstanceTable: opaque handles for live instances
// ---------------------------------------------------------------------------

// Handle is an opaque reference to a live instance, for callers outside
// the process's pointer graph (servers, embedders holding IDs). Handles
// are never reused.
type Handle uint64

// InstanceTable maps handles to live instances. It is safe for concurrent
// use; the instances themselves remain single-mutator.
type InstanceTable struct {
	mu        sync.RWMutex
	instances map[Handle]*Instance
	nextID    atomic.Uint64
}

// NewInstanceTable creates an empty instance table.
func NewInstanceTable() *InstanceTable {
	return &InstanceTable{
		instances: make(map[Handle]*Instance),
	}
}

// Add registers an instance and returns its handle. Handles start at 1;
// 0 is never a valid handle.
func (t *InstanceTable) Add(inst *Instance) Handle {
	h := Handle(t.nextID.Add(1))

	t.mu.Lock()
	t.instances[h] = inst
	t.mu.Unlock()

	return h
}

// Get retrieves an instance by handle.
func (t *InstanceTable) Get(h Handle) (*Instance, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	inst, ok := t.instances[h]
	return inst, ok
}

// GetTyped retrieves an instance by handle and checks that it is of the
// wanted class or a descendant. This is the checked entry point for
// handles arriving from outside: a dangling handle fails with
// ErrStaleHandle, a live instance of an unrelated type with
// ErrWrongReceiver.
func (t *InstanceTable) GetTyped(h Handle, want *Class) (*Instance, error) {
	inst, ok := t.Get(h)
	if !ok {
		return nil, staleHandle(h)
	}
	if !inst.class.Is(want) {
		return nil, fmt.Errorf("handle %d holds a %s, not a %s: %w",
			h, inst.class.name, want.name, ErrWrongReceiver)
	}
	return inst, nil
}

// Remove drops a handle and returns the instance it held.
func (t *InstanceTable) Remove(h Handle) (*Instance, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inst, ok := t.instances[h]
	if ok {
		delete(t.instances, h)
	}
	return inst, ok
}

// Len returns the number of live handles.
func (t *InstanceTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.instances)
}

// All returns a snapshot of the table.
func (t *InstanceTable) All() map[Handle]*Instance {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[Handle]*Instance, len(t.instances))
	for h, inst := range t.instances {
		out[h] = inst
	}
	return out
}

func staleHandle(h Handle) error {
	return fmt.Errorf("handle %d: %w", h, ErrStaleHandle)
}
