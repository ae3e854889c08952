// Package om implements the totem object model: a registry of
// single-inheritance types built from static descriptors, per-type
// operation tables assembled by copying the parent's table and overlaying
// the type's own hooks, staged instance construction and teardown, and
// selector-based virtual dispatch.
//
// The core types (Registry, Class, Instance) are usable directly by
// embedders that hold pointers. Runtime adds an opaque-handle boundary on
// top for callers that don't.
package om

// Runtime bundles a type registry with an instance table and exposes the
// handle-based surface: register, instantiate to a handle, dispatch on a
// handle, finalize a handle.
type Runtime struct {
	types     *Registry
	instances *InstanceTable
}

// NewRuntime creates a Runtime with an empty registry and instance table.
// Options are passed through to the registry.
func NewRuntime(opts ...Option) *Runtime {
	return &Runtime{
		types:     NewRegistry(opts...),
		instances: NewInstanceTable(),
	}
}

// Types returns the underlying type registry.
func (rt *Runtime) Types() *Registry { return rt.types }

// Instances returns the underlying instance table.
func (rt *Runtime) Instances() *InstanceTable { return rt.instances }

// RegisterType registers a single type descriptor.
func (rt *Runtime) RegisterType(info *TypeInfo) (*Class, error) {
	return rt.types.Register(info)
}

// RegisterTypes registers a batch of descriptors, parents-first.
func (rt *Runtime) RegisterTypes(infos []*TypeInfo) error {
	return rt.types.RegisterAll(infos)
}

// Instantiate creates an instance of the named type and returns a handle
// to it.
func (rt *Runtime) Instantiate(name string) (Handle, error) {
	inst, err := rt.types.Instantiate(name)
	if err != nil {
		return 0, err
	}
	return rt.instances.Add(inst), nil
}

// Resolve returns the instance behind a handle, failing with
// ErrStaleHandle when the handle was never issued or already finalized.
func (rt *Runtime) Resolve(h Handle) (*Instance, error) {
	inst, ok := rt.instances.Get(h)
	if !ok {
		return nil, staleHandle(h)
	}
	return inst, nil
}

// Invoke dispatches a virtual operation on the instance behind a handle.
func (rt *Runtime) Invoke(h Handle, selector string, args ...any) (any, error) {
	inst, err := rt.Resolve(h)
	if err != nil {
		return nil, err
	}
	return inst.Invoke(selector, args...)
}

// Finalize tears down the instance behind a handle and releases the
// handle. Finalizing an unknown or already-released handle is a no-op,
// which makes the operation idempotent for external callers.
func (rt *Runtime) Finalize(h Handle) {
	inst, ok := rt.instances.Remove(h)
	if !ok {
		return
	}
	inst.Finalize()
}
