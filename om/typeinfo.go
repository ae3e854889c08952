package om

// ---------------------------------------------------------------------------
// TypeInfo: the static type descriptor
// ---------------------------------------------------------------------------

// Built-in selectors declared on every root table. "typeName" always has a
// default implementation; "unparent" stays unset unless a descriptor in the
// chain provides the Unparent hook.
const (
	TypeNameSelector = "typeName"
	UnparentSelector = "unparent"
)

// Table slot positions of the built-in operations.
const (
	typeNameSlot = 0
	unparentSlot = 1
	builtinOps   = 2
)

// InstanceInitFunc initializes a type's own slot region of a new instance.
// It runs parent-first during instantiation and may fail; on failure the
// already-initialized part of the chain is torn down.
type InstanceInitFunc func(view *InstanceView) error

// InstancePostInitFunc runs parent-first after every instance-init in the
// chain has completed. It receives the whole instance and may dispatch
// virtual operations on it. The instance is shared at this point; the hook
// must not assume exclusive access.
type InstancePostInitFunc func(inst *Instance)

// InstanceFinalizeFunc releases a type's own resources during teardown.
// Finalizers run child-first; a failure is reported and teardown continues.
type InstanceFinalizeFunc func(inst *Instance) error

// ClassInitFunc populates or overrides operation slots in a table under
// construction. The view covers the type's own slots and everything
// inherited, and nothing below.
type ClassInitFunc func(view *ClassView)

// UnparentFunc detaches an instance from its composition parent. Installed
// into the root's "unparent" slot only when a descriptor provides it.
type UnparentFunc func(inst *Instance)

// TypeInfo describes a type to be registered: identity, parentage, layout
// contribution, and optional lifecycle hooks. The registry copies the
// descriptor at registration; later mutation by the caller has no effect.
type TypeInfo struct {
	// Name is the unique registered name of the type.
	Name string

	// Parent names the parent type, which must already be registered.
	// Empty for a root type.
	Parent string

	// Abstract types can be registered and subclassed but not instantiated.
	Abstract bool

	// InstVars declares the type's own instance slots, appended after the
	// parent's slot region. Names may shadow inherited ones.
	InstVars []string

	// VirtualOps declares the type's own virtual-operation selectors,
	// appended after the parent's table region. Redeclaring an inherited
	// selector is rejected; overriding is done from ClassInit instead.
	VirtualOps []string

	// Interfaces lists named conformances. The registry records them
	// verbatim; Class.Implements answers over the whole parent chain.
	Interfaces []string

	// ClassData is opaque payload made visible to class hooks through the
	// view. The registry never interprets it.
	ClassData any

	// InstanceInit initializes the type's own slot region. Optional.
	InstanceInit InstanceInitFunc

	// InstancePostInit runs after the whole init chain. Optional.
	InstancePostInit InstancePostInitFunc

	// InstanceFinalize releases the type's own resources. Optional.
	InstanceFinalize InstanceFinalizeFunc

	// ClassInit installs the type's operation implementations into its
	// table after the parent copy. Optional.
	ClassInit ClassInitFunc

	// ClassBaseInit runs while each descendant's table is built, after the
	// parent copy and before the descendant's own ClassInit. It sees only
	// this type's region of the new table and is the place to undo the
	// effects of the copy (for example per-class state that must not be
	// shared). Useless on leaf types. Optional.
	ClassBaseInit ClassInitFunc

	// Unparent, when provided, is installed into the root-declared
	// "unparent" slot during this type's table build. Optional.
	Unparent UnparentFunc
}

// clone returns a copy of the descriptor with its own slice storage, so the
// registry is immune to caller-side mutation after Register returns.
func (info *TypeInfo) clone() *TypeInfo {
	c := *info
	c.InstVars = append([]string(nil), info.InstVars...)
	c.VirtualOps = append([]string(nil), info.VirtualOps...)
	c.Interfaces = append([]string(nil), info.Interfaces...)
	return &c
}
