package om

import "sync"

// ---------------------------------------------------------------------------
// Class: a registered type
// ---------------------------------------------------------------------------

// Class is the registry's view of one registered type: descriptor, parent
// link, and the slot/table layout fixed at registration. The operation
// table hangs off it and is built lazily on first use.
//
// Layout follows the prefix rule: an instance's slot vector begins with the
// parent's region, and the operation table begins with a copy of the
// parent's table. slotBase and opBase are where this class's own regions
// start.
type Class struct {
	reg    *Registry
	info   *TypeInfo
	name   string
	parent *Class
	depth  int

	slotBase int // first own instance slot
	numSlots int // total instance slots including inherited
	opBase   int // first own table slot
	numOps   int // total table slots including inherited

	ownOps map[int]int // selector ID -> table index, own region only

	buildOnce sync.Once
	vtable    *VTable
}

// Name returns the registered type name.
func (c *Class) Name() string { return c.name }

// Parent returns the parent class, or nil for a root type.
func (c *Class) Parent() *Class { return c.parent }

// IsAbstract reports whether instantiation is forbidden for this type.
func (c *Class) IsAbstract() bool { return c.info.Abstract }

// IsRoot reports whether this type has no parent.
func (c *Class) IsRoot() bool { return c.parent == nil }

// Depth returns the inheritance depth (0 for a root type).
func (c *Class) Depth() int { return c.depth }

// NumSlots returns the total instance slot count including inherited slots.
func (c *Class) NumSlots() int { return c.numSlots }

// NumOps returns the total operation table size including inherited slots.
func (c *Class) NumOps() int { return c.numOps }

// InstVars returns the type's own instance slot names.
func (c *Class) InstVars() []string { return c.info.InstVars }

// VirtualOps returns the type's own declared operation selectors.
func (c *Class) VirtualOps() []string { return c.info.VirtualOps }

// ClassData returns the opaque payload carried by the descriptor.
func (c *Class) ClassData() any { return c.info.ClassData }

// Registry returns the registry that owns this class.
func (c *Class) Registry() *Registry { return c.reg }

// String implements the Stringer interface.
func (c *Class) String() string { return c.name }

// ---------------------------------------------------------------------------
// Hierarchy
// ---------------------------------------------------------------------------

// Is returns true if c is other or a descendant of other.
func (c *Class) Is(other *Class) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Ancestors returns the parent chain from immediate parent to root.
func (c *Class) Ancestors() []*Class {
	var result []*Class
	for cur := c.parent; cur != nil; cur = cur.parent {
		result = append(result, cur)
	}
	return result
}

// chain returns the full chain root-first, ending with c. This is the
// order instance-init and post-init hooks run in.
func (c *Class) chain() []*Class {
	chain := make([]*Class, c.depth+1)
	for cur := c; cur != nil; cur = cur.parent {
		chain[cur.depth] = cur
	}
	return chain
}

// Implements returns true if this type or an ancestor declares the named
// interface conformance.
func (c *Class) Implements(iface string) bool {
	for cur := c; cur != nil; cur = cur.parent {
		for _, name := range cur.info.Interfaces {
			if name == iface {
				return true
			}
		}
	}
	return false
}

// Interfaces returns all declared conformances including inherited ones,
// nearest declaration first.
func (c *Class) Interfaces() []string {
	var result []string
	seen := make(map[string]bool)
	for cur := c; cur != nil; cur = cur.parent {
		for _, name := range cur.info.Interfaces {
			if !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Slot resolution
// ---------------------------------------------------------------------------

// SlotIndex returns the instance slot index for a slot name, resolving
// own slots before inherited ones so that a child's name shadows the
// parent's. Returns -1 if the name is not found.
func (c *Class) SlotIndex(name string) int {
	for i, n := range c.info.InstVars {
		if n == name {
			return c.slotBase + i
		}
	}
	if c.parent != nil {
		return c.parent.SlotIndex(name)
	}
	return -1
}

// AllSlotNames returns all instance slot names, inherited first.
func (c *Class) AllSlotNames() []string {
	if c.parent == nil {
		return append([]string(nil), c.info.InstVars...)
	}
	inherited := c.parent.AllSlotNames()
	return append(inherited, c.info.InstVars...)
}

// opSlotIndex returns the table index for a selector ID, walking the chain
// from this class's own region up to the root's built-ins. Returns -1 if
// the selector is not declared anywhere in the chain.
func (c *Class) opSlotIndex(selID int) int {
	for cur := c; cur != nil; cur = cur.parent {
		if idx, ok := cur.ownOps[selID]; ok {
			return idx
		}
	}
	return -1
}

// DeclaresOp returns true if the selector is declared by this type or an
// ancestor, whether or not any implementation is installed.
func (c *Class) DeclaresOp(selector string) bool {
	id := c.reg.selectors.Lookup(selector)
	return id >= 0 && c.opSlotIndex(id) >= 0
}
