package om

// ---------------------------------------------------------------------------
// VTable: the per-type operation table
// ---------------------------------------------------------------------------

// VTable is the built operation table of one class. Slots are stored in a
// flat array whose prefix is a copy of the parent's table, so a table
// built for a type answers every selector its ancestors declared without
// walking anywhere at dispatch time. Tables are immutable once built and
// safe for concurrent readers.
type VTable struct {
	class *Class
	slots []Slot
}

// Slot is one operation slot in a table.
type Slot struct {
	// Selector is the interned selector ID. Resolve it to a name through
	// the registry's selector table.
	Selector int

	// Declarer is the class whose descriptor declared this slot.
	Declarer *Class

	// Installer is the class whose class-init installed the current
	// implementation, or nil while the slot is unset.
	Installer *Class

	fn OpFunc
}

// Installed returns true if the slot has an implementation.
func (s Slot) Installed() bool { return s.fn != nil }

// Class returns the class this table belongs to.
func (vt *VTable) Class() *Class { return vt.class }

// Len returns the number of slots, inherited region included.
func (vt *VTable) Len() int { return len(vt.slots) }

// Slot returns a copy of the slot at the given table index.
// Panics if the index is out of range.
func (vt *VTable) Slot(index int) Slot {
	if index < 0 || index >= len(vt.slots) {
		panic("totem: VTable.Slot: index out of range")
	}
	return vt.slots[index]
}

// Slots returns a copy of all slots in table order.
func (vt *VTable) Slots() []Slot {
	out := make([]Slot, len(vt.slots))
	copy(out, vt.slots)
	return out
}

// Lookup returns the implementation bound to a selector ID, or nil when
// the selector is not declared in the chain or its slot is unset.
func (vt *VTable) Lookup(selID int) OpFunc {
	idx := vt.class.opSlotIndex(selID)
	if idx < 0 {
		return nil
	}
	return vt.slots[idx].fn
}

// ---------------------------------------------------------------------------
// Table construction
// ---------------------------------------------------------------------------

// VTable returns the class's operation table, building it on first use.
// Builds are chain-local and deterministic: the parent's table is built
// first and copied as the prefix, then hooks fill in this type's view of
// it. Repeated calls return the same cached table.
func (c *Class) VTable() *VTable {
	c.buildOnce.Do(c.buildVTable)
	return c.vtable
}

// TableBuilt reports whether the operation table has been built yet,
// without triggering a build.
func (c *Class) TableBuilt() bool {
	return c.vtable != nil
}

// buildVTable assembles the table. The ordering is load-bearing:
//
//  1. the parent's finished table is copied in (root tables start from
//     the fixed built-in base instead),
//  2. this type's own declared slots are appended, empty,
//  3. the ClassBaseInit hook of each strict ancestor runs against this
//     table, nearest ancestor first, each seeing only its own region,
//  4. this type's ClassInit runs over the whole visible table,
//  5. the Unparent hook, if provided, lands in the root's unparent slot.
//
// Unset slots keep whatever the copy brought in, so a type that installs
// nothing behaves exactly like its parent.
func (c *Class) buildVTable() {
	slots := make([]Slot, c.numOps)

	if c.parent != nil {
		parentTable := c.parent.VTable()
		copy(slots, parentTable.slots)
	} else {
		typeNameID := c.reg.selectors.Lookup(TypeNameSelector)
		unparentID := c.reg.selectors.Lookup(UnparentSelector)
		slots[typeNameSlot] = Slot{
			Selector:  typeNameID,
			Declarer:  c,
			Installer: c,
			fn: func(recv *Instance, args []any) (any, error) {
				return recv.class.name, nil
			},
		}
		slots[unparentSlot] = Slot{Selector: unparentID, Declarer: c}
	}

	for i, op := range c.info.VirtualOps {
		slots[c.opBase+i] = Slot{Selector: c.reg.selectors.Lookup(op), Declarer: c}
	}

	vt := &VTable{class: c, slots: slots}
	c.vtable = vt

	for p := c.parent; p != nil; p = p.parent {
		if p.info.ClassBaseInit != nil {
			p.info.ClassBaseInit(&ClassView{vt: vt, owner: p, limit: p.numOps})
		}
	}

	if c.info.ClassInit != nil {
		c.info.ClassInit(&ClassView{vt: vt, owner: c, limit: c.numOps})
	}

	if c.info.Unparent != nil {
		unparent := c.info.Unparent
		slots[unparentSlot].fn = func(recv *Instance, args []any) (any, error) {
			unparent(recv)
			return nil, nil
		}
		slots[unparentSlot].Installer = c
	}

	log.Debugf("built table for %s (%d slots)", c.name, len(slots))
}
