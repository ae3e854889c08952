package om

import "fmt"

// ---------------------------------------------------------------------------
// ClassView: restricted hook access to a table under construction
// ---------------------------------------------------------------------------

// ClassView is what class hooks see of a table being built. It is scoped
// two ways: writes resolve selectors against the owning type's visible
// region only (its own slots plus everything above), and an attempt to
// touch anything else panics, since a hook naming a selector its type
// cannot see is a programming error, not a runtime condition.
//
// For a type's own ClassInit the visible region is the whole table built
// so far. For an ancestor's ClassBaseInit running against a descendant's
// table, it is only the ancestor's prefix.
type ClassView struct {
	vt    *VTable
	owner *Class
	limit int // visible slot prefix
}

// TypeName returns the name of the hook-owning type.
func (v *ClassView) TypeName() string { return v.owner.name }

// TableType returns the class whose table is being built. For a type's
// own ClassInit this is the owning type itself; for a ClassBaseInit it
// is the descendant being built.
func (v *ClassView) TableType() *Class { return v.vt.class }

// ClassData returns the opaque payload of the hook-owning type's
// descriptor.
func (v *ClassView) ClassData() any { return v.owner.info.ClassData }

// Install binds an implementation to a visible selector, overriding
// whatever the slot held. Panics if the selector is not declared in the
// owner's visible region.
func (v *ClassView) Install(selector string, fn OpFunc) {
	idx := v.slotIndex(selector)
	v.vt.slots[idx].fn = fn
	v.vt.slots[idx].Installer = v.owner
}

// Install0 binds a zero-argument implementation.
func (v *ClassView) Install0(selector string, fn Op0Func) {
	v.Install(selector, Op0(selector, fn))
}

// Install1 binds a one-argument implementation.
func (v *ClassView) Install1(selector string, fn Op1Func) {
	v.Install(selector, Op1(selector, fn))
}

// Install2 binds a two-argument implementation.
func (v *ClassView) Install2(selector string, fn Op2Func) {
	v.Install(selector, Op2(selector, fn))
}

// Install3 binds a three-argument implementation.
func (v *ClassView) Install3(selector string, fn Op3Func) {
	v.Install(selector, Op3(selector, fn))
}

// Clear empties a visible slot, erasing an inherited or earlier-installed
// implementation. Dispatching the selector afterwards fails with
// ErrSlotUnset unless something downstream reinstalls it.
func (v *ClassView) Clear(selector string) {
	idx := v.slotIndex(selector)
	v.vt.slots[idx].fn = nil
	v.vt.slots[idx].Installer = nil
}

// Installed returns true if the visible slot currently has an
// implementation.
func (v *ClassView) Installed(selector string) bool {
	return v.vt.slots[v.slotIndex(selector)].fn != nil
}

// slotIndex resolves a selector within the visible region or panics.
func (v *ClassView) slotIndex(selector string) int {
	id := v.owner.reg.selectors.Lookup(selector)
	if id >= 0 {
		if idx := v.vt.class.opSlotIndex(id); idx >= 0 && idx < v.limit {
			return idx
		}
	}
	panic(fmt.Sprintf("totem: class hook of %s touches operation %q outside its declared region",
		v.owner.name, selector))
}

// ---------------------------------------------------------------------------
// InstanceView: restricted hook access to an instance under construction
// ---------------------------------------------------------------------------

// InstanceView is what an instance-init hook sees of the instance being
// built: the owning type's own slot region, by name, and nothing else.
// Slots of the parent's region or a descendant's are not reachable
// through it, which is what makes parent-first initialization safe.
type InstanceView struct {
	inst  *Instance
	owner *Class
}

// TypeName returns the name of the hook-owning type.
func (v *InstanceView) TypeName() string { return v.owner.name }

// InstanceType returns the most-derived class of the instance being
// initialized. Useful for logging; the view still only exposes the
// owner's slot region.
func (v *InstanceView) InstanceType() *Class { return v.inst.class }

// Get reads one of the owner's own slots. Panics if the name is not
// declared by the owner.
func (v *InstanceView) Get(name string) any {
	return v.inst.slots[v.slotIndex(name)]
}

// Set writes one of the owner's own slots. Panics if the name is not
// declared by the owner.
func (v *InstanceView) Set(name string, value any) {
	v.inst.slots[v.slotIndex(name)] = value
}

// slotIndex resolves a slot name within the owner's own region or panics.
func (v *InstanceView) slotIndex(name string) int {
	for i, n := range v.owner.info.InstVars {
		if n == name {
			return v.owner.slotBase + i
		}
	}
	panic(fmt.Sprintf("totem: instance-init of %s touches slot %q outside its own region",
		v.owner.name, name))
}
