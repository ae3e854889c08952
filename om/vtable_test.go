package om

import (
	"errors"
	"sync"
	"testing"
)

// findSlot returns the slot bound to a selector name in a built table.
func findSlot(t *testing.T, vt *VTable, name string) Slot {
	t.Helper()
	id := vt.Class().Registry().Selectors().Lookup(name)
	if id >= 0 {
		for _, s := range vt.Slots() {
			if s.Selector == id {
				return s
			}
		}
	}
	t.Fatalf("table of %s has no slot %q", vt.Class().Name(), name)
	return Slot{}
}

// ---------------------------------------------------------------------------
// Root tables
// ---------------------------------------------------------------------------

func TestRootTableBuiltins(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{Name: "Device"})

	vt := device.VTable()
	if vt.Class() != device {
		t.Error("VTable.Class() should return the owning class")
	}
	if vt.Len() != 2 {
		t.Errorf("Len = %d, want 2", vt.Len())
	}

	tn := vt.Slot(typeNameSlot)
	if !tn.Installed() {
		t.Error("typeName slot should have the default implementation")
	}
	if tn.Declarer != device || tn.Installer != device {
		t.Error("typeName slot should be declared and installed by the root")
	}

	up := vt.Slot(unparentSlot)
	if up.Installed() {
		t.Error("unparent slot should start unset")
	}
	if up.Declarer != device {
		t.Error("unparent slot should be declared by the root")
	}
	if up.Installer != nil {
		t.Error("unset slot should have nil installer")
	}
}

func TestTypeNameDefaultImplementation(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{Name: "Device"})
	pci := mustRegister(t, r, &TypeInfo{Name: "PciDevice", Parent: "Device"})

	deviceInst, err := device.NewInstance()
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	if got, err := deviceInst.Invoke(TypeNameSelector); err != nil || got != "Device" {
		t.Errorf("typeName on Device = %v, %v", got, err)
	}

	// The implementation lives in the root's table copy, but it answers
	// with the receiver's most-derived name.
	pciInst, err := pci.NewInstance()
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	if got, err := pciInst.Invoke(TypeNameSelector); err != nil || got != "PciDevice" {
		t.Errorf("typeName on PciDevice = %v, %v", got, err)
	}
}

// ---------------------------------------------------------------------------
// Lazy build and caching
// ---------------------------------------------------------------------------

func TestTableBuiltLazily(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{Name: "Device"})

	if device.TableBuilt() {
		t.Error("table should not be built at registration")
	}

	vt1 := device.VTable()
	if !device.TableBuilt() {
		t.Error("table should be built after VTable()")
	}

	vt2 := device.VTable()
	if vt1 != vt2 {
		t.Error("repeated VTable() calls should return the cached table")
	}
}

func TestChildBuildForcesParentBuild(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{Name: "Device"})
	pci := mustRegister(t, r, &TypeInfo{Name: "PciDevice", Parent: "Device"})

	pci.VTable()
	if !device.TableBuilt() {
		t.Error("building a child table should build the parent table first")
	}
}

func TestClassInitRunsOnce(t *testing.T) {
	r := NewRegistry()
	builds := 0
	device := mustRegister(t, r, &TypeInfo{
		Name:       "Device",
		VirtualOps: []string{"reset"},
		ClassInit: func(view *ClassView) {
			builds++
			view.Install0("reset", func(recv *Instance) (any, error) { return nil, nil })
		},
	})

	device.VTable()
	device.VTable()
	if _, err := device.NewInstance(); err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}

	if builds != 1 {
		t.Errorf("ClassInit ran %d times, want 1", builds)
	}
}

// ---------------------------------------------------------------------------
// Parent copy
// ---------------------------------------------------------------------------

func TestChildTableCopiesParent(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{
		Name:       "Device",
		VirtualOps: []string{"reset", "describe"},
		ClassInit: func(view *ClassView) {
			view.Install0("reset", func(recv *Instance) (any, error) { return "reset", nil })
		},
	})
	pci := mustRegister(t, r, &TypeInfo{
		Name:       "PciDevice",
		Parent:     "Device",
		VirtualOps: []string{"busProbe"},
	})

	dvt := device.VTable()
	pvt := pci.VTable()

	if pvt.Len() != dvt.Len()+1 {
		t.Fatalf("child table Len = %d, want %d", pvt.Len(), dvt.Len()+1)
	}

	// The inherited prefix is slot-for-slot identical to the parent table.
	for i := 0; i < dvt.Len(); i++ {
		ps, ds := pvt.Slot(i), dvt.Slot(i)
		if ps.Selector != ds.Selector {
			t.Errorf("slot %d selector = %d, want %d", i, ps.Selector, ds.Selector)
		}
		if ps.Declarer != ds.Declarer {
			t.Errorf("slot %d declarer = %v, want %v", i, ps.Declarer, ds.Declarer)
		}
		if ps.Installer != ds.Installer {
			t.Errorf("slot %d installer = %v, want %v", i, ps.Installer, ds.Installer)
		}
		if ps.Installed() != ds.Installed() {
			t.Errorf("slot %d installed = %v, want %v", i, ps.Installed(), ds.Installed())
		}
	}

	own := pvt.Slot(dvt.Len())
	if own.Declarer != pci {
		t.Error("appended slot should be declared by the child")
	}
	if own.Installed() {
		t.Error("appended slot should start unset")
	}
}

func TestOverrideLeavesParentTableAlone(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{
		Name:       "Device",
		VirtualOps: []string{"describe"},
		ClassInit: func(view *ClassView) {
			view.Install0("describe", func(recv *Instance) (any, error) {
				return "generic device", nil
			})
		},
	})
	pci := mustRegister(t, r, &TypeInfo{
		Name:   "PciDevice",
		Parent: "Device",
		ClassInit: func(view *ClassView) {
			view.Install0("describe", func(recv *Instance) (any, error) {
				return "pci device", nil
			})
		},
	})

	deviceInst, err := device.NewInstance()
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	pciInst, err := pci.NewInstance()
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}

	if got, _ := deviceInst.Invoke("describe"); got != "generic device" {
		t.Errorf("Device describe = %v, want %q", got, "generic device")
	}
	if got, _ := pciInst.Invoke("describe"); got != "pci device" {
		t.Errorf("PciDevice describe = %v, want %q", got, "pci device")
	}

	if s := findSlot(t, device.VTable(), "describe"); s.Installer != device {
		t.Errorf("parent slot installer = %v, want Device", s.Installer)
	}
	if s := findSlot(t, pci.VTable(), "describe"); s.Installer != pci {
		t.Errorf("child slot installer = %v, want PciDevice", s.Installer)
	}
}

func TestClassInitClearInherited(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{
		Name:       "Device",
		VirtualOps: []string{"reset"},
		ClassInit: func(view *ClassView) {
			view.Install0("reset", func(recv *Instance) (any, error) { return "ok", nil })
		},
	})
	pci := mustRegister(t, r, &TypeInfo{
		Name:   "PciDevice",
		Parent: "Device",
		ClassInit: func(view *ClassView) {
			if !view.Installed("reset") {
				t.Error("copied slot should be installed before Clear")
			}
			view.Clear("reset")
		},
	})

	pciInst, err := pci.NewInstance()
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	if _, err := pciInst.Invoke("reset"); !errors.Is(err, ErrSlotUnset) {
		t.Errorf("cleared slot error = %v, want ErrSlotUnset", err)
	}

	deviceInst, err := device.NewInstance()
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	if got, err := deviceInst.Invoke("reset"); err != nil || got != "ok" {
		t.Errorf("parent reset = %v, %v", got, err)
	}
}

// ---------------------------------------------------------------------------
// Class-base-init
// ---------------------------------------------------------------------------

func TestClassBaseInitOrder(t *testing.T) {
	r := NewRegistry()
	var calls []string
	record := func(owner string) ClassInitFunc {
		return func(view *ClassView) {
			calls = append(calls, owner+" base for "+view.TableType().Name())
		}
	}

	device := mustRegister(t, r, &TypeInfo{Name: "Device", ClassBaseInit: record("Device")})
	pci := mustRegister(t, r, &TypeInfo{Name: "PciDevice", Parent: "Device", ClassBaseInit: record("PciDevice")})
	nic := mustRegister(t, r, &TypeInfo{Name: "PciNic", Parent: "PciDevice"})

	device.VTable()
	if len(calls) != 0 {
		t.Fatalf("base-init ran %d times for the root's own build, want 0", len(calls))
	}

	pci.VTable()
	nic.VTable()

	// Ancestors run nearest first, and only for descendants' builds.
	want := []string{
		"Device base for PciDevice",
		"PciDevice base for PciNic",
		"Device base for PciNic",
	}
	if len(calls) != len(want) {
		t.Fatalf("base-init calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestClassBaseInitErasesCopiedSlot(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{
		Name:       "Device",
		VirtualOps: []string{"vmState"},
		ClassInit: func(view *ClassView) {
			view.Install0("vmState", func(recv *Instance) (any, error) {
				return "device state", nil
			})
		},
		// Per-class state must not leak into subclasses through the copy.
		ClassBaseInit: func(view *ClassView) {
			view.Clear("vmState")
		},
	})
	pci := mustRegister(t, r, &TypeInfo{Name: "PciDevice", Parent: "Device"})

	deviceInst, err := device.NewInstance()
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	if got, err := deviceInst.Invoke("vmState"); err != nil || got != "device state" {
		t.Errorf("Device vmState = %v, %v", got, err)
	}

	pciInst, err := pci.NewInstance()
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	if _, err := pciInst.Invoke("vmState"); !errors.Is(err, ErrSlotUnset) {
		t.Errorf("inherited vmState error = %v, want ErrSlotUnset", err)
	}

	// The parent's own table is untouched by its base-init.
	if s := findSlot(t, device.VTable(), "vmState"); !s.Installed() {
		t.Error("parent slot should still be installed")
	}
}

func TestClassBaseInitLimitedToOwnRegion(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &TypeInfo{
		Name: "Device",
		ClassBaseInit: func(view *ClassView) {
			view.Clear("busProbe") // declared by the descendant, not visible here
		},
	})
	pci := mustRegister(t, r, &TypeInfo{
		Name:       "PciDevice",
		Parent:     "Device",
		VirtualOps: []string{"busProbe"},
	})

	defer func() {
		if recover() == nil {
			t.Error("base-init touching a descendant slot should panic")
		}
	}()
	pci.VTable()
}

func TestClassInitUndeclaredSelectorPanics(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{
		Name: "Device",
		ClassInit: func(view *ClassView) {
			view.Install0("warp", func(recv *Instance) (any, error) { return nil, nil })
		},
	})

	defer func() {
		if recover() == nil {
			t.Error("installing an undeclared selector should panic")
		}
	}()
	device.VTable()
}

// ---------------------------------------------------------------------------
// Unparent slot
// ---------------------------------------------------------------------------

func TestUnparentInstallation(t *testing.T) {
	r := NewRegistry()
	var unparented []string

	device := mustRegister(t, r, &TypeInfo{Name: "Device"})
	mustRegister(t, r, &TypeInfo{
		Name:   "BusDevice",
		Parent: "Device",
		Unparent: func(inst *Instance) {
			unparented = append(unparented, inst.TypeName())
		},
	})
	mustRegister(t, r, &TypeInfo{Name: "PciNic", Parent: "BusDevice"})

	deviceInst, err := device.NewInstance()
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	if deviceInst.CanUnparent() {
		t.Error("root instance should not respond to unparent")
	}
	if err := deviceInst.Unparent(); !errors.Is(err, ErrSlotUnset) {
		t.Errorf("unparent on root error = %v, want ErrSlotUnset", err)
	}

	busInst, err := r.Instantiate("BusDevice")
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	if !busInst.CanUnparent() {
		t.Error("BusDevice instance should respond to unparent")
	}
	if err := busInst.Unparent(); err != nil {
		t.Errorf("Unparent failed: %v", err)
	}

	// A grandchild without its own hook inherits the installed slot.
	nicInst, err := r.Instantiate("PciNic")
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	if !nicInst.CanUnparent() {
		t.Error("PciNic instance should inherit unparent")
	}
	if err := nicInst.Unparent(); err != nil {
		t.Errorf("Unparent failed: %v", err)
	}

	want := []string{"BusDevice", "PciNic"}
	if len(unparented) != len(want) {
		t.Fatalf("unparented = %v, want %v", unparented, want)
	}
	for i := range want {
		if unparented[i] != want[i] {
			t.Errorf("unparented[%d] = %q, want %q", i, unparented[i], want[i])
		}
	}
}

func TestUnparentHookWinsOverClassInit(t *testing.T) {
	r := NewRegistry()
	var ran []string

	device := mustRegister(t, r, &TypeInfo{
		Name: "Device",
		ClassInit: func(view *ClassView) {
			view.Install(UnparentSelector, func(recv *Instance, args []any) (any, error) {
				ran = append(ran, "class-init")
				return nil, nil
			})
		},
		Unparent: func(inst *Instance) {
			ran = append(ran, "hook")
		},
	})

	inst, err := device.NewInstance()
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	if err := inst.Unparent(); err != nil {
		t.Fatalf("Unparent failed: %v", err)
	}

	// The descriptor hook is installed after class-init and wins.
	if len(ran) != 1 || ran[0] != "hook" {
		t.Errorf("ran = %v, want [hook]", ran)
	}
}

// ---------------------------------------------------------------------------
// Class data
// ---------------------------------------------------------------------------

func TestClassDataVisibleToHooks(t *testing.T) {
	r := NewRegistry()
	var seen []string

	mustRegister(t, r, &TypeInfo{
		Name:      "Device",
		ClassData: "device-data",
		ClassBaseInit: func(view *ClassView) {
			seen = append(seen, "base:"+view.ClassData().(string))
		},
	})
	pci := mustRegister(t, r, &TypeInfo{
		Name:      "PciDevice",
		Parent:    "Device",
		ClassData: "pci-data",
		ClassInit: func(view *ClassView) {
			seen = append(seen, "init:"+view.ClassData().(string))
			// The descendant's payload stays reachable through the table's class.
			seen = append(seen, "table:"+view.TableType().ClassData().(string))
		},
	})

	pci.VTable()

	want := []string{"base:device-data", "init:pci-data", "table:pci-data"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}

	if pci.ClassData() != "pci-data" {
		t.Errorf("ClassData = %v, want %q", pci.ClassData(), "pci-data")
	}
}

// ---------------------------------------------------------------------------
// Determinism and concurrency
// ---------------------------------------------------------------------------

func TestTableLayoutDeterministic(t *testing.T) {
	descriptors := func() []*TypeInfo {
		return []*TypeInfo{
			{Name: "Device", VirtualOps: []string{"reset", "describe"}},
			{Name: "PciDevice", Parent: "Device", VirtualOps: []string{"busProbe"}},
			{Name: "UsbDevice", Parent: "Device", VirtualOps: []string{"attach"}},
		}
	}

	r1 := NewRegistry()
	for _, info := range descriptors() {
		mustRegister(t, r1, info)
	}

	// Same set, siblings registered in the opposite order.
	r2 := NewRegistry()
	infos := descriptors()
	mustRegister(t, r2, infos[0])
	mustRegister(t, r2, infos[2])
	mustRegister(t, r2, infos[1])

	layout := func(r *Registry, typeName string) []string {
		var out []string
		for _, s := range r.Lookup(typeName).VTable().Slots() {
			out = append(out, r.Selectors().Name(s.Selector))
		}
		return out
	}

	for _, typeName := range []string{"Device", "PciDevice", "UsbDevice"} {
		l1, l2 := layout(r1, typeName), layout(r2, typeName)
		if len(l1) != len(l2) {
			t.Fatalf("%s layout lengths differ: %v vs %v", typeName, l1, l2)
		}
		for i := range l1 {
			if l1[i] != l2[i] {
				t.Errorf("%s slot %d = %q vs %q", typeName, i, l1[i], l2[i])
			}
		}
	}
}

func TestConcurrentTableBuild(t *testing.T) {
	r := NewRegistry()
	builds := 0
	counting := func(view *ClassView) { builds++ }

	mustRegister(t, r, &TypeInfo{Name: "Device", ClassInit: counting})
	pci := mustRegister(t, r, &TypeInfo{Name: "PciDevice", Parent: "Device", ClassInit: counting})
	nic := mustRegister(t, r, &TypeInfo{Name: "PciNic", Parent: "PciDevice", ClassInit: counting})

	const n = 16
	var wg sync.WaitGroup
	tables := make([]*VTable, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Half the goroutines build the leaf, half the middle class.
			if i%2 == 0 {
				tables[i] = nic.VTable()
			} else {
				tables[i] = pci.VTable()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		want := nic.VTable()
		if i%2 != 0 {
			want = pci.VTable()
		}
		if tables[i] != want {
			t.Fatalf("goroutine %d got a different table", i)
		}
	}
	if builds != 3 {
		t.Errorf("class inits ran %d times, want 3", builds)
	}
}

// ---------------------------------------------------------------------------
// Slot accessors
// ---------------------------------------------------------------------------

func TestSlotOutOfRangePanics(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{Name: "Device"})
	vt := device.VTable()

	defer func() {
		if recover() == nil {
			t.Error("Slot(99) should panic")
		}
	}()
	vt.Slot(99)
}

func TestSlotsReturnsCopy(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{Name: "Device"})
	vt := device.VTable()

	slots := vt.Slots()
	slots[typeNameSlot] = Slot{}

	if !vt.Slot(typeNameSlot).Installed() {
		t.Error("mutating the Slots() copy should not touch the table")
	}
}

func TestVTableLookupByID(t *testing.T) {
	r := NewRegistry()
	device := mustRegister(t, r, &TypeInfo{
		Name:       "Device",
		VirtualOps: []string{"reset"},
		ClassInit: func(view *ClassView) {
			view.Install0("reset", func(recv *Instance) (any, error) { return nil, nil })
		},
	})
	vt := device.VTable()

	if vt.Lookup(r.Selectors().Lookup("reset")) == nil {
		t.Error("Lookup of installed selector should return the implementation")
	}
	if vt.Lookup(r.Selectors().Lookup(UnparentSelector)) != nil {
		t.Error("Lookup of unset selector should return nil")
	}
	if vt.Lookup(-1) != nil {
		t.Error("Lookup of unknown ID should return nil")
	}
}
