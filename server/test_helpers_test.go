package server

import (
	"context"
	"os"
	"testing"

	"connectrpc.com/connect"

	"github.com/chazu/totem/om"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
//
// Read-only tests share one runtime created in TestMain. Tests that
// create or finalize instances should use newIsolatedEnv so their
// handles don't leak into each other's listings.
// ---------------------------------------------------------------------------

var testWorker *Worker

// testTypes returns the descriptor set every server test runs against:
//
//	Bus (abstract)
//	└── SystemBus
//	Device            id; describe, reset, echo
//	└── PciDevice     slot; busProbe, overrides describe, installs reset
//	    └── PciNic    mac; Netdev
//
// reset stays unset on plain Device and busProbe stays unset everywhere,
// so both unset-slot paths are reachable.
func testTypes() []*om.TypeInfo {
	return []*om.TypeInfo{
		{
			Name:     "Bus",
			Abstract: true,
		},
		{
			Name:   "SystemBus",
			Parent: "Bus",
		},
		{
			Name:       "Device",
			InstVars:   []string{"id"},
			VirtualOps: []string{"describe", "reset", "echo"},
			InstanceInit: func(view *om.InstanceView) error {
				view.Set("id", "dev")
				return nil
			},
			ClassInit: func(view *om.ClassView) {
				view.Install0("describe", func(recv *om.Instance) (any, error) {
					return "device " + recv.TypeName(), nil
				})
				view.Install1("echo", func(recv *om.Instance, arg any) (any, error) {
					return arg, nil
				})
			},
		},
		{
			Name:       "PciDevice",
			Parent:     "Device",
			InstVars:   []string{"slot"},
			VirtualOps: []string{"busProbe"},
			ClassInit: func(view *om.ClassView) {
				view.Install0("describe", func(recv *om.Instance) (any, error) {
					return "pci " + recv.TypeName(), nil
				})
				view.Install0("reset", func(recv *om.Instance) (any, error) {
					return "reset ok", nil
				})
			},
		},
		{
			Name:       "PciNic",
			Parent:     "PciDevice",
			InstVars:   []string{"mac"},
			Interfaces: []string{"Netdev"},
		},
	}
}

// TestMain bootstraps a single runtime for all read-only server tests.
func TestMain(m *testing.M) {
	rt := om.NewRuntime()
	if err := rt.RegisterTypes(testTypes()); err != nil {
		panic(err)
	}
	testWorker = NewWorker(rt)

	code := m.Run()

	testWorker.Stop()
	os.Exit(code)
}

// newTestRegistryService creates a RegistryService backed by the shared
// runtime.
func newTestRegistryService() *RegistryService {
	return NewRegistryService(testWorker)
}

// ---------------------------------------------------------------------------
// Isolated runtime helpers - for tests that create or destroy instances.
// ---------------------------------------------------------------------------

// testEnv bundles a fresh, isolated runtime with its worker.
type testEnv struct {
	Runtime *om.Runtime
	Worker  *Worker
}

// newIsolatedEnv creates a brand-new runtime + worker with the shared
// descriptor set registered. The caller must call env.Stop() when done.
func newIsolatedEnv() *testEnv {
	rt := om.NewRuntime()
	if err := rt.RegisterTypes(testTypes()); err != nil {
		panic(err)
	}
	return &testEnv{Runtime: rt, Worker: NewWorker(rt)}
}

func (e *testEnv) Stop() {
	e.Worker.Stop()
}

// ---------------------------------------------------------------------------
// Request builder helpers - reduce boilerplate in tests.
// ---------------------------------------------------------------------------

func connectReq[T any](msg *T) *connect.Request[T] {
	return connect.NewRequest(msg)
}

func bg() context.Context {
	return context.Background()
}
