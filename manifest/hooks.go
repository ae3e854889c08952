package manifest

import (
	"fmt"

	"github.com/chazu/totem/om"
)

// HookSet carries the runtime hooks a manifest type binds through its
// "hooks" key. Zero-value fields are simply not installed.
type HookSet struct {
	InstanceInit     om.InstanceInitFunc
	InstancePostInit om.InstancePostInitFunc
	InstanceFinalize om.InstanceFinalizeFunc
	ClassInit        om.ClassInitFunc
	ClassBaseInit    om.ClassInitFunc
	Unparent         om.UnparentFunc
	ClassData        any
}

// HookCatalog maps the hook-set names a manifest may reference to their
// implementations. The embedder provides the catalog; hooks are code and
// cannot live in TOML.
type HookCatalog map[string]HookSet

// Descriptors converts the manifest's type declarations into registry
// descriptors, binding hooks through the catalog. A nil catalog works as
// long as no declaration names a hook set.
func (m *Manifest) Descriptors(catalog HookCatalog) ([]*om.TypeInfo, error) {
	infos := make([]*om.TypeInfo, 0, len(m.Types))
	for _, decl := range m.Types {
		info := &om.TypeInfo{
			Name:       decl.Name,
			Parent:     decl.Parent,
			Abstract:   decl.Abstract,
			InstVars:   decl.InstVars,
			VirtualOps: decl.VirtualOps,
			Interfaces: decl.Interfaces,
		}
		if decl.Hooks != "" {
			hooks, ok := catalog[decl.Hooks]
			if !ok {
				return nil, fmt.Errorf("type %s: hook set %q is not in the catalog", decl.Name, decl.Hooks)
			}
			info.InstanceInit = hooks.InstanceInit
			info.InstancePostInit = hooks.InstancePostInit
			info.InstanceFinalize = hooks.InstanceFinalize
			info.ClassInit = hooks.ClassInit
			info.ClassBaseInit = hooks.ClassBaseInit
			info.Unparent = hooks.Unparent
			info.ClassData = hooks.ClassData
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// RegisterInto registers every declared type into the registry, parents
// first regardless of manifest order.
func (m *Manifest) RegisterInto(reg *om.Registry, catalog HookCatalog) error {
	infos, err := m.Descriptors(catalog)
	if err != nil {
		return err
	}
	if err := reg.RegisterAll(infos); err != nil {
		return fmt.Errorf("registering %s types: %w", m.Project.Name, err)
	}
	return nil
}
