package server

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"connectrpc.com/connect"

	"github.com/chazu/totem/om"
)

// RegistryService exposes type registry introspection: listing types,
// inspecting one type's layout and operation table, and walking the
// hierarchy around a type.
type RegistryService struct {
	UnimplementedRegistryServiceHandler

	worker *Worker
}

// NewRegistryService creates a RegistryService backed by the given worker.
func NewRegistryService(worker *Worker) *RegistryService {
	return &RegistryService{worker: worker}
}

// typeSummary flattens class metadata for the wire.
func typeSummary(reg *om.Registry, c *om.Class) TypeSummary {
	sum := TypeSummary{
		Name:        c.Name(),
		DisplayName: reg.DisplayName(c.Name()),
		Abstract:    c.IsAbstract(),
		Depth:       c.Depth(),
		NumSlots:    c.NumSlots(),
		NumOps:      c.NumOps(),
	}
	if p := c.Parent(); p != nil {
		sum.Parent = p.Name()
	}
	return sum
}

func hierarchyEntry(c *om.Class) HierarchyEntry {
	return HierarchyEntry{
		Name:     c.Name(),
		Depth:    c.Depth(),
		Abstract: c.IsAbstract(),
		NumOps:   c.NumOps(),
	}
}

// ListTypes returns all registered types, optionally filtered by a name
// substring, sorted by name.
func (s *RegistryService) ListTypes(
	ctx context.Context,
	req *connect.Request[ListTypesRequest],
) (*connect.Response[ListTypesResponse], error) {
	result, err := s.worker.Do(func(rt *om.Runtime) any {
		reg := rt.Types()
		types := []TypeSummary{}
		for _, c := range reg.All() {
			if req.Msg.Pattern != "" && !strings.Contains(c.Name(), req.Msg.Pattern) {
				continue
			}
			types = append(types, typeSummary(reg, c))
		}
		sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
		return &ListTypesResponse{Types: types}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(result.(*ListTypesResponse)), nil
}

// GetType returns full details for a single type: summary, slot layout,
// interfaces, and the operation table.
func (s *RegistryService) GetType(
	ctx context.Context,
	req *connect.Request[GetTypeRequest],
) (*connect.Response[GetTypeResponse], error) {
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}

	result, err := s.worker.Do(func(rt *om.Runtime) any {
		reg := rt.Types()
		c, err := reg.Resolve(req.Msg.Name)
		if err != nil {
			return err
		}

		resp := &GetTypeResponse{
			Type:       typeSummary(reg, c),
			SlotNames:  c.AllSlotNames(),
			Interfaces: c.Interfaces(),
		}

		selectors := reg.Selectors()
		for _, slot := range c.VTable().Slots() {
			info := OpInfo{
				Selector:  selectors.Name(slot.Selector),
				Declarer:  slot.Declarer.Name(),
				Installed: slot.Installed(),
			}
			if slot.Installer != nil {
				info.Installer = slot.Installer.Name()
			}
			resp.Ops = append(resp.Ops, info)
		}
		return resp
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if errVal, ok := result.(error); ok {
		return nil, connect.NewError(codeFor(errVal), errVal)
	}
	return connect.NewResponse(result.(*GetTypeResponse)), nil
}

// GetHierarchy returns the chain above a type and its direct children.
func (s *RegistryService) GetHierarchy(
	ctx context.Context,
	req *connect.Request[GetHierarchyRequest],
) (*connect.Response[GetHierarchyResponse], error) {
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}

	result, err := s.worker.Do(func(rt *om.Runtime) any {
		reg := rt.Types()
		c, err := reg.Resolve(req.Msg.Name)
		if err != nil {
			return err
		}

		// Ancestors come back nearest-first; the wire wants root-first.
		ancestors := c.Ancestors()
		entries := make([]HierarchyEntry, len(ancestors))
		for i, a := range ancestors {
			entries[len(ancestors)-1-i] = hierarchyEntry(a)
		}

		var children []HierarchyEntry
		for _, other := range reg.All() {
			if other.Parent() == c {
				children = append(children, hierarchyEntry(other))
			}
		}
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })

		return &GetHierarchyResponse{
			Ancestors: entries,
			Self:      hierarchyEntry(c),
			Children:  children,
		}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if errVal, ok := result.(error); ok {
		return nil, connect.NewError(codeFor(errVal), errVal)
	}
	return connect.NewResponse(result.(*GetHierarchyResponse)), nil
}
