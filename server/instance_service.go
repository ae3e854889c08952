package server

import (
	"context"
	"fmt"
	"sort"

	"connectrpc.com/connect"

	"github.com/chazu/totem/om"
)

// InstanceService manages object lifecycle over the wire: create an
// instance behind a handle, dispatch operations on it, tear it down,
// and list what's live.
type InstanceService struct {
	UnimplementedInstanceServiceHandler

	worker *Worker
}

// NewInstanceService creates an InstanceService backed by the given worker.
func NewInstanceService(worker *Worker) *InstanceService {
	return &InstanceService{worker: worker}
}

// Instantiate creates an instance of the named type and returns its
// handle. The instance has run its full init and post-init chains by the
// time the response is sent.
func (s *InstanceService) Instantiate(
	ctx context.Context,
	req *connect.Request[InstantiateRequest],
) (*connect.Response[InstantiateResponse], error) {
	if req.Msg.Type == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("type is required"))
	}

	result, err := s.worker.Do(func(rt *om.Runtime) any {
		h, err := rt.Instantiate(req.Msg.Type)
		if err != nil {
			return err
		}
		inst, err := rt.Resolve(h)
		if err != nil {
			return err
		}
		return &InstantiateResponse{
			Handle: uint64(h),
			Type:   inst.TypeName(),
			State:  inst.State().String(),
		}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if errVal, ok := result.(error); ok {
		return nil, connect.NewError(codeFor(errVal), errVal)
	}
	return connect.NewResponse(result.(*InstantiateResponse)), nil
}

// Invoke dispatches a virtual operation on the instance behind a handle.
func (s *InstanceService) Invoke(
	ctx context.Context,
	req *connect.Request[InvokeRequest],
) (*connect.Response[InvokeResponse], error) {
	if req.Msg.Handle == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("handle is required"))
	}
	if req.Msg.Selector == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("selector is required"))
	}

	result, err := s.worker.Do(func(rt *om.Runtime) any {
		value, err := rt.Invoke(om.Handle(req.Msg.Handle), req.Msg.Selector, req.Msg.Args...)
		if err != nil {
			return err
		}
		return &InvokeResponse{Result: value}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if errVal, ok := result.(error); ok {
		return nil, connect.NewError(codeFor(errVal), errVal)
	}
	return connect.NewResponse(result.(*InvokeResponse)), nil
}

// FinalizeInstance tears down the instance behind a handle and releases
// the handle. Releasing an already-released handle is not an error.
func (s *InstanceService) FinalizeInstance(
	ctx context.Context,
	req *connect.Request[FinalizeInstanceRequest],
) (*connect.Response[FinalizeInstanceResponse], error) {
	if req.Msg.Handle == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("handle is required"))
	}

	result, err := s.worker.Do(func(rt *om.Runtime) any {
		h := om.Handle(req.Msg.Handle)
		_, live := rt.Instances().Get(h)
		rt.Finalize(h)
		return &FinalizeInstanceResponse{Finalized: live}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(result.(*FinalizeInstanceResponse)), nil
}

// ListInstances returns live instances, optionally restricted to a type
// and its descendants, sorted by handle.
func (s *InstanceService) ListInstances(
	ctx context.Context,
	req *connect.Request[ListInstancesRequest],
) (*connect.Response[ListInstancesResponse], error) {
	result, err := s.worker.Do(func(rt *om.Runtime) any {
		var want *om.Class
		if req.Msg.Type != "" {
			c, err := rt.Types().Resolve(req.Msg.Type)
			if err != nil {
				return err
			}
			want = c
		}

		instances := []InstanceInfo{}
		for h, inst := range rt.Instances().All() {
			if want != nil && !inst.Class().Is(want) {
				continue
			}
			instances = append(instances, InstanceInfo{
				Handle: uint64(h),
				Type:   inst.TypeName(),
				State:  inst.State().String(),
			})
		}
		sort.Slice(instances, func(i, j int) bool { return instances[i].Handle < instances[j].Handle })
		return &ListInstancesResponse{Instances: instances}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if errVal, ok := result.(error); ok {
		return nil, connect.NewError(codeFor(errVal), errVal)
	}
	return connect.NewResponse(result.(*ListInstancesResponse)), nil
}
