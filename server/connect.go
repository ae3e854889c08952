package server

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
)

// Connect wiring for the totem services. The messages in this package
// are plain structs rather than protobuf, so there is no generated
// glue; this file lays out the same procedure constants, handler
// interfaces, and constructors that generated connect stubs would.

const (
	// RegistryServiceName is the fully-qualified name of the registry
	// introspection service.
	RegistryServiceName = "totem.v1.RegistryService"
	// InstanceServiceName is the fully-qualified name of the instance
	// lifecycle service.
	InstanceServiceName = "totem.v1.InstanceService"
)

// Procedure paths, one per RPC. Connect routes on these.
const (
	RegistryServiceListTypesProcedure    = "/" + RegistryServiceName + "/ListTypes"
	RegistryServiceGetTypeProcedure      = "/" + RegistryServiceName + "/GetType"
	RegistryServiceGetHierarchyProcedure = "/" + RegistryServiceName + "/GetHierarchy"

	InstanceServiceInstantiateProcedure      = "/" + InstanceServiceName + "/Instantiate"
	InstanceServiceInvokeProcedure           = "/" + InstanceServiceName + "/Invoke"
	InstanceServiceFinalizeInstanceProcedure = "/" + InstanceServiceName + "/FinalizeInstance"
	InstanceServiceListInstancesProcedure    = "/" + InstanceServiceName + "/ListInstances"
)

// RegistryServiceHandler is the server API for the registry service.
type RegistryServiceHandler interface {
	ListTypes(context.Context, *connect.Request[ListTypesRequest]) (*connect.Response[ListTypesResponse], error)
	GetType(context.Context, *connect.Request[GetTypeRequest]) (*connect.Response[GetTypeResponse], error)
	GetHierarchy(context.Context, *connect.Request[GetHierarchyRequest]) (*connect.Response[GetHierarchyResponse], error)
}

// InstanceServiceHandler is the server API for the instance service.
type InstanceServiceHandler interface {
	Instantiate(context.Context, *connect.Request[InstantiateRequest]) (*connect.Response[InstantiateResponse], error)
	Invoke(context.Context, *connect.Request[InvokeRequest]) (*connect.Response[InvokeResponse], error)
	FinalizeInstance(context.Context, *connect.Request[FinalizeInstanceRequest]) (*connect.Response[FinalizeInstanceResponse], error)
	ListInstances(context.Context, *connect.Request[ListInstancesRequest]) (*connect.Response[ListInstancesResponse], error)
}

// NewRegistryServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and
// the handler itself.
func NewRegistryServiceHandler(svc RegistryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(RegistryServiceListTypesProcedure, connect.NewUnaryHandler(
		RegistryServiceListTypesProcedure,
		svc.ListTypes,
		opts...,
	))
	mux.Handle(RegistryServiceGetTypeProcedure, connect.NewUnaryHandler(
		RegistryServiceGetTypeProcedure,
		svc.GetType,
		opts...,
	))
	mux.Handle(RegistryServiceGetHierarchyProcedure, connect.NewUnaryHandler(
		RegistryServiceGetHierarchyProcedure,
		svc.GetHierarchy,
		opts...,
	))
	return "/" + RegistryServiceName + "/", mux
}

// NewInstanceServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and
// the handler itself.
func NewInstanceServiceHandler(svc InstanceServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(InstanceServiceInstantiateProcedure, connect.NewUnaryHandler(
		InstanceServiceInstantiateProcedure,
		svc.Instantiate,
		opts...,
	))
	mux.Handle(InstanceServiceInvokeProcedure, connect.NewUnaryHandler(
		InstanceServiceInvokeProcedure,
		svc.Invoke,
		opts...,
	))
	mux.Handle(InstanceServiceFinalizeInstanceProcedure, connect.NewUnaryHandler(
		InstanceServiceFinalizeInstanceProcedure,
		svc.FinalizeInstance,
		opts...,
	))
	mux.Handle(InstanceServiceListInstancesProcedure, connect.NewUnaryHandler(
		InstanceServiceListInstancesProcedure,
		svc.ListInstances,
		opts...,
	))
	return "/" + InstanceServiceName + "/", mux
}

// UnimplementedRegistryServiceHandler returns CodeUnimplemented from all
// methods. Embed it to pick up future RPCs without breaking builds.
type UnimplementedRegistryServiceHandler struct{}

func (UnimplementedRegistryServiceHandler) ListTypes(context.Context, *connect.Request[ListTypesRequest]) (*connect.Response[ListTypesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("%s.ListTypes is not implemented", RegistryServiceName))
}

func (UnimplementedRegistryServiceHandler) GetType(context.Context, *connect.Request[GetTypeRequest]) (*connect.Response[GetTypeResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("%s.GetType is not implemented", RegistryServiceName))
}

func (UnimplementedRegistryServiceHandler) GetHierarchy(context.Context, *connect.Request[GetHierarchyRequest]) (*connect.Response[GetHierarchyResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("%s.GetHierarchy is not implemented", RegistryServiceName))
}

// UnimplementedInstanceServiceHandler returns CodeUnimplemented from all
// methods.
type UnimplementedInstanceServiceHandler struct{}

func (UnimplementedInstanceServiceHandler) Instantiate(context.Context, *connect.Request[InstantiateRequest]) (*connect.Response[InstantiateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("%s.Instantiate is not implemented", InstanceServiceName))
}

func (UnimplementedInstanceServiceHandler) Invoke(context.Context, *connect.Request[InvokeRequest]) (*connect.Response[InvokeResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("%s.Invoke is not implemented", InstanceServiceName))
}

func (UnimplementedInstanceServiceHandler) FinalizeInstance(context.Context, *connect.Request[FinalizeInstanceRequest]) (*connect.Response[FinalizeInstanceResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("%s.FinalizeInstance is not implemented", InstanceServiceName))
}

func (UnimplementedInstanceServiceHandler) ListInstances(context.Context, *connect.Request[ListInstancesRequest]) (*connect.Response[ListInstancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("%s.ListInstances is not implemented", InstanceServiceName))
}

// RegistryServiceClient is a client for the registry service.
type RegistryServiceClient interface {
	ListTypes(context.Context, *connect.Request[ListTypesRequest]) (*connect.Response[ListTypesResponse], error)
	GetType(context.Context, *connect.Request[GetTypeRequest]) (*connect.Response[GetTypeResponse], error)
	GetHierarchy(context.Context, *connect.Request[GetHierarchyRequest]) (*connect.Response[GetHierarchyResponse], error)
}

// NewRegistryServiceClient constructs a client for the registry service.
// Pass connect.WithCodec(JSONCodec()) or CBORCodec(); the default proto
// codec cannot carry these messages.
func NewRegistryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) RegistryServiceClient {
	return &registryServiceClient{
		listTypes: connect.NewClient[ListTypesRequest, ListTypesResponse](
			httpClient,
			baseURL+RegistryServiceListTypesProcedure,
			opts...,
		),
		getType: connect.NewClient[GetTypeRequest, GetTypeResponse](
			httpClient,
			baseURL+RegistryServiceGetTypeProcedure,
			opts...,
		),
		getHierarchy: connect.NewClient[GetHierarchyRequest, GetHierarchyResponse](
			httpClient,
			baseURL+RegistryServiceGetHierarchyProcedure,
			opts...,
		),
	}
}

type registryServiceClient struct {
	listTypes    *connect.Client[ListTypesRequest, ListTypesResponse]
	getType      *connect.Client[GetTypeRequest, GetTypeResponse]
	getHierarchy *connect.Client[GetHierarchyRequest, GetHierarchyResponse]
}

func (c *registryServiceClient) ListTypes(ctx context.Context, req *connect.Request[ListTypesRequest]) (*connect.Response[ListTypesResponse], error) {
	return c.listTypes.CallUnary(ctx, req)
}

func (c *registryServiceClient) GetType(ctx context.Context, req *connect.Request[GetTypeRequest]) (*connect.Response[GetTypeResponse], error) {
	return c.getType.CallUnary(ctx, req)
}

func (c *registryServiceClient) GetHierarchy(ctx context.Context, req *connect.Request[GetHierarchyRequest]) (*connect.Response[GetHierarchyResponse], error) {
	return c.getHierarchy.CallUnary(ctx, req)
}

// InstanceServiceClient is a client for the instance service.
type InstanceServiceClient interface {
	Instantiate(context.Context, *connect.Request[InstantiateRequest]) (*connect.Response[InstantiateResponse], error)
	Invoke(context.Context, *connect.Request[InvokeRequest]) (*connect.Response[InvokeResponse], error)
	FinalizeInstance(context.Context, *connect.Request[FinalizeInstanceRequest]) (*connect.Response[FinalizeInstanceResponse], error)
	ListInstances(context.Context, *connect.Request[ListInstancesRequest]) (*connect.Response[ListInstancesResponse], error)
}

// NewInstanceServiceClient constructs a client for the instance service.
func NewInstanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) InstanceServiceClient {
	return &instanceServiceClient{
		instantiate: connect.NewClient[InstantiateRequest, InstantiateResponse](
			httpClient,
			baseURL+InstanceServiceInstantiateProcedure,
			opts...,
		),
		invoke: connect.NewClient[InvokeRequest, InvokeResponse](
			httpClient,
			baseURL+InstanceServiceInvokeProcedure,
			opts...,
		),
		finalizeInstance: connect.NewClient[FinalizeInstanceRequest, FinalizeInstanceResponse](
			httpClient,
			baseURL+InstanceServiceFinalizeInstanceProcedure,
			opts...,
		),
		listInstances: connect.NewClient[ListInstancesRequest, ListInstancesResponse](
			httpClient,
			baseURL+InstanceServiceListInstancesProcedure,
			opts...,
		),
	}
}

type instanceServiceClient struct {
	instantiate      *connect.Client[InstantiateRequest, InstantiateResponse]
	invoke           *connect.Client[InvokeRequest, InvokeResponse]
	finalizeInstance *connect.Client[FinalizeInstanceRequest, FinalizeInstanceResponse]
	listInstances    *connect.Client[ListInstancesRequest, ListInstancesResponse]
}

func (c *instanceServiceClient) Instantiate(ctx context.Context, req *connect.Request[InstantiateRequest]) (*connect.Response[InstantiateResponse], error) {
	return c.instantiate.CallUnary(ctx, req)
}

func (c *instanceServiceClient) Invoke(ctx context.Context, req *connect.Request[InvokeRequest]) (*connect.Response[InvokeResponse], error) {
	return c.invoke.CallUnary(ctx, req)
}

func (c *instanceServiceClient) FinalizeInstance(ctx context.Context, req *connect.Request[FinalizeInstanceRequest]) (*connect.Response[FinalizeInstanceResponse], error) {
	return c.finalizeInstance.CallUnary(ctx, req)
}

func (c *instanceServiceClient) ListInstances(ctx context.Context, req *connect.Request[ListInstancesRequest]) (*connect.Response[ListInstancesResponse], error) {
	return c.listInstances.CallUnary(ctx, req)
}
