package server

import (
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/chazu/totem/om"
)

// TotemServer is the inspection server wrapping a running object model.
// It serves the connect protocol over HTTP; requests may carry JSON or
// CBOR bodies.
type TotemServer struct {
	worker *Worker
	mux    *http.ServeMux
}

// ServerOption configures a TotemServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	handlerOpts []connect.HandlerOption
}

// WithHandlerOptions appends connect handler options (interceptors,
// compression, recovery) applied to every mounted service.
func WithHandlerOptions(opts ...connect.HandlerOption) ServerOption {
	return func(c *serverConfig) { c.handlerOpts = append(c.handlerOpts, opts...) }
}

// New creates a TotemServer wrapping the given runtime. Once the server
// is running, the runtime must not be touched except through the worker.
func New(rt *om.Runtime, opts ...ServerOption) *TotemServer {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &TotemServer{
		worker: NewWorker(rt),
		mux:    http.NewServeMux(),
	}

	handlerOpts := append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithCodec(cborCodec{}),
	}, cfg.handlerOpts...)

	// Register connect service handlers
	registrySvc := NewRegistryService(s.worker)
	instanceSvc := NewInstanceService(s.worker)

	registryPath, registryHandler := NewRegistryServiceHandler(registrySvc, handlerOpts...)
	instancePath, instanceHandler := NewInstanceServiceHandler(instanceSvc, handlerOpts...)

	s.mux.Handle(registryPath, registryHandler)
	s.mux.Handle(instancePath, instanceHandler)

	return s
}

// Handler returns the root HTTP handler, for embedding the services in
// an existing server.
func (s *TotemServer) Handler() http.Handler {
	return s.mux
}

// Worker returns the worker guarding the runtime, for callers that need
// to run their own operations between requests.
func (s *TotemServer) Worker() *Worker {
	return s.worker
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *TotemServer) ListenAndServe(addr string) error {
	fmt.Printf("totem inspection server listening on %s\n", addr)
	fmt.Printf("  types:     http://%s/%s/ListTypes\n", addr, RegistryServiceName)
	fmt.Printf("  instances: http://%s/%s/Instantiate\n", addr, InstanceServiceName)
	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the server.
func (s *TotemServer) Stop() {
	s.worker.Stop()
}
