// Package record is a minimal active-record mapper. A Model is bound to one table,
// its columns are discovered from the table itself on first use, and Records of the
// model are read and written through a Gateway without per-model SQL.
//
//	reg := record.NewRegistry(gateway)
//	users, _ := reg.Define("User", record.Validates("presence", validate.Presence("username")))
//	u, err := users.Create(ctx, record.Attributes{"username": "ada"})
package record

import (
	"sort"
	"sync"
)

// =====================================
// Gateway Factories
// =====================================

// GatewayFactory creates gateways for a family of drivers. Adapter packages
// register their factory from init().
type GatewayFactory interface {
	Create(config Config) (Gateway, error)
	SupportedDrivers() []string
}

// GatewayRegistry manages registered gateway factories
type GatewayRegistry interface {
	Register(name string, factory GatewayFactory) error
	Get(name string) (GatewayFactory, error)
	List() []string
	Unregister(name string) error
}

// DefaultGateways is the default gateway factory registry
var DefaultGateways GatewayRegistry = NewGatewayRegistry()

// NewGatewayRegistry creates a new gateway factory registry
func NewGatewayRegistry() GatewayRegistry {
	return &gatewayRegistry{
		factories: make(map[string]GatewayFactory),
	}
}

type gatewayRegistry struct {
	mu        sync.RWMutex
	factories map[string]GatewayFactory
}

func (r *gatewayRegistry) Register(name string, factory GatewayFactory) error {
	if name == "" || factory == nil {
		return NewError(ErrorTypeInvalidArgument, "gateway name and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	return nil
}

func (r *gatewayRegistry) Get(name string) (GatewayFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, exists := r.factories[name]
	if !exists {
		return nil, Error{
			Type:    ErrorTypeNotFound,
			Message: "gateway not found: " + name,
		}
	}
	return factory, nil
}

func (r *gatewayRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *gatewayRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
	return nil
}

// =====================================
// Utility Functions
// =====================================

// OpenGateway creates a gateway using the factory registered under name
func OpenGateway(name string, config Config) (Gateway, error) {
	factory, err := DefaultGateways.Get(name)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return factory.Create(config)
}

// Open creates a gateway with OpenGateway and a Registry around it. The registry
// logger is built from config.LogLevel unless WithLogger is passed.
func Open(name string, config Config, opts ...RegistryOption) (*Registry, error) {
	gateway, err := OpenGateway(name, config)
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(config.LogLevel)
	if err != nil {
		gateway.Close()
		return nil, err
	}
	opts = append([]RegistryOption{WithLogger(logger)}, opts...)
	return NewRegistry(gateway, opts...), nil
}

// RegisterGateway registers a new gateway factory
func RegisterGateway(name string, factory GatewayFactory) error {
	return DefaultGateways.Register(name, factory)
}

// ListGateways returns all registered gateway names
func ListGateways() []string {
	return DefaultGateways.List()
}
