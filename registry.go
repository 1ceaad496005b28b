package record

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrModelNotFound is returned when a registry has no model with the requested name
	ErrModelNotFound = errors.New("model not found")
	// ErrModelExists is returned when a model name is defined twice on one registry
	ErrModelExists = errors.New("model already defined")
)

// Registry owns everything that lives for the process: the gateway, the schema
// catalog, the logger and the model definitions. Models are defined once at
// startup and looked up by name afterwards.
type Registry struct {
	gateway Gateway
	catalog *Catalog
	logger  *zap.Logger

	mutex  sync.RWMutex
	models map[string]*Model
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithLogger sets the logger used by the registry, its catalog and its models.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry that persists through gateway
func NewRegistry(gateway Gateway, opts ...RegistryOption) *Registry {
	r := &Registry{
		gateway: gateway,
		logger:  zap.NewNop(),
		models:  make(map[string]*Model),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.catalog = NewCatalog(gateway, r.logger)
	return r
}

// Define adds a model to the registry. The table name defaults to the pluralized
// snake_case form of name.
func (r *Registry) Define(name string, opts ...ModelOption) (*Model, error) {
	if name == "" {
		return nil, NewError(ErrorTypeInvalidArgument, "model name is required")
	}

	model := newModel(r, name, opts...)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.models[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrModelExists, name)
	}
	r.models[name] = model

	r.logger.Debug("model defined",
		zap.String("model", name),
		zap.String("table", model.table))
	return model, nil
}

// MustDefine is like Define but panics on error
func (r *Registry) MustDefine(name string, opts ...ModelOption) *Model {
	model, err := r.Define(name, opts...)
	if err != nil {
		panic(err)
	}
	return model
}

// Model retrieves a model by name
func (r *Registry) Model(name string) (*Model, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	model, exists := r.models[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	return model, nil
}

// Models returns the names of all defined models, sorted
func (r *Registry) Models() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// finalizeWorkers bounds concurrent schema lookups during Finalize
const finalizeWorkers = 4

// Finalize resolves the schema of every defined model. Calling it at startup
// surfaces missing tables before the first request does. Every model is tried;
// the failures are joined.
func (r *Registry) Finalize(ctx context.Context) error {
	names := r.Models()
	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(finalizeWorkers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			model, err := r.Model(name)
			if err == nil {
				err = model.Finalize(ctx)
			}
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Gateway returns the registry's gateway
func (r *Registry) Gateway() Gateway {
	return r.gateway
}

// Catalog returns the registry's schema catalog
func (r *Registry) Catalog() *Catalog {
	return r.catalog
}

// Logger returns the registry's logger
func (r *Registry) Logger() *zap.Logger {
	return r.logger
}

// Health checks that the gateway is reachable
func (r *Registry) Health(ctx context.Context) error {
	return r.gateway.Ping(ctx)
}

// Close closes the gateway and flushes the logger
func (r *Registry) Close() error {
	err := r.gateway.Close()
	_ = r.logger.Sync()
	if err != nil {
		return fmt.Errorf("error closing gateway: %w", err)
	}
	return nil
}
