package record

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// =====================================
// Schema Catalog
// =====================================

// Catalog discovers and caches the ordered column list of each model's table.
// Each model is introspected at most once for the lifetime of the catalog;
// concurrent first lookups for the same model share a single query.
type Catalog struct {
	gateway Gateway
	logger  *zap.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]catalogEntry
	lookups atomic.Int64
}

type catalogEntry struct {
	columns []string
	err     error
}

func (e catalogEntry) copyColumns() []string {
	if e.columns == nil {
		return nil
	}
	return append([]string(nil), e.columns...)
}

// NewCatalog creates a catalog that introspects through gateway.
func NewCatalog(gateway Gateway, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		gateway: gateway,
		logger:  logger,
		entries: make(map[string]catalogEntry),
	}
}

// Columns returns the columns of the model's table in table order. A failed
// lookup is remembered: later calls for the same model return the same error
// without querying again.
func (c *Catalog) Columns(ctx context.Context, model *Model) ([]string, error) {
	if entry, ok := c.cached(model.name); ok {
		return entry.copyColumns(), entry.err
	}

	v, _, _ := c.group.Do(model.name, func() (interface{}, error) {
		if entry, ok := c.cached(model.name); ok {
			return entry, nil
		}
		// The entry outlives this caller, so its cancellation must not end up cached.
		entry := c.resolve(context.WithoutCancel(ctx), model)

		c.mu.Lock()
		c.entries[model.name] = entry
		c.mu.Unlock()
		return entry, nil
	})

	entry := v.(catalogEntry)
	return entry.copyColumns(), entry.err
}

// Resolved reports whether the model's columns are cached.
func (c *Catalog) Resolved(name string) bool {
	entry, ok := c.cached(name)
	return ok && entry.err == nil
}

// Lookups returns the number of introspection queries issued so far.
func (c *Catalog) Lookups() int64 {
	return c.lookups.Load()
}

func (c *Catalog) cached(name string) (catalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[name]
	return entry, ok
}

func (c *Catalog) resolve(ctx context.Context, model *Model) catalogEntry {
	c.lookups.Add(1)

	columns, err := c.gateway.Columns(ctx, introspect(model.table, c.gateway.Dialect()))
	if err == nil && len(columns) == 0 {
		err = fmt.Errorf("table %s has no columns", model.table)
	}
	if err != nil {
		c.logger.Error("schema resolution failed",
			zap.String("model", model.name),
			zap.String("table", model.table),
			zap.Error(err))
		return catalogEntry{err: Error{
			Type:    ErrorTypeSchemaResolution,
			Message: fmt.Sprintf("cannot resolve columns of %s (table %s)", model.name, model.table),
			Cause:   err,
		}}
	}

	c.logger.Debug("schema resolved",
		zap.String("model", model.name),
		zap.String("table", model.table),
		zap.Strings("columns", columns))
	return catalogEntry{columns: append([]string(nil), columns...)}
}
