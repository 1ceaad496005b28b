package record

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"
)

// =====================================
// Model Definition
// =====================================

// Model is a mapping definition bound to exactly one table. Its columns are
// resolved from the table on first use and never change afterwards.
type Model struct {
	name     string
	table    string
	registry *Registry

	afterInitialize []Hook
	beforeSave      []Hook
	afterSave       []Hook
	validators      map[string][]Validator

	mu     sync.RWMutex
	schema *modelSchema
}

// modelSchema is the per-model accessor table built by Finalize.
type modelSchema struct {
	columns   []string
	accessors map[string]*Accessor
	ordered   []*Accessor
	stmts     statements
}

func (s *modelSchema) identity() string {
	return s.columns[0]
}

// ModelOption configures a Model at definition time
type ModelOption func(*Model)

// Table overrides the default table name
func Table(name string) ModelOption {
	return func(m *Model) {
		if name != "" {
			m.table = name
		}
	}
}

// AfterInitialize registers hooks run, in order, after a record's attributes are
// assigned. They run for records built by callers and for rows loaded from the store.
func AfterInitialize(hooks ...Hook) ModelOption {
	return func(m *Model) {
		m.afterInitialize = append(m.afterInitialize, hooks...)
	}
}

// BeforeSave registers hooks run after validation passes and before the insert or update
func BeforeSave(hooks ...Hook) ModelOption {
	return func(m *Model) {
		m.beforeSave = append(m.beforeSave, hooks...)
	}
}

// AfterSave registers hooks run after a successful insert or update
func AfterSave(hooks ...Hook) ModelOption {
	return func(m *Model) {
		m.afterSave = append(m.afterSave, hooks...)
	}
}

// Validates registers validators under a category. Categories run in name order,
// validators within a category in registration order.
func Validates(category string, validators ...Validator) ModelOption {
	return func(m *Model) {
		m.validators[category] = append(m.validators[category], validators...)
	}
}

// TableName returns the default table name for a model name: "User" becomes
// "users", "BlogPost" becomes "blog_posts".
func TableName(modelName string) string {
	return inflect.Pluralize(inflect.Underscore(modelName))
}

func newModel(registry *Registry, name string, opts ...ModelOption) *Model {
	m := &Model{
		name:       name,
		table:      TableName(name),
		registry:   registry,
		validators: make(map[string][]Validator),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the model name
func (m *Model) Name() string {
	return m.name
}

// TableName returns the table the model is bound to
func (m *Model) TableName() string {
	return m.table
}

// Registry returns the registry the model was defined on
func (m *Model) Registry() *Registry {
	return m.registry
}

// Columns returns the table's columns in table order
func (m *Model) Columns(ctx context.Context) ([]string, error) {
	s, err := m.finalize(ctx)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), s.columns...), nil
}

// Finalize resolves the model's columns and builds its accessor table. It is
// safe to call any number of times; only the first successful call does work.
func (m *Model) Finalize(ctx context.Context) error {
	_, err := m.finalize(ctx)
	return err
}

func (m *Model) finalize(ctx context.Context) (*modelSchema, error) {
	m.mu.RLock()
	s := m.schema
	m.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	columns, err := m.registry.catalog.Columns(ctx, m)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.schema == nil {
		m.schema = m.buildSchema(columns)
		m.registry.logger.Debug("model finalized",
			zap.String("model", m.name),
			zap.Int("accessors", len(m.schema.ordered)))
	}
	return m.schema, nil
}

func (m *Model) buildSchema(columns []string) *modelSchema {
	s := &modelSchema{
		columns:   columns,
		accessors: make(map[string]*Accessor, len(columns)),
		ordered:   make([]*Accessor, 0, len(columns)),
		stmts:     newStatements(m.table, columns, m.registry.gateway.Dialect()),
	}
	for i, column := range columns {
		accessor := &Accessor{model: m, column: column, position: i}
		s.accessors[column] = accessor
		s.ordered = append(s.ordered, accessor)
	}
	return s
}

// Accessor returns the accessor for column
func (m *Model) Accessor(ctx context.Context, column string) (*Accessor, error) {
	s, err := m.finalize(ctx)
	if err != nil {
		return nil, err
	}
	accessor, ok := s.accessors[column]
	if !ok {
		return nil, unknownAttribute(m, column)
	}
	return accessor, nil
}

// Accessors returns one accessor per column, in table order
func (m *Model) Accessors(ctx context.Context) ([]*Accessor, error) {
	s, err := m.finalize(ctx)
	if err != nil {
		return nil, err
	}
	return append([]*Accessor(nil), s.ordered...), nil
}

// categories returns the validator categories in the order they run
func (m *Model) categories() []string {
	categories := make([]string, 0, len(m.validators))
	for category := range m.validators {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

func unknownAttribute(m *Model, name string) error {
	return Error{
		Type:    ErrorTypeUnknownAttribute,
		Message: fmt.Sprintf("unknown attribute '%s' for %s", name, m.name),
	}
}

func notFound(m *Model) error {
	return Error{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("%s not found", m.name),
	}
}
