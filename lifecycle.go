package record

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// =====================================
// Construction
// =====================================

// New builds a record from attrs. Every name is checked against the table's
// columns before any value is assigned; an unknown name fails the whole call with
// an ErrorTypeUnknownAttribute error. After assignment the AfterInitialize hooks
// run in registration order.
func (m *Model) New(ctx context.Context, attrs Attributes) (*Record, error) {
	s, err := m.finalize(ctx)
	if err != nil {
		return nil, err
	}
	return m.construct(ctx, s, attrs)
}

func (m *Model) construct(ctx context.Context, s *modelSchema, attrs Attributes) (*Record, error) {
	if unknown := unknownNames(s, attrs); len(unknown) > 0 {
		return nil, unknownAttribute(m, unknown[0])
	}

	r := &Record{
		model:      m,
		schema:     s,
		attributes: make(Attributes, len(s.columns)),
	}
	for name, value := range attrs {
		s.accessors[name].Set(r, value)
	}

	if err := runHooks(ctx, m.afterInitialize, r); err != nil {
		return nil, fmt.Errorf("%s after initialize: %w", m.name, err)
	}
	return r, nil
}

func unknownNames(s *modelSchema, attrs Attributes) []string {
	var unknown []string
	for name := range attrs {
		if _, ok := s.accessors[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// =====================================
// Validation
// =====================================

// Valid clears the error collection and runs every validator against the record.
// It reports whether the collection is still empty afterwards.
func (r *Record) Valid(ctx context.Context) bool {
	errs := r.Errors()
	errs.Clear()

	for _, category := range r.model.categories() {
		for _, validator := range r.model.validators[category] {
			validator.Validate(ctx, r)
		}
	}
	return errs.Empty()
}

// =====================================
// Persistence
// =====================================

// Save validates the record and then inserts it when it has no identity or
// updates it otherwise. An invalid record returns false with a nil error and the
// store is not touched; inspect Errors for the reasons. Store failures are
// returned as errors.
func (r *Record) Save(ctx context.Context) (bool, error) {
	logger := r.model.registry.logger

	if !r.Valid(ctx) {
		logger.Debug("record rejected",
			zap.String("model", r.model.name),
			zap.Strings("errors", r.errors.FullMessages()))
		return false, nil
	}

	if err := runHooks(ctx, r.model.beforeSave, r); err != nil {
		return false, fmt.Errorf("%s before save: %w", r.model.name, err)
	}

	var err error
	if r.Persisted() {
		err = r.update(ctx)
	} else {
		err = r.insert(ctx)
	}
	if err != nil {
		return false, err
	}

	if err := runHooks(ctx, r.model.afterSave, r); err != nil {
		return false, fmt.Errorf("%s after save: %w", r.model.name, err)
	}
	return true, nil
}

func (r *Record) insert(ctx context.Context) error {
	gateway := r.model.registry.gateway
	query := r.schema.stmts.insert()
	args := r.AttributeValues()[1:]

	var id interface{}
	if returnsInsertedID(r.schema.stmts.dialect) {
		rows, err := gateway.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		if len(rows) == 0 || len(rows[0]) == 0 {
			return NewError(ErrorTypeDatabase, fmt.Sprintf("insert into %s returned no identity", r.model.table))
		}
		id = rows[0][0]
	} else {
		result, err := gateway.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		lastID, err := result.LastInsertId()
		if err != nil {
			return ConvertError(err)
		}
		id = lastID
	}

	r.attributes[r.schema.identity()] = id
	r.model.registry.logger.Debug("record inserted",
		zap.String("model", r.model.name),
		zap.Any("id", id))
	return nil
}

func (r *Record) update(ctx context.Context) error {
	args := append(r.AttributeValues(), r.ID())
	if _, err := r.model.registry.gateway.Exec(ctx, r.schema.stmts.update(), args...); err != nil {
		return err
	}

	r.model.registry.logger.Debug("record updated",
		zap.String("model", r.model.name),
		zap.Any("id", r.ID()))
	return nil
}

// Create builds a record from attrs and saves it. A record that fails validation
// is returned together with an ErrorTypeValidation error; its Errors hold the
// details. Store failures are returned unchanged.
func (m *Model) Create(ctx context.Context, attrs Attributes) (*Record, error) {
	r, err := m.New(ctx, attrs)
	if err != nil {
		return nil, err
	}

	ok, err := r.Save(ctx)
	if err != nil {
		return r, err
	}
	if !ok {
		return r, Error{
			Type:    ErrorTypeValidation,
			Message: fmt.Sprintf("%s is invalid: %s", m.name, strings.Join(r.Errors().FullMessages(), "; ")),
		}
	}
	return r, nil
}

// TryCreate is Create reduced to a success flag. Validation and store failures
// both report false; the cause is logged at debug level.
func (m *Model) TryCreate(ctx context.Context, attrs Attributes) bool {
	if _, err := m.Create(ctx, attrs); err != nil {
		m.registry.logger.Debug("create failed",
			zap.String("model", m.name),
			zap.Error(err))
		return false
	}
	return true
}

// =====================================
// Finders
// =====================================

// All loads every row of the table
func (m *Model) All(ctx context.Context) ([]*Record, error) {
	s, err := m.finalize(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := m.registry.gateway.Query(ctx, s.stmts.selectAll())
	if err != nil {
		return nil, err
	}
	return m.hydrate(ctx, s, rows)
}

// Find loads the record whose identity equals id. It returns an
// ErrorTypeNotFound error when no row matches.
func (m *Model) Find(ctx context.Context, id interface{}) (*Record, error) {
	s, err := m.finalize(ctx)
	if err != nil {
		return nil, err
	}
	return m.first(ctx, s, s.stmts.selectByID(), id)
}

// FindBy loads the first record whose column equals value
func (m *Model) FindBy(ctx context.Context, column string, value interface{}) (*Record, error) {
	accessor, err := m.Accessor(ctx, column)
	if err != nil {
		return nil, err
	}
	return accessor.FindBy(ctx, value)
}

func (m *Model) first(ctx context.Context, s *modelSchema, query string, arg interface{}) (*Record, error) {
	rows, err := m.registry.gateway.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound(m)
	}
	records, err := m.hydrate(ctx, s, rows[:1])
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// hydrate turns rows into records through the same path as New, so hooks run for
// loaded records as well.
func (m *Model) hydrate(ctx context.Context, s *modelSchema, rows []Row) ([]*Record, error) {
	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		if len(row) != len(s.columns) {
			return nil, NewError(ErrorTypeDatabase,
				fmt.Sprintf("%s row has %d values, expected %d", m.table, len(row), len(s.columns)))
		}
		attrs := make(Attributes, len(row))
		for i, column := range s.columns {
			attrs[column] = row[i]
		}
		r, err := m.construct(ctx, s, attrs)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
