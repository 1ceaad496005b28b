package record

import (
	"fmt"
	"reflect"
	"strings"
)

// Attributes maps column names to values
type Attributes map[string]interface{}

// Record is one row of a model: its attribute values and its validation errors.
// A Record is not safe for concurrent use.
type Record struct {
	model      *Model
	schema     *modelSchema
	attributes Attributes
	errors     Errors
}

// Model returns the record's model
func (r *Record) Model() *Model {
	return r.model
}

// Get returns the value of column, or nil when unset
func (r *Record) Get(column string) interface{} {
	return r.attributes[column]
}

// Set assigns value to column. Names that are not columns of the table are
// rejected with an ErrorTypeUnknownAttribute error.
func (r *Record) Set(column string, value interface{}) error {
	accessor, ok := r.schema.accessors[column]
	if !ok {
		return unknownAttribute(r.model, column)
	}
	accessor.Set(r, value)
	return nil
}

// ID returns the identity value, or nil for a record that was never saved
func (r *Record) ID() interface{} {
	return r.attributes[r.schema.identity()]
}

// Persisted reports whether the record has an identity
func (r *Record) Persisted() bool {
	return r.ID() != nil
}

// Attributes returns a copy of the record's attributes
func (r *Record) Attributes() Attributes {
	out := make(Attributes, len(r.attributes))
	for k, v := range r.attributes {
		out[k] = v
	}
	return out
}

// AttributeValues returns one value per column, in table order
func (r *Record) AttributeValues() []interface{} {
	values := make([]interface{}, len(r.schema.ordered))
	for i, accessor := range r.schema.ordered {
		values[i] = accessor.Get(r)
	}
	return values
}

// Errors returns the record's validation errors. The collection is created on
// first use and filled by Valid.
func (r *Record) Errors() Errors {
	if r.errors == nil {
		r.errors = make(Errors)
	}
	return r.errors
}

// Equal reports whether other maps to the same table and holds equal values for
// every attribute set on r.
func (r *Record) Equal(other *Record) bool {
	if other == nil || r.model.table != other.model.table {
		return false
	}
	for column, value := range r.attributes {
		if !reflect.DeepEqual(value, other.Get(column)) {
			return false
		}
	}
	return true
}

// String formats the record as Model{col: value, ...} in column order
func (r *Record) String() string {
	parts := make([]string, 0, len(r.schema.ordered))
	for _, accessor := range r.schema.ordered {
		parts = append(parts, fmt.Sprintf("%s: %v", accessor.column, accessor.Get(r)))
	}
	return fmt.Sprintf("%s{%s}", r.model.name, strings.Join(parts, ", "))
}
