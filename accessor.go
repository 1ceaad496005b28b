package record

import (
	"context"
	"math"
	"reflect"
)

// =====================================
// Accessors
// =====================================

// Accessor reads and writes one column of a model's records and looks records up
// by that column. Accessors are built once per model by Finalize.
type Accessor struct {
	model    *Model
	column   string
	position int
}

// Column returns the column name
func (a *Accessor) Column() string {
	return a.column
}

// Position returns the column's index in table order; 0 is the identity column
func (a *Accessor) Position() int {
	return a.position
}

// Get returns the record's value for the column, or nil when unset
func (a *Accessor) Get(r *Record) interface{} {
	return r.attributes[a.column]
}

// Set stores value under the column
func (a *Accessor) Set(r *Record, value interface{}) {
	r.attributes[a.column] = value
}

// FindBy returns the first record whose column equals value. It returns an
// ErrorTypeNotFound error when no row matches.
func (a *Accessor) FindBy(ctx context.Context, value interface{}) (*Record, error) {
	s, err := a.model.finalize(ctx)
	if err != nil {
		return nil, err
	}
	return a.model.first(ctx, s, s.stmts.selectBy(a.column), value)
}

// Field is a typed view over an Accessor.
type Field[T any] struct {
	accessor *Accessor
}

// FieldOf returns a typed accessor for column
func FieldOf[T any](ctx context.Context, m *Model, column string) (Field[T], error) {
	accessor, err := m.Accessor(ctx, column)
	if err != nil {
		return Field[T]{}, err
	}
	return Field[T]{accessor: accessor}, nil
}

// Column returns the column name
func (f Field[T]) Column() string {
	return f.accessor.column
}

// Get returns the value converted to T. The second result is false when the
// value is unset or cannot be represented as T. Numeric values convert between
// numeric types when the value fits, so an int64 read from the store can be read
// as int, while 300 is not an int8 and 3.7 is not an int.
func (f Field[T]) Get(r *Record) (T, bool) {
	var zero T
	value := f.accessor.Get(r)
	if value == nil {
		return zero, false
	}
	if typed, ok := value.(T); ok {
		return typed, true
	}

	target := reflect.TypeOf((*T)(nil)).Elem()
	rv := reflect.ValueOf(value)
	if !convertible(rv, target) {
		return zero, false
	}
	return rv.Convert(target).Interface().(T), true
}

// Set stores value under the column
func (f Field[T]) Set(r *Record, value T) {
	f.accessor.Set(r, value)
}

// FindBy returns the first record whose column equals value
func (f Field[T]) FindBy(ctx context.Context, value T) (*Record, error) {
	return f.accessor.FindBy(ctx, value)
}

func convertible(v reflect.Value, to reflect.Type) bool {
	from := v.Type()
	if !from.ConvertibleTo(to) {
		return false
	}
	switch {
	case from.Kind() == reflect.String && to.Kind() == reflect.String:
		return true
	case isNumeric(from.Kind()) && isNumeric(to.Kind()):
		return fits(v, to)
	}
	return false
}

// fits reports whether the numeric value v converts to type to without
// wrapping, truncation or loss of sign.
func fits(v reflect.Value, to reflect.Type) bool {
	target := reflect.New(to).Elem()

	switch {
	case isInt(v.Kind()):
		n := v.Int()
		switch {
		case isInt(to.Kind()):
			return !target.OverflowInt(n)
		case isUint(to.Kind()):
			return n >= 0 && !target.OverflowUint(uint64(n))
		default:
			return !target.OverflowFloat(float64(n))
		}
	case isUint(v.Kind()):
		n := v.Uint()
		switch {
		case isInt(to.Kind()):
			return n <= math.MaxInt64 && !target.OverflowInt(int64(n))
		case isUint(to.Kind()):
			return !target.OverflowUint(n)
		default:
			return !target.OverflowFloat(float64(n))
		}
	default:
		x := v.Float()
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return isFloat(to.Kind())
		}
		switch {
		case isFloat(to.Kind()):
			return !target.OverflowFloat(x)
		case x != math.Trunc(x):
			return false
		case isInt(to.Kind()):
			return x >= math.MinInt64 && x < math.MaxInt64 && !target.OverflowInt(int64(x))
		default:
			return x >= 0 && x < math.MaxUint64 && !target.OverflowUint(uint64(x))
		}
	}
}

func isNumeric(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
