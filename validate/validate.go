// Package validate provides validators for record.Validates.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/lemmego/record"
)

// Messages used by the validators in this package
const (
	MessageBlank       = "can't be blank"
	MessageTaken       = "has already been taken"
	MessageInvalid     = "is invalid"
	MessageTooShort    = "is too short (minimum is %d characters)"
	MessageTooLong     = "is too long (maximum is %d characters)"
	MessageUncheckable = "could not be checked"
)

// Presence rejects columns that are unset or hold an empty or blank string.
func Presence(columns ...string) record.Validator {
	return record.ValidatorFunc(func(ctx context.Context, r *record.Record) {
		for _, column := range columns {
			if blank(r.Get(column)) {
				r.Errors().Add(column, MessageBlank)
			}
		}
	})
}

// Length bounds the character count of a column's string form. A max of 0
// means no upper bound. Unset values are left to Presence.
func Length(column string, min, max int) record.Validator {
	return record.ValidatorFunc(func(ctx context.Context, r *record.Record) {
		value := r.Get(column)
		if value == nil {
			return
		}
		n := utf8.RuneCountInString(fmt.Sprint(value))
		if n < min {
			r.Errors().Add(column, fmt.Sprintf(MessageTooShort, min))
		}
		if max > 0 && n > max {
			r.Errors().Add(column, fmt.Sprintf(MessageTooLong, max))
		}
	})
}

// Format rejects values whose string form does not match re. An empty message
// uses MessageInvalid.
func Format(column string, re *regexp.Regexp, message string) record.Validator {
	if message == "" {
		message = MessageInvalid
	}
	return record.ValidatorFunc(func(ctx context.Context, r *record.Record) {
		value := r.Get(column)
		if value == nil {
			return
		}
		if !re.MatchString(fmt.Sprint(value)) {
			r.Errors().Add(column, message)
		}
	})
}

// Uniqueness rejects a value already stored in another row. The lookup goes
// through the column's FindBy, so it costs one query per validation.
func Uniqueness(column string) record.Validator {
	return record.ValidatorFunc(func(ctx context.Context, r *record.Record) {
		value := r.Get(column)
		if value == nil {
			return
		}
		existing, err := r.Model().FindBy(ctx, column, value)
		switch {
		case record.IsNotFound(err):
			return
		case err != nil:
			r.Errors().Add(column, MessageUncheckable)
			return
		}
		if r.Persisted() && fmt.Sprint(existing.ID()) == fmt.Sprint(r.ID()) {
			return
		}
		r.Errors().Add(column, MessageTaken)
	})
}

// Expr compiles expression once and evaluates it against each record's
// attributes; a false result adds message on column. Column values are
// available to the expression by name:
//
//	validate.Expr("age", "age == nil || age >= 18", "must be an adult")
func Expr(column, expression, message string) (record.Validator, error) {
	program, err := expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, record.NewErrorWithCause(record.ErrorTypeInvalidArgument,
			fmt.Sprintf("invalid expression for %s", column), err)
	}
	if message == "" {
		message = MessageInvalid
	}
	return &exprValidator{column: column, program: program, message: message}, nil
}

// MustExpr is like Expr but panics on a compile error
func MustExpr(column, expression, message string) record.Validator {
	v, err := Expr(column, expression, message)
	if err != nil {
		panic(err)
	}
	return v
}

type exprValidator struct {
	column  string
	program *vm.Program
	message string
}

func (v *exprValidator) Validate(ctx context.Context, r *record.Record) {
	out, err := expr.Run(v.program, map[string]interface{}(r.Attributes()))
	if err != nil {
		r.Errors().Add(v.column, MessageUncheckable)
		return
	}
	if ok, _ := out.(bool); !ok {
		r.Errors().Add(v.column, v.message)
	}
}

func blank(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return len(strings.TrimSpace(string(v))) == 0
	}
	return false
}
