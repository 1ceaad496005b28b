package record

import "context"

// =====================================
// Hooks and Validators
// =====================================

// Hook is a lifecycle callback registered on a model. A non-nil error aborts
// the operation that ran the hook.
type Hook func(ctx context.Context, r *Record) error

// Validator inspects a record and adds messages to r.Errors() for every problem
// it finds. Validators report through the error collection, never by returning.
type Validator interface {
	Validate(ctx context.Context, r *Record)
}

// ValidatorFunc adapts a function to the Validator interface
type ValidatorFunc func(ctx context.Context, r *Record)

// Validate calls f(ctx, r)
func (f ValidatorFunc) Validate(ctx context.Context, r *Record) {
	f(ctx, r)
}

// runHooks runs hooks in order and stops at the first error
func runHooks(ctx context.Context, hooks []Hook, r *Record) error {
	for _, hook := range hooks {
		if err := hook(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
