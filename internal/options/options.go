// Package options implements the generic functional-option plumbing shared by
// the scanner and cache constructors.
package options

import "errors"

// Option configures a target of type T. Options are created with New or NoError.
type Option[T any] interface {
	apply(T) error
}

// Func adapts a function to the Option interface.
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates an option from a function that may reject its argument.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates an option from a function that cannot fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply applies every option in order and reports all failures together.
//
// Later options still run after an earlier one fails, so a caller sees every
// invalid setting in a single error instead of fixing them one at a time.
func Apply[T any](target T, opts ...Option[T]) error {
	var failures []error
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(target); err != nil {
			failures = append(failures, err)
		}
	}

	return errors.Join(failures...)
}
