package patient

import "fmt"

// Opt holds a value that may be absent. The zero value is absent.
type Opt[T any] struct {
	v  T
	ok bool
}

// Some wraps a present value.
func Some[T any](v T) Opt[T] {
	return Opt[T]{v: v, ok: true}
}

// None returns an absent value.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.v, o.ok
}

// Present reports whether a value is set.
func (o Opt[T]) Present() bool {
	return o.ok
}

// MustGet returns the value or panics when absent.
func (o Opt[T]) MustGet() T {
	if !o.ok {
		panic("patient: value is absent")
	}
	return o.v
}

func (o Opt[T]) String() string {
	if !o.ok {
		return "<absent>"
	}
	return fmt.Sprint(o.v)
}

// valuePtr feeds the validator: a pointer for present values, a nil interface otherwise.
func (o Opt[T]) valuePtr() any {
	if !o.ok {
		return nil
	}
	v := o.v
	return &v
}
