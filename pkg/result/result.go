// Package result provides the success/failure container returned by every
// public client operation.
package result

import (
	errs "igclient/pkg/errors"
)

// Result wraps an operation outcome. Expected failures are reported through
// Succeeded and Info instead of a returned error.
type Result[T any] struct {
	Succeeded bool
	Value     T
	Info      *errs.Error
}

// Success wraps a value in a successful result
func Success[T any](value T) Result[T] {
	return Result[T]{Succeeded: true, Value: value}
}

// Fail builds a failed result. Untyped errors are reported as unexpected.
func Fail[T any](err error) Result[T] {
	info := errs.From(err)
	if info == nil {
		info = &errs.Error{Type: errs.ErrorTypeUnexpected, Message: "operation failed without detail"}
	}
	return Result[T]{Info: info}
}

// From converts a value/error pair into a Result
func From[T any](value T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Success(value)
}

// Kind returns the error type of a failed result, or an empty string
func (r Result[T]) Kind() errs.ErrorType {
	if r.Info == nil {
		return ""
	}
	return r.Info.Type
}

// Err returns the failure as an error, or nil on success
func (r Result[T]) Err() error {
	if r.Succeeded || r.Info == nil {
		return nil
	}
	return r.Info
}

// Unwrap returns the value and error in the usual Go order
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err()
}
