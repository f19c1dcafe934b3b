package errors

import "fmt"

// PoolError provides specialized error handling for resource pool operations.
type PoolError struct {
	*baseError
	operation string
	key       string
}

// NewPoolError creates a new pool-specific error with the provided context.
func NewPoolError(err error, code ErrorCode, msg string) *PoolError {
	return &PoolError{
		baseError: NewBaseError(err, code, msg),
	}
}

// WithMessage updates the error message.
func (pe *PoolError) WithMessage(msg string) *PoolError {
	pe.baseError.WithMessage(msg)
	return pe
}

// WithCode sets the error code.
func (pe *PoolError) WithCode(code ErrorCode) *PoolError {
	pe.baseError.WithCode(code)
	return pe
}

// WithDetail adds contextual information.
func (pe *PoolError) WithDetail(key string, value any) *PoolError {
	pe.baseError.WithDetail(key, value)
	return pe
}

// WithKey records which pool key was being claimed or released.
func (pe *PoolError) WithKey(key any) *PoolError {
	pe.key = fmt.Sprint(key)
	return pe
}

// WithOperation records what pool operation was being performed.
func (pe *PoolError) WithOperation(operation string) *PoolError {
	pe.operation = operation
	return pe
}

// Key returns the pool key, formatted as a string.
func (pe *PoolError) Key() string {
	return pe.key
}

// Operation returns the name of the operation that was being performed.
func (pe *PoolError) Operation() string {
	return pe.operation
}
