package errors

import (
	stdErrors "errors"
)

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func AsPoolError(err error) (*PoolError, bool) {
	var pe *PoolError
	if stdErrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func AsSortError(err error) (*SortError, bool) {
	var se *SortError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasCode reports whether any coded error in err's tree carries code.
// Combined errors (multierr, errors.Join) are searched branch by branch.
func HasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	if c, ok := err.(interface{ Code() ErrorCode }); ok && c.Code() == code {
		return true
	}

	switch x := err.(type) {
	case interface{ Unwrap() error }:
		return HasCode(x.Unwrap(), code)
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
	}
	return false
}
