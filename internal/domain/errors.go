package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedCurrency is returned when a manual selection names a
	// currency outside USD/CAD. Conversion itself never returns it: unsupported
	// currencies are passed through unchanged.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrNegativeAmount is returned when constructing Money with a negative amount.
	ErrNegativeAmount = errors.New("money amount must not be negative")

	// ErrFractionalAmount is returned when constructing Money from a fractional subunit count.
	ErrFractionalAmount = errors.New("money amount must be a whole number of subunits")

	// ErrAmountOutOfRange is returned when an amount or a sum does not fit in int64 subunits.
	ErrAmountOutOfRange = errors.New("money amount out of range")
)

// NetworkError reports a failed request or a non-success response from an
// external service.
type NetworkError struct {
	Service    string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Service, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DataError reports a response that is missing an expected field or is malformed.
type DataError struct {
	Service string
	Field   string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: invalid %s: %v", e.Service, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: missing or invalid %s", e.Service, e.Field)
}

func (e *DataError) Unwrap() error { return e.Err }

// PermissionError reports that device location is denied or unavailable.
type PermissionError struct {
	Reason string
	Err    error
}

func (e *PermissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("location unavailable: %s", e.Reason)
}

func (e *PermissionError) Unwrap() error { return e.Err }
