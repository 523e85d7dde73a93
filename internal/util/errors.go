package util

import (
	"errors"
	"fmt"
)

// Common sentinel errors.
var (
	ErrEmptyPaths        = errors.New("route has no paths")
	ErrInvalidExpression = errors.New("invalid filter expression")
	ErrInvalidAddress    = errors.New("invalid remote address")
	ErrConfigInvalid     = errors.New("invalid configuration")
)

// RouteError reports a route definition that could not be compiled.
type RouteError struct {
	Index int
	ID    string
	Cause error
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("route %s [%d]: %v", e.ID, e.Index, e.Cause)
	}
	return fmt.Sprintf("route [%d]: %v", e.Index, e.Cause)
}

// Unwrap returns the underlying error.
func (e *RouteError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *RouteError) Is(target error) bool {
	_, ok := target.(*RouteError)
	return ok || errors.Is(e.Cause, target)
}

// NewRouteError creates a new RouteError.
func NewRouteError(index int, id string, cause error) *RouteError {
	return &RouteError{Index: index, ID: id, Cause: cause}
}

// ExpressionError reports a filter expression that failed to compile.
type ExpressionError struct {
	Expr  string
	Cause error
}

// Error implements the error interface.
func (e *ExpressionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("invalid filter expression %q", e.Expr)
	}
	return fmt.Sprintf("invalid filter expression %q: %v", e.Expr, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ExpressionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ExpressionError) Is(target error) bool {
	if target == ErrInvalidExpression {
		return true
	}
	_, ok := target.(*ExpressionError)
	return ok || errors.Is(e.Cause, target)
}

// NewExpressionError creates a new ExpressionError.
func NewExpressionError(expr string, cause error) *ExpressionError {
	return &ExpressionError{Expr: expr, Cause: cause}
}

// AddressError reports a remote address or CIDR that could not be parsed.
type AddressError struct {
	Address string
	Cause   error
}

// Error implements the error interface.
func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid remote address %q: %v", e.Address, e.Cause)
}

// Unwrap returns the underlying error.
func (e *AddressError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *AddressError) Is(target error) bool {
	if target == ErrInvalidAddress {
		return true
	}
	_, ok := target.(*AddressError)
	return ok || errors.Is(e.Cause, target)
}

// NewAddressError creates a new AddressError.
func NewAddressError(address string, cause error) *AddressError {
	return &AddressError{Address: address, Cause: cause}
}
