package domain

import "fmt"

// Error types for consistent error handling across the checkout backend.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
// Pix configuration problems (bad key, empty name/city) and bad amounts
// surface as ErrValidation with the offending field set, so the storefront
// can show the specific reason instead of a generic failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrNormalization indicates a human-readable field became empty after
// diacritic stripping and charset filtering.
type ErrNormalization struct {
	Input string
}

func (e *ErrNormalization) Error() string {
	return fmt.Sprintf("normalization produced empty result for %q", e.Input)
}

// ErrEncoding indicates an internal TLV encoding invariant was violated
// (oversized value, malformed tag). Treated as a defect, not user input.
type ErrEncoding struct {
	Tag    string
	Reason string
}

func (e *ErrEncoding) Error() string {
	return fmt.Sprintf("encoding error on field %s: %s", e.Tag, e.Reason)
}

// ErrIllegalTransition indicates an order status change that the state
// machine does not allow. The current state is preserved.
type ErrIllegalTransition struct {
	OrderID string
	From    OrderStatus
	To      OrderStatus
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal transition for order %s: %s -> %s", e.OrderID, e.From, e.To)
}

// ErrStatusConflict indicates a compare-and-set transition observed a
// different current status than expected (lost a race with another writer).
type ErrStatusConflict struct {
	OrderID  string
	Expected OrderStatus
	Actual   OrderStatus
}

func (e *ErrStatusConflict) Error() string {
	return fmt.Sprintf("status conflict for order %s: expected %s, found %s", e.OrderID, e.Expected, e.Actual)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
