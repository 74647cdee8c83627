package integration

import (
	"errors"
	"fmt"
)

// Sentinel errors for the vendor integration layer
var (
	// ErrVendorNotConfigured indicates the vendor API token is missing
	ErrVendorNotConfigured = errors.New("integration: vendor API is not configured")

	// ErrRateLimitSaturated indicates the outbound request queue is full
	ErrRateLimitSaturated = errors.New("integration: rate limit queue saturated")

	// ErrOrderNotFound indicates the vendor has no order with the requested ID
	ErrOrderNotFound = errors.New("integration: order not found")

	// ErrInvalidResponse indicates the vendor returned an undecodable payload
	ErrInvalidResponse = errors.New("integration: invalid vendor response")
)

// VendorError is a structured error envelope returned by the vendor API.
// It indicates a permanent request problem (bad token, invalid parameter)
// and must not be retried automatically.
type VendorError struct {
	Code    string
	Message string
}

// Error implements the error interface
func (e *VendorError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("vendor error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("vendor error %s", e.Code)
}

// TransportError is a network or HTTP-layer failure reaching the vendor.
// Unlike VendorError it is eligible for retry.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error is a transient transport failure
// that a caller (or the rate limiter's retry policy) may retry.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
