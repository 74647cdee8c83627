package dto

import (
	"errors"
	"net/http"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/integration"
	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/shared"
)

// statusByCode maps domain error codes to HTTP status codes
var statusByCode = map[string]int{
	"NOT_FOUND":      http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,
	"INVALID_INPUT":  http.StatusBadRequest,
	"INVALID_STATE":  http.StatusConflict,
}

// MapError translates an application error into an HTTP status and
// response envelope.
func MapError(err error) (int, Response) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status, ok := statusByCode[domainErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, ErrorResponse(domainErr.Code, domainErr.Message)
	}

	var vendorErr *integration.VendorError
	if errors.As(err, &vendorErr) {
		return http.StatusBadGateway, ErrorResponseWithDetails(
			"VENDOR_ERROR", "vendor API rejected the request",
			map[string]string{"code": vendorErr.Code, "message": vendorErr.Message},
		)
	}

	switch {
	case errors.Is(err, integration.ErrVendorNotConfigured):
		return http.StatusConflict, ErrorResponse("VENDOR_NOT_CONFIGURED", "vendor API token is not configured")
	case errors.Is(err, integration.ErrRateLimitSaturated):
		return http.StatusTooManyRequests, ErrorResponse("RATE_LIMITED", "too many outbound requests queued, try again later")
	case errors.Is(err, integration.ErrOrderNotFound):
		return http.StatusNotFound, ErrorResponse("NOT_FOUND", "order not found at vendor")
	case integration.IsRetryable(err):
		return http.StatusBadGateway, ErrorResponse("VENDOR_UNREACHABLE", "vendor API is unreachable")
	}

	return http.StatusInternalServerError, ErrorResponse("INTERNAL_ERROR", "an unexpected error occurred")
}
