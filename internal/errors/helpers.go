package errors

import (
	"fmt"
)

// Common error creators for frequent use cases

// NewMalformedCredentialError marks an envelope that could not be decrypted
// or did not decode into the expected did:username:password triple.
func NewMalformedCredentialError(reason string, err error) *AppError {
	return Wrap(err, ErrCodeMalformedCredential, reason).
		WithUserMessage("Invalid account credential")
}

// NewMissingAccountInfoError is returned when a request that requires a
// credential envelope arrives without one.
func NewMissingAccountInfoError() *AppError {
	return New(ErrCodeMissingAccountInfo, "missing account information").
		WithUserMessage("Missing account information")
}

// NewMissingParameterError is returned for an absent required query parameter.
func NewMissingParameterError(name string) *AppError {
	return New(ErrCodeMissingParameter, fmt.Sprintf("missing parameter: %s", name)).
		WithContext("parameter", name).
		WithUserMessage(fmt.Sprintf("Missing parameter: %s", name))
}

// NewInvalidNumberError marks a destination that did not normalize to
// exactly ten digits.
func NewInvalidNumberError(masked string) *AppError {
	return New(ErrCodeInvalidNumber, "destination is not a valid 10-digit number").
		WithContext("destination", masked).
		WithUserMessage("Invalid destination number")
}

// NewEmptyMessageError marks an outbound send with no text after trimming.
func NewEmptyMessageError() *AppError {
	return New(ErrCodeEmptyMessage, "message text is empty").
		WithUserMessage("Empty message")
}

// NewProviderError wraps a telephony provider HTTP or payload failure,
// preserving the status and raw body for diagnostics. Server-side
// failures are marked retryable so the HTTP layer can map them to 502.
func NewProviderError(endpoint string, statusCode int, body string, err error) *AppError {
	appErr := Wrap(err, ErrCodeProviderAPI, "provider API call failed").
		WithContext("endpoint", endpoint).
		WithContext("status_code", statusCode).
		WithContext("body", body).
		WithUserMessage("Telephony provider request failed")

	if statusCode >= 500 || statusCode == 429 || statusCode == 408 {
		appErr.Retryable = true
	}

	return appErr
}

// NewNoSuchSMSError is returned when the marker id of an incremental
// fetch does not exist at the provider.
func NewNoSuchSMSError(id string) *AppError {
	return New(ErrCodeNoSuchSMS, fmt.Sprintf("no such SMS with id %s", id)).
		WithContext("sms_id", id).
		WithUserMessage("No such SMS")
}

// NewNoPushTokenError is returned when a DID has no registered devices.
func NewNoPushTokenError(maskedDID string) *AppError {
	return New(ErrCodeNoPushToken, "no push token available").
		WithContext("did", maskedDID).
		WithUserMessage("No push token available")
}

// NewStorageError wraps a token store failure with operation context.
// Store failures are transient from the caller's point of view, so
// they are marked retryable.
func NewStorageError(operation string, err error) *AppError {
	appErr := Wrap(err, ErrCodeStorage, fmt.Sprintf("registry %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Token storage operation failed")
	appErr.Retryable = true
	return appErr
}

// NewStorageCorruptionError marks a stored token record whose encoded
// shape is wrong. Never skipped silently.
func NewStorageCorruptionError(detail string) *AppError {
	return New(ErrCodeStorageCorruption, detail).
		WithUserMessage("Token storage is corrupted")
}

// NewTimeoutError creates a timeout error with context
func NewTimeoutError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeTimeout, fmt.Sprintf("%s timed out", operation)).
		WithContext("operation", operation).
		WithUserMessage("Operation timed out, please try again")
}

// HTTP helpers

// HTTPStatusCode maps error codes to appropriate HTTP status codes.
// The split the callers rely on: bad input is 4xx, upstream failure is
// 5xx, transient upstream failure is 502.
func HTTPStatusCode(err error) int {
	code := GetCode(err)

	switch code {
	case ErrCodeMalformedCredential, ErrCodeMissingAccountInfo, ErrCodeMissingParameter,
		ErrCodeInvalidNumber, ErrCodeEmptyMessage, ErrCodeInvalidInput, ErrCodeInvalidConfig:
		return 400 // Bad Request
	case ErrCodeNoSuchSMS, ErrCodeNoPushToken:
		return 404 // Not Found
	case ErrCodeTimeout:
		return 408 // Request Timeout
	case ErrCodeProviderAPI, ErrCodePushGateway:
		if IsRetryable(err) {
			return 502 // Bad Gateway
		}
		return 500 // Internal Server Error
	case ErrCodeStorage, ErrCodeStorageCorruption:
		return 503 // Service Unavailable
	default:
		return 500 // Internal Server Error
	}
}

// HTTPErrorResponse is the standardized HTTP error body
type HTTPErrorResponse struct {
	Error struct {
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ToHTTPResponse converts an error to a standardized HTTP response.
// Error context stays server-side: it routinely carries DIDs and raw
// provider bodies that must not leak to clients.
func ToHTTPResponse(err error, requestID string) HTTPErrorResponse {
	response := HTTPErrorResponse{
		RequestID: requestID,
	}
	response.Error.Code = GetCode(err)
	response.Error.Message = GetUserMessage(err)
	return response
}
