package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Sentinel codes outside any module.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Descriptor Engine Error Codes
const (
	ErrCodeInvalidParameter         ErrorCode = "DESC_001"
	ErrCodeDependencyCycle          ErrorCode = "DESC_002"
	ErrCodeMissingDependencyBinding ErrorCode = "DESC_003"
	ErrCodeUnknownDescriptor        ErrorCode = "DESC_004"
	ErrCodeCalculationTimeout       ErrorCode = "DESC_005"
	ErrCodeCalculationFailed        ErrorCode = "DESC_006"
)

// Molecule / Toolkit Error Codes
const (
	ErrCodeMoleculeInvalidSMILES ErrorCode = "MOL_001"
	ErrCodeToolkitQueryFailed    ErrorCode = "MOL_002"
	ErrCodeMoleculeEmpty         ErrorCode = "MOL_003"
)

// Storage Error Codes
const (
	ErrCodeDatabaseError  ErrorCode = "STORE_001"
	ErrCodeCacheError     ErrorCode = "STORE_002"
	ErrCodeCacheMiss      ErrorCode = "STORE_003"
	ErrCodeObjectStorage  ErrorCode = "STORE_004"
	ErrCodeVectorIndex    ErrorCode = "STORE_005"
	ErrCodeResultNotFound ErrorCode = "STORE_006"
)

// Messaging Error Codes
const (
	ErrCodeMessagePublish ErrorCode = "MSG_001"
	ErrCodeMessageConsume ErrorCode = "MSG_002"
	ErrCodeMessageDecode  ErrorCode = "MSG_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	CodeOK:                    http.StatusOK,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeInvalidParameter:         http.StatusBadRequest,
	ErrCodeDependencyCycle:          http.StatusInternalServerError,
	ErrCodeMissingDependencyBinding: http.StatusInternalServerError,
	ErrCodeUnknownDescriptor:        http.StatusBadRequest,
	ErrCodeCalculationTimeout:       http.StatusGatewayTimeout,
	ErrCodeCalculationFailed:        http.StatusUnprocessableEntity,

	ErrCodeMoleculeInvalidSMILES: http.StatusBadRequest,
	ErrCodeToolkitQueryFailed:    http.StatusUnprocessableEntity,
	ErrCodeMoleculeEmpty:         http.StatusBadRequest,

	ErrCodeDatabaseError:  http.StatusInternalServerError,
	ErrCodeCacheError:     http.StatusInternalServerError,
	ErrCodeCacheMiss:      http.StatusNotFound,
	ErrCodeObjectStorage:  http.StatusInternalServerError,
	ErrCodeVectorIndex:    http.StatusInternalServerError,
	ErrCodeResultNotFound: http.StatusNotFound,

	ErrCodeMessagePublish: http.StatusInternalServerError,
	ErrCodeMessageConsume: http.StatusInternalServerError,
	ErrCodeMessageDecode:  http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeInvalidParameter:         "invalid descriptor parameter",
	ErrCodeDependencyCycle:          "descriptor dependency cycle",
	ErrCodeMissingDependencyBinding: "missing dependency binding",
	ErrCodeUnknownDescriptor:        "unknown descriptor",
	ErrCodeCalculationTimeout:       "descriptor calculation timed out",
	ErrCodeCalculationFailed:        "descriptor calculation failed",

	ErrCodeMoleculeInvalidSMILES: "invalid SMILES",
	ErrCodeToolkitQueryFailed:    "toolkit query failed",
	ErrCodeMoleculeEmpty:         "molecule has no atoms",

	ErrCodeDatabaseError:  "database error",
	ErrCodeCacheError:     "cache error",
	ErrCodeCacheMiss:      "cache miss",
	ErrCodeObjectStorage:  "object storage error",
	ErrCodeVectorIndex:    "vector index error",
	ErrCodeResultNotFound: "descriptor result not found",

	ErrCodeMessagePublish: "failed to publish message",
	ErrCodeMessageConsume: "failed to consume message",
	ErrCodeMessageDecode:  "failed to decode message",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
