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

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
)

// Short aliases used throughout the platform.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeUnauthorized = ErrCodeUnauthorized
	CodeForbidden    = ErrCodeForbidden
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeValidation   = ErrCodeValidation
	CodeTimeout      = ErrCodeTimeout
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")

	// Domain specific aliases
	CodeWatchlistNotFound  = ErrCodeWatchlistNotFound
	CodeAlertNotFound      = ErrCodeAlertNotFound
	CodeRuleNotFound       = ErrCodeRuleNotFound
	CodeCompetitorNotFound = ErrCodeCompetitorNotFound
	CodeSourceUnavailable  = ErrCodeSourceUnavailable
	CodeDeliveryFailed     = ErrCodeDeliveryFailed
)

// Watchlist Module Error Codes
const (
	ErrCodeWatchlistNotFound      ErrorCode = "WTC_001"
	ErrCodeWatchlistLimitExceeded ErrorCode = "WTC_002"
	ErrCodeWatchlistConfigInvalid ErrorCode = "WTC_003"
	ErrCodeCompetitorNotFound     ErrorCode = "WTC_004"
	ErrCodeSchedulerNotRunning    ErrorCode = "WTC_005"
)

// Alert Module Error Codes
const (
	ErrCodeAlertNotFound       ErrorCode = "ALR_001"
	ErrCodeAlertInvalid        ErrorCode = "ALR_002"
	ErrCodeAlertFilterInvalid  ErrorCode = "ALR_003"
	ErrCodeAlertAlreadyDeleted ErrorCode = "ALR_004"
)

// Alert Rule Module Error Codes
const (
	ErrCodeRuleNotFound          ErrorCode = "RUL_001"
	ErrCodeRuleConditionsEmpty   ErrorCode = "RUL_002"
	ErrCodeRuleOperatorInvalid   ErrorCode = "RUL_003"
	ErrCodeRuleActionUnsupported ErrorCode = "RUL_004"
)

// Patent Event Source Error Codes
const (
	ErrCodeSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeSourceRateLimited ErrorCode = "SRC_002"
	ErrCodeSourceAuthFailed  ErrorCode = "SRC_003"
	ErrCodeSourceParseError  ErrorCode = "SRC_004"
	ErrCodeSourceTimeout     ErrorCode = "SRC_005"
)

// Notification Module Error Codes
const (
	ErrCodeDeliveryFailed      ErrorCode = "NTF_001"
	ErrCodeChannelUnsupported  ErrorCode = "NTF_002"
	ErrCodeDeliverySuppressed  ErrorCode = "NTF_003"
	ErrCodeDigestBufferFailure ErrorCode = "NTF_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,

	ErrCodeWatchlistNotFound:      http.StatusNotFound,
	ErrCodeWatchlistLimitExceeded: http.StatusTooManyRequests,
	ErrCodeWatchlistConfigInvalid: http.StatusUnprocessableEntity,
	ErrCodeCompetitorNotFound:     http.StatusNotFound,
	ErrCodeSchedulerNotRunning:    http.StatusConflict,

	ErrCodeAlertNotFound:       http.StatusNotFound,
	ErrCodeAlertInvalid:        http.StatusUnprocessableEntity,
	ErrCodeAlertFilterInvalid:  http.StatusBadRequest,
	ErrCodeAlertAlreadyDeleted: http.StatusGone,

	ErrCodeRuleNotFound:          http.StatusNotFound,
	ErrCodeRuleConditionsEmpty:   http.StatusUnprocessableEntity,
	ErrCodeRuleOperatorInvalid:   http.StatusUnprocessableEntity,
	ErrCodeRuleActionUnsupported: http.StatusUnprocessableEntity,

	ErrCodeSourceUnavailable: http.StatusBadGateway,
	ErrCodeSourceRateLimited: http.StatusTooManyRequests,
	ErrCodeSourceAuthFailed:  http.StatusBadGateway,
	ErrCodeSourceParseError:  http.StatusBadGateway,
	ErrCodeSourceTimeout:     http.StatusGatewayTimeout,

	ErrCodeDeliveryFailed:      http.StatusBadGateway,
	ErrCodeChannelUnsupported:  http.StatusUnprocessableEntity,
	ErrCodeDeliverySuppressed:  http.StatusTooManyRequests,
	ErrCodeDigestBufferFailure: http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status code for the ErrorCode, defaulting to 500
// for unmapped codes.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := ErrorCodeHTTPStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Module returns the module prefix of the code ("COMMON", "WTC", "ALR", …),
// used as a metric label by the monitoring layer.
func (c ErrorCode) Module() string {
	s := string(c)
	if i := strings.IndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return s
}

// IsTransient reports whether the code identifies a condition that is expected
// to clear on its own (event-source outages and timeouts).  Scheduler tasks
// use this to decide between retry-next-tick and surfacing the error.
func (c ErrorCode) IsTransient() bool {
	switch c {
	case ErrCodeSourceUnavailable, ErrCodeSourceRateLimited, ErrCodeSourceTimeout,
		ErrCodeTimeout, ErrCodeServiceUnavailable:
		return true
	}
	return false
}
