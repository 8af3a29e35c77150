package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeUnsupportedSource = "UNSUPPORTED_SOURCE"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeBrowser           = "BROWSER_FAILURE"
	ErrCodeNavigation        = "NAVIGATION_FAILED"
	ErrCodePanelNotFound     = "REVIEW_PANEL_NOT_FOUND"
	ErrCodeTimeout           = "HARVEST_TIMEOUT"
	ErrCodeExport            = "EXPORT_FAILED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HarvestError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type HarvestError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *HarvestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *HarvestError) Unwrap() error {
	return e.Err
}

// NewHarvestError creates a new HarvestError.
func NewHarvestError(code, message string, err error) *HarvestError {
	return &HarvestError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *HarvestError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
