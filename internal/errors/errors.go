// Package errors provides custom error types for the woodshop API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code so wrapped copies compare equal to their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrAccountInactive    = &AppError{Code: "ACCOUNT_INACTIVE", Message: "Account is inactive", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusBadRequest}
	ErrDuplicateEmail    = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusBadRequest}
	ErrCannotDeleteSelf  = &AppError{Code: "CANNOT_DELETE_SELF", Message: "You cannot delete your own account", StatusCode: http.StatusBadRequest}
)

// Audit history errors.
var (
	ErrAuditEntryNotFound = &AppError{Code: "AUDIT_ENTRY_NOT_FOUND", Message: "History entry not found", StatusCode: http.StatusNotFound}
)

// Order errors.
var (
	ErrOrderNotFound        = &AppError{Code: "ORDER_NOT_FOUND", Message: "Order not found", StatusCode: http.StatusNotFound}
	ErrOrderItemNotFound    = &AppError{Code: "ORDER_ITEM_NOT_FOUND", Message: "Order item not found", StatusCode: http.StatusNotFound}
	ErrDuplicateOrderNumber = &AppError{Code: "DUPLICATE_ORDER_NUMBER", Message: "An order with this number already exists", StatusCode: http.StatusBadRequest}
	ErrInvalidDateRange     = &AppError{Code: "INVALID_DATE_RANGE", Message: "Exit date cannot be before entry date", StatusCode: http.StatusBadRequest}
)

// Material errors.
var (
	ErrMaterialNotFound      = &AppError{Code: "MATERIAL_NOT_FOUND", Message: "Material not found", StatusCode: http.StatusNotFound}
	ErrDuplicateMaterial     = &AppError{Code: "DUPLICATE_MATERIAL", Message: "A material with this name already exists", StatusCode: http.StatusBadRequest}
	ErrMaterialInUse         = &AppError{Code: "MATERIAL_IN_USE", Message: "Material is used by existing orders; deactivate it instead", StatusCode: http.StatusBadRequest}
	ErrInsufficientStock     = &AppError{Code: "INSUFFICIENT_STOCK", Message: "Insufficient stock", StatusCode: http.StatusBadRequest}
	ErrInvalidStockOperation = &AppError{Code: "INVALID_STOCK_OPERATION", Message: "Stock operation must be 'add' or 'remove'", StatusCode: http.StatusBadRequest}
)

// Carpenter errors.
var (
	ErrCarpenterNotFound  = &AppError{Code: "CARPENTER_NOT_FOUND", Message: "Carpenter not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCarpenter = &AppError{Code: "DUPLICATE_CARPENTER", Message: "A carpenter with this name already exists", StatusCode: http.StatusBadRequest}
	ErrCarpenterInactive  = &AppError{Code: "CARPENTER_INACTIVE", Message: "Carpenter is inactive", StatusCode: http.StatusBadRequest}
)

// Delivery errors.
var (
	ErrDeliveryNotFound = &AppError{Code: "DELIVERY_NOT_FOUND", Message: "Delivery not found", StatusCode: http.StatusNotFound}
)

// Setting errors.
var (
	ErrSettingNotFound  = &AppError{Code: "SETTING_NOT_FOUND", Message: "Setting not found", StatusCode: http.StatusNotFound}
	ErrSettingProtected = &AppError{Code: "SETTING_PROTECTED", Message: "This setting cannot be removed", StatusCode: http.StatusBadRequest}
)
