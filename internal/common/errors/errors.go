package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode is the machine readable kind of an AppError.
type ErrorCode string

const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeRateLimit       ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"

	// Identity and access
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodePrincipalMismatch ErrorCode = "PRINCIPAL_MISMATCH"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeAdminNotUnlocked  ErrorCode = "ADMIN_NOT_UNLOCKED"

	// Infrastructure
	ErrCodeStorage    ErrorCode = "STORAGE_ERROR"
	ErrCodeCacheError ErrorCode = "CACHE_ERROR"

	// Upstreams
	ErrCodeScoreUnavailable ErrorCode = "SCORE_UNAVAILABLE"
	ErrCodeTelegramAPI      ErrorCode = "TELEGRAM_API_ERROR"
)

// AppError is the typed error every layer returns upward. Cause and Stack are
// for logs only and never leave the process.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"-"`
	Stack     []string               `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	UserID    int64                  `json:"-"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound
}

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation || e.Code == ErrCodeBadRequest
}

// IsUnauthorized covers every access-denied kind, 401 and 403 alike.
func (e *AppError) IsUnauthorized() bool {
	switch e.Code {
	case ErrCodeUnauthorized, ErrCodePrincipalMismatch, ErrCodeForbidden, ErrCodeAdminNotUnlocked:
		return true
	}
	return false
}

func (e *AppError) IsInternal() bool {
	switch e.Code {
	case ErrCodeInternal, ErrCodeStorage, ErrCodeCacheError, ErrCodeTelegramAPI, ErrCodeScoreUnavailable:
		return true
	}
	return false
}

func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func (e *AppError) WithUserID(userID int64) *AppError {
	e.UserID = userID
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, reason).
		WithDetail("field", field)
}

func NewBadRequestError(message string) *AppError {
	return New(ErrCodeBadRequest, message)
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// NewUnauthorizedError keeps the client message generic; reason is a short
// machine tag (invalid_signature, expired, ...) that ends up in logs and details.
func NewUnauthorizedError(reason string, cause error) *AppError {
	appErr := Wrap(cause, ErrCodeUnauthorized, "Unauthorized").
		WithDetail("reason", reason)
	return appErr
}

func NewPrincipalMismatchError() *AppError {
	return New(ErrCodePrincipalMismatch, "Session user mismatch")
}

func NewForbiddenError(reason string) *AppError {
	return New(ErrCodeForbidden, reason)
}

// NewAdminNotUnlockedError tells the caller to repeat the bot unlock. The
// invite code itself never goes into the message.
func NewAdminNotUnlockedError() *AppError {
	return New(ErrCodeAdminNotUnlocked,
		"Admin not unlocked. Run /admin <your invite code> in the bot, then reopen Admin Panel.")
}

// NewStorageError hides the driver message from clients; only the operation name is exposed.
func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorage, "Storage operation failed").
		WithDetail("operation", operation)
}

func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, "Cache operation failed").
		WithDetail("operation", operation)
}

func NewScoreUnavailableError(err error) *AppError {
	return Wrap(err, ErrCodeScoreUnavailable, "Score service unavailable")
}

func NewTelegramAPIError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeTelegramAPI, fmt.Sprintf("Telegram API operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewRateLimitError(service string, retryAfter time.Duration) *AppError {
	return New(ErrCodeRateLimit, fmt.Sprintf("Rate limit exceeded for %s", service)).
		WithDetail("retry_after", retryAfter.String())
}

func NewConflictError(resource, reason string) *AppError {
	return New(ErrCodeConflict, reason).
		WithDetail("resource", resource)
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError unwraps err until it finds an AppError.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil {
		return nil, false
	}
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError of the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
