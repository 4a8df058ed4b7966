package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"sheetdiff/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of an inner AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in err's chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries code
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// Predefined error codes
const (
	CodeNotFound      = "NOT_FOUND"
	CodeLoadError     = "LOAD_ERROR"
	CodeSheetNotFound = "SHEET_NOT_FOUND"
	CodeSaveError     = "SAVE_ERROR"
	CodeCancelled     = "CANCELLED"
	CodeDuplicateKey  = "DUPLICATE_KEY"
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// NotFound reports a document source that does not resolve to readable content
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Cause:   core.ErrNotFound,
	}
}

func LoadError(source string, cause error) *AppError {
	return &AppError{
		Code:    CodeLoadError,
		Message: fmt.Sprintf("cannot load %s", source),
		Cause:   cause,
	}
}

func SheetNotFound(sheet, source string) *AppError {
	return &AppError{
		Code:    CodeSheetNotFound,
		Message: fmt.Sprintf("sheet %q not found in %s", sheet, source),
		Cause:   core.ErrSheetNotFound,
	}
}

func SaveError(destination string, cause error) *AppError {
	return &AppError{
		Code:    CodeSaveError,
		Message: fmt.Sprintf("cannot save %s", destination),
		Cause:   cause,
	}
}

// Cancelled reports a cooperative abort; cause is usually ctx.Err()
func Cancelled(stage string, cause error) *AppError {
	if cause == nil {
		cause = core.ErrCancelled
	} else if !stderrors.Is(cause, core.ErrCancelled) {
		cause = fmt.Errorf("%w: %w", core.ErrCancelled, cause)
	}
	return &AppError{
		Code:    CodeCancelled,
		Message: fmt.Sprintf("cancelled during %s", stage),
		Cause:   cause,
	}
}

func DuplicateKey(document, key string, first, second int) *AppError {
	return &AppError{
		Code:    CodeDuplicateKey,
		Message: fmt.Sprintf("%s: key %s appears on rows %d and %d", document, key, first, second),
		Cause:   core.ErrDuplicateKey,
	}
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// CheckContext converts a done context into a Cancelled error for stage
func CheckContext(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return Cancelled(stage, err)
	}
	return nil
}
