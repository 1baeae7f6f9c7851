package errors

import "fmt"

// Code identifies a Yenu error category.
type Code string

const (
	ErrValidation       Code = "VALIDATION"        // 400
	ErrPathUnsafe       Code = "PATH_UNSAFE"       // 400
	ErrNotFound         Code = "NOT_FOUND"         // 404
	ErrConflict         Code = "CONFLICT"          // 409
	ErrImageTooLarge    Code = "IMAGE_TOO_LARGE"   // 413
	ErrUnsupportedImage Code = "UNSUPPORTED_IMAGE" // 415
	ErrIntegrity        Code = "INTEGRITY"         // 422
	ErrInternal         Code = "INTERNAL"          // 500
)

// Error is a structured error with a code, an HTTP status, and optional
// field-level details.
type Error struct {
	Code    Code
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidation creates a 400 error for a record failing its structural
// invariants. field names the offending field ("" when not field-specific).
func NewValidation(field, msg string) *Error {
	e := &Error{
		Code:    ErrValidation,
		Status:  400,
		Message: msg,
	}
	if field != "" {
		e.Details = map[string]any{"field": field}
	}
	return e
}

// NewPathUnsafe creates a 400 error for a path escaping its base directory.
func NewPathUnsafe(path string) *Error {
	return &Error{
		Code:    ErrPathUnsafe,
		Status:  400,
		Message: "path escapes its base directory",
		Details: map[string]any{"path": path},
	}
}

// NewNotFound creates a 404 error for a missing record.
func NewNotFound(slug string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("recipe not found: %s", slug),
		Details: map[string]any{"slug": slug},
	}
}

// NewConflict creates a 409 error for slug collisions.
func NewConflict(slug string) *Error {
	return &Error{
		Code:    ErrConflict,
		Status:  409,
		Message: fmt.Sprintf("a recipe with slug %q already exists", slug),
		Details: map[string]any{"slug": slug},
	}
}

// NewImageTooLarge creates a 413 error when an upload exceeds the size cap.
func NewImageTooLarge(maxMB float64) *Error {
	return &Error{
		Code:    ErrImageTooLarge,
		Status:  413,
		Message: fmt.Sprintf("image too large (>%g MB)", maxMB),
		Details: map[string]any{"max_mb": maxMB},
	}
}

// NewUnsupportedImage creates a 415 error for non-JPEG/PNG uploads.
func NewUnsupportedImage() *Error {
	return &Error{
		Code:    ErrUnsupportedImage,
		Status:  415,
		Message: "unsupported image type (JPEG and PNG only)",
	}
}

// NewIntegrity creates a 422 error for a record file that exists but cannot
// be decoded into a valid record.
func NewIntegrity(slug string, cause error) *Error {
	msg := fmt.Sprintf("recipe file for %q is corrupt", slug)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{
		Code:    ErrIntegrity,
		Status:  422,
		Message: msg,
		Details: map[string]any{"slug": slug},
	}
}

// NewInternal creates a 500 error for storage and other unexpected failures.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a *Error with the given code.
func Is(err error, code Code) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
