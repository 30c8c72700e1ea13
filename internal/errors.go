package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypePrecondition ErrorType = "PRECONDITION_FAILED"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	ErrCodeNoteRequired     ErrorCode = "NOTE_REQUIRED"

	ErrCodeTicketNotFound   ErrorCode = "TICKET_NOT_FOUND"
	ErrCodeEmployeeNotFound ErrorCode = "EMPLOYEE_NOT_FOUND"
	ErrCodeManagerNotFound  ErrorCode = "MANAGER_NOT_FOUND"
	ErrCodeAdminNotFound    ErrorCode = "ADMIN_NOT_FOUND"

	ErrCodeManagerNotAssigned ErrorCode = "MANAGER_NOT_ASSIGNED"
	ErrCodeNotTicketOwner     ErrorCode = "NOT_TICKET_OWNER"
	ErrCodeNotAssignedManager ErrorCode = "NOT_ASSIGNED_MANAGER"

	ErrCodeDuplicateIdentity ErrorCode = "DUPLICATE_IDENTITY"
	ErrCodeRecordReferenced  ErrorCode = "RECORD_REFERENCED"
	ErrCodeVersionConflict   ErrorCode = "VERSION_CONFLICT"

	ErrCodeNotApproved  ErrorCode = "NOT_APPROVED"
	ErrCodeTicketClosed ErrorCode = "TICKET_CLOSED"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeAmbiguousRole      ErrorCode = "AMBIGUOUS_ROLE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
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

// WithCause copies the error so shared sentinels stay immutable.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewPreconditionError maps to 400: clients treat close-before-approval
// as a bad request, not a conflict.
func NewPreconditionError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypePrecondition,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrTicketNotFound   = NewNotFoundError("Ticket not found", ErrCodeTicketNotFound)
	ErrEmployeeNotFound = NewNotFoundError("Employee not found", ErrCodeEmployeeNotFound)
	ErrManagerNotFound  = NewNotFoundError("Manager not found", ErrCodeManagerNotFound)
	ErrAdminNotFound    = NewNotFoundError("Admin not found", ErrCodeAdminNotFound)

	ErrManagerNotAssigned = NewNotFoundError("Manager not assigned", ErrCodeManagerNotAssigned)
	ErrNotTicketOwner     = NewForbiddenError("You can only manage your own requests", ErrCodeNotTicketOwner)
	ErrNotAssignedManager = NewForbiddenError("You can only manage requests assigned to you", ErrCodeNotAssignedManager)

	ErrInvalidStatus = NewValidationError("Invalid status. Choose from Approved, Declined, or Pending.", ErrCodeInvalidStatus)
	ErrNoteRequired  = NewValidationError("A note is required when amending a closed ticket", ErrCodeNoteRequired)

	ErrNotApproved  = NewPreconditionError("Only approved requests can be closed", ErrCodeNotApproved)
	ErrTicketClosed = NewPreconditionError("Closed tickets can no longer be modified", ErrCodeTicketClosed)

	ErrDuplicateIdentity = NewConflictError("Email or username already registered", ErrCodeDuplicateIdentity)
	ErrRecordReferenced  = NewConflictError("Record is still referenced and cannot be deleted", ErrCodeRecordReferenced)
	ErrVersionConflict   = NewConflictError("Request was modified concurrently, please retry", ErrCodeVersionConflict)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid username or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrAmbiguousRole      = NewForbiddenError("Account maps to more than one role", ErrCodeAmbiguousRole)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
