package common

import (
	"errors"
	"fmt"
	"net/http"

	"infinite-experiment/roster/internal/constants"
)

// ErrorKind groups roster errors by how callers should react to them.
type ErrorKind string

const (
	KindConfiguration     ErrorKind = "CONFIGURATION"
	KindPrivilege         ErrorKind = "PRIVILEGE"
	KindState             ErrorKind = "STATE"
	KindNotification      ErrorKind = "NOTIFICATION"
	KindTransientExternal ErrorKind = "TRANSIENT_EXTERNAL"
)

// RosterError is returned by services. Message is safe to show to members.
type RosterError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *RosterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RosterError) Unwrap() error {
	return e.Err
}

// Withf replaces the message, for errors that name the offending item.
func (e *RosterError) Withf(format string, args ...any) *RosterError {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// NewRosterError builds an error whose message comes from the code table.
func NewRosterError(kind ErrorKind, code string, err error) *RosterError {
	return &RosterError{
		Kind:    kind,
		Code:    code,
		Message: constants.GetErrorMessage(code),
		Err:     err,
	}
}

func ConfigurationError(code string, err error) *RosterError {
	return NewRosterError(KindConfiguration, code, err)
}

func PrivilegeError(code string, err error) *RosterError {
	return NewRosterError(KindPrivilege, code, err)
}

func StateError(code string, err error) *RosterError {
	return NewRosterError(KindState, code, err)
}

func TransientError(code string, err error) *RosterError {
	return NewRosterError(KindTransientExternal, code, err)
}

// NotificationError describes an undelivered DM or announcement. Services log
// it and carry on.
func NotificationError(code string, err error) *RosterError {
	return NewRosterError(KindNotification, code, err)
}

// AsRosterError unwraps err to a *RosterError.
func AsRosterError(err error) (*RosterError, bool) {
	var re *RosterError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsKind reports whether err is a RosterError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	re, ok := AsRosterError(err)
	return ok && re.Kind == kind
}

// HasCode reports whether err is a RosterError with the given code.
func HasCode(err error, code string) bool {
	re, ok := AsRosterError(err)
	return ok && re.Code == code
}

// HTTPStatus maps an error to a response code. Unknown errors are 500.
func HTTPStatus(err error) int {
	re, ok := AsRosterError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch re.Kind {
	case KindConfiguration:
		return http.StatusConflict
	case KindPrivilege:
		if re.Code == constants.ErrCodeInvalidCredential {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case KindState:
		switch re.Code {
		case constants.ErrCodeRecordNotFound, constants.ErrCodeMemberNotFound:
			return http.StatusNotFound
		case constants.ErrCodeInvalidRequest, constants.ErrCodeUnknownAction:
			return http.StatusBadRequest
		}
		return http.StatusUnprocessableEntity
	case KindTransientExternal:
		if re.Code == constants.ErrCodeLockTimeout {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns what a member should see for err.
func UserMessage(err error) string {
	if re, ok := AsRosterError(err); ok {
		return re.Message
	}
	return constants.GetErrorMessage("")
}
