package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind identifies a class of client-facing failure.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindInvalidToken
	KindEmailRegistered
	KindUserNotFound
	KindWrongPassword
	KindEventNotFound
	KindValidation
	KindRouteNotFound
	KindMethodNotAllowed
	KindRequest
)

var kindInfo = map[Kind]struct {
	name    string
	status  int
	message string
}{
	KindInternal:        {"InternalError", http.StatusInternalServerError, "Internal server error"},
	KindUnauthorized:    {"Unauthorized", http.StatusUnauthorized, "Unauthorized"},
	KindInvalidToken:    {"InvalidToken", http.StatusUnauthorized, "Invalid or expired token"},
	KindEmailRegistered: {"EmailRegistered", http.StatusConflict, "Email address is already registered"},
	KindUserNotFound:    {"UserNotFound", http.StatusNotFound, "User not found"},
	KindWrongPassword:   {"WrongPassword", http.StatusBadRequest, "Incorrect password"},
	KindEventNotFound:   {"EventNotFound", http.StatusNotFound, "Event not found"},
	KindValidation:      {"ValidationError", http.StatusBadRequest, "Validation failed"},

	KindRouteNotFound:    {"URLNotFound", http.StatusNotFound, "Resource not found"},
	KindMethodNotAllowed: {"MethodNotAllowed", http.StatusMethodNotAllowed, "Method not allowed"},
	KindRequest:          {"RequestError", http.StatusBadRequest, "Bad request"},
}

// String returns the kind name, e.g. "EventNotFound".
func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return kindInfo[KindInternal].name
}

// Status returns the HTTP status code bound to the kind.
func (k Kind) Status() int {
	if info, ok := kindInfo[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// DefaultMessage returns the message used when none is supplied.
func (k Kind) DefaultMessage() string {
	if info, ok := kindInfo[k]; ok {
		return info.message
	}
	return kindInfo[KindInternal].message
}

// Sentinels for errors.Is matching. Matching compares kinds only, so
// errors.Is(New(KindEventNotFound, "x"), ErrEventNotFound) is true.
var (
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrInvalidToken    = &Error{Kind: KindInvalidToken}
	ErrEmailRegistered = &Error{Kind: KindEmailRegistered}
	ErrUserNotFound    = &Error{Kind: KindUserNotFound}
	ErrWrongPassword   = &Error{Kind: KindWrongPassword}
	ErrEventNotFound   = &Error{Kind: KindEventNotFound}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrInternal        = &Error{Kind: KindInternal}
)

// Error is a tagged application error. Message is shown to clients; Err is
// the underlying cause and is only ever logged. A non-zero Code replaces
// the kind's status.
type Error struct {
	Kind    Kind
	Message string
	Code    int
	Err     error
}

// New creates an error of the given kind. An empty message selects the
// kind's default message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind carrying cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// Validation is shorthand for New(KindValidation, message).
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Internal wraps an unexpected fault.
func Internal(cause error) *Error {
	return Wrap(KindInternal, cause)
}

func (e *Error) Error() string {
	msg := e.ClientMessage()
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// ClientMessage is the text safe to send back to the caller.
func (e *Error) ClientMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.DefaultMessage()
}

// Status returns the HTTP status code for the error.
func (e *Error) Status() int {
	if e.Code != 0 {
		return e.Code
	}
	return e.Kind.Status()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the kind from err. Errors outside the taxonomy are
// KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ToErrorResponse converts an Error to ErrorResponse. The cause is dropped.
func (e *Error) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    e.Status(),
			Message: e.ClientMessage(),
		},
	}
}

// MapError normalizes any error into the taxonomy. Non-taxonomy errors
// become InternalError with the original kept as cause.
func MapError(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
