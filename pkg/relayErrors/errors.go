package relayErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of relay failure. Codes are stable and returned to relayers verbatim.
type Code string

const (
	CodeNotAuthorized       Code = "ERR_NOT_AUTHORIZED"
	CodeInvalidSignature    Code = "ERR_INVALID_SIGNATURE"
	CodeTransferFailed      Code = "ERR_TRANSFER_FAILED"
	CodeNonceUsed           Code = "ERR_NONCE_USED"
	CodeInsufficientBalance Code = "ERR_INSUFFICIENT_BALANCE"
	CodeRelayFeeFailed      Code = "ERR_RELAY_FEE_FAILED"
	CodeEncoding            Code = "ERR_ENCODING"
	CodeTokenExists         Code = "ERR_TOKEN_EXISTS"
)

// RelayError is a domain failure carrying a stable code and an optional cause.
type RelayError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// Is matches any RelayError with the same code, so wrapped and annotated
// errors still compare equal to the sentinels below.
func (e *RelayError) Is(target error) bool {
	var t *RelayError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotAuthorized       = &RelayError{Code: CodeNotAuthorized, Message: "caller is not authorized"}
	ErrInvalidSignature    = &RelayError{Code: CodeInvalidSignature, Message: "invalid signature"}
	ErrTransferFailed      = &RelayError{Code: CodeTransferFailed, Message: "unknown token"}
	ErrNonceUsed           = &RelayError{Code: CodeNonceUsed, Message: "nonce already used"}
	ErrInsufficientBalance = &RelayError{Code: CodeInsufficientBalance, Message: "insufficient balance"}
	ErrRelayFeeFailed      = &RelayError{Code: CodeRelayFeeFailed, Message: "relay fee collection failed"}
	ErrEncoding            = &RelayError{Code: CodeEncoding, Message: "malformed transfer intent"}
	ErrTokenExists         = &RelayError{Code: CodeTokenExists, Message: "token already registered"}
)

// Wrap annotates a sentinel with a cause while keeping its code.
func Wrap(sentinel *RelayError, err error) *RelayError {
	return &RelayError{Code: sentinel.Code, Message: sentinel.Message, Err: err}
}

// Wrapf annotates a sentinel with a formatted cause.
func Wrapf(sentinel *RelayError, format string, args ...interface{}) *RelayError {
	return Wrap(sentinel, fmt.Errorf(format, args...))
}

// CodeOf returns the code carried by err, or "" if err is not a RelayError.
func CodeOf(err error) Code {
	var re *RelayError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// MessageOf returns the message and cause of the RelayError in err, without the code.
func MessageOf(err error) string {
	var re *RelayError
	if !errors.As(err, &re) {
		return err.Error()
	}
	if re.Err != nil {
		return fmt.Sprintf("%s: %v", re.Message, re.Err)
	}
	return re.Message
}

// HTTPStatus maps a relay error to the status code the HTTP surface returns.
// Errors without a code are internal failures.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotAuthorized:
		return http.StatusForbidden
	case CodeInvalidSignature:
		return http.StatusUnauthorized
	case CodeTransferFailed:
		return http.StatusNotFound
	case CodeNonceUsed, CodeTokenExists:
		return http.StatusConflict
	case CodeInsufficientBalance, CodeRelayFeeFailed:
		return http.StatusPaymentRequired
	case CodeEncoding:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
