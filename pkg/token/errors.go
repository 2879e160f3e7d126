package token

import "fmt"

// ErrorCode classifies why a token was rejected.
type ErrorCode string

const (
	ErrCodeMalformed ErrorCode = "malformed_token"
	ErrCodeSignature ErrorCode = "invalid_signature"
	ErrCodeExpired   ErrorCode = "token_expired"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeMalformed: "malformed token",
	ErrCodeSignature: "invalid token signature",
	ErrCodeExpired:   "token expired",
}

// Error wraps token failures with a stable code. Callers branch on Code;
// the wrapped cause is for logs only and must never reach HTTP responses.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	msg, ok := errorMessages[e.Code]
	if !ok {
		msg = string(e.Code)
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, err error) error {
	return &Error{Code: code, Err: err}
}

// CodeOf returns the ErrorCode carried by err, or ErrCodeMalformed when err
// is not a token error.
func CodeOf(err error) ErrorCode {
	if te, ok := err.(*Error); ok {
		return te.Code
	}
	return ErrCodeMalformed
}
