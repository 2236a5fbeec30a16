package domainerrors

import "errors"

// Code is a stable, transport-independent failure category.
type Code string

const (
	CodeInputMissing        Code = "input_missing"
	CodeInvalidInput        Code = "invalid_input"
	CodeTokenMalformed      Code = "token_malformed"
	CodeSignatureInvalid    Code = "signature_invalid"
	CodeFieldNotFound       Code = "field_not_found"
	CodeFieldNotNumeric     Code = "field_not_numeric"
	CodePredicateRejected   Code = "predicate_rejected"
	CodeProvingFailed       Code = "proving_failed"
	CodeMalformedCommitment Code = "malformed_commitment"
	CodeIdentityMismatch    Code = "identity_mismatch"
	CodeUntrustedIssuer     Code = "untrusted_issuer"
	CodeTimeout             Code = "timeout"
	CodeInternal            Code = "internal_error"
)

// Error wraps a failure with a stable code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code, so errors.Is(err, New(CodeX, "")) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a domain error around err. If err already carries a domain
// code, that code wins.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether err is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
