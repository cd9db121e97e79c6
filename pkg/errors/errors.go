package errors

import (
	stderrors "errors"
	"fmt"
)

// Code is the result code of an export operation. Bit 28 marks a failure,
// so every failure code answers Failed() without a lookup table.
type Code uint32

const failedBit = 28

const (
	Ok            Code = 0x00000000
	Failed        Code = 0x10000000
	NoData        Code = 0x10000001
	InvalidToken  Code = 0x10000002
	QuotaExceeded Code = 0x10000003
)

// Failed reports whether the code carries the failure bit.
func (c Code) Failed() bool {
	return (uint32(c)>>failedBit)&1 == 1
}

// Retryable reports whether waiting and trying again can change the outcome.
// Only the generic failure qualifies; token and quota problems are fatal.
func (c Code) Retryable() bool {
	return c == Failed
}

// Terminal reports whether pagination should stop without treating it as an error.
func (c Code) Terminal() bool {
	return c == Ok || c == NoData
}

func (c Code) String() string {
	switch c {
	case Ok:
		return "Success"
	case Failed:
		return "Generic error"
	case NoData:
		return "No more data"
	case InvalidToken:
		return "Invalid access token"
	case QuotaExceeded:
		return "Exceed app request quota"
	default:
		return fmt.Sprintf("Unknown code 0x%08x", uint32(c))
	}
}

// CodeError attaches a result code to an underlying error
type CodeError struct {
	Code Code
	Err  error
}

// WithCode wraps err with a result code. A nil err yields a bare code error.
func WithCode(code Code, err error) error {
	return &CodeError{Code: code, Err: err}
}

func (e *CodeError) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *CodeError) Unwrap() error { return e.Err }

// ResultCode returns the attached code
func (e *CodeError) ResultCode() Code { return e.Code }

// CodeOf extracts the result code carried by err. nil is Ok and an error
// without a code is a generic failure.
func CodeOf(err error) Code {
	if err == nil {
		return Ok
	}
	var ce *CodeError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.ResultCode()
	}
	return Failed
}

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a Graph API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("graph %s error (code %d): %s", e.Type, e.Code, e.Message)
}

// ResultCode maps a transport error onto the export result codes
func (e *Error) ResultCode() Code {
	switch e.Type {
	case ErrorTypeAuth:
		return InvalidToken
	case ErrorTypeRateLimit:
		return QuotaExceeded
	case ErrorTypeNotFound:
		return NoData
	default:
		return Failed
	}
}
