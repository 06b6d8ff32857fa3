package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error type mapped to process exit codes.
type Code int

const (
	CodeSuccess          Code = 0
	CodeInternal         Code = 1
	CodeUsage            Code = 2
	CodeInputValidation  Code = 10
	CodeKeyFormat        Code = 11
	CodeNetworkTransport Code = 12
	CodeNetworkTimeout   Code = 13
	CodeSerialization    Code = 14
	CodeRejected         Code = 15
	CodeBlocked          Code = 16
	CodeAborted          Code = 17
)

// Error is a typed CLI error that carries a stable error code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func Is(err error, code Code) bool {
	cErr, ok := As(err)
	return ok && cErr.Code == code
}

// Recoverable reports whether the caller may retry the failed operation with
// the artifact it already holds. Only network failures qualify.
func Recoverable(err error) bool {
	cErr, ok := As(err)
	if !ok {
		return false
	}
	return cErr.Code == CodeNetworkTransport || cErr.Code == CodeNetworkTimeout
}

// Network wraps a transport failure, mapping deadline expiry to CodeNetworkTimeout.
func Network(message string, cause error) *Error {
	if errors.Is(cause, context.DeadlineExceeded) {
		return Wrap(CodeNetworkTimeout, message, cause)
	}
	if cErr, ok := As(cause); ok && cErr.Code == CodeNetworkTimeout {
		return Wrap(CodeNetworkTimeout, message, cause)
	}
	return Wrap(CodeNetworkTransport, message, cause)
}

func ExitCode(err error) int {
	if err == nil {
		return int(CodeSuccess)
	}
	if cliErr, ok := As(err); ok {
		return int(cliErr.Code)
	}
	return int(CodeInternal)
}

// TypeName is the envelope error type for a code.
func TypeName(code Code) string {
	switch code {
	case CodeUsage:
		return "usage_error"
	case CodeInputValidation:
		return "input_validation"
	case CodeKeyFormat:
		return "key_format_error"
	case CodeNetworkTransport:
		return "network_transport_error"
	case CodeNetworkTimeout:
		return "network_timeout"
	case CodeSerialization:
		return "serialization_error"
	case CodeRejected:
		return "transaction_rejected"
	case CodeBlocked:
		return "command_blocked"
	case CodeAborted:
		return "aborted"
	default:
		return "internal_error"
	}
}
