// Package errors gives every failure a stable code. Blocks render these
// errors into their own slot, so the message doubles as display text.
package errors

// ErrorCode is the machine-readable kind of an error, e.g. "parse_failed".
type ErrorCode string

// Error is an error carrying a code, and optionally a cause or detail
// such as a ParseDetail.
type Error interface {
	error
	Code() ErrorCode
	// WithMessage replaces the default message of the code.
	WithMessage(msg string) Error
	// WithData attaches a detail that is printed after the message.
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory builds coded errors. Obtain one with New.
type Factory interface {
	New(code ErrorCode) Error
	// Wrap records err as the cause; HasCode and As see through it.
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
