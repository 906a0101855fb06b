package errortypes

// Defines numeric codes for well-known errors. These values are part of the
// host-facing contract and must never be renumbered.
const (
	InvalidURLErrorCode = 1001 + iota
	InvalidResponseErrorCode
	NetworkErrorCode
	TimeoutErrorCode
	UnknownErrorCode
)

// Defines numeric codes for well-known warnings.
const (
	UnknownWarningCode         = 10999
	BadDeclaredSizeWarningCode = iota + 10000
	UnparseableSkipOffsetWarningCode
)

// Coder provides an error or warning code with severity.
type Coder interface {
	Code() int
	Severity() Severity
}

// ReadCode returns the error or warning code, or UnknownErrorCode if unavailable.
func ReadCode(err error) int {
	if e, ok := err.(Coder); ok {
		return e.Code()
	}
	return UnknownErrorCode
}
