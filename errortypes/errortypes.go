package errortypes

// InvalidURL should be used when an ad request cannot even be attempted because
// the configured ad-server endpoint or a creative URL is malformed.
type InvalidURL struct {
	Message string
}

func (err *InvalidURL) Error() string {
	return err.Message
}

func (err *InvalidURL) Code() int {
	return InvalidURLErrorCode
}

func (err *InvalidURL) Severity() Severity {
	return SeverityFatal
}

// InvalidResponse should be used when the ad server returned something which
// could not be decoded, classified, or parsed into any known creative shape.
// This includes VAST wrapper chains which exceed the configured depth.
//
// It should _not_ be used for transport failures; those are NetworkError.
type InvalidResponse struct {
	Message string
}

func (err *InvalidResponse) Error() string {
	return err.Message
}

func (err *InvalidResponse) Code() int {
	return InvalidResponseErrorCode
}

func (err *InvalidResponse) Severity() Severity {
	return SeverityFatal
}

// NetworkError should be used when an outbound fetch failed at the transport
// level: connection refused, DNS failure, non-2xx from the ad server, or a
// failed VAST wrapper fetch mid-chain.
type NetworkError struct {
	Message string
}

func (err *NetworkError) Error() string {
	return err.Message
}

func (err *NetworkError) Code() int {
	return NetworkErrorCode
}

func (err *NetworkError) Severity() Severity {
	return SeverityFatal
}

// Timeout should be used to flag that no creative was ready for display before
// the load timeout expired, including VAST wrapper chains which hang.
type Timeout struct {
	Message string
}

func (err *Timeout) Error() string {
	return err.Message
}

func (err *Timeout) Code() int {
	return TimeoutErrorCode
}

func (err *Timeout) Severity() Severity {
	return SeverityFatal
}

// Unknown covers unanticipated failures during parsing or rendering. If one of
// these shows up in the logs it usually means a more specific type is missing.
type Unknown struct {
	Message string
}

func (err *Unknown) Error() string {
	return err.Message
}

func (err *Unknown) Code() int {
	return UnknownErrorCode
}

func (err *Unknown) Severity() Severity {
	return SeverityFatal
}

// Warning is a generic non-fatal error.
type Warning struct {
	Message     string
	WarningCode int
}

func (err *Warning) Error() string {
	return err.Message
}

func (err *Warning) Code() int {
	return err.WarningCode
}

func (err *Warning) Severity() Severity {
	return SeverityWarning
}
