package vaisala

import "errors"

// Errors returned by the decoder. Callers should compare with errors.Is, since
// every error is wrapped with the offending line, field or unit.
var (
	ErrMalformedHeader       = errors.New("malformed sentence header")
	ErrMalformedValue        = errors.New("malformed field value")
	ErrUnknownUnitSuffix     = errors.New("unknown unit suffix")
	ErrUnsupportedOutputUnit = errors.New("unsupported output unit")
	ErrUnsupportedConversion = errors.New("unsupported unit conversion")
	ErrRecordNotAvailable    = errors.New("record not available")
	ErrDomain                = errors.New("input outside formula domain")
	ErrNotImplemented        = errors.New("not implemented")
)

// ErrorKind returns a short stable label for err, suitable for metrics. It
// returns "other" for errors that did not come from this package.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header"
	case errors.Is(err, ErrMalformedValue):
		return "malformed_value"
	case errors.Is(err, ErrUnknownUnitSuffix):
		return "unknown_unit_suffix"
	case errors.Is(err, ErrUnsupportedOutputUnit):
		return "unsupported_output_unit"
	case errors.Is(err, ErrUnsupportedConversion):
		return "unsupported_conversion"
	case errors.Is(err, ErrRecordNotAvailable):
		return "record_not_available"
	case errors.Is(err, ErrDomain):
		return "domain"
	case errors.Is(err, ErrNotImplemented):
		return "not_implemented"
	default:
		return "other"
	}
}
