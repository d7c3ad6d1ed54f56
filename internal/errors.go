package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ProbeError is a custom error type carrying contextual information
// about where in the pipeline a failure occurred.
type ProbeError struct {
	Err       error
	Code      string
	Component string
	Op        string
	Context   string
}

func (e *ProbeError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s in %s", e.Code, e.Op, e.Component))
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	if e.Context != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Context))
	}
	return sb.String()
}

func (e *ProbeError) Unwrap() error { return e.Err }

func (e *ProbeError) Is(target error) bool {
	var pe *ProbeError
	if errors.As(target, &pe) {
		return e.Code == pe.Code
	}
	return errors.Is(e.Err, target)
}

// Error codes, one per taxonomy entry.
const (
	ErrCodeConfig       = "CONFIG_ERROR"
	ErrCodeUpstream     = "UPSTREAM_ERROR"
	ErrCodeForwarder    = "FORWARDER_ERROR"
	ErrCodeMalformed    = "MALFORMED_WIRE"
	ErrCodeCodec        = "CODEC_ERROR"
	ErrCodeIO           = "IO_ERROR"
	ErrCodeICMP         = "ICMP_ERROR"
)

// NewError builds a ProbeError and records it in the error-type metric.
func NewError(err error, code, component, op string) *ProbeError {
	IncrementErrorMetric(code)
	return &ProbeError{Err: err, Code: code, Component: component, Op: op}
}

// WithContext attaches additional free-form context to the error.
func (e *ProbeError) WithContext(ctx string) *ProbeError {
	e.Context = ctx
	return e
}

// IsRecoverable reports whether the error taxonomy classifies this as
// something a worker should log and continue past rather than treat
// as fatal startup failure.
func IsRecoverable(err error) bool {
	var pe *ProbeError
	if errors.As(err, &pe) {
		switch pe.Code {
		case ErrCodeConfig:
			return false
		default:
			return true
		}
	}
	return true
}
