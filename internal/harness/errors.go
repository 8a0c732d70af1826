package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/pipetest/internal/snapshot"
)

// ConfigError is a fatal configuration problem: missing environment
// variable, malformed fixture layout, or a hook script without its entry
// point. It aborts the affected test immediately and is never retried.
type ConfigError struct {
	Test string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg != "" {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		} else {
			msg = e.Err.Error()
		}
	}
	if e.Test != "" {
		return fmt.Sprintf("%s: configuration error: %s", e.Test, msg)
	}
	return "configuration error: " + msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// InfraError is an environment problem distinct from component behavior:
// a cassette missing on forced replay, an unreadable secrets file. Tooling
// uses the distinction to tell "the component behaved differently" apart
// from "the test environment is misconfigured".
type InfraError struct {
	Test string
	Err  error
}

func (e *InfraError) Error() string {
	if e.Test != "" {
		return fmt.Sprintf("%s: infrastructure error: %v", e.Test, e.Err)
	}
	return fmt.Sprintf("infrastructure error: %v", e.Err)
}

func (e *InfraError) Unwrap() error { return e.Err }

// VerificationError reports that the component's output diverged from the
// golden expectation. It carries the full validation result so callers can
// render the diff context.
type VerificationError struct {
	Test   string
	Result *snapshot.ValidationResult
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Test, e.Result.Summary)
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsInfraError reports whether err is an infrastructure error.
func IsInfraError(err error) bool {
	var ie *InfraError
	return errors.As(err, &ie)
}

// IsVerificationError reports whether err is an output divergence.
func IsVerificationError(err error) bool {
	var ve *VerificationError
	return errors.As(err, &ve)
}

// FailureKind names the error taxonomy bucket for reporting and history.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsVerificationError(err):
		return "verification"
	case IsConfigError(err):
		return "config"
	case IsInfraError(err):
		return "infrastructure"
	default:
		return "error"
	}
}
