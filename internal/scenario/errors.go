package scenario

import (
	"errors"
	"fmt"
)

// ErrorKind represents different categories of scenario failures
type ErrorKind int

const (
	// ErrPrecondition means a setup step the verification depends on did not
	// complete: a task failed, an upload was rejected, a publish never ran.
	// Verification results do not exist for such a run.
	ErrPrecondition ErrorKind = iota
	// ErrTransport covers HTTP and decoding failures talking to the server.
	ErrTransport
	// ErrConfig covers unusable scenario configuration.
	ErrConfig
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case ErrPrecondition:
		return "Precondition"
	case ErrTransport:
		return "Transport"
	case ErrConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

// ScenarioError represents an error during a scenario run
type ScenarioError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface
func (e *ScenarioError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

// Unwrap returns the wrapped error
func (e *ScenarioError) Unwrap() error {
	return e.Err
}

// IsPrecondition reports whether err is a precondition failure anywhere in
// its chain.
func IsPrecondition(err error) bool {
	var serr *ScenarioError
	return errors.As(err, &serr) && serr.Kind == ErrPrecondition
}
