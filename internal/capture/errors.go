package capture

import (
	"errors"
	"fmt"

	serial "github.com/allbin/serialcap"
)

// Exit codes reported by the serialcap binary
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitPortNotFound      = 2
	ExitOpenError         = 3
	ExitDependencyMissing = 4
)

var (
	// ErrPortNotFound means the discovery wait ended without the port appearing
	ErrPortNotFound = errors.New("port not found")
	// ErrDependencyMissing means a required driver or external tool is unavailable
	ErrDependencyMissing = errors.New("dependency missing")
)

// OpenError wraps a failure to open the port. No handle exists when it is returned.
type OpenError struct {
	Port string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open %s: %v", e.Port, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ControlLineError reports the reset step that could not be applied
type ControlLineError struct {
	Step Step
	Err  error
}

func (e *ControlLineError) Error() string {
	return fmt.Sprintf("control line %s: %v", e.Step, e.Err)
}

func (e *ControlLineError) Unwrap() error { return e.Err }

// ReadError records the read failure that ended a capture early
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read error: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by Run or RunExchange to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var openErr *OpenError
	switch {
	case errors.Is(err, ErrPortNotFound):
		return ExitPortNotFound
	case errors.Is(err, ErrDependencyMissing),
		errors.Is(err, serial.ErrDriverUnavailable),
		errors.Is(err, serial.ErrUSBResetNotAvailable):
		return ExitDependencyMissing
	case errors.As(err, &openErr):
		return ExitOpenError
	default:
		return ExitFailure
	}
}
