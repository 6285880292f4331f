package core

import (
	"errors"
	"fmt"
)

// Exit codes for msd.
const (
	ExitOK        = 0
	ExitRuntime   = 1
	ExitUsage     = 2
	ExitNoFolders = 3
	ExitNoPort    = 4
)

var (
	// ErrNotFound means an object ID or path does not name a shared entry.
	ErrNotFound = errors.New("not found")
	// ErrOutsideRoot means a path escapes every shared folder.
	ErrOutsideRoot = errors.New("path outside shared folders")
	// ErrUnsupported means the file extension is not a served media kind.
	ErrUnsupported = errors.New("unsupported media type")
	// ErrNoFolders means no configured shared folder exists.
	ErrNoFolders = errors.New("no shared folders available")
	// ErrNoPort means no port in the configured range could be bound.
	ErrNoPort = errors.New("no bindable port")
)

// CLIError carries a user-visible message and exit code.
type CLIError struct {
	Code int
	Msg  string
	Err  error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// WrapError creates a CLIError with an underlying error.
func WrapError(code int, msg string, err error) *CLIError {
	return &CLIError{Code: code, Msg: msg, Err: err}
}

// ErrorForStartup maps start-up failures to CLI exit codes.
func ErrorForStartup(msg string, err error) *CLIError {
	switch {
	case errors.Is(err, ErrNoFolders):
		return &CLIError{Code: ExitNoFolders, Msg: msg, Err: err}
	case errors.Is(err, ErrNoPort):
		return &CLIError{Code: ExitNoPort, Msg: msg, Err: err}
	default:
		return &CLIError{Code: ExitRuntime, Msg: msg, Err: err}
	}
}

// ExitCode returns the CLI exit code from error.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ExitRuntime
}
