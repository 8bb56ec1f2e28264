// Package errors carries process exit codes alongside errors so the binaries
// can map a failed run onto a meaningful status.
package errors

type ExitCodeError struct {
	code ExitCode
	error
}

func NewError(err error, exitCode ExitCode) *ExitCodeError {
	if err == nil {
		return nil
	}
	return &ExitCodeError{exitCode, err}
}

func (e *ExitCodeError) GetExitCode() ExitCode {
	if e == nil {
		return 0
	}
	return e.code
}

// Cause lets github.com/pkg/errors unwrap through an ExitCodeError.
func (e *ExitCodeError) Cause() error {
	return e.error
}
