package log

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Common errors that can happen on peer startup.
var (
	ErrMalformedConfig = newFatalErrorWithReason("ERR_MALFORMED_CONFIG", "config file is malformed")
	ErrBadFlags        = newFatalErrorWithReason("ERR_BAD_FLAGS", "bad CLI flags")
	ErrEnsureDataDir   = newFatalErrorWithReason("ERR_ENSURE_DATA_DIR", "could not open/create data dir")
	ErrJoinGroup       = newFatalErrorWithReason("ERR_JOIN_GROUP", "could not join process group")
	ErrBootstrap       = newFatalErrorWithReason("ERR_BOOTSTRAP", "run identity bootstrap failed")
	ErrStartProfiling  = newFatalErrorWithReason("ERR_START_PROFILING", "could not start profiling")
)

// FatalError is an error that terminates the peer. It carries a stable code
// so that launchers can tell startup failures apart.
type FatalError struct {
	Code   string
	Text   string
	Reason error
}

func newFatalErrorWithReason(code, text string) func(reason error) *FatalError {
	return func(reason error) *FatalError {
		return &FatalError{
			Code:   code,
			Text:   text,
			Reason: reason,
		}
	}
}

func (fe *FatalError) Error() string {
	if fe.Reason != nil {
		return fmt.Sprintf("%v: %v", fe.Text, fe.Reason)
	}
	return fe.Text
}

func (fe *FatalError) Unwrap() error {
	return fe.Reason
}

// MarshalLogObject implements logging encoder for FatalError.
func (fe *FatalError) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("code", fe.Code)
	encoder.AddString("error", fe.Error())
	return nil
}
