package isocall

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/programme-lv/isocall/transport"
)

// ExitCodeError reports a child that exited with a non-zero code without
// completing the payload handshake, e.g. the task called os.Exit itself.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("caught non-zero status: %d", e.Code)
}

// SignalError reports a child terminated by a fatal signal. The message
// carries the symbolic name, the human description and the core dump flag.
type SignalError struct {
	Signal     syscall.Signal
	CoreDumped bool
}

func (e *SignalError) Error() string {
	info := ExitClass{Signal: e.Signal, Signaled: true, CoreDumped: e.CoreDumped}.SignalInfo()
	msg := fmt.Sprintf("%s caught: %s", info.Name, info.Description)
	if e.CoreDumped {
		msg += " (core dumped)"
	}
	return msg
}

// Segfault reports whether the terminating signal was the memory access
// violation signal, the primary case this package exists for.
func (e *SignalError) Segfault() bool {
	return e.Signal == syscall.SIGSEGV
}

// IsSegfault reports whether err classifies a child killed by SIGSEGV.
func IsSegfault(err error) bool {
	var sig *SignalError
	return errors.As(err, &sig) && sig.Segfault()
}

// SpawnError reports that the child process (or the transport resource it
// needed) could not be created at all. Fatal, never retried.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn child: %v", e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// RemoteError carries a child error whose concrete type could not cross
// the process boundary; the message survives.
type RemoteError struct {
	Msg string
}

func (e RemoteError) Error() string { return e.Msg }

// OverflowError reports an encoded return value that exceeds the shared
// memory capacity configured for the call.
type OverflowError = transport.OverflowError

// ErrNoResult reports a child that exited cleanly without ever writing a
// result, so there is neither a value nor a failure to classify.
var ErrNoResult = errors.New("isocall: child exited cleanly without writing a result")
