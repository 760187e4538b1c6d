package isocall

import (
	"time"
)

// Kind is the closed set of ways an isolated call can end.
type Kind int

const (
	// KindSuccess: the task returned a value (nil for the discard
	// transport, which never carries one).
	KindSuccess Kind = iota
	// KindChildError: the task returned or panicked with an error; Err
	// holds the re-materialized original.
	KindChildError
	// KindExited: the child exited non-zero without the payload handshake.
	KindExited
	// KindSignaled: the child was terminated by a fatal signal.
	KindSignaled
	// KindOverflow: the encoded value did not fit the configured capacity.
	KindOverflow
	// KindNoResult: the child exited zero but wrote nothing.
	KindNoResult
	// KindSpawnFailure: no child process could be created.
	KindSpawnFailure
	// KindInternal: the call machinery itself failed (decode error, wait
	// error).
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindChildError:
		return "child-error"
	case KindExited:
		return "exited"
	case KindSignaled:
		return "signaled"
	case KindOverflow:
		return "overflow"
	case KindNoResult:
		return "no-result"
	case KindSpawnFailure:
		return "spawn-failure"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// Outcome is the full classified result of one isolated call. Produced
// once per call; Value and Err are mutually exclusive.
type Outcome struct {
	Kind     Kind
	Value    any
	Err      error
	Exit     ExitClass
	Pid      int
	Duration time.Duration
}

// Unpack flattens the outcome into the conventional Go return shape.
func (o Outcome) Unpack() (any, error) {
	return o.Value, o.Err
}
