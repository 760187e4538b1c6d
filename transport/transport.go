// Package transport carries the encoded outcome of an isolated call from
// the child process back to the parent. Each call gets its own one-shot
// transport: the parent prepares it before spawning, the child writes the
// payload exactly once, the parent reads it only after the child has been
// waited on and releases it unconditionally.
package transport

import (
	"errors"
	"fmt"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
)

// Kind identifies one of the closed set of transport strategies.
type Kind string

const (
	SharedMemory Kind = "shm"
	Socket       Kind = "socket"
	Discard      Kind = "discard"
)

// Environment variables through which the child locates its end of the
// transport. Set by the parent at spawn time.
const (
	EnvKind    = "ISOCALL_TRANSPORT"
	EnvShmPath = "ISOCALL_SHM_PATH"
	EnvShmCap  = "ISOCALL_SHM_CAP"
)

// Transport is the parent half of a result channel.
type Transport interface {
	Kind() Kind

	// Env returns the variables the child needs to attach its end.
	Env() []string

	// Files returns descriptors the child inherits, starting at fd 3.
	Files() []*os.File

	// Spawned is called right after the child process started. The parent
	// drops its duplicates of child-owned descriptors here so that reads
	// observe EOF once the child is gone.
	Spawned() error

	// Read returns the payload the child wrote. It must be called only
	// after the child has been waited on; the exit of the child is what
	// guarantees every byte it wrote is observable. Returns
	// ErrNothingWritten when the child never completed a write and
	// *OverflowError when the child reported an oversized payload.
	Read() ([]byte, error)

	// Release frees the underlying resource. Idempotent; runs on every
	// exit path of a call.
	Release() error
}

// Writer is the child half of a result channel.
type Writer interface {
	// Write ships the payload to the parent. isError mirrors the outcome
	// flag inside the payload for transports that carry it on the wire.
	Write(payload []byte, isError bool) error
	Close() error
}

// Factory creates a call-scoped transport. Concurrent calls each get their
// own resource, so factories must produce uniquely named resources.
type Factory func() (Transport, error)

// ErrNothingWritten reports a child that exited cleanly without completing
// the payload handshake.
var ErrNothingWritten = errors.New("transport: child wrote no payload")

// OverflowError reports an encoded payload that does not fit the configured
// shared memory capacity. Size is zero when only the child side knew it.
type OverflowError struct {
	Size     int
	Capacity int
}

func (e *OverflowError) Error() string {
	if e.Size > 0 {
		return fmt.Sprintf("transport: payload of %d bytes exceeds capacity of %d", e.Size, e.Capacity)
	}
	return fmt.Sprintf("transport: payload exceeds capacity of %d", e.Capacity)
}

// liveRegions tracks shared memory paths between creation and release so
// leaked or double-released regions show up in tests.
var liveRegions = mapset.NewSet[string]()

// LiveRegions lists the shared memory regions currently held by this
// process. Empty after every call has released its transport.
func LiveRegions() []string {
	return liveRegions.ToSlice()
}
