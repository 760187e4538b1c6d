package isocall

import (
	"io"
	"log/slog"

	"github.com/programme-lv/isocall/codec"
	"github.com/programme-lv/isocall/internal/gcpause"
	"github.com/programme-lv/isocall/report"
	"github.com/programme-lv/isocall/transport"
)

// DefaultCapacity is the shared memory payload capacity used when none is
// configured.
const DefaultCapacity = 255

// Pauser pauses the memory manager around the spawn point so the child
// does not duplicate transient collector state. Implementations must be
// safe for concurrent calls and the returned resume must be idempotent.
type Pauser interface {
	Pause() (resume func())
}

type gcPauser struct{}

func (gcPauser) Pause() func() { return gcpause.Pause() }

// Option configures an Isolator.
type Option func(*Isolator)

// SharedMemory selects the shared memory transport with the given byte
// capacity for the encoded return value. Exceeding the capacity fails the
// call with OverflowError instead of truncating.
func SharedMemory(capacity int) Option {
	return func(iso *Isolator) {
		iso.kind = transport.SharedMemory
		iso.capacity = capacity
	}
}

// Socket selects the socket pair transport. No capacity limit.
func Socket() Option {
	return func(iso *Isolator) {
		iso.kind = transport.Socket
	}
}

// Discard selects the transport that carries nothing back: the call
// reports only the classified outcome, never a value.
func Discard() Option {
	return func(iso *Isolator) {
		iso.kind = transport.Discard
	}
}

// WithCodec selects a registered codec by name. Both sides of the process
// boundary resolve the same registration.
func WithCodec(name string) Option {
	return func(iso *Isolator) {
		iso.codecName = name
	}
}

// WithLogger routes the isolator's debug logging.
func WithLogger(l *slog.Logger) Option {
	return func(iso *Isolator) {
		iso.log = l
	}
}

// WithReporter observes the lifecycle of every call made through this
// isolator.
func WithReporter(r report.Reporter) Option {
	return func(iso *Isolator) {
		iso.reporter = r
	}
}

// WithPauser replaces the default ref-counted GC pause hook.
func WithPauser(p Pauser) Option {
	return func(iso *Isolator) {
		iso.pauser = p
	}
}

// WithChildStderr streams child stderr to w instead of discarding it.
// Handy when a task crashes before it can report anything.
func WithChildStderr(w io.Writer) Option {
	return func(iso *Isolator) {
		iso.childStderr = w
	}
}

func (iso *Isolator) transportFactory() transport.Factory {
	switch iso.kind {
	case transport.Socket:
		return transport.NewSocketPair
	case transport.Discard:
		return transport.NewDiscard
	default:
		capacity := iso.capacity
		return func() (transport.Transport, error) {
			return transport.NewSharedMemory(capacity)
		}
	}
}

func (iso *Isolator) resolveCodec() (codec.Codec, error) {
	return codec.Lookup(iso.codecName)
}
