package isocall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/programme-lv/isocall/codec"
	"github.com/programme-lv/isocall/internal/spawn"
	"github.com/programme-lv/isocall/report"
	"github.com/programme-lv/isocall/transport"
)

// Isolator runs registered tasks in isolated child processes. Safe for
// concurrent use; every call spawns its own child and holds its own
// transport resource.
type Isolator struct {
	kind        transport.Kind
	capacity    int
	codecName   string
	pauser      Pauser
	spawner     spawn.Spawner
	reporter    report.Reporter
	log         *slog.Logger
	childStderr io.Writer
}

// New builds an isolator. The default configuration mirrors the smallest
// useful setup: shared memory transport with DefaultCapacity bytes and the
// gob codec.
func New(opts ...Option) *Isolator {
	iso := &Isolator{
		kind:      transport.SharedMemory,
		capacity:  DefaultCapacity,
		codecName: codec.GobName,
		pauser:    gcPauser{},
		spawner:   spawn.SelfExec{},
		reporter:  report.Nop{},
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(iso)
	}
	return iso
}

// Default is the package-level isolator behind Call and Run.
var Default = New()

// Call runs the registered task in a child process and returns its value,
// or an error classified per the child's fate. See Run for the full
// outcome.
func Call(ctx context.Context, task string, args any) (any, error) {
	return Default.Call(ctx, task, args)
}

// Run is like Call on the default isolator but returns the full Outcome.
func Run(ctx context.Context, task string, args any) Outcome {
	return Default.Run(ctx, task, args)
}

func (iso *Isolator) Call(ctx context.Context, task string, args any) (any, error) {
	return iso.Run(ctx, task, args).Unpack()
}

// Run executes one isolated call: pause the collector hook, prepare the
// transport, spawn the child, wait, classify the raw status, and only on a
// clean exit read and decode the payload. The transport is released and
// the pause lifted on every path.
func (iso *Isolator) Run(ctx context.Context, task string, args any) Outcome {
	started := time.Now()
	callID := uuid.NewString()

	c, err := iso.resolveCodec()
	if err != nil {
		return Outcome{Kind: KindInternal, Err: err}
	}

	var argBytes []byte
	if args != nil {
		argBytes, _, err = encodeOutcome(c, args, nil)
		if err != nil {
			return Outcome{Kind: KindInternal, Err: fmt.Errorf("encode arguments: %w", err)}
		}
	}

	tr, err := iso.transportFactory()()
	if err != nil {
		// no IPC resource means no call at all
		return Outcome{Kind: KindSpawnFailure, Err: &SpawnError{Err: err}}
	}
	defer tr.Release()

	resume := iso.pauser.Pause()
	defer resume()

	iso.reporter.StartCall(callID, task, string(iso.kind))
	proc, err := iso.spawner.Spawn(ctx, spawn.Request{
		Task:   task,
		Codec:  iso.codecName,
		Args:   argBytes,
		Env:    tr.Env(),
		Files:  tr.Files(),
		Stderr: iso.childStderr,
	})
	if err != nil {
		out := Outcome{Kind: KindSpawnFailure, Err: &SpawnError{Err: err}, Duration: time.Since(started)}
		iso.reporter.FinishCall(callID, iso.result(task, out))
		return out
	}
	if err := tr.Spawned(); err != nil {
		iso.log.Warn("dropping child transport end failed", "task", task, "err", err)
	}
	iso.log.Debug("spawned isolation child", "task", task, "pid", proc.Pid(), "transport", iso.kind)
	iso.reporter.SpawnChild(callID, proc.Pid())

	status, err := proc.Wait()
	resume() // lift the pause as soon as the child is gone; the defer covers error paths
	if err != nil {
		out := Outcome{Kind: KindInternal, Err: err, Pid: proc.Pid(), Duration: time.Since(started)}
		iso.reporter.FinishCall(callID, iso.result(task, out))
		return out
	}

	out := iso.classify(DecodeStatus(status), tr, c)
	out.Pid = proc.Pid()
	out.Duration = time.Since(started)
	iso.log.Debug("isolation child finished", "task", task, "pid", out.Pid, "kind", out.Kind, "exit", out.Exit)
	iso.reporter.FinishCall(callID, iso.result(task, out))
	return out
}

// classify maps the decoded exit class to an outcome. The transport is
// read only when the child exited zero; any other fate means its contents
// cannot be trusted.
func (iso *Isolator) classify(cls ExitClass, tr transport.Transport, c codec.Codec) Outcome {
	switch {
	case cls.Signaled:
		return Outcome{
			Kind: KindSignaled,
			Err:  &SignalError{Signal: cls.Signal, CoreDumped: cls.CoreDumped},
			Exit: cls,
		}
	case cls.Code != 0:
		return Outcome{Kind: KindExited, Err: &ExitCodeError{Code: cls.Code}, Exit: cls}
	}

	if iso.kind == transport.Discard {
		return Outcome{Kind: KindSuccess, Exit: cls}
	}

	payload, err := tr.Read()
	if err != nil {
		var overflow *transport.OverflowError
		switch {
		case errors.As(err, &overflow):
			return Outcome{Kind: KindOverflow, Err: overflow, Exit: cls}
		case errors.Is(err, transport.ErrNothingWritten):
			return Outcome{Kind: KindNoResult, Err: ErrNoResult, Exit: cls}
		default:
			return Outcome{Kind: KindInternal, Err: fmt.Errorf("read transport: %w", err), Exit: cls}
		}
	}

	val, childErr, err := decodeOutcome(c, payload)
	if err != nil {
		return Outcome{Kind: KindInternal, Err: err, Exit: cls}
	}
	if childErr != nil {
		// the original error object, not a transport wrapper
		return Outcome{Kind: KindChildError, Err: childErr, Exit: cls}
	}
	return Outcome{Kind: KindSuccess, Value: val, Exit: cls}
}

func (iso *Isolator) result(task string, out Outcome) report.Result {
	res := report.Result{
		Task:       task,
		Transport:  string(iso.kind),
		Kind:       out.Kind.String(),
		ExitCode:   out.Exit.Code,
		WallMillis: out.Duration.Milliseconds(),
	}
	if out.Exit.Signaled {
		num := int(out.Exit.Signal)
		res.Signal = &num
		res.SignalName = out.Exit.SignalInfo().Name
		res.CoreDumped = out.Exit.CoreDumped
	}
	if out.Err != nil {
		res.Error = out.Err.Error()
	}
	return res
}
