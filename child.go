package isocall

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/programme-lv/isocall/codec"
	"github.com/programme-lv/isocall/internal/spawn"
	"github.com/programme-lv/isocall/transport"
)

// childSetupExit is the code a child dies with when it cannot even attach
// its transport or codec. Distinguishable from task-driven exits.
const childSetupExit = 70

// Main routes execution when the current process is an isolation child.
// Host binaries (and TestMain) must call it at the very top of main; in
// the parent it is a no-op. In the child it runs the task, ships the
// outcome through the configured transport and exits immediately, never
// returning into the host's startup or shutdown path.
func Main() {
	name := os.Getenv(spawn.EnvTask)
	if name == "" {
		return
	}
	runChild(name)
}

func runChild(name string) {
	w, err := transport.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "isocall child: %v\n", err)
		os.Exit(childSetupExit)
	}

	codecName := os.Getenv(spawn.EnvCodec)
	if codecName == "" {
		codecName = codec.GobName
	}
	c, err := codec.Lookup(codecName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "isocall child: %v\n", err)
		os.Exit(childSetupExit)
	}

	args, err := readArgs(c)
	var val any
	var taskErr error
	switch {
	case err != nil:
		taskErr = fmt.Errorf("isocall: decode task arguments: %w", err)
	default:
		fn, ok := lookupTask(name)
		if !ok {
			taskErr = fmt.Errorf("isocall: task %q is not registered in this binary", name)
		} else {
			val, taskErr = runTask(fn, args)
		}
	}

	payload, isError, err := encodeOutcome(c, val, taskErr)
	if err != nil {
		// the value itself would not encode; the parent at least learns why
		payload, isError, err = encodeOutcome(c, nil, RemoteError{Msg: err.Error()})
		if err != nil {
			fmt.Fprintf(os.Stderr, "isocall child: %v\n", err)
			w.Close()
			os.Exit(childSetupExit)
		}
	}

	if werr := w.Write(payload, isError); werr != nil {
		var overflow *transport.OverflowError
		if !errors.As(werr, &overflow) {
			fmt.Fprintf(os.Stderr, "isocall child: %v\n", werr)
			w.Close()
			os.Exit(1)
		}
		// overflow leaves the sentinel behind; exit clean so the parent
		// reads it and classifies deterministically
	}
	w.Close()
	os.Exit(0)
}

func readArgs(c codec.Codec) (any, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	args, childErr, err := decodeOutcome(c, data)
	if err != nil {
		return nil, err
	}
	if childErr != nil {
		return nil, fmt.Errorf("arguments arrived flagged as an error: %w", childErr)
	}
	return args, nil
}

// runTask keeps child panics inside the task boundary: a panicking task is
// reported like a raised error, only a real signal death escapes.
func runTask(fn TaskFunc, args any) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(args)
}
