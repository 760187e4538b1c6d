package isocall_test

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/programme-lv/isocall"
	"github.com/programme-lv/isocall/codec"
	"github.com/programme-lv/isocall/transport"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// CrashError is a task error with serializable state, registered with gob
// so it survives the trip back from the child unchanged.
type CrashError struct {
	Msg string
}

func (e *CrashError) Error() string { return e.Msg }

func init() {
	gob.Register(&CrashError{})

	isocall.Register("ret2", func(args any) (any, error) {
		return 2, nil
	})
	isocall.Register("echo", func(args any) (any, error) {
		return args, nil
	})
	isocall.Register("fail", func(args any) (any, error) {
		msg, _ := args.(string)
		return nil, &CrashError{Msg: msg}
	})
	isocall.Register("plainfail", func(args any) (any, error) {
		return nil, errors.New("x")
	})
	isocall.Register("panic", func(args any) (any, error) {
		panic("kaboom")
	})
	isocall.Register("long", func(args any) (any, error) {
		return "a very long string", nil
	})
	isocall.Register("bigblob", func(args any) (any, error) {
		return strings.Repeat("b", 32<<10), nil
	})
	isocall.Register("exit3", func(args any) (any, error) {
		os.Exit(3)
		return nil, nil
	})
	isocall.Register("exit0", func(args any) (any, error) {
		os.Exit(0)
		return nil, nil
	})
	isocall.Register("killself", func(args any) (any, error) {
		if err := syscall.Kill(os.Getpid(), syscall.SIGKILL); err != nil {
			return nil, err
		}
		return nil, nil
	})
	isocall.Register("segv", func(args any) (any, error) {
		// a user-delivered SIGSEGV bypasses the runtime's fault recovery,
		// so the child genuinely dies from the signal
		if err := syscall.Kill(os.Getpid(), syscall.SIGSEGV); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// TestMain routes re-executed children to their task before the test
// harness gets a chance to run.
func TestMain(m *testing.M) {
	isocall.Main()
	os.Exit(m.Run())
}

func eachTransport(t *testing.T, fn func(t *testing.T, iso *isocall.Isolator)) {
	t.Helper()
	variants := map[string]isocall.Option{
		"shm":    isocall.SharedMemory(4096),
		"socket": isocall.Socket(),
	}
	for name, opt := range variants {
		t.Run(name, func(t *testing.T) {
			fn(t, isocall.New(opt, isocall.WithChildStderr(os.Stderr)))
		})
	}
}

func TestReturnsValue(t *testing.T) {
	eachTransport(t, func(t *testing.T, iso *isocall.Isolator) {
		v, err := iso.Call(context.Background(), "ret2", nil)
		require.NoError(t, err)
		require.Equal(t, 2, v)
	})
}

func TestEchoesArguments(t *testing.T) {
	eachTransport(t, func(t *testing.T, iso *isocall.Isolator) {
		args := map[string]any{"n": int64(5), "s": "hello"}
		v, err := iso.Call(context.Background(), "echo", args)
		require.NoError(t, err)
		require.Equal(t, args, v)
	})
}

func TestReraisesChildError(t *testing.T) {
	eachTransport(t, func(t *testing.T, iso *isocall.Isolator) {
		_, err := iso.Call(context.Background(), "fail", "x")
		require.Error(t, err)

		var crash *CrashError
		require.ErrorAs(t, err, &crash)
		require.Equal(t, "x", crash.Msg)
		require.EqualError(t, err, "x")
	})
}

func TestPlainErrorKeepsMessage(t *testing.T) {
	iso := isocall.New(isocall.Socket())
	_, err := iso.Call(context.Background(), "plainfail", nil)
	require.EqualError(t, err, "x")

	var remote isocall.RemoteError
	require.ErrorAs(t, err, &remote)
}

func TestPanicBecomesError(t *testing.T) {
	iso := isocall.New(isocall.Socket())
	out := iso.Run(context.Background(), "panic", nil)
	require.Equal(t, isocall.KindChildError, out.Kind)
	require.ErrorContains(t, out.Err, "task panicked")
	require.ErrorContains(t, out.Err, "kaboom")
}

func TestNonZeroExit(t *testing.T) {
	iso := isocall.New(isocall.SharedMemory(64))
	out := iso.Run(context.Background(), "exit3", nil)
	require.Equal(t, isocall.KindExited, out.Kind)

	var exit *isocall.ExitCodeError
	require.ErrorAs(t, out.Err, &exit)
	require.Equal(t, 3, exit.Code)
	require.False(t, out.Exit.Signaled)
}

func TestCleanExitWithoutResult(t *testing.T) {
	iso := isocall.New(isocall.SharedMemory(64))
	out := iso.Run(context.Background(), "exit0", nil)
	require.Equal(t, isocall.KindNoResult, out.Kind)
	require.ErrorIs(t, out.Err, isocall.ErrNoResult)
}

func TestSignalTermination(t *testing.T) {
	iso := isocall.New(isocall.SharedMemory(64))
	out := iso.Run(context.Background(), "killself", nil)
	require.Equal(t, isocall.KindSignaled, out.Kind)

	var sig *isocall.SignalError
	require.ErrorAs(t, out.Err, &sig)
	require.Equal(t, syscall.SIGKILL, sig.Signal)
	require.False(t, sig.CoreDumped)
	require.Contains(t, out.Err.Error(), "SIGKILL")
}

func TestSegfaultClassification(t *testing.T) {
	iso := isocall.New(isocall.SharedMemory(64))
	out := iso.Run(context.Background(), "segv", nil)
	require.Equal(t, isocall.KindSignaled, out.Kind)
	require.True(t, isocall.IsSegfault(out.Err))
	require.Equal(t, syscall.SIGSEGV, out.Exit.Signal)
	require.Contains(t, out.Err.Error(), "SIGSEGV")
}

func TestOverflowIsExplicit(t *testing.T) {
	iso := isocall.New(isocall.SharedMemory(4))
	out := iso.Run(context.Background(), "long", nil)
	require.Equal(t, isocall.KindOverflow, out.Kind)
	require.Nil(t, out.Value)

	var overflow *isocall.OverflowError
	require.ErrorAs(t, out.Err, &overflow)
	require.Equal(t, 4, overflow.Capacity)
}

func TestSocketCarriesLargePayload(t *testing.T) {
	iso := isocall.New(isocall.Socket())
	v, err := iso.Call(context.Background(), "bigblob", nil)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("b", 32<<10), v)
}

func TestDiscardReportsOnlyClassification(t *testing.T) {
	iso := isocall.New(isocall.Discard())

	out := iso.Run(context.Background(), "ret2", nil)
	require.Equal(t, isocall.KindSuccess, out.Kind)
	require.Nil(t, out.Value, "discard never produces a value")

	// the task's own error is dropped too: only the exit classification
	// survives this transport
	out = iso.Run(context.Background(), "fail", nil)
	require.Equal(t, isocall.KindSuccess, out.Kind)

	out = iso.Run(context.Background(), "exit3", nil)
	require.Equal(t, isocall.KindExited, out.Kind)
}

func TestZstdCodec(t *testing.T) {
	iso := isocall.New(isocall.SharedMemory(4096), isocall.WithCodec(codec.GobZstdName))
	v, err := iso.Call(context.Background(), "bigblob", nil)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("b", 32<<10), v)
}

func TestUnregisteredTask(t *testing.T) {
	iso := isocall.New(isocall.Socket())
	_, err := iso.Call(context.Background(), "no-such-task", nil)
	require.ErrorContains(t, err, "not registered")
}

func TestConcurrentCallsReleaseResources(t *testing.T) {
	iso := isocall.New(isocall.SharedMemory(256))

	var eg errgroup.Group
	for i := 0; i < 8; i++ {
		eg.Go(func() error {
			v, err := iso.Call(context.Background(), "ret2", nil)
			if err != nil {
				return err
			}
			if v != 2 {
				return fmt.Errorf("got %v, want 2", v)
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	require.Empty(t, transport.LiveRegions(), "every call must release its region")
}

func TestOutcomeCarriesPidAndDuration(t *testing.T) {
	iso := isocall.New(isocall.Socket())
	out := iso.Run(context.Background(), "ret2", nil)
	require.Equal(t, isocall.KindSuccess, out.Kind)
	require.Greater(t, out.Pid, 0)
	require.Greater(t, out.Duration.Nanoseconds(), int64(0))
}
