package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	flagValue = 0
	flagError = 1
)

type socketTransport struct {
	parent   *os.File
	child    *os.File
	released bool
}

// NewSocketPair creates a connected stream pair. The child end travels to
// the child as fd 3 via ExtraFiles; the parent end is non-blocking.
func NewSocketPair() (Transport, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: socketpair: %w", err)
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return nil, fmt.Errorf("transport: set parent end non-blocking: %w", err)
	}
	return &socketTransport{
		parent: os.NewFile(uintptr(fds[0]), "isocall-socket-parent"),
		child:  os.NewFile(uintptr(fds[1]), "isocall-socket-child"),
	}, nil
}

func (t *socketTransport) Kind() Kind { return Socket }

func (t *socketTransport) Env() []string {
	return []string{EnvKind + "=" + string(Socket)}
}

func (t *socketTransport) Files() []*os.File {
	return []*os.File{t.child}
}

// Spawned drops the parent's duplicate of the child end. Without this the
// drain in Read would never observe EOF.
func (t *socketTransport) Spawned() error {
	if t.child == nil {
		return nil
	}
	err := t.child.Close()
	t.child = nil
	return err
}

// Read drains everything the child wrote. Safe without blocking or retry
// logic only because the caller has already waited on the child: a process
// cannot exit before its completed writes reach the socket buffer. The
// first byte is the outcome flag, the rest is the payload.
func (t *socketTransport) Read() ([]byte, error) {
	if t.released {
		return nil, fmt.Errorf("transport: read after release")
	}
	var frame []byte
	buf := make([]byte, 4096)
	for {
		n, err := t.parent.Read(buf)
		if n > 0 {
			frame = append(frame, buf[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, syscall.EAGAIN) {
				break
			}
			return nil, fmt.Errorf("transport: drain socket: %w", err)
		}
	}
	if len(frame) == 0 {
		return nil, ErrNothingWritten
	}
	if frame[0] != flagValue && frame[0] != flagError {
		return nil, fmt.Errorf("transport: unexpected outcome flag %d", frame[0])
	}
	return frame[1:], nil
}

func (t *socketTransport) Release() error {
	if t.released {
		return nil
	}
	t.released = true
	perr := t.parent.Close()
	var cerr error
	if t.child != nil {
		cerr = t.child.Close()
		t.child = nil
	}
	if perr != nil {
		return fmt.Errorf("transport: close socket: %w", perr)
	}
	if cerr != nil {
		return fmt.Errorf("transport: close child end: %w", cerr)
	}
	return nil
}

type socketWriter struct {
	f *os.File
}

func (w *socketWriter) Write(payload []byte, isError bool) error {
	flag := byte(flagValue)
	if isError {
		flag = flagError
	}
	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, flag)
	frame = append(frame, payload...)
	if _, err := w.f.Write(frame); err != nil {
		return fmt.Errorf("transport: write socket: %w", err)
	}
	return nil
}

func (w *socketWriter) Close() error {
	return w.f.Close()
}
