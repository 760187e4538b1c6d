// Package spawn hides the process duplication primitive behind a small
// interface. Go cannot fork and keep running, so the default spawner
// re-executes the current binary with a task marker in the environment and
// the marshaled arguments on stdin; isocall.Main routes the child to its
// task before the host's main gets a chance to run.
package spawn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Environment variables that turn a freshly executed binary into an
// isolation child.
const (
	EnvTask  = "ISOCALL_TASK"
	EnvCodec = "ISOCALL_CODEC"
)

// Request describes one child to create.
type Request struct {
	Task  string
	Codec string
	Args  []byte     // encoded arguments, delivered on the child's stdin
	Env   []string   // transport attachment variables
	Files []*os.File // inherited descriptors, child side sees them from fd 3

	Stderr io.Writer // child stderr; nil discards it
}

// Spawner creates child processes. Confined here so a platform without
// self re-execution can swap in another model.
type Spawner interface {
	Spawn(ctx context.Context, req Request) (*Process, error)
}

// Process is a started child. Wait must be called exactly once.
type Process struct {
	cmd *exec.Cmd
}

func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the child terminates and returns the raw wait status.
// A non-zero exit or a signal death is not an error here; classification
// is the caller's job.
func (p *Process) Wait() (syscall.WaitStatus, error) {
	err := p.cmd.Wait()
	if err != nil {
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			return 0, fmt.Errorf("wait for child: %w", err)
		}
	}
	status, ok := p.cmd.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return 0, fmt.Errorf("unexpected process state %T", p.cmd.ProcessState.Sys())
	}
	return status, nil
}

// SelfExec spawns children by re-executing the current binary.
type SelfExec struct{}

func (SelfExec) Spawn(ctx context.Context, req Request) (*Process, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	cmd := exec.Command(exe)
	cmd.Env = append(os.Environ(), EnvTask+"="+req.Task, EnvCodec+"="+req.Codec)
	cmd.Env = append(cmd.Env, req.Env...)
	if len(req.Args) > 0 {
		cmd.Stdin = bytes.NewReader(req.Args)
	}
	cmd.Stderr = req.Stderr
	cmd.ExtraFiles = req.Files
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &Process{cmd: cmd}, nil
}
