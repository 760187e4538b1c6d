package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/programme-lv/isocall"
)

// demoTasks are the crash scenarios this binary ships with.
var demoTasks = []string{"ok", "raise", "panic", "exit", "segfault", "kill", "bigvalue"}

func init() {
	isocall.Register("ok", func(args any) (any, error) {
		if args != nil {
			return args, nil
		}
		return "ok", nil
	})

	isocall.Register("raise", func(args any) (any, error) {
		msg, _ := args.(string)
		if msg == "" {
			msg = "raised in the child"
		}
		return nil, fmt.Errorf("%s", msg)
	})

	isocall.Register("panic", func(args any) (any, error) {
		panic("demo panic")
	})

	isocall.Register("exit", func(args any) (any, error) {
		code := 1
		if s, ok := args.(string); ok {
			if n, err := strconv.Atoi(s); err == nil {
				code = n
			}
		}
		os.Exit(code)
		return nil, nil
	})

	isocall.Register("segfault", func(args any) (any, error) {
		// delivered by kill rather than a bad dereference: the Go runtime
		// rescues synchronous faults into panics, a user-sent SIGSEGV
		// actually terminates the child
		if err := syscall.Kill(os.Getpid(), syscall.SIGSEGV); err != nil {
			return nil, err
		}
		return nil, nil
	})

	isocall.Register("kill", func(args any) (any, error) {
		sig := syscall.SIGKILL
		if s, ok := args.(string); ok {
			if n, err := strconv.Atoi(s); err == nil {
				sig = syscall.Signal(n)
			}
		}
		if err := syscall.Kill(os.Getpid(), sig); err != nil {
			return nil, err
		}
		return nil, nil
	})

	isocall.Register("bigvalue", func(args any) (any, error) {
		size := 1 << 20
		if s, ok := args.(string); ok {
			if n, err := strconv.Atoi(s); err == nil {
				size = n
			}
		}
		return strings.Repeat("a", size), nil
	})
}
