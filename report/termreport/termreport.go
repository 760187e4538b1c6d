// Package termreport prints call outcomes to the terminal.
package termreport

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/programme-lv/isocall/report"
)

var (
	okColor   = color.New(color.FgGreen)
	exitColor = color.New(color.FgYellow)
	sigColor  = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

type TerminalReporter struct{}

func New() *TerminalReporter { return &TerminalReporter{} }

func (t *TerminalReporter) StartCall(callID string, task string, transport string) {
	dimColor.Printf("-> task %s via %s (call %s)\n", task, transport, callID)
}

func (t *TerminalReporter) SpawnChild(callID string, pid int) {
	dimColor.Printf("   spawned pid %d\n", pid)
}

func (t *TerminalReporter) FinishCall(callID string, res report.Result) {
	switch res.Kind {
	case "success":
		okColor.Printf("<- %s: ok in %dms\n", res.Task, res.WallMillis)
	case "signaled":
		suffix := ""
		if res.CoreDumped {
			suffix = " (core dumped)"
		}
		sigColor.Printf("<- %s: killed by %s%s\n", res.Task, res.SignalName, suffix)
	case "exited":
		exitColor.Printf("<- %s: exit code %d\n", res.Task, res.ExitCode)
	default:
		fmt.Printf("<- %s: %s", res.Task, res.Kind)
		if res.Error != "" {
			fmt.Printf(": %s", res.Error)
		}
		fmt.Println()
	}
}
