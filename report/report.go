// Package report lets callers observe the lifecycle of isolated calls.
// Implementations must tolerate concurrent calls, each identified by a
// call-scoped id.
package report

// Result is the reporter-facing summary of one finished call.
type Result struct {
	Task       string `json:"task"`
	Transport  string `json:"transport"`
	Kind       string `json:"kind"`
	ExitCode   int    `json:"exit_code"`
	Signal     *int   `json:"signal,omitempty"`
	SignalName string `json:"signal_name,omitempty"`
	CoreDumped bool   `json:"core_dumped,omitempty"`
	Error      string `json:"error,omitempty"`
	WallMillis int64  `json:"wall_ms"`
}

type Reporter interface {
	StartCall(callID string, task string, transport string)
	SpawnChild(callID string, pid int)
	FinishCall(callID string, res Result)
}

// Nop is the default reporter.
type Nop struct{}

func (Nop) StartCall(callID string, task string, transport string) {}
func (Nop) SpawnChild(callID string, pid int)                      {}
func (Nop) FinishCall(callID string, res Result)                   {}
