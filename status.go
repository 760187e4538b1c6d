package isocall

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// ExitClass is the decoded form of a raw wait status: either a normal exit
// with a code, or death by signal with a core dump flag.
type ExitClass struct {
	Code       int
	Signal     syscall.Signal
	Signaled   bool
	CoreDumped bool
}

// DecodeStatus translates the platform wait status encoding. Pure; the
// only place that knows how the kernel packs exit information.
func DecodeStatus(status syscall.WaitStatus) ExitClass {
	if status.Signaled() {
		return ExitClass{
			Signal:     status.Signal(),
			Signaled:   true,
			CoreDumped: status.CoreDump(),
		}
	}
	return ExitClass{Code: status.ExitStatus()}
}

// SignalInfo is the display form of a signal death, resolved from the
// platform signal table at classification time.
type SignalInfo struct {
	Number      int
	Name        string
	Description string
	CoreDumped  bool
}

// SignalInfo resolves the signal's symbolic name and human description.
// Only meaningful when the class is a signal death.
func (c ExitClass) SignalInfo() SignalInfo {
	name := unix.SignalName(c.Signal)
	if name == "" {
		name = fmt.Sprintf("signal %d", int(c.Signal))
	}
	return SignalInfo{
		Number:      int(c.Signal),
		Name:        name,
		Description: c.Signal.String(),
		CoreDumped:  c.CoreDumped,
	}
}

func (c ExitClass) String() string {
	if c.Signaled {
		info := c.SignalInfo()
		if c.CoreDumped {
			return fmt.Sprintf("%s (core dumped)", info.Name)
		}
		return info.Name
	}
	return fmt.Sprintf("exit %d", c.Code)
}
