package isocall

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// TaskFunc is a unit of work to isolate. It runs in a duplicated process,
// so it must not depend on live parent-only state (open descriptors,
// in-flight locks); everything it needs arrives through args, and its
// return value must be encodable by the configured codec.
type TaskFunc func(args any) (any, error)

var tasks = xsync.NewMapOf[string, TaskFunc]()

// Register makes a task callable through an isolator. Registration must
// happen in code that runs in both the parent and the child (package init
// or the top of main) so the re-executed binary can resolve the name
// again. Registering the same name twice panics.
func Register(name string, fn TaskFunc) {
	if name == "" {
		panic("isocall: task name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("isocall: task %q registered with nil func", name))
	}
	if _, loaded := tasks.LoadOrStore(name, fn); loaded {
		panic(fmt.Sprintf("isocall: task %q registered twice", name))
	}
}

func lookupTask(name string) (TaskFunc, bool) {
	return tasks.Load(name)
}
