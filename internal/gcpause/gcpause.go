// Package gcpause guards the garbage collector pause taken around the
// spawn point, so the child does not duplicate the runtime mid-collection.
// The toggle is process-wide and non-nestable, so it is reference counted:
// concurrent calls overlap safely and the collector restarts when the last
// holder resumes.
package gcpause

import (
	"runtime/debug"
	"sync"
)

var (
	mu    sync.Mutex
	depth int
	prev  int
)

// Pause disables the collector until the returned resume function runs.
// Resume is idempotent, so it can sit in a defer and still be called early.
func Pause() (resume func()) {
	mu.Lock()
	depth++
	if depth == 1 {
		prev = debug.SetGCPercent(-1)
	}
	mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			depth--
			if depth == 0 {
				debug.SetGCPercent(prev)
			}
			mu.Unlock()
		})
	}
}

// Depth reports the current number of holders. Used by tests to verify the
// pause count returns to its pre-call value.
func Depth() int {
	mu.Lock()
	defer mu.Unlock()
	return depth
}
