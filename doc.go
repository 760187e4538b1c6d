// Package isocall runs a unit of work in an isolated child process so that
// abnormal termination (a segmentation fault, a fatal signal, a stray
// os.Exit) comes back to the caller as a classified error instead of
// taking the whole process down.
//
// Tasks are registered by name and the child is the current binary
// re-executed, so every host binary (and TestMain) must route through Main
// first:
//
//	func main() {
//		isocall.Main()
//		// normal startup continues in the parent
//	}
//
//	isocall.Register("risky", func(args any) (any, error) {
//		return doRiskyThing(args)
//	})
//
//	v, err := isocall.Call(ctx, "risky", input)
//	var sig *isocall.SignalError
//	if errors.As(err, &sig) && sig.Segfault() {
//		// the child crashed, the parent did not
//	}
//
// The return value crosses the process boundary through one of three
// interchangeable transports: a shared memory region of fixed capacity, a
// socket pair, or nothing at all (discard). Each call spawns exactly one
// child and holds exactly one transport resource, released on every path.
package isocall
