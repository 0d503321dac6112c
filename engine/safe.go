package engine

import (
	"fmt"
	"os"
	"runtime/debug"
)

// GoSafe runs a function in a goroutine and recovers from panics.
// It prints the panic and stack trace to stderr instead of crashing the
// process; name identifies the task in that output.
func GoSafe(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "veclite: panic in %s: %v\n%s\n", name, r, debug.Stack())
			}
		}()
		fn()
	}()
}
