//go:build debug

package debug

import "fmt"

// Assert panics with the given args if cond is false.
func Assert(cond bool, args ...any) {
	if !cond {
		panic(fmt.Sprint(append([]any{"assertion failed: "}, args...)...))
	}
}

// AssertNoErr panics if err is non-nil.
func AssertNoErr(err error, args ...any) {
	if err != nil {
		panic(fmt.Sprint(append([]any{err, ": "}, args...)...))
	}
}
