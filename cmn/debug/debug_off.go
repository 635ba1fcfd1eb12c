//go:build !debug

package debug

// Assert is a no-op in production builds.
func Assert(bool, ...any) {}

// AssertNoErr is a no-op in production builds.
func AssertNoErr(error, ...any) {}
