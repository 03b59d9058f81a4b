//go:build !release

// Package assert checks internal invariants of the store. A failed check is a bug in
// depot itself, never a caller error, so it panics.
package assert

import "fmt"

func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // mirrors fmt
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
