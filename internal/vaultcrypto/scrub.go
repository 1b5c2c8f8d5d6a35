package vaultcrypto

import (
	"runtime"
	"unsafe"
)

// Scrub overwrites b with zeros in a loop the compiler cannot prove is
// dead, then keeps b alive past the loop so the zeroing can't be hoisted
// away as unobserved. Go has no volatile-qualified memory, so this is
// best-effort: a sufficiently aggressive future compiler could still
// theoretically eliminate it, but runtime.KeepAlive defeats today's
// escape-analysis-driven dead store elimination.
func Scrub(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ScrubString zeros s's own backing array in place via unsafe.Slice over
// its data pointer, then clears s itself. Go strings are nominally
// immutable; this relies on s being the sole owner of that backing array
// (a private copy the vault built for masking, never a literal or a slice
// of a caller-owned string) so no other string value observes the zeroing.
func ScrubString(s *string) {
	if s == nil || *s == "" {
		return
	}
	b := unsafe.Slice(unsafe.StringData(*s), len(*s))
	Scrub(b)
	*s = ""
}
