package vaultcrypto

import "testing"

func TestScrubZeroesBuffer(t *testing.T) {
	b := []byte("super secret password")
	Scrub(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed: %x", i, v)
		}
	}
}

func TestScrubStringClearsValue(t *testing.T) {
	// A freshly allocated string, not a literal: ScrubString writes
	// through the backing array, which must be owned, writable memory.
	s := string([]byte("super secret password"))
	ScrubString(&s)
	if s != "" {
		t.Fatalf("ScrubString left a non-empty string: %q", s)
	}
}

func TestScrubStringHandlesEmpty(t *testing.T) {
	s := ""
	ScrubString(&s)
	if s != "" {
		t.Fatalf("ScrubString on empty string produced %q", s)
	}
}
