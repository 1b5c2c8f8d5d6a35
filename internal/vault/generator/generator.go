// Package generator synthesizes passwords from a GeneratorSpec and the
// vault's CSPRNG: alphabet construction, unbiased uniform sampling, and an
// advisory bit-strength estimate.
package generator

import (
	"fmt"
	"math"
	"sort"

	"github.com/cooky451/passchain-go/internal/vault/model"
	"github.com/cooky451/passchain-go/internal/vault/vaulterr"
)

// Nominal ASCII character classes. asciiSpecial is the 32 printable ASCII
// punctuation bytes outside the letter/digit ranges.
const (
	asciiLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	asciiNumbers = "0123456789"
	asciiSpecial = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// RNG is the subset of vaultcrypto.CSPRNG the generator depends on.
type RNG interface {
	Extract(n int) []byte
}

// BuildAlphabet concatenates the selected character classes plus the extra
// alphabet if enabled, sorts and deduplicates the bytes, and rejects the
// result with vaulterr.ErrBadAlphabet if it's empty or contains any
// non-printable or whitespace byte. Multibyte characters are unsupported:
// spec.ExtraAlphabet is treated as a sequence of single bytes.
func BuildAlphabet(spec model.GeneratorSpec) (string, error) {
	var buf []byte
	if spec.UseLetters {
		buf = append(buf, asciiLetters...)
	}
	if spec.UseNumbers {
		buf = append(buf, asciiNumbers...)
	}
	if spec.UseSpecial {
		buf = append(buf, asciiSpecial...)
	}
	if spec.UseExtra {
		buf = append(buf, spec.ExtraAlphabet...)
	}

	sort.Slice(buf, func(i, j int) bool { return buf[i] < buf[j] })
	deduped := buf[:0]
	for i, b := range buf {
		if i == 0 || buf[i-1] != b {
			deduped = append(deduped, b)
		}
	}

	if len(deduped) == 0 {
		return "", fmt.Errorf("%w: empty alphabet", vaulterr.ErrBadAlphabet)
	}
	for _, b := range deduped {
		if !isPrintableNonSpace(b) {
			return "", fmt.Errorf("%w: byte %#x is non-printable or whitespace", vaulterr.ErrBadAlphabet, b)
		}
	}

	return string(deduped), nil
}

func isPrintableNonSpace(b byte) bool {
	return b >= 0x21 && b <= 0x7E
}

// Generate draws spec.PasswordLength independent, uniformly-distributed
// samples from the constructed alphabet using rng.
func Generate(rng RNG, spec model.GeneratorSpec) (string, error) {
	alphabet, err := BuildAlphabet(spec)
	if err != nil {
		return "", err
	}

	out := make([]byte, spec.PasswordLength)
	for i := range out {
		out[i] = alphabet[uniformIndex(rng, len(alphabet))]
	}
	return string(out), nil
}

// uniformIndex draws an index in [0, n) without modulo bias, via explicit
// rejection sampling over single random bytes: limit is the largest
// multiple of n that fits in a byte, and any draw at or above it is
// discarded and redrawn.
func uniformIndex(rng RNG, n int) int {
	limit := 256 - (256 % n)
	for {
		b := rng.Extract(1)[0]
		if int(b) < limit {
			return int(b) % n
		}
	}
}

// BitStrength estimates a generator configuration's advisory entropy as
// password_length * log2(sum of enabled classes' nominal sizes). Class
// sizes are summed without deduplicating overlap between classes; this is
// advisory only, not a measurement of the actual deduplicated alphabet.
func BitStrength(spec model.GeneratorSpec) float64 {
	total := 0
	if spec.UseLetters {
		total += len(asciiLetters)
	}
	if spec.UseNumbers {
		total += len(asciiNumbers)
	}
	if spec.UseSpecial {
		total += len(asciiSpecial)
	}
	if spec.UseExtra {
		total += len(spec.ExtraAlphabet)
	}
	if total == 0 {
		return 0
	}
	return float64(spec.PasswordLength) * math.Log2(float64(total))
}
