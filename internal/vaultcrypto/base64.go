package vaultcrypto

import "fmt"

// bitsToASCII and asciiToBits are the engine's base64 lookup tables:
// the standard alphabet, '=' padding, no URL-safe substitution. Apart from
// the ChaCha20 constants in sigma, they are this package's only
// package-level variables.
var bitsToASCII = [64]byte{
	'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H',
	'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P',
	'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X',
	'Y', 'Z', 'a', 'b', 'c', 'd', 'e', 'f',
	'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n',
	'o', 'p', 'q', 'r', 's', 't', 'u', 'v',
	'w', 'x', 'y', 'z', '0', '1', '2', '3',
	'4', '5', '6', '7', '8', '9', '+', '/',
}

// invalidBits marks a byte outside the alphabet in asciiToBits.
const invalidBits = 0x40

var asciiToBits = buildASCIIToBits()

func buildASCIIToBits() [256]byte {
	var table [256]byte
	for i := range table {
		table[i] = invalidBits
	}
	for bits, ch := range bitsToASCII {
		table[ch] = byte(bits)
	}
	return table
}

// Base64EncodedLen reports the encoded length of n source bytes, rounded
// up to a multiple of 4 for padding.
func Base64EncodedLen(n int) int {
	return (n + 2) / 3 * 4
}

// Base64Encode renders data in the engine's base64 alphabet, padded with
// '=' to a multiple of 4 characters. It is the armor format for binary
// buffers that need to cross a text-only boundary (copy-paste, a line of
// a log, a text field).
func Base64Encode(data []byte) string {
	out := make([]byte, Base64EncodedLen(len(data)))
	i, n := 0, 0
	for ; len(data)-i > 2; i += 3 {
		out[n+0] = bitsToASCII[(data[i]&0xFC)>>2]
		out[n+1] = bitsToASCII[((data[i]&0x03)<<4)|(data[i+1]>>4)]
		out[n+2] = bitsToASCII[((data[i+1]&0x0F)<<2)|(data[i+2]>>6)]
		out[n+3] = bitsToASCII[data[i+2]&0x3F]
		n += 4
	}
	if rem := len(data) - i; rem > 0 {
		out[n] = bitsToASCII[(data[i]>>2)&0x3F]
		n++
		if rem == 1 {
			out[n] = bitsToASCII[(data[i]&0x3)<<4]
			n++
		} else {
			out[n] = bitsToASCII[((data[i]&0x3)<<4)|((data[i+1]&0xF0)>>4)]
			n++
			out[n] = bitsToASCII[(data[i+1]&0xF)<<2]
			n++
		}
		for n < len(out) {
			out[n] = '='
			n++
		}
	}
	return string(out[:n])
}

// Base64Decode reverses Base64Encode, rejecting input whose length isn't a
// multiple of 4 or that contains a byte outside the alphabet.
func Base64Decode(s string) ([]byte, error) {
	if len(s)%4 != 0 {
		return nil, fmt.Errorf("vaultcrypto: base64 input length %d is not a multiple of 4", len(s))
	}
	if s == "" {
		return nil, nil
	}

	padding := 0
	for padding < 2 && padding < len(s) && s[len(s)-1-padding] == '=' {
		padding++
	}

	out := make([]byte, 0, len(s)/4*3)
	for i := 0; i < len(s); i += 4 {
		var b [4]byte
		for j := 0; j < 4; j++ {
			c := s[i+j]
			if c == '=' {
				if i+j < len(s)-padding {
					return nil, fmt.Errorf("vaultcrypto: misplaced '=' at offset %d", i+j)
				}
				b[j] = 0
				continue
			}
			v := asciiToBits[c]
			if v == invalidBits {
				return nil, fmt.Errorf("vaultcrypto: invalid base64 byte %q at offset %d", c, i+j)
			}
			b[j] = v
		}
		out = append(out, b[0]<<2|b[1]>>4, b[1]<<4|b[2]>>2, b[2]<<6|b[3])
	}
	return out[:len(out)-padding], nil
}
