// Package container implements the vault's at-rest binary file format: a
// fixed 128-byte header (integrity hash, format version, random nonce, MAC,
// plaintext-once-decrypted timestamp and entry count) followed by an
// encrypted sequence of entry records.
package container

// Byte offsets and sizes of the fixed header. All multi-byte integers in
// the format are little-endian.
const (
	offIntegrityHash = 0
	szIntegrityHash  = 16

	offFFV = 16
	szFFV  = 2

	offReserved1 = 18
	szReserved1  = 14

	offNonce = 32
	szNonce  = 32

	offMAC = 64
	szMAC  = 32

	offTimestamp = 96
	szTimestamp  = 8

	offEntryCount = 104
	szEntryCount  = 4

	offReserved2 = 108
	szReserved2  = 20

	HeaderSize = 128
)

// CurrentMajor is the file-format major version this codec writes and the
// only major version it accepts on read; CurrentMinor is advisory and not
// checked on read.
const (
	CurrentMajor byte = 2
	CurrentMinor byte = 0
)

// maxUint16 bounds every length-prefixed field and the per-entry snapshot
// count; writers truncate strings to this length and fail the whole
// serialize if a snapshot count exceeds it.
const maxUint16 = 0xFFFF
