package vaultcrypto

// kdfRounds is the KDF's fixed iteration count, matching the container
// codec one for one; kept here as a named constant so every call site and
// test refers to the same value. Unlike bcrypt's cost factor, this engine
// exposes no caller-tunable rounds knob: every DeriveKey call, test or
// production, pays the full 10001 rounds, since the round count is part of
// the file format's key-derivation contract, not a performance dial.
const kdfRounds = 10001

// Domain separation strings for DeriveKey, one per secret the KDF produces.
const (
	DomainEphemeralKey = "TMP-KEY"
	DomainFileEncKey   = "ENC-KEY"
	DomainFileMACKey   = "MAC-KEY"
)

// DeriveKey implements the vault's sole KDF: h = SHA3-256(password || nonce ||
// domain), then 10001 rounds of h = SHA3-256(password || h). It is used to
// derive the ephemeral in-memory masking key and the file encryption/MAC
// keys, each under its own domain string and nonce.
func DeriveKey(password, nonce []byte, domain string) [HashSize]byte {
	h := Sum256(password, nonce, []byte(domain))
	for i := 0; i < kdfRounds; i++ {
		h = Sum256(password, h[:])
	}
	return h
}
