package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint computes a blake2b-256 digest of the input, hex encoded
// and truncated to 16 bytes worth of output. Deterministic: the same
// input always yields the same token.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

// FingerprintFields computes a fingerprint over multiple fields.
// Fields are length-prefix framed so ("ab","c") and ("a","bc")
// cannot collide.
func FingerprintFields(fields ...string) string {
	h, _ := blake2b.New256(nil)
	var frame [8]byte
	for _, f := range fields {
		n := len(f)
		for i := 0; i < 8; i++ {
			frame[i] = byte(n >> (8 * i))
		}
		h.Write(frame[:])
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
