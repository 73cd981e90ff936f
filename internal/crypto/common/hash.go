package crypto

import (
	"crypto/sha256"
	"crypto/sha512"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// Sha512Half returns the first 32 bytes of a sha512 hash over the
// concatenation of the given messages.
func Sha512Half(msgs ...[]byte) [32]byte {
	h := sha512.New()
	for _, m := range msgs {
		h.Write(m)
	}
	var result [32]byte
	copy(result[:], h.Sum(nil)[:32])
	return result
}

// AccountID derives a 20-byte account identifier from arbitrary key
// material: ripemd160(sha256(data)).
func AccountID(data []byte) [20]byte {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:])
	var id [20]byte
	copy(id[:], r.Sum(nil))
	return id
}
