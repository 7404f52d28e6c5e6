package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
)

// compareKey keys the digests so equal inputs never produce a digest an
// attacker could precompute.
var compareKey = []byte(MustGenerateSecret(SecretSize))

// SecureCompare reports whether a and b are equal in time independent of
// where they first differ and of their lengths. Both inputs are reduced to
// fixed-size HMAC-SHA256 digests before comparison.
func SecureCompare(a, b string) bool {
	da := digest(a)
	db := digest(b)
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}

func digest(s string) [sha256.Size]byte {
	var out [sha256.Size]byte
	m := hmac.New(sha256.New, compareKey)
	m.Write([]byte(s))
	copy(out[:], m.Sum(nil))
	return out
}
