package ledger

import (
	"crypto/sha256"
)

// HashSize is the length of every digest produced by Hash.
const HashSize = sha256.Size

// Hash returns the digest of the concatenation of all given parts. It is the
// only hash function used for the ledger state: account keys, proposal keys,
// operation digests and the merkle trees all rely on it.
func Hash(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		// Writing to a hash never returns an error.
		_, _ = h.Write(p)
	}
	return h.Sum(nil)
}
