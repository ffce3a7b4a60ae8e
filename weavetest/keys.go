package weavetest

import (
	"encoding/binary"

	"github.com/iov-one/ledger/crypto"
)

// NewKey returns a random private key.
func NewKey() crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// SeedKey returns a private key derived from given number. The same number
// always gives the same key, which keeps state hashes stable across test
// runs.
func SeedKey(n uint64) crypto.PrivateKey {
	seed := make([]byte, 32)
	binary.BigEndian.PutUint64(seed[24:], n)
	return crypto.PrivKeyEd25519FromSeed(seed)
}
