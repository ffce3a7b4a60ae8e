package orm

import (
	"math/bits"

	"github.com/iov-one/ledger/errors"
	"github.com/tendermint/tendermint/crypto/merkle"
	"github.com/tendermint/tendermint/crypto/tmhash"
)

// Buckets and lists are summarized by RFC 6962 trees as built by
// tendermint's crypto/merkle package. An empty collection has a nil root.

// KVItem returns the merkle item of a key value pair stored in a Bucket.
// It is the amino encoding of the key and the value digest, so that
// Bucket.RootHash equals merkle.SimpleHashFromMap over the same content.
func KVItem(key, value []byte) []byte {
	return merkle.KVPair{Key: key, Value: tmhash.Sum(value)}.Bytes()
}

// VerifyProof returns nil if proof shows that item is part of the tree
// with given root.
func VerifyProof(root, item []byte, proof *merkle.SimpleProof) error {
	if proof == nil {
		return errors.Wrap(errors.ErrEmpty, "proof")
	}
	if proof.Index < 0 || proof.Index >= proof.Total {
		return errors.Wrapf(errors.ErrInput, "index %d out of range %d", proof.Index, proof.Total)
	}
	if err := proof.Verify(root, item); err != nil {
		return errors.Wrap(errors.ErrState, err.Error())
	}
	return nil
}

// The list cache stores complete subtrees, so it has to compute node
// hashes the same way merkle.SimpleHashFromByteSlices does.

func leafHash(item []byte) []byte {
	return tmhash.Sum(append([]byte{0x00}, item...))
}

func innerHash(left, right []byte) []byte {
	buf := make([]byte, 0, 1+len(left)+len(right))
	buf = append(buf, 0x01)
	buf = append(buf, left...)
	return tmhash.Sum(append(buf, right...))
}

// splitPoint returns the largest power of two strictly less than n.
func splitPoint(n uint64) uint64 {
	k := uint64(1) << uint(bits.Len64(n)-1)
	if k == n {
		k >>= 1
	}
	return k
}
