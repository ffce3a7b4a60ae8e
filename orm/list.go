package orm

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/tendermint/tendermint/crypto/merkle"
)

const (
	listLenSuffix   = 'l'
	listValueSuffix = 'v'
	listNodeSuffix  = 'n'
)

// ListBucket is a family of authenticated append-only lists. Each list is
// identified by a family key and summarized by its own merkle root.
//
// The roots of complete subtrees are stored next to the values, so neither
// an append nor a root lookup reads the whole list.
type ListBucket struct {
	name   string
	prefix []byte
}

var _ ledger.QueryHandler = ListBucket{}

// NewListBucket creates a list family stored under given name.
func NewListBucket(name string) ListBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return ListBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Register registers this bucket for queries. Query data is the family key
// and the result is the list content in order.
func (l ListBucket) Register(name string, r ledger.QueryRouter) {
	if name == "" {
		name = l.name
	}
	r.Register("/"+name, l)
}

// Query handles queries from the QueryRouter
func (l ListBucket) Query(db ledger.ReadOnlyKVStore, mod string, data []byte) ([]ledger.Model, error) {
	if mod != ledger.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
	fk, err := l.familyKey(data)
	if err != nil {
		return nil, err
	}
	return queryPrefix(db, append(fk, listValueSuffix))
}

func (l ListBucket) familyKey(family []byte) ([]byte, error) {
	if len(family) == 0 || len(family) > 0xff {
		return nil, errors.Wrapf(errors.ErrInput, "invalid family key length %d", len(family))
	}
	out := make([]byte, 0, len(l.prefix)+1+len(family)+10)
	out = append(out, l.prefix...)
	out = append(out, byte(len(family)))
	return append(out, family...), nil
}

func lenKey(fk []byte) []byte {
	return append(append([]byte(nil), fk...), listLenSuffix)
}

func valueKey(fk []byte, index uint64) []byte {
	out := append(append([]byte(nil), fk...), listValueSuffix)
	return appendUint64(out, index)
}

func nodeKey(fk []byte, height uint, index uint64) []byte {
	out := append(append([]byte(nil), fk...), listNodeSuffix, byte(height))
	return appendUint64(out, index)
}

func appendUint64(b []byte, v uint64) []byte {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], v)
	return append(b, raw[:]...)
}

// Len returns the number of values in the list. A list that was never
// appended to is empty.
func (l ListBucket) Len(db ledger.ReadOnlyKVStore, family []byte) (uint64, error) {
	fk, err := l.familyKey(family)
	if err != nil {
		return 0, err
	}
	return readLen(db, fk)
}

func readLen(db ledger.ReadOnlyKVStore, fk []byte) (uint64, error) {
	raw, err := db.Get(lenKey(fk))
	if err != nil {
		return 0, dbErr(err, "list length")
	}
	if raw == nil {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, errors.Wrapf(errors.ErrDatabase, "corrupted list length %X", raw)
	}
	return binary.BigEndian.Uint64(raw), nil
}

// Get returns the value stored at given position. ErrNotFound is returned
// if the index is out of range.
func (l ListBucket) Get(db ledger.ReadOnlyKVStore, family []byte, index uint64) ([]byte, error) {
	fk, err := l.familyKey(family)
	if err != nil {
		return nil, err
	}
	n, err := readLen(db, fk)
	if err != nil {
		return nil, err
	}
	if index >= n {
		return nil, errors.Wrapf(errors.ErrNotFound, "index %d out of range %d", index, n)
	}
	value, err := db.Get(valueKey(fk, index))
	if err != nil {
		return nil, dbErr(err, "list value")
	}
	if value == nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "missing list value %d", index)
	}
	return value, nil
}

// Items returns the whole list content in order.
func (l ListBucket) Items(db ledger.ReadOnlyKVStore, family []byte) ([][]byte, error) {
	fk, err := l.familyKey(family)
	if err != nil {
		return nil, err
	}
	models, err := queryPrefix(db, append(fk, listValueSuffix))
	if err != nil {
		return nil, err
	}
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Value
	}
	return res, nil
}

// Root returns the merkle root of the list, equal to
// merkle.SimpleHashFromByteSlices over its items. An empty list has a nil
// root.
func (l ListBucket) Root(db ledger.ReadOnlyKVStore, family []byte) ([]byte, error) {
	fk, err := l.familyKey(family)
	if err != nil {
		return nil, err
	}
	n, err := readLen(db, fk)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return rangeHash(db, fk, 0, n)
}

func readNode(db ledger.ReadOnlyKVStore, fk []byte, height uint, index uint64) ([]byte, error) {
	hash, err := db.Get(nodeKey(fk, height, index))
	if err != nil {
		return nil, dbErr(err, "list node")
	}
	if hash == nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "missing list node %d/%d", height, index)
	}
	return hash, nil
}

// rangeHash returns the root of the subtree over size leaves starting at
// offset. A power of two range is a complete subtree and is read from the
// cache, any other range is split like merkle.SimpleHashFromByteSlices
// does. Every range visited this way is aligned on its largest complete
// subtree.
func rangeHash(db ledger.ReadOnlyKVStore, fk []byte, offset, size uint64) ([]byte, error) {
	if size&(size-1) == 0 {
		h := uint(bits.TrailingZeros64(size))
		return readNode(db, fk, h, offset>>h)
	}
	k := splitPoint(size)
	left, err := rangeHash(db, fk, offset, k)
	if err != nil {
		return nil, err
	}
	right, err := rangeHash(db, fk, offset+k, size-k)
	if err != nil {
		return nil, err
	}
	return innerHash(left, right), nil
}

// Append adds a value at the end of the list and returns the new root
// together with the new length.
//
// The cache holds the root of every complete subtree of 2^h leaves. Those
// never change once complete, so an append stores the new leaf and the
// subtrees it completes, and the root is folded from at most one subtree
// per bit of the length.
func (l ListBucket) Append(db ledger.KVStore, family, value []byte) ([]byte, uint64, error) {
	fk, err := l.familyKey(family)
	if err != nil {
		return nil, 0, err
	}
	index, err := readLen(db, fk)
	if err != nil {
		return nil, 0, err
	}
	length := index + 1

	if err := db.Set(valueKey(fk, index), value); err != nil {
		return nil, 0, dbErr(err, "list value")
	}
	hash := leafHash(value)
	if err := db.Set(nodeKey(fk, 0, index), hash); err != nil {
		return nil, 0, dbErr(err, "list node")
	}
	for h, pos := uint(0), index; pos%2 == 1; h, pos = h+1, pos/2 {
		left, err := readNode(db, fk, h, pos-1)
		if err != nil {
			return nil, 0, err
		}
		hash = innerHash(left, hash)
		if err := db.Set(nodeKey(fk, h+1, pos/2), hash); err != nil {
			return nil, 0, dbErr(err, "list node")
		}
	}

	if err := db.Set(lenKey(fk), appendUint64(nil, length)); err != nil {
		return nil, 0, dbErr(err, "list length")
	}
	root, err := rangeHash(db, fk, 0, length)
	if err != nil {
		return nil, 0, err
	}
	return root, length, nil
}

// Proof returns the inclusion proof of the value at given index,
// verifiable against Root with the value as the item.
func (l ListBucket) Proof(db ledger.ReadOnlyKVStore, family []byte, index uint64) (*merkle.SimpleProof, error) {
	fk, err := l.familyKey(family)
	if err != nil {
		return nil, err
	}
	n, err := readLen(db, fk)
	if err != nil {
		return nil, err
	}
	if index >= n {
		return nil, errors.Wrapf(errors.ErrNotFound, "index %d out of range %d", index, n)
	}
	leaf, err := readNode(db, fk, 0, index)
	if err != nil {
		return nil, err
	}
	aunts, err := auntHashes(db, fk, 0, n, index)
	if err != nil {
		return nil, err
	}
	return &merkle.SimpleProof{
		Total:    int(n),
		Index:    int(index),
		LeafHash: leaf,
		Aunts:    aunts,
	}, nil
}

// auntHashes returns the siblings on the path from the leaf at index to the
// root of the range, lowest first.
func auntHashes(db ledger.ReadOnlyKVStore, fk []byte, offset, size, index uint64) ([][]byte, error) {
	if size == 1 {
		return [][]byte{}, nil
	}
	k := splitPoint(size)
	var (
		aunts   [][]byte
		sibling []byte
		err     error
	)
	if index < offset+k {
		if aunts, err = auntHashes(db, fk, offset, k, index); err != nil {
			return nil, err
		}
		sibling, err = rangeHash(db, fk, offset+k, size-k)
	} else {
		if aunts, err = auntHashes(db, fk, offset+k, size-k, index); err != nil {
			return nil, err
		}
		sibling, err = rangeHash(db, fk, offset, k)
	}
	if err != nil {
		return nil, err
	}
	return append(aunts, sibling), nil
}
