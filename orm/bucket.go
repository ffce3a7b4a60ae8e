/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* Every bucket is an authenticated map: its content is summarized by a
single merkle root that changes if and only if any stored value changes.
* ListBucket holds families of append-only lists, each with its own
incrementally maintained merkle root.
*/
package orm

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/tendermint/tendermint/crypto/merkle"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Bucket is a generic holder that stores data under a prefixed subspace of
// the DB.
//
// This is a generic building block that should generally
// be embedded in a type-safe wrapper to ensure all data
// is the same type.
// proto defines the default Model, all elements of this type
type Bucket struct {
	name   string
	prefix []byte
	proto  Cloneable
}

var _ ledger.QueryHandler = Bucket{}

// NewBucket creates a bucket to store data
func NewBucket(name string, proto Cloneable) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}

	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		proto:  proto,
	}
}

// Name returns the name of the bucket.
func (b Bucket) Name() string {
	return b.name
}

// Register registers this Bucket for queries.
// You can define a name here for queries, which is
// different than the bucket name used to prefix the data
func (b Bucket) Register(name string, r ledger.QueryRouter) {
	if name == "" {
		name = b.name
	}
	r.Register("/"+name, b)
}

// Query handles queries from the QueryRouter
func (b Bucket) Query(db ledger.ReadOnlyKVStore, mod string, data []byte) ([]ledger.Model, error) {
	switch mod {
	case ledger.KeyQueryMod:
		key := b.DBKey(data)
		value, err := db.Get(key)
		if err != nil {
			return nil, dbErr(err, "get")
		}
		// return nothing on miss
		if value == nil {
			return nil, nil
		}
		return []ledger.Model{ledger.Pair(key, value)}, nil
	case ledger.PrefixQueryMod:
		return queryPrefix(db, b.DBKey(data))
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// Get one element
func (b Bucket) Get(db ledger.ReadOnlyKVStore, key []byte) (Object, error) {
	bz, err := db.Get(b.DBKey(key))
	if err != nil {
		return nil, dbErr(err, "get")
	}
	if bz == nil {
		return nil, nil
	}
	return b.Parse(key, bz)
}

// Has returns true if a value is stored under given key.
func (b Bucket) Has(db ledger.ReadOnlyKVStore, key []byte) (bool, error) {
	ok, err := db.Has(b.DBKey(key))
	if err != nil {
		return false, dbErr(err, "has")
	}
	return ok, nil
}

// Parse takes a key and value data (ledger.Model) and
// reconstructs the data this Bucket would return.
//
// Used internally as part of Get.
// It is exposed mainly as a test helper, but can work for
// any code that wants to parse
func (b Bucket) Parse(key, value []byte) (Object, error) {
	obj := b.proto.Clone()
	if err := obj.Value().Unmarshal(value); err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "cannot unmarshal %s: %s", b.name, err)
	}
	obj.SetKey(key)
	return obj, nil
}

// Save will write a model, it must be of the same type as proto
func (b Bucket) Save(db ledger.KVStore, model Object) error {
	if err := model.Validate(); err != nil {
		return err
	}

	bz, err := model.Value().Marshal()
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot marshal %s: %s", b.name, err)
	}
	if err := db.Set(b.DBKey(model.Key()), bz); err != nil {
		return dbErr(err, "set")
	}
	return nil
}

// Delete will remove the value at a key
func (b Bucket) Delete(db ledger.KVStore, key []byte) error {
	if err := db.Delete(b.DBKey(key)); err != nil {
		return dbErr(err, "delete")
	}
	return nil
}

// items returns the stored keys (without the bucket prefix) and the
// merkle item of each key value pair, in key order.
func (b Bucket) items(db ledger.ReadOnlyKVStore) ([][]byte, [][]byte, error) {
	models, err := queryPrefix(db, b.prefix)
	if err != nil {
		return nil, nil, err
	}
	keys := make([][]byte, len(models))
	items := make([][]byte, len(models))
	for i, m := range models {
		keys[i] = m.Key[len(b.prefix):]
		items[i] = KVItem(keys[i], m.Value)
	}
	return keys, items, nil
}

// RootHash returns the merkle root of the whole bucket content. Entries are
// hashed in key order, so the result does not depend on the order in which
// they were written.
func (b Bucket) RootHash(db ledger.ReadOnlyKVStore) ([]byte, error) {
	_, items, err := b.items(db)
	if err != nil {
		return nil, err
	}
	return merkle.SimpleHashFromByteSlices(items), nil
}

// Proof returns the inclusion proof of the value stored under given key,
// verifiable against RootHash with KVItem(key, value) as the item.
// ErrNotFound is returned if no such key exists.
func (b Bucket) Proof(db ledger.ReadOnlyKVStore, key []byte) (*merkle.SimpleProof, error) {
	keys, items, err := b.items(db)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		if bytes.Equal(k, key) {
			_, proofs := merkle.SimpleProofsFromByteSlices(items)
			return proofs[i], nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "%s: %X", b.name, key)
}
