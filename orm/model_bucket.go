package orm

import (
	"reflect"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/tendermint/tendermint/crypto/merkle"
)

// ModelBucket is implemented by buckets that operates on Models rather than
// Objects.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db ledger.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns true if an entity with given key exists.
	Has(db ledger.ReadOnlyKVStore, key []byte) (bool, error)

	// Put saves given model in the database.
	Put(db ledger.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db ledger.KVStore, key []byte) error

	// RootHash returns the merkle root over all stored entities.
	RootHash(db ledger.ReadOnlyKVStore) ([]byte, error)

	// Proof returns the inclusion proof of an entity.
	Proof(db ledger.ReadOnlyKVStore, key []byte) (*merkle.SimpleProof, error)

	// Register registers the bucket for queries under given name.
	Register(name string, r ledger.QueryRouter)
}

// NewModelBucket returns a ModelBucket instance storing entities of the
// prototype type under given bucket name.
func NewModelBucket(name string, proto Model) ModelBucket {
	return &modelBucket{
		b: NewBucket(name, NewSimpleObj(nil, proto)),
	}
}

type modelBucket struct {
	b Bucket
}

func (mb *modelBucket) One(db ledger.ReadOnlyKVStore, key []byte, dest Model) error {
	obj, err := mb.b.Get(db, key)
	if err != nil {
		return err
	}
	if obj == nil || obj.Value() == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	res := obj.Value()

	if !reflect.TypeOf(res).AssignableTo(reflect.TypeOf(dest)) {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %T", res, dest)
	}

	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(res).Elem())
	return nil
}

func (mb *modelBucket) Has(db ledger.ReadOnlyKVStore, key []byte) (bool, error) {
	return mb.b.Has(db, key)
}

func (mb *modelBucket) Put(db ledger.KVStore, key []byte, m Model) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	obj := NewSimpleObj(key, m)
	if err := mb.b.Save(db, obj); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db ledger.KVStore, key []byte) error {
	ok, err := mb.b.Has(db, key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrNotFound
	}
	return mb.b.Delete(db, key)
}

func (mb *modelBucket) RootHash(db ledger.ReadOnlyKVStore) ([]byte, error) {
	return mb.b.RootHash(db)
}

func (mb *modelBucket) Proof(db ledger.ReadOnlyKVStore, key []byte) (*merkle.SimpleProof, error) {
	return mb.b.Proof(db, key)
}

func (mb *modelBucket) Register(name string, r ledger.QueryRouter) {
	mb.b.Register(name, r)
}

var _ ModelBucket = (*modelBucket)(nil)
