package store

import (
	"testing"

	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/weavetest/assert"
)

func memStores() (CacheableKVStore, func()) {
	return MemStore(), func() {}
}

func TestMemStore(t *testing.T) {
	NewSuite(memStores).Run(t)
}

func TestCacheIteratorRelease(t *testing.T) {
	db := MemStore()
	assert.Nil(t, db.Set([]byte("a"), []byte("A")))
	cache := db.CacheWrap()

	it, err := cache.Iterator([]byte("a"), []byte("z"))
	assert.Nil(t, err)
	it.Release()
	it.Release()
	assert.Nil(t, db.Delete([]byte("a")))

	_, _, err = it.Next()
	assert.IsErr(t, errors.ErrIteratorDone, err)
}

func TestSliceIterator(t *testing.T) {
	const size = 10

	ks := genKeys("slice", size, 8)
	vs := genKeys("slice value", size, 40)

	models := make([]Model, size)
	for i := 0; i < size; i++ {
		models[i].Key = ks[i]
		models[i].Value = vs[i]
	}

	iter := NewSliceIterator(models)
	for i := 0; i < size; i++ {
		key, value, err := iter.Next()
		assert.Nil(t, err)
		assert.Equal(t, ks[i], key)
		assert.Equal(t, vs[i], value)
	}
	_, _, err := iter.Next()
	assert.IsErr(t, errors.ErrIteratorDone, err)

	it := NewSliceIterator(models)
	it.Release()
	_, _, err = it.Next()
	assert.IsErr(t, errors.ErrIteratorDone, err)
}

func TestNonAtomicBatch(t *testing.T) {
	db := MemStore()
	b := NewNonAtomicBatch(db)
	assert.Nil(t, b.Set([]byte("k1"), []byte("v1")))
	assert.Nil(t, b.Set([]byte("k2"), []byte("v2")))
	assert.Nil(t, b.Delete([]byte("k1")))
	assert.Equal(t, 3, len(b.ShowOps()))

	has, err := db.Has([]byte("k2"))
	assert.Nil(t, err)
	assert.Equal(t, false, has)

	assert.Nil(t, b.Write())
	assert.Equal(t, 0, len(b.ShowOps()))
	has, err = db.Has([]byte("k1"))
	assert.Nil(t, err)
	assert.Equal(t, false, has)
	has, err = db.Has([]byte("k2"))
	assert.Nil(t, err)
	assert.Equal(t, true, has)
}
