package orm

import (
	"testing"

	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/store"
	"github.com/iov-one/ledger/weavetest/assert"
)

func TestModelBucket(t *testing.T) {
	db := store.MemStore()

	b := NewModelBucket("cnts", &counter{})

	if err := b.Put(db, []byte("c1"), &counter{Name: "c1", Count: 1}); err != nil {
		t.Fatalf("cannot save counter instance: %s", err)
	}

	var c1 counter
	if err := b.One(db, []byte("c1"), &c1); err != nil {
		t.Fatalf("cannot get c1 counter: %s", err)
	}
	assert.Equal(t, counter{Name: "c1", Count: 1}, c1)

	ok, err := b.Has(db, []byte("c1"))
	assert.Nil(t, err)
	assert.Equal(t, true, ok)

	if err := b.Delete(db, []byte("c1")); err != nil {
		t.Fatalf("cannot delete c1 counter: %s", err)
	}
	if err := b.Delete(db, []byte("unknown")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error when deleting unexisting instance: %s", err)
	}
	if err := b.One(db, []byte("c1"), &c1); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error for an unknown model get: %s", err)
	}
}

func TestModelBucketPutInvalid(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	err := b.Put(db, []byte("c1"), &counter{})
	assert.FieldError(t, err, "Name", errors.ErrEmpty)

	ok, err := b.Has(db, []byte("c1"))
	assert.Nil(t, err)
	assert.Equal(t, false, ok)
}

func TestModelBucketOneWrongType(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	if err := b.Put(db, []byte("c1"), &counter{Name: "c1"}); err != nil {
		t.Fatalf("cannot save counter instance: %s", err)
	}

	var o other
	err := b.One(db, []byte("c1"), &o)
	assert.IsErr(t, errors.ErrType, err)
}

func TestModelBucketProof(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	for _, name := range []string{"a", "b", "c"} {
		if err := b.Put(db, []byte(name), &counter{Name: name}); err != nil {
			t.Fatalf("cannot save %q: %s", name, err)
		}
	}
	root, err := b.RootHash(db)
	assert.Nil(t, err)

	proof, err := b.Proof(db, []byte("b"))
	assert.Nil(t, err)
	raw, err := (&counter{Name: "b"}).Marshal()
	assert.Nil(t, err)
	assert.Nil(t, VerifyProof(root, KVItem([]byte("b"), raw), proof))
}
