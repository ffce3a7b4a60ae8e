package orm

import (
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/crypto/merkle"
)

func TestBucketNames(t *testing.T) {
	proto := NewSimpleObj(nil, new(counter))
	assert.NotPanics(t, func() { NewBucket("accounts", proto) })
	assert.Panics(t, func() { NewBucket("ab", proto) })
	assert.Panics(t, func() { NewBucket("Accounts", proto) })
	assert.Panics(t, func() { NewBucket("way_too_long_name", proto) })
	assert.Panics(t, func() { NewListBucket("h1story") })
}

func TestBucketCrud(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("counters", NewSimpleObj(nil, new(counter)))

	obj, err := b.Get(db, []byte("a"))
	require.NoError(t, err)
	assert.Nil(t, obj)

	require.NoError(t, b.Save(db, NewSimpleObj([]byte("a"), &counter{Name: "a", Count: 7})))
	obj, err = b.Get(db, []byte("a"))
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, []byte("a"), obj.Key())
	assert.Equal(t, &counter{Name: "a", Count: 7}, obj.Value())

	ok, err := b.Has(db, []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	// Invalid models are never written.
	err = b.Save(db, NewSimpleObj([]byte("b"), &counter{}))
	assert.True(t, errors.ErrEmpty.Is(err))
	err = b.Save(db, NewSimpleObj(nil, &counter{Name: "x"}))
	assert.True(t, errors.ErrEmpty.Is(err))

	require.NoError(t, b.Delete(db, []byte("a")))
	ok, err = b.Has(db, []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBucketKeysDoNotOverlap(t *testing.T) {
	db := store.MemStore()
	a := NewBucket("aaa", NewSimpleObj(nil, new(counter)))
	b := NewBucket("aaab", NewSimpleObj(nil, new(counter)))

	require.NoError(t, a.Save(db, NewSimpleObj([]byte("x"), &counter{Name: "a"})))
	require.NoError(t, b.Save(db, NewSimpleObj([]byte("x"), &counter{Name: "b"})))

	ra, err := a.RootHash(db)
	require.NoError(t, err)
	rb, err := b.RootHash(db)
	require.NoError(t, err)
	assert.NotEqual(t, ra, rb)

	res, err := a.Query(db, ledger.PrefixQueryMod, nil)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestBucketQuery(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("counters", NewSimpleObj(nil, new(counter)))
	for _, name := range []string{"alice", "alan", "bob"} {
		require.NoError(t, b.Save(db, NewSimpleObj([]byte(name), &counter{Name: name})))
	}

	res, err := b.Query(db, ledger.KeyQueryMod, []byte("bob"))
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, b.DBKey([]byte("bob")), res[0].Key)

	res, err = b.Query(db, ledger.KeyQueryMod, []byte("carol"))
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = b.Query(db, ledger.PrefixQueryMod, []byte("al"))
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, b.DBKey([]byte("alan")), res[0].Key)
	assert.Equal(t, b.DBKey([]byte("alice")), res[1].Key)

	_, err = b.Query(db, "range", nil)
	assert.True(t, errors.ErrInput.Is(err))

	qr := ledger.NewQueryRouter()
	b.Register("", qr)
	assert.NotNil(t, qr.Handler("/counters"))
}

func TestBucketRootHash(t *testing.T) {
	b := NewBucket("counters", NewSimpleObj(nil, new(counter)))
	names := []string{"dave", "alice", "carol", "bob", "eve"}

	empty, err := b.RootHash(store.MemStore())
	require.NoError(t, err)
	assert.Nil(t, empty)

	// Insertion order does not matter.
	forward, backward := store.MemStore(), store.MemStore()
	for i := range names {
		require.NoError(t, b.Save(forward, NewSimpleObj([]byte(names[i]), &counter{Name: names[i]})))
		n := names[len(names)-1-i]
		require.NoError(t, b.Save(backward, NewSimpleObj([]byte(n), &counter{Name: n})))
	}
	rf, err := b.RootHash(forward)
	require.NoError(t, err)
	rb, err := b.RootHash(backward)
	require.NoError(t, err)
	assert.Equal(t, rf, rb)
	assert.NotEqual(t, empty, rf)

	// Any value change is reflected in the root.
	require.NoError(t, b.Save(forward, NewSimpleObj([]byte("carol"), &counter{Name: "carol", Count: 1})))
	changed, err := b.RootHash(forward)
	require.NoError(t, err)
	assert.NotEqual(t, rf, changed)

	// Writing the same value back restores the root.
	require.NoError(t, b.Save(forward, NewSimpleObj([]byte("carol"), &counter{Name: "carol"})))
	restored, err := b.RootHash(forward)
	require.NoError(t, err)
	assert.Equal(t, rf, restored)
}

func TestBucketProof(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("counters", NewSimpleObj(nil, new(counter)))
	names := []string{"alice", "bob", "carol", "dave", "eve"}
	for i, n := range names {
		require.NoError(t, b.Save(db, NewSimpleObj([]byte(n), &counter{Name: n, Count: uint64(i)})))
	}
	root, err := b.RootHash(db)
	require.NoError(t, err)

	content := make(map[string][]byte)
	for _, n := range names {
		raw, err := db.Get(b.DBKey([]byte(n)))
		require.NoError(t, err)
		content[n] = raw
	}
	assert.Equal(t, merkle.SimpleHashFromMap(content), root)
	_, want, _ := merkle.SimpleProofsFromMap(content)

	for _, n := range names {
		proof, err := b.Proof(db, []byte(n))
		require.NoError(t, err)
		assert.Equal(t, want[n], proof, n)
		raw := content[n]
		assert.NoError(t, VerifyProof(root, KVItem([]byte(n), raw), proof), n)
		assert.Error(t, VerifyProof(root, KVItem([]byte(n), []byte("forged")), proof), n)
	}

	_, err = b.Proof(db, []byte("mallory"))
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestBucketParseError(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("counters", NewSimpleObj(nil, new(counter)))
	require.NoError(t, db.Set(b.DBKey([]byte("broken")), []byte{0xff, 0xff, 0xff}))

	_, err := b.Get(db, []byte("broken"))
	assert.True(t, errors.ErrModel.Is(err))
}
