package store

import (
	"bytes"
	"fmt"
	"sort"
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/weavetest/assert"
)

// StoreFactory returns a fresh, empty store and a function that releases
// all its resources.
type StoreFactory func() (CacheableKVStore, func())

// CommitFactory returns a fresh, loaded commit store and a function that
// releases all its resources.
type CommitFactory func() (CommitKVStore, func())

// Suite checks the storage guarantees the ledger is built on. Every
// operation runs against a cache wrap of the state and is either written
// as a whole or discarded, queries read a committed snapshot that later
// blocks cannot change, and iteration always sees the merged view of a
// cache and its parent in key order.
//
// Package tests of a store implementation only provide the factories.
type Suite struct {
	stores  StoreFactory
	commits CommitFactory
}

// NewSuite returns a suite running against stores built by given factory.
func NewSuite(stores StoreFactory) *Suite {
	return &Suite{stores: stores}
}

// WithCommit enables the snapshot checks for stores that can commit.
func (s *Suite) WithCommit(commits CommitFactory) *Suite {
	s.commits = commits
	return s
}

// Run runs every check supported by the configured factories.
func (s *Suite) Run(t *testing.T) {
	t.Run("read write", s.ReadWrite)
	t.Run("transactional view", s.TransactionalView)
	t.Run("overlay", s.Overlay)
	t.Run("iteration", s.Iteration)
	if s.commits != nil {
		t.Run("snapshot", s.Snapshot)
	}
}

// ReadWrite checks that Get and Has agree on what was written and deleted.
func (s *Suite) ReadWrite(t *testing.T) {
	db, cleanup := s.stores()
	defer cleanup()

	alice, bob := []byte("accounts:alice"), []byte("accounts:bob")
	AssertGetHas(t, db, alice, nil, false)

	assert.Nil(t, db.Set(alice, []byte("100")))
	assert.Nil(t, db.Set(bob, []byte("0")))
	AssertGetHas(t, db, alice, []byte("100"), true)
	AssertGetHas(t, db, bob, []byte("0"), true)

	assert.Nil(t, db.Set(alice, []byte("150")))
	AssertGetHas(t, db, alice, []byte("150"), true)

	assert.Nil(t, db.Delete(bob))
	AssertGetHas(t, db, bob, nil, false)
	// deleting a missing key is not an error
	assert.Nil(t, db.Delete(bob))
}

// TransactionalView checks the cache wrap as the unit of an operation: its
// changes are visible only to itself until Write applies all of them, and
// Discard drops all of them.
func (s *Suite) TransactionalView(t *testing.T) {
	balance := func(n int) []byte { return []byte(fmt.Sprint(n)) }
	alice, bob, carol := []byte("alice"), []byte("bob"), []byte("carol")

	cases := map[string]struct {
		// ops of a transfer of 30 from alice to bob that closes carol
		ops   []Op
		write bool
		want  []Model
	}{
		"written transfer is applied as a whole": {
			ops:   []Op{SetOp(alice, balance(70)), SetOp(bob, balance(30)), DelOp(carol)},
			write: true,
			want:  []Model{Pair(alice, balance(70)), Pair(bob, balance(30)), Pair(carol, nil)},
		},
		"discarded transfer leaves no trace": {
			ops:  []Op{SetOp(alice, balance(70)), SetOp(bob, balance(30)), DelOp(carol)},
			want: []Model{Pair(alice, balance(100)), Pair(bob, nil), Pair(carol, balance(5))},
		},
		"later writes to the same key win": {
			ops:   []Op{SetOp(alice, balance(1)), DelOp(alice), SetOp(alice, balance(2))},
			write: true,
			want:  []Model{Pair(alice, balance(2)), Pair(carol, balance(5))},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db, cleanup := s.stores()
			defer cleanup()
			assert.Nil(t, db.Set(alice, balance(100)))
			assert.Nil(t, db.Set(carol, balance(5)))

			view := db.CacheWrap()
			for _, op := range tc.ops {
				assert.Nil(t, op.Apply(view))
			}
			// nothing reaches the parent before the view is closed
			AssertGetHas(t, db, alice, balance(100), true)
			AssertGetHas(t, db, bob, nil, false)

			if tc.write {
				assert.Nil(t, view.Write())
			} else {
				view.Discard()
			}
			for _, m := range tc.want {
				AssertGetHas(t, db, m.Key, m.Value, m.Value != nil)
			}
		})
	}

	t.Run("nested views close into their parent", func(t *testing.T) {
		db, cleanup := s.stores()
		defer cleanup()
		assert.Nil(t, db.Set(alice, balance(100)))

		block := db.CacheWrap()
		op := block.CacheWrap()
		assert.Nil(t, op.Set(alice, balance(90)))
		assert.Nil(t, op.Write())
		AssertGetHas(t, block, alice, balance(90), true)
		AssertGetHas(t, db, alice, balance(100), true)

		failed := block.CacheWrap()
		assert.Nil(t, failed.Set(bob, balance(10)))
		failed.Discard()
		AssertGetHas(t, block, bob, nil, false)

		// dropping the block drops the operations written into it
		block.Discard()
		AssertGetHas(t, db, alice, balance(100), true)
	})
}

// Overlay checks that a cache shadows its parent key by key.
func (s *Suite) Overlay(t *testing.T) {
	ks := genKeys("overlay", 6, 16)
	vs := genKeys("overlay value", 6, 40)

	cases := map[string]struct {
		parent []Op
		child  []Op
		// Value nil means the key must be absent.
		parentView []Model
		childView  []Model
	}{
		"overwrite one, delete another, add a third": {
			parent:     []Op{SetOp(ks[0], vs[0]), SetOp(ks[1], vs[1])},
			child:      []Op{SetOp(ks[0], vs[3]), DelOp(ks[1]), SetOp(ks[2], vs[2])},
			parentView: []Model{Pair(ks[0], vs[0]), Pair(ks[1], vs[1]), Pair(ks[2], nil)},
			childView:  []Model{Pair(ks[0], vs[3]), Pair(ks[1], nil), Pair(ks[2], vs[2])},
		},
		"set then delete in the child hides the parent": {
			parent:     []Op{SetOp(ks[3], vs[3])},
			child:      []Op{SetOp(ks[4], vs[4]), DelOp(ks[4]), DelOp(ks[3])},
			parentView: []Model{Pair(ks[3], vs[3]), Pair(ks[4], nil)},
			childView:  []Model{Pair(ks[3], nil), Pair(ks[4], nil)},
		},
		"delete then set in the child is a plain set": {
			parent:     []Op{SetOp(ks[5], vs[5])},
			child:      []Op{DelOp(ks[5]), SetOp(ks[5], vs[0])},
			parentView: []Model{Pair(ks[5], vs[5])},
			childView:  []Model{Pair(ks[5], vs[0])},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.stores()
			defer cleanup()
			for _, op := range tc.parent {
				assert.Nil(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.child {
				assert.Nil(t, op.Apply(child))
			}

			for _, m := range tc.parentView {
				AssertGetHas(t, parent, m.Key, m.Value, m.Value != nil)
			}
			for _, m := range tc.childView {
				AssertGetHas(t, child, m.Key, m.Value, m.Value != nil)
			}

			assert.Nil(t, child.Write())
			for _, m := range tc.childView {
				AssertGetHas(t, parent, m.Key, m.Value, m.Value != nil)
			}
		})
	}
}

// Iteration checks ranges over a cache merged with its parent, in both
// directions.
func (s *Suite) Iteration(t *testing.T) {
	const size = 40

	own := genModels("child", size)
	stale := genModels("child deleted", 10)
	inherited := genModels("parent", size)
	merged := sortModels(append(append([]Model{}, own...), inherited...))
	own = sortModels(own)

	shadowed := genModels("shadowed", 4)
	rewritten := []Model{Pair(shadowed[0].Key, shadowed[3].Value), Pair(shadowed[1].Key, shadowed[3].Value)}

	cases := map[string]struct {
		parent  []Op
		child   []Op
		queries []rangeQuery
	}{
		"child only": {
			child: append(setOps(own...), delOps(stale...)...),
			queries: []rangeQuery{
				{want: own},
				{start: own[10].Key, want: own[10:]},
				{end: own[size-8].Key, want: own[:size-8]},
				{start: own[17].Key, end: own[28].Key, want: own[17:28]},
				{reverse: true, want: reverse(own)},
				{start: own[31].Key, reverse: true, want: reverse(own[31:])},
				{start: own[6].Key, end: own[26].Key, reverse: true, want: reverse(own[6:26])},
			},
		},
		"parent only": {
			parent: setOps(inherited...),
			queries: []rangeQuery{
				{want: sortModels(inherited)},
				{reverse: true, want: reverse(sortModels(inherited))},
			},
		},
		"child merged with parent": {
			parent: append(setOps(inherited...), delOps(stale...)...),
			child:  setOps(own...),
			queries: []rangeQuery{
				{want: merged},
				{start: merged[10].Key, want: merged[10:]},
				{start: merged[17].Key, end: merged[58].Key, want: merged[17:58]},
				{reverse: true, want: reverse(merged)},
				{end: merged[19].Key, reverse: true, want: reverse(merged[:19])},
			},
		},
		"child values shadow parent values": {
			parent: setOps(shadowed[:3]...),
			child:  append(setOps(rewritten...), DelOp(shadowed[2].Key)),
			queries: []rangeQuery{
				{want: sortModels(rewritten)},
				{reverse: true, want: reverse(sortModels(rewritten))},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.stores()
			defer cleanup()
			for _, op := range tc.parent {
				assert.Nil(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.child {
				assert.Nil(t, op.Apply(child))
			}
			for i, q := range tc.queries {
				q.check(t, fmt.Sprintf("query %d", i), child)
			}
		})
	}
}

// Snapshot checks that a snapshot keeps showing the version it was taken
// at, whatever is written or committed afterwards.
func (s *Suite) Snapshot(t *testing.T) {
	db, cleanup := s.commits()
	defer cleanup()
	alice, bob := []byte("alice"), []byte("bob")

	empty, err := db.Snapshot()
	assert.Nil(t, err)
	AssertGetHas(t, empty, alice, nil, false)

	block := db.CacheWrap()
	assert.Nil(t, block.Set(alice, []byte("100")))
	assert.Nil(t, block.Write())
	// written but not committed
	snap, err := db.Snapshot()
	assert.Nil(t, err)
	AssertGetHas(t, snap, alice, nil, false)

	first, err := db.Commit()
	assert.Nil(t, err)
	v1, err := db.Snapshot()
	assert.Nil(t, err)
	AssertGetHas(t, v1, alice, []byte("100"), true)

	block = db.CacheWrap()
	assert.Nil(t, block.Set(alice, []byte("70")))
	assert.Nil(t, block.Set(bob, []byte("30")))
	assert.Nil(t, block.Write())
	AssertGetHas(t, v1, alice, []byte("100"), true)

	second, err := db.Commit()
	assert.Nil(t, err)
	if bytes.Equal(first.Hash, second.Hash) {
		t.Fatal("a new version must have a new hash")
	}
	assert.Equal(t, first.Version+1, second.Version)

	AssertGetHas(t, v1, alice, []byte("100"), true)
	AssertGetHas(t, v1, bob, nil, false)
	rangeQuery{want: []Model{Pair(alice, []byte("100"))}}.check(t, "first version", v1)

	v2, err := db.Snapshot()
	assert.Nil(t, err)
	rangeQuery{want: []Model{Pair(alice, []byte("70")), Pair(bob, []byte("30"))}}.check(t, "second version", v2)
}

// AssertGetHas checks both Get and Has return values for given key.
func AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	if !bytes.Equal(val, got) {
		t.Fatalf("key %X: want %X value, got %X", key, val, got)
	}
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

// genKeys returns count distinct keys of given size. The same label always
// produces the same keys.
func genKeys(label string, count, size int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		var key []byte
		for n := 0; len(key) < size; n++ {
			key = append(key, ledger.Hash([]byte(fmt.Sprintf("%s %d %d", label, i, n)))...)
		}
		res[i] = key[:size]
	}
	return res
}

func genModels(label string, count int) []Model {
	keys := genKeys(label, count, 12)
	values := genKeys(label+" value", count, 32)
	res := make([]Model, count)
	for i := range res {
		res[i] = Pair(keys[i], values[i])
	}
	return res
}

// rangeQuery is an iteration over [start, end) and the models it must
// return, in order.
type rangeQuery struct {
	start, end []byte
	reverse    bool
	want       []Model
}

func (q rangeQuery) check(t testing.TB, name string, db ReadOnlyKVStore) {
	t.Helper()
	var (
		it  Iterator
		err error
	)
	if q.reverse {
		it, err = db.ReverseIterator(q.start, q.end)
	} else {
		it, err = db.Iterator(q.start, q.end)
	}
	assert.Nil(t, err)
	defer it.Release()

	for i, m := range q.want {
		key, value, err := it.Next()
		assert.Nil(t, err)
		if !bytes.Equal(m.Key, key) || !bytes.Equal(m.Value, value) {
			t.Fatalf("%s: item %d: want %X=%X, got %X=%X", name, i, m.Key, m.Value, key, value)
		}
	}
	if _, _, err := it.Next(); !errors.ErrIteratorDone.Is(err) {
		t.Fatalf("%s: want ErrIteratorDone after %d items, got %+v", name, len(q.want), err)
	}
}

func reverse(models []Model) []Model {
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}

func sortModels(models []Model) []Model {
	res := append([]Model(nil), models...)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func setOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func delOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
