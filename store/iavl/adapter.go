package iavl

import (
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

const (
	// DefaultHistory is how many committed versions are kept on disk.
	DefaultHistory = 2

	defaultCacheSize = 10000
)

// CommitStore manages a iavl committed state.
//
// The merkle root of the tree after every commit authenticates the complete
// ledger state, including the state digests computed by the orm layer.
type CommitStore struct {
	tree *iavl.MutableTree
	// numHistory is how many versions are kept. Zero keeps everything.
	numHistory int64
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store with a goleveldb backing, stored in
// given directory.
func NewCommitStore(path, name string) CommitStore {
	db, err := dbm.NewGoLevelDB(name, path)
	if err != nil {
		panic(err)
	}
	return newCommitStore(db)
}

// MockCommitStore creates a new in-memory store. Use it for testing.
func MockCommitStore() CommitStore {
	return newCommitStore(dbm.NewMemDB())
}

func newCommitStore(db dbm.DB) CommitStore {
	return CommitStore{
		tree:       iavl.NewMutableTree(db, defaultCacheSize),
		numHistory: DefaultHistory,
	}
}

// Get returns the value at last committed state. Returns nil iff key
// doesn't exist.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	version := s.tree.Version()
	if version == 0 {
		return nil, nil
	}
	_, val := s.tree.GetVersioned(key, version)
	return val, nil
}

// Commit the next version to disk, and returns info. Old versions beyond the
// history limit are removed.
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}

	if s.numHistory > 0 {
		if old := version - s.numHistory; old > 0 && s.tree.VersionExists(old) {
			if err := s.tree.DeleteVersion(old); err != nil {
				return store.CommitID{}, errors.Wrapf(errors.ErrDatabase, "delete version %d: %s", old, err)
			}
		}
	}

	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version. If there was a crash
// during the last commit, it is guaranteed to return a stable state, even if
// older.
func (s CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk.
func (s CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// Snapshot returns a read only view of the last committed version. It is not
// affected by any later modification or commit and can be shared between
// goroutines.
func (s CommitStore) Snapshot() (store.ReadOnlyKVStore, error) {
	version := s.tree.Version()
	if version == 0 {
		return store.EmptyKVStore{}, nil
	}
	tree, err := s.tree.GetImmutable(version)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "version %d: %s", version, err)
	}
	return snapshot{tree: tree}, nil
}

// CacheWrap wraps the uncommitted working tree with a btree cache. Writing
// the cache modifies the working tree, Commit persists it.
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	return s.Adapter().CacheWrap()
}

// Adapter returns a wrapped version of the tree.
//
// Data written here is stored in the tree, but not persisted until Commit
// is called.
func (s CommitStore) Adapter() store.CacheableKVStore {
	return adapter{tree: s.tree}
}

// adapter converts the working tree into a KVStore.
type adapter struct {
	tree *iavl.MutableTree
}

var _ store.CacheableKVStore = adapter{}

// Get returns nil iff key doesn't exist.
func (a adapter) Get(key []byte) ([]byte, error) {
	_, val := a.tree.Get(key)
	return val, nil
}

// Has checks if a key exists.
func (a adapter) Has(key []byte) (bool, error) {
	return a.tree.Has(key), nil
}

// Set adds a new value.
func (a adapter) Set(key, value []byte) error {
	a.tree.Set(key, value)
	return nil
}

// Delete removes from the tree.
func (a adapter) Delete(key []byte) error {
	a.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that can write multiple ops to the tree.
func (a adapter) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(a)
}

// CacheWrap wraps us with a btree.
func (a adapter) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(a, a.NewBatch(), nil)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (a adapter) Iterator(start, end []byte) (store.Iterator, error) {
	return collect(a.tree.ImmutableTree, start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is
// exclusive.
func (a adapter) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return collect(a.tree.ImmutableTree, start, end, false), nil
}

// snapshot is a read only view of a committed version.
type snapshot struct {
	tree *iavl.ImmutableTree
}

var _ store.ReadOnlyKVStore = snapshot{}

func (s snapshot) Get(key []byte) ([]byte, error) {
	_, val := s.tree.Get(key)
	return val, nil
}

func (s snapshot) Has(key []byte) (bool, error) {
	return s.tree.Has(key), nil
}

func (s snapshot) Iterator(start, end []byte) (store.Iterator, error) {
	return collect(s.tree, start, end, true), nil
}

func (s snapshot) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return collect(s.tree, start, end, false), nil
}

// collect loads all models within the range. The tree does not expose a
// cursor, so the result is preloaded.
func collect(tree *iavl.ImmutableTree, start, end []byte, ascending bool) store.Iterator {
	var res []store.Model
	tree.IterateRange(start, end, ascending, func(key []byte, value []byte) bool {
		res = append(res, store.Pair(key, value))
		return false
	})
	return store.NewSliceIterator(res)
}
