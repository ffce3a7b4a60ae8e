package iavl

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/ledger/store"
	"github.com/iov-one/ledger/weavetest/assert"
)

func makeCommitStore() (CommitStore, func()) {
	tmpDir, err := ioutil.TempDir("", "iavl-adapter-")
	if err != nil {
		panic(err)
	}
	close := func() { os.RemoveAll(tmpDir) }
	commit := NewCommitStore(tmpDir, "base")
	return commit, close
}

func TestCommitStore(t *testing.T) {
	adapters := func() (store.CacheableKVStore, func()) {
		commit, close := makeCommitStore()
		return commit.Adapter(), close
	}
	commits := func() (store.CommitKVStore, func()) {
		commit, close := makeCommitStore()
		if err := commit.LoadLatestVersion(); err != nil {
			close()
			panic(err)
		}
		return commit, close
	}
	store.NewSuite(adapters).WithCommit(commits).Run(t)
}

// TestCommitOverwrite checks that we commit properly and can
// add/overwrite/query in the next version.
func TestCommitOverwrite(t *testing.T) {
	commit, close := makeCommitStore()
	defer close()

	id, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), id.Version)
	if len(id.Hash) != 0 {
		t.Fatal("hash is not empty")
	}

	k1, k2, k3 := []byte("alice"), []byte("bob"), []byte("carol")

	parent := commit.CacheWrap()
	assert.Nil(t, parent.Set(k1, []byte("1")))
	assert.Nil(t, parent.Set(k2, []byte("2")))
	assert.Nil(t, parent.Write())

	// not committed yet
	got, err := commit.Get(k1)
	assert.Nil(t, err)
	assert.Nil(t, got)

	id1, err := commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(1), id1.Version)
	if len(id1.Hash) == 0 {
		t.Fatal("hash must not be empty")
	}
	got, err = commit.Get(k1)
	assert.Nil(t, err)
	assert.Equal(t, []byte("1"), got)

	child := commit.CacheWrap()
	assert.Nil(t, child.Set(k1, []byte("11")))
	assert.Nil(t, child.Delete(k2))
	assert.Nil(t, child.Set(k3, []byte("3")))
	assert.Nil(t, child.Write())

	id2, err := commit.Commit()
	assert.Nil(t, err)
	assert.Equal(t, int64(2), id2.Version)
	if string(id1.Hash) == string(id2.Hash) {
		t.Fatal("different content must result in a different hash")
	}

	latest, err := commit.LatestVersion()
	assert.Nil(t, err)
	assert.Equal(t, id2, latest)

	// the store reads the latest commit only
	got, err = commit.Get(k2)
	assert.Nil(t, err)
	assert.Nil(t, got)
	got, err = commit.Get(k3)
	assert.Nil(t, err)
	assert.Equal(t, []byte("3"), got)
}

func TestCommitHashIsDeterministic(t *testing.T) {
	build := func() []byte {
		commit := MockCommitStore()
		assert.Nil(t, commit.LoadLatestVersion())
		for _, k := range []string{"b", "a", "c"} {
			cache := commit.CacheWrap()
			assert.Nil(t, cache.Set([]byte(k), []byte("value of "+k)))
			assert.Nil(t, cache.Write())
		}
		id, err := commit.Commit()
		assert.Nil(t, err)
		return id.Hash
	}
	assert.Equal(t, build(), build())
}

func TestEmptySnapshot(t *testing.T) {
	commit := MockCommitStore()
	snap, err := commit.Snapshot()
	assert.Nil(t, err)
	got, err := snap.Get([]byte("anything"))
	assert.Nil(t, err)
	assert.Nil(t, got)
}

func TestHistoryPruning(t *testing.T) {
	commit := MockCommitStore()
	commit.numHistory = 1

	for i := 0; i < 3; i++ {
		cache := commit.CacheWrap()
		assert.Nil(t, cache.Set([]byte("counter"), []byte{byte(i)}))
		assert.Nil(t, cache.Write())
		_, err := commit.Commit()
		assert.Nil(t, err)
	}

	assert.Equal(t, false, commit.tree.VersionExists(1))
	assert.Equal(t, false, commit.tree.VersionExists(2))
	assert.Equal(t, true, commit.tree.VersionExists(3))

	got, err := commit.Get([]byte("counter"))
	assert.Nil(t, err)
	assert.Equal(t, []byte{2}, got)
}
