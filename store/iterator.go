package store

import (
	"bytes"

	"github.com/iov-one/ledger/errors"
)

// source marks where the next item comes from
type source int32

const (
	us source = iota
	parent
	both
)

// cacheIterator combines the items of a cache wrap with the iterator of the
// store it is wrapping. Items of the cache take precedence and deleted items
// hide the parent value.
type cacheIterator struct {
	// items are the btree items in the order of iteration.
	items []keyer

	parent     Iterator
	parentKey  []byte
	parentVal  []byte
	parentDone bool

	reverse bool
}

var _ Iterator = (*cacheIterator)(nil)

func newCacheIterator(items []keyer, p Iterator, reverse bool) (*cacheIterator, error) {
	it := &cacheIterator{
		items:   items,
		parent:  p,
		reverse: reverse,
	}
	if err := it.advanceParent(); err != nil {
		p.Release()
		return nil, err
	}
	return it, nil
}

func (i *cacheIterator) advanceParent() error {
	key, value, err := i.parent.Next()
	switch {
	case err == nil:
		i.parentKey, i.parentVal = key, value
	case errors.ErrIteratorDone.Is(err):
		i.parentKey, i.parentVal = nil, nil
		i.parentDone = true
	default:
		return errors.Wrap(err, "parent iterator")
	}
	return nil
}

// Next returns the next key in the order of iteration. Deleted items are
// skipped.
func (i *cacheIterator) Next() ([]byte, []byte, error) {
	for {
		if len(i.items) == 0 && i.parentDone {
			return nil, nil, errors.ErrIteratorDone
		}

		switch i.firstKey() {
		case parent:
			key, value := i.parentKey, i.parentVal
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		case both:
			// Our value shadows the parent one.
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
		}

		item := i.items[0]
		i.items = i.items[1:]
		if s, ok := item.(setItem); ok {
			return s.key, s.value, nil
		}
	}
}

// Release releases the Iterator.
func (i *cacheIterator) Release() {
	i.parent.Release()
	i.items = nil
	i.parentDone = true
}

// firstKey selects the source with the next key in the order of iteration.
// At least one source must not be exhausted.
func (i *cacheIterator) firstKey() source {
	if i.parentDone {
		return us
	}
	if len(i.items) == 0 {
		return parent
	}

	cmp := bytes.Compare(i.parentKey, i.items[0].Key())
	if i.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}
