package orm

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
)

// prefixRange turns a prefix into a (start, end) range. The end is the
// smallest key bigger than every key starting with the prefix, nil if there
// is none.
func prefixRange(prefix []byte) ([]byte, []byte) {
	start := append([]byte(nil), prefix...)
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return start, end[:i+1]
		}
	}
	return start, nil
}

// consumeIterator reads all remaining data and releases the iterator.
func consumeIterator(itr ledger.Iterator) ([]ledger.Model, error) {
	defer itr.Release()

	var res []ledger.Model
	for {
		key, value, err := itr.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res, nil
		}
		if err != nil {
			return nil, dbErr(err, "iterator")
		}
		res = append(res, ledger.Pair(key, value))
	}
}

// queryPrefix returns all models stored under given prefix, in key order.
func queryPrefix(db ledger.ReadOnlyKVStore, prefix []byte) ([]ledger.Model, error) {
	start, end := prefixRange(prefix)
	itr, err := db.Iterator(start, end)
	if err != nil {
		return nil, dbErr(err, "iterator")
	}
	return consumeIterator(itr)
}
