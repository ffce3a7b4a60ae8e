package app

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

// ResultSet holds the keys or the values returned by a query. Key and Value
// of an abci query response are always a serialized ResultSet of the same
// size.
type ResultSet struct {
	Results [][]byte `json:"results"`
}

// Marshal returns the binary representation of the set.
func (rs *ResultSet) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(rs)
}

// Unmarshal loads the set from its binary representation. An empty set is
// serialized to no bytes at all.
func (rs *ResultSet) Unmarshal(raw []byte) error {
	if len(raw) == 0 {
		rs.Results = nil
		return nil
	}
	return cdc.UnmarshalBinaryBare(raw, rs)
}

// ResultsFromKeys returns a ResultSet of all keys
// given a set of models
func ResultsFromKeys(models []ledger.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Key
	}
	return &ResultSet{Results: res}
}

// ResultsFromValues returns a ResultSet of all values
// given a set of models
func ResultsFromValues(models []ledger.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Value
	}
	return &ResultSet{Results: res}
}

// JoinResults inverts ResultsFromKeys and ResultsFromValues
// and makes then a consistent whole again
func JoinResults(keys, values *ResultSet) ([]ledger.Model, error) {
	kref, vref := keys.Results, values.Results
	if len(kref) != len(vref) {
		return nil, errors.Wrapf(errors.ErrInput, "%d keys for %d values", len(kref), len(vref))
	}
	mods := make([]ledger.Model, len(kref))
	for i := range mods {
		mods[i] = ledger.Pair(kref[i], vref[i])
	}
	return mods, nil
}

// UnmarshalOneResult will parse a resultset, and
// it if is not empty, unmarshal the first result into o
func UnmarshalOneResult(bz []byte, o ledger.Persistent) error {
	var res ResultSet
	if err := res.Unmarshal(bz); err != nil {
		return errors.Wrapf(errors.ErrInput, "result set: %s", err)
	}
	if len(res.Results) == 0 {
		return nil
	}
	return o.Unmarshal(res.Results[0])
}

// ParseQueryResponse joins the keys and values of a query response.
func ParseQueryResponse(keys, values []byte) ([]ledger.Model, error) {
	var k, v ResultSet
	if err := k.Unmarshal(keys); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot unmarshal keys: %s", err)
	}
	if err := v.Unmarshal(values); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot unmarshal values: %s", err)
	}
	return JoinResults(&k, &v)
}
