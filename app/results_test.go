package app

import (
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/weavetest/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSet(t *testing.T) {
	models := []ledger.Model{
		ledger.Pair([]byte("alice"), []byte("100")),
		ledger.Pair([]byte("bob"), []byte("42")),
	}

	keys, err := ResultsFromKeys(models).Marshal()
	require.NoError(t, err)
	values, err := ResultsFromValues(models).Marshal()
	require.NoError(t, err)

	got, err := ParseQueryResponse(keys, values)
	require.NoError(t, err)
	assert.Equal(t, models, got)

	// an empty response has no models
	got, err = ParseQueryResponse(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, len(got))

	// keys and values must pair up
	_, err = ParseQueryResponse(keys, nil)
	assert.IsErr(t, errors.ErrInput, err)

	_, err = ParseQueryResponse([]byte{0xff, 0x01}, values)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestJoinResults(t *testing.T) {
	keys := &ResultSet{Results: [][]byte{[]byte("a"), []byte("b")}}
	values := &ResultSet{Results: [][]byte{[]byte("1"), []byte("2")}}

	models, err := JoinResults(keys, values)
	require.NoError(t, err)
	assert.Equal(t, []ledger.Model{
		ledger.Pair([]byte("a"), []byte("1")),
		ledger.Pair([]byte("b"), []byte("2")),
	}, models)

	_, err = JoinResults(keys, &ResultSet{})
	assert.IsErr(t, errors.ErrInput, err)
}

// rawValue keeps the serialized form it was loaded from.
type rawValue struct {
	raw []byte
}

func (v *rawValue) Marshal() ([]byte, error) {
	return v.raw, nil
}

func (v *rawValue) Unmarshal(raw []byte) error {
	v.raw = raw
	return nil
}

func TestUnmarshalOneResult(t *testing.T) {
	set := &ResultSet{Results: [][]byte{[]byte("first"), []byte("second")}}
	raw, err := set.Marshal()
	require.NoError(t, err)

	var v rawValue
	require.NoError(t, UnmarshalOneResult(raw, &v))
	assert.Equal(t, []byte("first"), v.raw)

	// nothing is loaded from an empty set
	var empty rawValue
	require.NoError(t, UnmarshalOneResult(nil, &empty))
	assert.Nil(t, empty.raw)
}
