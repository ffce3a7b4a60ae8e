package orm

import (
	"github.com/iov-one/ledger/errors"
	amino "github.com/tendermint/go-amino"
)

var testCdc = amino.NewCodec()

// counter is a minimal model used by the bucket tests.
type counter struct {
	Name  string
	Count uint64
}

var _ Model = (*counter)(nil)

func (c *counter) Marshal() ([]byte, error) {
	return testCdc.MarshalBinaryBare(c)
}

func (c *counter) Unmarshal(raw []byte) error {
	return testCdc.UnmarshalBinaryBare(raw, c)
}

func (c *counter) Validate() error {
	if c.Name == "" {
		return errors.Field("Name", errors.ErrEmpty, "required")
	}
	return nil
}

func (c *counter) Copy() Model {
	cpy := *c
	return &cpy
}

// other is a model of a different type, used to test type checks.
type other struct {
	Value []byte
}

func (o *other) Marshal() ([]byte, error)     { return testCdc.MarshalBinaryBare(o) }
func (o *other) Unmarshal(raw []byte) error { return testCdc.UnmarshalBinaryBare(raw, o) }
func (o *other) Validate() error            { return nil }
func (o *other) Copy() Model                { cpy := *o; return &cpy }
