package wallet

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/gconf"
)

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ ledger.Initializer = (*Initializer)(nil)

// FromGenesis stores the wallet configuration declared in the genesis file.
// Fields missing from the genesis keep their default value. Without any
// wallet configuration, the default one applies.
func (*Initializer) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	conf := DefaultConfiguration()
	err := gconf.InitConfig(db, opts, ConfigPkg, &conf)
	if errors.ErrNotFound.Is(err) {
		return nil
	}
	return err
}
