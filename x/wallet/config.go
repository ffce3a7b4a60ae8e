package wallet

import (
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/gconf"
)

const (
	// ConfigPkg is the name the wallet configuration is stored under.
	ConfigPkg = "wallet"

	// InitialBalance is the balance of every new account unless the
	// configuration says otherwise.
	InitialBalance uint64 = 100
)

// ApprovalPolicy declares how the approvals of a transfer are counted.
type ApprovalPolicy string

const (
	// ApprovalDistinct counts each signer of the sender account at most
	// once. A signer approving the same transfer again is rejected.
	ApprovalDistinct ApprovalPolicy = "distinct"

	// ApprovalCount counts every submission, no matter who signed it. A
	// single signer can reach the quorum alone by submitting the same
	// transfer several times. It exists to replay histories recorded with
	// this behaviour.
	ApprovalCount ApprovalPolicy = "count"
)

// Configuration of the wallet extension. It is loaded from the genesis
// file under app_state.conf.wallet.
type Configuration struct {
	InitialBalance uint64         `json:"initial_balance"`
	ApprovalPolicy ApprovalPolicy `json:"approval_policy"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// DefaultConfiguration is used when the genesis did not declare any wallet
// configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		InitialBalance: InitialBalance,
		ApprovalPolicy: ApprovalDistinct,
	}
}

func (c *Configuration) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, c)
}

func (c *Configuration) Validate() error {
	switch c.ApprovalPolicy {
	case ApprovalDistinct, ApprovalCount:
	default:
		return errors.Field("ApprovalPolicy", errors.ErrInput, "unknown policy %q", c.ApprovalPolicy)
	}
	return nil
}

// loadConf returns the stored configuration or the default one if none was
// stored.
func loadConf(db gconf.ReadStore) (Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, ConfigPkg, &conf); {
	case err == nil:
		return conf, nil
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	default:
		return conf, errors.Wrap(err, "load configuration")
	}
}
