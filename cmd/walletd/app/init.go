package app

import (
	"encoding/json"
	"strconv"

	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x/wallet"
)

// GenInitOptions produces the app_state of a new chain. The optional
// arguments are the initial balance of new accounts and the approval
// policy, the defaults are used for anything missing.
func GenInitOptions(args []string) (json.RawMessage, error) {
	conf := wallet.DefaultConfiguration()
	if len(args) > 0 {
		n, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "initial balance %q", args[0])
		}
		conf.InitialBalance = n
	}
	if len(args) > 1 {
		conf.ApprovalPolicy = wallet.ApprovalPolicy(args[1])
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	state := map[string]interface{}{
		"conf": map[string]interface{}{
			wallet.ConfigPkg: conf,
		},
	}
	return json.MarshalIndent(state, "", "  ")
}
