package wallet

import (
	"github.com/iov-one/ledger"
	amino "github.com/tendermint/go-amino"
)

// cdc serializes every wallet entity. Amino binary encoding is
// deterministic, which is required for the state to hash the same way on
// every node.
var cdc = amino.NewCodec()

func init() {
	RegisterAmino(cdc)
}

// RegisterAmino registers the wallet messages as implementations of the
// ledger.Msg interface, so that a transaction can carry any of them.
func RegisterAmino(cdc *amino.Codec) {
	cdc.RegisterInterface((*ledger.Msg)(nil), nil)
	cdc.RegisterConcrete(&CreateAccountMsg{}, "wallet/CreateAccountMsg", nil)
	cdc.RegisterConcrete(&IssueMsg{}, "wallet/IssueMsg", nil)
	cdc.RegisterConcrete(&TransferMsg{}, "wallet/TransferMsg", nil)
}
