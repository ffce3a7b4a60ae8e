package utils

import (
	"github.com/iov-one/ledger"
	"github.com/tendermint/tendermint/libs/common"
)

// ActionKey is the key of the tag that carries the message path.
const ActionKey = "action"

// Tagged is implemented by messages that name the entities they touch, for
// example the accounts of a transfer. Clients can then search or subscribe
// to the operations of one account.
type Tagged interface {
	Tags() []common.KVPair
}

// ActionTagger is a decorator that tags every successful delivery with
// `action = msg.Path()`, and with the tags of a Tagged message.
type ActionTagger struct{}

var _ ledger.Decorator = ActionTagger{}

// NewActionTagger creates a ActionTagger decorator
func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

// Check just passes the request along
func (ActionTagger) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

// Deliver appends the tags on the result if there is a success. A failed
// operation is not tagged.
func (ActionTagger) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	// a message that cannot be read is refused before dispatching
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}

	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.Tags = append(res.Tags, common.KVPair{
		Key:   []byte(ActionKey),
		Value: []byte(msg.Path()),
	})
	if t, ok := msg.(Tagged); ok {
		res.Tags = append(res.Tags, t.Tags()...)
	}
	return res, nil
}
