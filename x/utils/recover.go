package utils

import (
	"fmt"
	"runtime/debug"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
)

// Recovery is a decorator that turns a panic of the wrapped handler into an
// errors.ErrPanic rejection and logs it together with the stack.
//
// A panic signals a broken contract inside of a handler. As long as a
// Savepoint is below the Recovery in the stack, none of the changes made by
// the panicking operation are kept.
type Recovery struct{}

var _ ledger.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (r Recovery) Check(ctx ledger.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Checker) (_ *ledger.CheckResult, err error) {
	defer handlePanic(ctx, tx, &err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors
func (r Recovery) Deliver(ctx ledger.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (_ *ledger.DeliverResult, err error) {
	defer handlePanic(ctx, tx, &err)
	return next.Deliver(ctx, store, tx)
}

// handlePanic must be deferred, recover returns nil otherwise.
func handlePanic(ctx ledger.Context, tx ledger.Tx, err *error) {
	p := recover()
	if p == nil {
		return
	}
	*err = errors.Wrapf(errors.ErrPanic, "%v", p)

	info := []interface{}{"panic", fmt.Sprint(p), "path", msgPath(tx)}
	if hash, ok := ledger.GetTxHash(ctx); ok {
		info = append(info, "tx", fmt.Sprintf("%X", hash))
	}
	info = append(info, "stack", string(debug.Stack()))
	ledger.GetLogger(ctx).Error("Operation panicked", info...)
}

// msgPath returns the route of the message carried by tx, or an empty
// string if there is none.
func msgPath(tx ledger.Tx) string {
	if tx == nil {
		return ""
	}
	msg, err := tx.GetMsg()
	if err != nil || msg == nil {
		return ""
	}
	return msg.Path()
}
