package app

import (
	"context"
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/store/iavl"
	"github.com/iov-one/ledger/weavetest"
	"github.com/iov-one/ledger/weavetest/assert"
	abci "github.com/tendermint/tendermint/abci/types"
)

// pathDecoder uses the raw transaction as the message path.
func pathDecoder(raw []byte) (ledger.Tx, error) {
	switch string(raw) {
	case "":
		return nil, errors.Wrap(errors.ErrInput, "empty transaction")
	case "panic":
		panic("cannot decode")
	}
	return &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: string(raw)}}, nil
}

// txHashHandler returns the transaction hash found in the context.
type txHashHandler struct{}

func (txHashHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	hash, _ := ledger.GetTxHash(ctx)
	return &ledger.CheckResult{Data: hash}, nil
}

func (txHashHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	hash, _ := ledger.GetTxHash(ctx)
	return &ledger.DeliverResult{Data: hash}, nil
}

func newTestBaseApp(t *testing.T, r *Router) BaseApp {
	t.Helper()
	s := NewStoreApp("test", iavl.MockCommitStore(), ledger.NewQueryRouter(), context.Background())
	s.InitChain(abci.RequestInitChain{ChainId: "test-chain"})
	return NewBaseApp(s, pathDecoder, r, false)
}

func TestBaseAppDispatch(t *testing.T) {
	r := NewRouter()
	r.Handle("hash", txHashHandler{})
	writer := &weavetest.Handler{
		Write:         []byte("written"),
		DeliverResult: ledger.DeliverResult{Log: "done"},
	}
	r.Handle("write", writer)
	r.Handle("reject", &weavetest.Handler{
		CheckErr:   errors.ErrAmount,
		DeliverErr: errors.ErrAmount,
	})
	b := newTestBaseApp(t, r)

	dres := b.DeliverTx([]byte("hash"))
	assert.Equal(t, uint32(0), dres.Code)
	assert.Equal(t, ledger.Hash([]byte("hash")), dres.Data)
	cres := b.CheckTx([]byte("hash"))
	assert.Equal(t, uint32(0), cres.Code)
	assert.Equal(t, ledger.Hash([]byte("hash")), cres.Data)

	dres = b.DeliverTx([]byte("write"))
	assert.Equal(t, uint32(0), dres.Code)
	assert.Equal(t, "done", dres.Log)
	v, err := b.DeliverStore().Get([]byte("written"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("written"), v)

	dres = b.DeliverTx([]byte("reject"))
	assert.Equal(t, errors.ErrAmount.ABCICode(), dres.Code)
	cres = b.CheckTx([]byte("reject"))
	assert.Equal(t, errors.ErrAmount.ABCICode(), cres.Code)

	dres = b.DeliverTx([]byte("unknown"))
	assert.Equal(t, errors.ErrNotFound.ABCICode(), dres.Code)
}

func TestBaseAppDecodeFailure(t *testing.T) {
	b := newTestBaseApp(t, NewRouter())

	dres := b.DeliverTx(nil)
	assert.Equal(t, errors.ErrInput.ABCICode(), dres.Code)
	cres := b.CheckTx(nil)
	assert.Equal(t, errors.ErrInput.ABCICode(), cres.Code)

	// A panicking decoder rejects the transaction without stopping the
	// node.
	dres = b.DeliverTx([]byte("panic"))
	assert.Equal(t, errors.ErrPanic.ABCICode(), dres.Code)
}

func TestBaseAppDatabaseFailureIsFatal(t *testing.T) {
	r := NewRouter()
	r.Handle("broken", &weavetest.Handler{
		CheckErr:   errors.Wrap(errors.ErrDatabase, "disk is gone"),
		DeliverErr: errors.Wrap(errors.ErrDatabase, "disk is gone"),
	})
	b := newTestBaseApp(t, r)

	assert.PanicsWith(t, errors.ErrDatabase, func() { b.DeliverTx([]byte("broken")) })
	assert.PanicsWith(t, errors.ErrDatabase, func() { b.CheckTx([]byte("broken")) })
}
