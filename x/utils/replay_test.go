package utils

import (
	"context"
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/app"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/store"
	"github.com/iov-one/ledger/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockCtx(height int64, txBytes string) ledger.Context {
	ctx := ledger.WithHeight(context.Background(), height)
	return ledger.WithTxHash(ctx, ledger.Hash([]byte(txBytes)))
}

func TestReplay(t *testing.T) {
	db := store.MemStore()
	r := NewReplay()
	h := &weavetest.Handler{}
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "wallet/issue"}}

	first := blockCtx(3, "issue 50 to alice")
	_, err := r.Check(first, db, tx, h)
	require.NoError(t, err)
	// check leaves no record behind
	_, err = r.Check(first, db, tx, h)
	require.NoError(t, err)

	_, err = r.Deliver(first, db, tx, h)
	require.NoError(t, err)
	assert.Equal(t, 1, h.DeliverCallCount())

	// same bytes in a later block
	again := blockCtx(4, "issue 50 to alice")
	_, err = r.Deliver(again, db, tx, h)
	assert.True(t, errors.ErrReplay.Is(err), "%+v", err)
	_, err = r.Check(again, db, tx, h)
	assert.True(t, errors.ErrReplay.Is(err), "%+v", err)
	assert.Equal(t, 1, h.DeliverCallCount())
	assert.Equal(t, 2, h.CheckCallCount())

	// other bytes go through
	_, err = r.Deliver(blockCtx(4, "issue 50 to alice, seed 1"), db, tx, h)
	require.NoError(t, err)
	assert.Equal(t, 2, h.DeliverCallCount())
}

func TestReplayRecordsFailures(t *testing.T) {
	db := store.MemStore()
	r := NewReplay()
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "wallet/transfer"}}

	failing := &weavetest.Handler{DeliverErr: errors.ErrAmount}
	_, err := r.Deliver(blockCtx(7, "transfer"), db, tx, failing)
	assert.True(t, errors.ErrAmount.Is(err))

	h := &weavetest.Handler{}
	_, err = r.Deliver(blockCtx(8, "transfer"), db, tx, h)
	assert.True(t, errors.ErrReplay.Is(err))
	assert.Equal(t, 0, h.DeliverCallCount())

	var applied AppliedTx
	require.NoError(t, appliedBucket().One(db, ledger.Hash([]byte("transfer")), &applied))
	assert.Equal(t, AppliedTx{Height: 7, Failed: true}, applied)
}

func TestReplayAboveSavepoint(t *testing.T) {
	db := store.MemStore()
	stack := app.ChainDecorators(NewReplay(), NewSavepoint().OnDeliver())
	failing := &weavetest.Handler{Write: []byte("partial"), DeliverErr: errors.ErrAmount}
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "wallet/transfer"}}

	_, err := stack.WithHandler(failing).Deliver(blockCtx(2, "transfer"), db, tx)
	assert.True(t, errors.ErrAmount.Is(err))

	// the handler changes are dropped, the record is kept
	written, err := db.Has([]byte("partial"))
	require.NoError(t, err)
	assert.False(t, written)
	ok, err := appliedBucket().Has(db, ledger.Hash([]byte("transfer")))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReplayRequiresDigest(t *testing.T) {
	db := store.MemStore()
	h := &weavetest.Handler{}
	ctx := ledger.WithHeight(context.Background(), 1)

	_, err := NewReplay().Deliver(ctx, db, nil, h)
	assert.True(t, errors.ErrHuman.Is(err))
	assert.Equal(t, 0, h.DeliverCallCount())
}

func TestReplayQuery(t *testing.T) {
	db := store.MemStore()
	_, err := NewReplay().Deliver(blockCtx(5, "create"), db, nil, &weavetest.Handler{})
	require.NoError(t, err)

	qr := ledger.NewQueryRouter()
	RegisterQuery(qr)
	qh := qr.Handler("/txs")
	require.NotNil(t, qh)

	models, err := qh.Query(db, ledger.KeyQueryMod, ledger.Hash([]byte("create")))
	require.NoError(t, err)
	require.Len(t, models, 1)
	var applied AppliedTx
	require.NoError(t, applied.Unmarshal(models[0].Value))
	assert.Equal(t, int64(5), applied.Height)

	models, err = qh.Query(db, ledger.KeyQueryMod, ledger.Hash([]byte("unknown")))
	require.NoError(t, err)
	assert.Empty(t, models)
}
