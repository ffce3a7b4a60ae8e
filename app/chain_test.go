package app

import (
	"context"
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/weavetest"
	"github.com/iov-one/ledger/x/utils"
	"github.com/stretchr/testify/assert"
)

// countingDecorator counts every call going in and every result coming out.
type countingDecorator struct {
	count int
}

var _ ledger.Decorator = (*countingDecorator)(nil)

func (c *countingDecorator) Check(ctx ledger.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	c.count++
	res, err := next.Check(ctx, store, tx)
	c.count++
	return res, err
}

func (c *countingDecorator) Deliver(ctx ledger.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	c.count++
	res, err := next.Deliver(ctx, store, tx)
	c.count++
	return res, err
}

// panicAtHeight panics if the context height is at least the configured one.
type panicAtHeight int64

func (p panicAtHeight) Check(ctx ledger.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	if h, _ := ledger.GetHeight(ctx); h >= int64(p) {
		panic("too high")
	}
	return next.Check(ctx, store, tx)
}

func (p panicAtHeight) Deliver(ctx ledger.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	if h, _ := ledger.GetHeight(ctx); h >= int64(p) {
		panic("too high")
	}
	return next.Deliver(ctx, store, tx)
}

func TestChain(t *testing.T) {
	c1 := &countingDecorator{}
	c2 := &countingDecorator{}
	c3 := &countingDecorator{}
	h := &weavetest.Handler{}

	var missing *countingDecorator
	stack := ChainDecorators(
		c1,
		utils.NewLogging(),
		utils.NewRecovery(),
		missing,
		c2,
		panicAtHeight(6),
		c3,
	).WithHandler(h)

	bg := context.Background()

	// make some calls, make sure it is fine
	_, err := stack.Check(bg, nil, nil)
	assert.NoError(t, err)
	ctx := ledger.WithHeight(bg, 4)
	_, err = stack.Deliver(ctx, nil, nil)
	assert.NoError(t, err)

	// decorators are counted double, once in, once out
	assert.Equal(t, 4, c1.count)
	assert.Equal(t, 4, c2.count)
	assert.Equal(t, 4, c3.count)
	assert.Equal(t, 2, h.CallCount())

	// now, let's trigger a panic
	ctx = ledger.WithHeight(bg, 8)
	_, err = stack.Check(ctx, nil, nil)
	assert.True(t, errors.ErrPanic.Is(err))
	_, err = stack.Deliver(ctx, nil, nil)
	assert.True(t, errors.ErrPanic.Is(err))

	assert.Equal(t, 8, c1.count)
	// c2 is called twice in, but not out
	assert.Equal(t, 6, c2.count)
	// and those two ins don't make it to c3 due to panic
	assert.Equal(t, 4, c3.count)
	assert.Equal(t, 2, h.CallCount())
}

func TestChainExtends(t *testing.T) {
	c1 := &countingDecorator{}
	c2 := &countingDecorator{}
	base := ChainDecorators(c1)
	extended := base.Chain(c2)

	_, err := base.WithHandler(&weavetest.Handler{}).Deliver(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, c1.count)
	assert.Equal(t, 0, c2.count)

	_, err = extended.WithHandler(&weavetest.Handler{}).Deliver(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 4, c1.count)
	assert.Equal(t, 2, c2.count)
}
