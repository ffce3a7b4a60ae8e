package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/store"
	"github.com/iov-one/ledger/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

func TestActionTagger(t *testing.T) {
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "wallet/issue"}}
	ctx := context.Background()
	db := store.MemStore()
	tagger := NewActionTagger()

	h := &weavetest.Handler{}
	res, err := tagger.Deliver(ctx, db, tx, h)
	require.NoError(t, err)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, []byte(ActionKey), res.Tags[0].Key)
	assert.Equal(t, []byte("wallet/issue"), res.Tags[0].Value)

	_, err = tagger.Check(ctx, db, tx, h)
	require.NoError(t, err)

	failing := &weavetest.Handler{DeliverErr: fmt.Errorf("nope")}
	_, err = tagger.Deliver(ctx, db, tx, failing)
	assert.Error(t, err)

	broken := &weavetest.Tx{Err: fmt.Errorf("no msg")}
	_, err = tagger.Deliver(ctx, db, broken, h)
	assert.Error(t, err)
	assert.Equal(t, 1, h.DeliverCallCount())
}

type taggedMsg struct {
	weavetest.Msg
	account string
}

func (m *taggedMsg) Tags() []common.KVPair {
	return []common.KVPair{{Key: []byte("wallet.to"), Value: []byte(m.account)}}
}

func TestActionTaggerMsgTags(t *testing.T) {
	msg := &taggedMsg{Msg: weavetest.Msg{RoutePath: "wallet/issue"}, account: "alice"}
	tx := &weavetest.Tx{Msg: msg}

	res, err := NewActionTagger().Deliver(context.Background(), store.MemStore(), tx, &weavetest.Handler{})
	require.NoError(t, err)
	want := []common.KVPair{
		{Key: []byte(ActionKey), Value: []byte("wallet/issue")},
		{Key: []byte("wallet.to"), Value: []byte("alice")},
	}
	assert.Equal(t, want, res.Tags)

	_, err = NewActionTagger().Deliver(context.Background(), store.MemStore(), tx, &weavetest.Handler{DeliverErr: fmt.Errorf("nope")})
	assert.Error(t, err)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewTMLogger(log.NewSyncWriter(&buf))
	ctx := ledger.WithLogger(context.Background(), logger)
	db := store.MemStore()

	l := NewLogging()
	_, err := l.Deliver(ctx, db, nil, &weavetest.Handler{DeliverResult: ledger.DeliverResult{Log: "all good"}})
	require.NoError(t, err)
	_, err = l.Deliver(ctx, db, nil, &weavetest.Handler{DeliverErr: fmt.Errorf("went wrong")})
	require.Error(t, err)

	out := buf.String()
	assert.True(t, strings.Contains(out, "all good"), out)
	assert.True(t, strings.Contains(out, "went wrong"), out)
	assert.True(t, strings.Contains(out, "duration"), out)
}
