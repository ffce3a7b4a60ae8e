package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type echoQuery struct{}

func (echoQuery) Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error) {
	return []Model{Pair([]byte(mod), data)}, nil
}

func TestQueryRouter(t *testing.T) {
	r := NewQueryRouter()
	r.RegisterAll(func(qr QueryRouter) {
		qr.Register("/echo", echoQuery{})
	})

	assert.Nil(t, r.Handler("/missing"))

	h := r.Handler("/echo")
	if assert.NotNil(t, h) {
		res, err := h.Query(nil, PrefixQueryMod, []byte("data"))
		assert.NoError(t, err)
		assert.Equal(t, []Model{{Key: []byte("prefix"), Value: []byte("data")}}, res)
	}

	assert.Panics(t, func() { r.Register("/echo", echoQuery{}) })
}
