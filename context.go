package ledger

import (
	"context"
	"fmt"
	"regexp"

	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// Context is the information passed from the host to every handler.
//
// There exist two functions for every XYZ of type T that we want to support
// in Context:
//
//   WithXYZ(Context, T) Context
//   GetXYZ(Context) (val T, ok bool)
//
// WithXYZ panics if the value was previously set to avoid lower-level modules
// overwriting the value (eg. height, signer).
type Context = context.Context

type contextKey int // local to the ledger package

const (
	contextKeyHeader contextKey = iota
	contextKeyHeight
	contextKeyChainID
	contextKeyLogger
	contextKeySigner
	contextKeyTxHash
)

var (
	// DefaultLogger is used for all context that have not set anything
	// themselves.
	DefaultLogger = log.NewNopLogger()

	// IsValidChainID is the RegExp to ensure valid chain IDs.
	IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString
)

// WithHeader sets the block header for the Context. Panics if already set.
func WithHeader(ctx Context, header abci.Header) Context {
	if _, ok := GetHeader(ctx); ok {
		panic("Header already set")
	}
	return context.WithValue(ctx, contextKeyHeader, header)
}

// GetHeader returns the current block header. ok is false if no header is
// set in this Context.
func GetHeader(ctx Context) (abci.Header, bool) {
	val, ok := ctx.Value(contextKeyHeader).(abci.Header)
	return val, ok
}

// WithHeight sets the block height for the Context. Panics if already set.
func WithHeight(ctx Context, height int64) Context {
	if _, ok := GetHeight(ctx); ok {
		panic("Height already set")
	}
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current block height. If none was set, returns
// (0, false).
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithChainID sets the chain id for the Context. Panics if already set or
// if the value is not a valid chain id.
func WithChainID(ctx Context, chainID string) Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("Chain ID already set")
	}
	if !IsValidChainID(chainID) {
		panic(fmt.Sprintf("Invalid chain ID: %s", chainID))
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the current chain id. Panics if chain id not already
// set, which should never happen as the host sets it before any handler runs.
func GetChainID(ctx Context) string {
	val, _ := ctx.Value(contextKeyChainID).(string)
	if val == "" {
		panic("Must set ChainID in Context")
	}
	return val
}

// WithLogger sets the logger for this Context.
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another context like this,
// after passing all the keyvals to the Logger.
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or DefaultLogger if none was
// set.
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// WithSigner sets the public key of the party that signed the currently
// processed operation. The signature must be verified before the key is
// attached. Panics if already set.
func WithSigner(ctx Context, key PubKey) Context {
	if _, ok := GetSigner(ctx); ok {
		panic("Signer already set")
	}
	return context.WithValue(ctx, contextKeySigner, key)
}

// GetSigner returns the verified signer of the currently processed
// operation.
func GetSigner(ctx Context) (PubKey, bool) {
	val, ok := ctx.Value(contextKeySigner).(PubKey)
	return val, ok
}

// WithTxHash sets the digest of the currently processed operation. This is
// the value recorded in the history of every account whose balance changes.
// Panics if already set.
func WithTxHash(ctx Context, hash []byte) Context {
	if _, ok := GetTxHash(ctx); ok {
		panic("Tx hash already set")
	}
	return context.WithValue(ctx, contextKeyTxHash, hash)
}

// GetTxHash returns the digest of the currently processed operation.
func GetTxHash(ctx Context) ([]byte, bool) {
	val, ok := ctx.Value(contextKeyTxHash).([]byte)
	return val, ok
}
