/*
Package sigs provides the authentication middleware. It verifies the
signature of a transaction and attaches the signer public key to the context,
where handlers can read it with ledger.GetSigner.
*/
package sigs

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
)

// Decorator verifies the signature and adds the signer to the context
type Decorator struct{}

var _ ledger.Decorator = Decorator{}

// NewDecorator returns the authentication decorator, which prefixes the
// chain ID to the message before checking the signature.
func NewDecorator() Decorator {
	return Decorator{}
}

// Check verifies the signature before calling down the stack.
func (d Decorator) Check(ctx ledger.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	ctx, err := authenticate(ctx, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, store, tx)
}

// Deliver verifies the signature before calling down the stack.
func (d Decorator) Deliver(ctx ledger.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	ctx, err := authenticate(ctx, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, store, tx)
}

func authenticate(ctx ledger.Context, tx ledger.Tx) (ledger.Context, error) {
	stx, ok := tx.(ledger.SignedTx)
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%T is not signed", tx)
	}
	signer, err := VerifyTxSignature(stx, ledger.GetChainID(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "cannot verify signature")
	}
	return ledger.WithSigner(ctx, signer), nil
}

// VerifyTxSignature checks the signature of the transaction against the
// public key it carries and returns that key.
func VerifyTxSignature(tx ledger.SignedTx, chainID string) (ledger.PubKey, error) {
	pub := tx.GetPubKey()
	if len(pub) == 0 {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	if err := pub.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, err.Error())
	}
	bz, err := tx.SignBytes(chainID)
	if err != nil {
		return nil, err
	}
	if !crypto.Verify(pub, bz, tx.GetSignature()) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "invalid signature for %s", pub)
	}
	return pub, nil
}
