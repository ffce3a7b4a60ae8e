package utils

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/orm"
	amino "github.com/tendermint/go-amino"
)

// AppliedBucket is the name of the bucket that keeps the digest of every
// delivered operation.
const AppliedBucket = "txs"

var cdc = amino.NewCodec()

// AppliedTx is stored under the digest of a delivered operation.
type AppliedTx struct {
	// Height is the block the operation was delivered in.
	Height int64 `json:"height"`
	// Failed is set if the handler rejected the operation.
	Failed bool `json:"failed"`
}

var _ orm.Model = (*AppliedTx)(nil)

func (a *AppliedTx) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(a)
}

func (a *AppliedTx) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, a)
}

func (a *AppliedTx) Validate() error {
	if a.Height <= 0 {
		return errors.Field("Height", errors.ErrEmpty, "operation delivered outside of a block")
	}
	return nil
}

func (a *AppliedTx) Copy() orm.Model {
	cpy := *a
	return &cpy
}

// Replay rejects operations whose digest, as set by ledger.WithTxHash, was
// delivered before.
//
// The digest is recorded on every Deliver that reaches the handler, even
// if the handler fails, so that a rejected operation cannot be applied
// later by resubmitting the same bytes. Put it above the Savepoint, or the
// record of a failed operation is rolled back with its changes.
type Replay struct {
	bucket orm.ModelBucket
}

var _ ledger.Decorator = Replay{}

// NewReplay creates a Replay decorator
func NewReplay() Replay {
	return Replay{bucket: appliedBucket()}
}

func appliedBucket() orm.ModelBucket {
	return orm.NewModelBucket(AppliedBucket, &AppliedTx{})
}

// RegisterQuery exposes the applied operations under /txs, keyed by digest.
func RegisterQuery(qr ledger.QueryRouter) {
	appliedBucket().Register(AppliedBucket, qr)
}

// Check rejects known operations. Nothing is recorded, the check state is
// dropped on every commit.
func (r Replay) Check(ctx ledger.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	if _, err := r.unknown(ctx, store); err != nil {
		return nil, err
	}
	return next.Check(ctx, store, tx)
}

// Deliver rejects known operations and records the new ones.
func (r Replay) Deliver(ctx ledger.Context, store ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	hash, err := r.unknown(ctx, store)
	if err != nil {
		return nil, err
	}
	res, err := next.Deliver(ctx, store, tx)

	height, _ := ledger.GetHeight(ctx)
	applied := &AppliedTx{Height: height, Failed: err != nil}
	if perr := r.bucket.Put(store, hash, applied); perr != nil {
		return nil, errors.Wrap(perr, "record applied operation")
	}
	return res, err
}

// unknown returns the operation digest, or ErrReplay if it was delivered
// already.
func (r Replay) unknown(ctx ledger.Context, store ledger.ReadOnlyKVStore) ([]byte, error) {
	hash, ok := ledger.GetTxHash(ctx)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "operation digest not in context")
	}
	var applied AppliedTx
	switch err := r.bucket.One(store, hash, &applied); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrReplay, "%X delivered at height %d", hash, applied.Height)
	case errors.ErrNotFound.Is(err):
		return hash, nil
	default:
		return nil, err
	}
}
