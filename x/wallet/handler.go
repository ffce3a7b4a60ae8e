package wallet

import (
	"fmt"
	"math"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r ledger.Registry, s *Schema) {
	r.Handle(pathCreateAccountMsg, CreateAccountHandler{schema: s})
	r.Handle(pathIssueMsg, IssueHandler{schema: s})
	r.Handle(pathTransferMsg, TransferHandler{schema: s})
}

// RegisterQuery registers the wallet collections for queries.
func RegisterQuery(qr ledger.QueryRouter) {
	NewSchema().Register(qr)
}

// signer returns the verified signer of the operation.
func signer(ctx ledger.Context) (ledger.PubKey, error) {
	key, ok := ledger.GetSigner(ctx)
	if !ok || len(key) == 0 {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return key, nil
}

// cause returns the digest of the operation, recorded in the history of
// every account it changes.
func cause(ctx ledger.Context) ([]byte, error) {
	hash, ok := ledger.GetTxHash(ctx)
	if !ok || len(hash) == 0 {
		return nil, errors.Wrap(errors.ErrHuman, "no tx hash in context")
	}
	return hash, nil
}

// CreateAccountHandler creates accounts.
type CreateAccountHandler struct {
	schema *Schema
}

var _ ledger.Handler = CreateAccountHandler{}

// Check verifies the account can be created.
func (h CreateAccountHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

// Deliver creates the account.
func (h CreateAccountHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	digest, err := cause(ctx)
	if err != nil {
		return nil, err
	}
	acc, err := h.schema.CreateAccount(db, msg.Name, msg.PubKeys, msg.Quorum, digest)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create account")
	}
	ledger.GetLogger(ctx).Debug("account created", "name", acc.Name, "quorum", acc.Quorum)
	return &ledger.DeliverResult{
		Data: AccountKey(acc.Name),
		Log:  fmt.Sprintf("account %q created", acc.Name),
	}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CreateAccountHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*CreateAccountMsg, error) {
	var msg CreateAccountMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	key, err := signer(ctx)
	if err != nil {
		return nil, err
	}
	if len(msg.PubKeys) == 0 || !msg.PubKeys[0].Equals(key) {
		return nil, errors.Wrap(ErrWrongSigner, "signer must be the first account key")
	}
	switch acc, err := h.schema.Account(db, msg.Name); {
	case err != nil:
		return nil, err
	case acc != nil:
		return nil, errors.Wrapf(ErrAccountExists, "name %q", msg.Name)
	}
	if msg.Quorum == 0 || int(msg.Quorum) > len(msg.PubKeys) {
		return nil, errors.Wrapf(ErrInvalidQuorum, "quorum %d for %d keys", msg.Quorum, len(msg.PubKeys))
	}
	return &msg, nil
}

// IssueHandler adds funds to an account.
type IssueHandler struct {
	schema *Schema
}

var _ ledger.Handler = IssueHandler{}

// Check verifies the funds can be issued.
func (h IssueHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{}, nil
}

// Deliver credits the receiver.
func (h IssueHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, to, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	digest, err := cause(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := h.schema.AdjustBalance(db, to, msg.Amount, Credit, digest); err != nil {
		return nil, errors.Wrap(err, "cannot credit receiver")
	}
	return &ledger.DeliverResult{
		Data: AccountKey(to.Name),
		Log:  fmt.Sprintf("issued %d to %q", msg.Amount, to.Name),
	}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h IssueHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*IssueMsg, *Account, error) {
	var msg IssueMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	to, err := h.schema.Account(db, msg.To)
	if err != nil {
		return nil, nil, err
	}
	if to == nil {
		return nil, nil, errors.Wrapf(ErrReceiverNotFound, "name %q", msg.To)
	}
	if err := canCredit(to, msg.Amount); err != nil {
		return nil, nil, err
	}
	return &msg, to, nil
}

func canCredit(acc *Account, amount uint64) error {
	if acc.Balance > math.MaxUint64-amount {
		return errors.Wrapf(errors.ErrOverflow, "balance of %q cannot grow by %d", acc.Name, amount)
	}
	return nil
}

// TransferHandler collects approvals of transfers and executes them once
// the quorum of the sender account is reached.
type TransferHandler struct {
	schema *Schema
}

var _ ledger.Handler = TransferHandler{}

// transfer is the outcome of the validation: everything needed to apply
// the approval.
type transfer struct {
	msg      *TransferMsg
	from     *Account
	to       *Account
	signer   uint32
	proposal *PendingTransfer
	// signs is the number of approvals once this one is applied.
	signs uint32
}

// execute is true if this approval completes the quorum.
func (t *transfer) execute() bool {
	return t.signs == t.from.Quorum
}

// Check verifies the approval is accepted.
func (h TransferHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return &ledger.CheckResult{Data: t.msg.ProposalKey()}, nil
}

// Deliver records the approval and moves the funds if the quorum is
// reached.
func (h TransferHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	digest, err := cause(ctx)
	if err != nil {
		return nil, err
	}
	key := t.msg.ProposalKey()
	logger := ledger.GetLogger(ctx).With("proposal", fmt.Sprintf("%X", key))

	p := t.proposal
	if p == nil {
		p, err = h.schema.CreateProposal(db, t.msg.From, t.msg.To, t.msg.Amount, t.msg.Seed, t.signer)
	} else {
		p, err = h.schema.Approve(db, p, t.signer)
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot store approval")
	}
	logger.Debug("transfer approved", "signer", t.signer, "signs", p.Signs, "quorum", t.from.Quorum)

	if !t.execute() {
		return &ledger.DeliverResult{
			Data: key,
			Log:  fmt.Sprintf("pending %d/%d", p.Signs, t.from.Quorum),
		}, nil
	}

	if _, err := h.schema.AdjustBalance(db, t.from, t.msg.Amount, Debit, digest); err != nil {
		return nil, errors.Wrap(err, "cannot debit sender")
	}
	if _, err := h.schema.AdjustBalance(db, t.to, t.msg.Amount, Credit, digest); err != nil {
		return nil, errors.Wrap(err, "cannot credit receiver")
	}
	if _, err := h.schema.MarkExecuted(db, p); err != nil {
		return nil, errors.Wrap(err, "cannot mark executed")
	}
	logger.Debug("transfer executed", "signs", p.Signs)
	return &ledger.DeliverResult{
		Data: key,
		Log:  fmt.Sprintf("executed %d/%d", p.Signs, t.from.Quorum),
	}, nil
}

// validate does all common pre-processing between Check and Deliver. No
// state is changed, so that a rejection never leaves a partial approval.
func (h TransferHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*transfer, error) {
	var msg TransferMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if msg.From == msg.To {
		return nil, errors.Wrapf(ErrSenderSameAsReceiver, "name %q", msg.From)
	}

	from, err := h.schema.Account(db, msg.From)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, errors.Wrapf(ErrSenderNotFound, "name %q", msg.From)
	}
	key, err := signer(ctx)
	if err != nil {
		return nil, err
	}
	idx := from.SignerIndex(key)
	if idx < 0 {
		return nil, errors.Wrapf(ErrWrongSigner, "%s cannot sign for %q", key, msg.From)
	}
	to, err := h.schema.Account(db, msg.To)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, errors.Wrapf(ErrReceiverNotFound, "name %q", msg.To)
	}

	t := &transfer{
		msg:    &msg,
		from:   from,
		to:     to,
		signer: uint32(idx),
		signs:  1,
	}
	t.proposal, err = h.schema.PendingTransfer(db, msg.ProposalKey())
	if err != nil {
		return nil, err
	}
	if p := t.proposal; p != nil {
		if p.Executed {
			return nil, errors.Wrap(ErrProposalExecuted, "use a different seed to transfer again")
		}
		conf, err := loadConf(db)
		if err != nil {
			return nil, err
		}
		if conf.ApprovalPolicy == ApprovalDistinct && p.HasApproved(t.signer) {
			return nil, errors.Wrapf(ErrAlreadyApproved, "signer %d", t.signer)
		}
		t.signs = p.Signs + 1
	}

	if t.execute() {
		if from.Balance < msg.Amount {
			return nil, errors.Wrapf(ErrInsufficientCurrency, "balance %d, amount %d", from.Balance, msg.Amount)
		}
		if err := canCredit(to, msg.Amount); err != nil {
			return nil, err
		}
	}
	return t, nil
}
