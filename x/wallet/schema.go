package wallet

import (
	"fmt"
	"math"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/orm"
	"github.com/tendermint/tendermint/crypto/merkle"
)

// Schema gives typed access to the wallet state: the account map, the
// history list of every account and the pending transfer map.
//
// The read methods work on any store, including a committed snapshot. The
// mutation methods keep the history of an account consistent with its
// HistoryLen and HistoryHash and must be used for every change.
type Schema struct {
	accounts  orm.ModelBucket
	history   orm.ListBucket
	proposals orm.ModelBucket
}

// NewSchema returns the wallet schema.
func NewSchema() *Schema {
	return &Schema{
		accounts:  orm.NewModelBucket("accounts", &Account{}),
		history:   orm.NewListBucket("history"),
		proposals: orm.NewModelBucket("proposals", &PendingTransfer{}),
	}
}

// Register exposes all collections for queries.
//
//   /accounts  account by AccountKey(name), or all accounts with prefix mod
//   /history   history of the account with given AccountKey(name)
//   /proposals pending transfer by ProposalKey
//   /state     the StateHash, data is ignored
func (s *Schema) Register(qr ledger.QueryRouter) {
	s.accounts.Register("accounts", qr)
	s.history.Register("history", qr)
	s.proposals.Register("proposals", qr)
	qr.Register("/state", stateQuery{schema: s})
}

// stateQuery serves the state hash as a single model.
type stateQuery struct {
	schema *Schema
}

// StateQueryKey is the key of the model returned by the /state query.
var StateQueryKey = []byte("state")

func (q stateQuery) Query(db ledger.ReadOnlyKVStore, mod string, data []byte) ([]ledger.Model, error) {
	if mod != ledger.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod %q", mod)
	}
	hash, err := q.schema.StateHash(db)
	if err != nil {
		return nil, err
	}
	return []ledger.Model{ledger.Pair(StateQueryKey, hash)}, nil
}

// Account returns the account with given name or nil if there is none.
func (s *Schema) Account(db ledger.ReadOnlyKVStore, name string) (*Account, error) {
	var acc Account
	switch err := s.accounts.One(db, AccountKey(name), &acc); {
	case err == nil:
		return &acc, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, errors.Wrapf(err, "account %q", name)
	}
}

// History returns the digests of all operations that changed the balance of
// the account, oldest first.
func (s *Schema) History(db ledger.ReadOnlyKVStore, name string) ([][]byte, error) {
	return s.history.Items(db, AccountKey(name))
}

// HistoryProof returns the inclusion proof of the history entry at given
// position. It is verified against the HistoryHash of the account with the
// entry itself as the item.
func (s *Schema) HistoryProof(db ledger.ReadOnlyKVStore, name string, index uint64) (*merkle.SimpleProof, error) {
	return s.history.Proof(db, AccountKey(name), index)
}

// PendingTransfer returns the proposal stored under given key or nil if there
// is none.
func (s *Schema) PendingTransfer(db ledger.ReadOnlyKVStore, key []byte) (*PendingTransfer, error) {
	var p PendingTransfer
	switch err := s.proposals.One(db, key, &p); {
	case err == nil:
		return &p, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, errors.Wrapf(err, "proposal %X", key)
	}
}

// StateHash returns the merkle root of the account map. History and pending
// transfers are not part of it. Every account carries the root of its own
// history, so the account map root covers them anyway.
func (s *Schema) StateHash(db ledger.ReadOnlyKVStore) ([]byte, error) {
	return s.accounts.RootHash(db)
}

// AccountProof returns the inclusion proof of an account, verifiable
// against StateHash with orm.KVItem(AccountKey(name), raw) as the item,
// where raw is the stored account.
func (s *Schema) AccountProof(db ledger.ReadOnlyKVStore, name string) (*merkle.SimpleProof, error) {
	return s.accounts.Proof(db, AccountKey(name))
}

// Direction tells whether a balance change adds or removes funds.
type Direction int

const (
	Credit Direction = iota + 1
	Debit
)

func (d Direction) String() string {
	switch d {
	case Credit:
		return "credit"
	case Debit:
		return "debit"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// apply returns balance changed by amount in direction d.
func (d Direction) apply(balance, amount uint64) (uint64, error) {
	switch d {
	case Credit:
		if balance > math.MaxUint64-amount {
			return 0, errors.Wrapf(errors.ErrOverflow, "balance %d cannot grow by %d", balance, amount)
		}
		return balance + amount, nil
	case Debit:
		if amount > balance {
			return 0, errors.Wrapf(errors.ErrAmount, "balance %d cannot cover %d", balance, amount)
		}
		return balance - amount, nil
	}
	return 0, errors.Wrapf(errors.ErrInput, "unknown direction %d", int(d))
}

// AdjustBalance appends cause to the account history, refreshes the
// history digest, credits or debits amount and stores the account. It
// returns the updated account.
//
// The account must be stored already and the balance must stay within
// range. Callers check both before calling, a violation panics with
// errors.ErrHuman.
func (s *Schema) AdjustBalance(db ledger.KVStore, acc *Account, amount uint64, d Direction, cause []byte) (*Account, error) {
	key := AccountKey(acc.Name)
	ok, err := s.accounts.Has(db, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		panic(errors.Wrapf(errors.ErrHuman, "account %q is not stored", acc.Name))
	}
	balance, err := d.apply(acc.Balance, amount)
	if err != nil {
		panic(errors.Wrapf(errors.ErrHuman, "account %q: %s", acc.Name, err))
	}

	root, length, err := s.history.Append(db, key, cause)
	if err != nil {
		return nil, errors.Wrap(err, "history")
	}
	updated := acc.Copy().(*Account)
	updated.Balance = balance
	updated.HistoryLen = length
	updated.HistoryHash = root
	if err := s.accounts.Put(db, key, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// CreateAccount stores a new account with the configured initial balance
// and cause as the first history entry.
//
// The name must not be in use already, a violation panics with
// errors.ErrHuman.
func (s *Schema) CreateAccount(db ledger.KVStore, name string, keys []ledger.PubKey, quorum uint32, cause []byte) (*Account, error) {
	key := AccountKey(name)
	ok, err := s.accounts.Has(db, key)
	if err != nil {
		return nil, err
	}
	if ok {
		panic(errors.Wrapf(errors.ErrHuman, "account %q already stored", name))
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}

	root, length, err := s.history.Append(db, key, cause)
	if err != nil {
		return nil, errors.Wrap(err, "history")
	}
	acc := &Account{
		Name:        name,
		PubKeys:     keys,
		Quorum:      quorum,
		Balance:     conf.InitialBalance,
		HistoryLen:  length,
		HistoryHash: root,
	}
	if err := s.accounts.Put(db, key, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// CreateProposal stores a new transfer proposal approved by the signer with
// given index.
//
// The proposal must not exist already, a violation panics with
// errors.ErrHuman.
func (s *Schema) CreateProposal(db ledger.KVStore, from, to string, amount, seed uint64, signer uint32) (*PendingTransfer, error) {
	p := &PendingTransfer{
		From:      from,
		To:        to,
		Amount:    amount,
		Seed:      seed,
		Signs:     1,
		Approvals: []uint32{signer},
	}
	key := p.Key()
	ok, err := s.proposals.Has(db, key)
	if err != nil {
		return nil, err
	}
	if ok {
		panic(errors.Wrapf(errors.ErrHuman, "proposal %X already stored", key))
	}
	if err := s.proposals.Put(db, key, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Approve increments the signs of the proposal and records the signer
// index. A signer that already approved is recorded once, but still
// increments the signs. It returns the updated proposal.
func (s *Schema) Approve(db ledger.KVStore, p *PendingTransfer, signer uint32) (*PendingTransfer, error) {
	updated := p.Copy().(*PendingTransfer)
	updated.Signs++
	updated.addApproval(signer)
	if err := s.proposals.Put(db, updated.Key(), updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkExecuted records that the proposal took effect.
func (s *Schema) MarkExecuted(db ledger.KVStore, p *PendingTransfer) (*PendingTransfer, error) {
	updated := p.Copy().(*PendingTransfer)
	updated.Executed = true
	if err := s.proposals.Put(db, updated.Key(), updated); err != nil {
		return nil, err
	}
	return updated, nil
}
