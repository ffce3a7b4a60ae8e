package wallet

import (
	"encoding/binary"
	"sort"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/orm"
)

// Account is a named holder of balance, signer set and quorum threshold.
//
// HistoryLen and HistoryHash always describe the history list of the
// account. They are only changed together with the balance.
type Account struct {
	Name        string          `json:"name"`
	PubKeys     []ledger.PubKey `json:"pub_keys"`
	Quorum      uint32          `json:"quorum"`
	Balance     uint64          `json:"balance"`
	HistoryLen  uint64          `json:"history_len"`
	HistoryHash []byte          `json:"history_hash"`
}

var _ orm.Model = (*Account)(nil)

// AccountKey returns the key an account with given name is stored under.
func AccountKey(name string) []byte {
	return ledger.Hash([]byte(name))
}

func (a *Account) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(a)
}

func (a *Account) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, a)
}

// Validate ensures the account is in a valid state to be stored.
func (a *Account) Validate() error {
	var errs error
	if a.Name == "" {
		errs = errors.AppendField(errs, "Name", errors.ErrEmpty)
	}
	if len(a.PubKeys) == 0 {
		errs = errors.AppendField(errs, "PubKeys", errors.ErrEmpty)
	}
	for i, k := range a.PubKeys {
		errs = errors.AppendField(errs, fieldIndex("PubKeys", i), k.Validate())
	}
	if a.Quorum == 0 || int(a.Quorum) > len(a.PubKeys) {
		errs = errors.AppendField(errs, "Quorum", ErrInvalidQuorum)
	}
	if a.HistoryLen == 0 {
		errs = errors.AppendField(errs, "HistoryLen", errors.ErrEmpty)
	}
	if len(a.HistoryHash) != ledger.HashSize {
		errs = errors.AppendField(errs, "HistoryHash", errors.ErrInput)
	}
	return errs
}

func (a *Account) Copy() orm.Model {
	cpy := *a
	cpy.PubKeys = make([]ledger.PubKey, len(a.PubKeys))
	for i, k := range a.PubKeys {
		cpy.PubKeys[i] = append(ledger.PubKey(nil), k...)
	}
	cpy.HistoryHash = append([]byte(nil), a.HistoryHash...)
	return &cpy
}

// SignerIndex returns the position of given key in the account signer set
// or -1 if the key is not authorized.
func (a *Account) SignerIndex(key ledger.PubKey) int {
	if len(key) == 0 {
		return -1
	}
	for i, k := range a.PubKeys {
		if k.Equals(key) {
			return i
		}
	}
	return -1
}

// PendingTransfer is a transfer that waits for enough approvals of the
// sender account signers.
//
// Signs is the number of accepted approvals. Approvals holds the sorted
// signer indexes (positions in the sender PubKeys) that approved.
type PendingTransfer struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Amount    uint64   `json:"amount"`
	Seed      uint64   `json:"seed"`
	Signs     uint32   `json:"signs"`
	Approvals []uint32 `json:"approvals"`
	Executed  bool     `json:"executed"`
}

var _ orm.Model = (*PendingTransfer)(nil)

// ProposalKey returns the key of a transfer proposal. It depends only on
// the economic parameters of the transfer and not on who submitted it.
//
// Names are hashed first so that a different split of the same characters
// between sender and receiver results in a different key. The key is
// therefore not compatible with a plain H(from‖to‖amount‖seed).
func ProposalKey(from, to string, amount, seed uint64) []byte {
	var amt, sd [8]byte
	binary.LittleEndian.PutUint64(amt[:], amount)
	binary.LittleEndian.PutUint64(sd[:], seed)
	return ledger.Hash(AccountKey(from), AccountKey(to), amt[:], sd[:])
}

// Key returns the key this proposal is stored under.
func (p *PendingTransfer) Key() []byte {
	return ProposalKey(p.From, p.To, p.Amount, p.Seed)
}

func (p *PendingTransfer) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(p)
}

func (p *PendingTransfer) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, p)
}

// Validate ensures the proposal is in a valid state to be stored.
func (p *PendingTransfer) Validate() error {
	var errs error
	if p.From == "" {
		errs = errors.AppendField(errs, "From", errors.ErrEmpty)
	}
	if p.To == "" {
		errs = errors.AppendField(errs, "To", errors.ErrEmpty)
	}
	if p.Signs == 0 {
		errs = errors.AppendField(errs, "Signs", errors.ErrEmpty)
	}
	if len(p.Approvals) == 0 {
		errs = errors.AppendField(errs, "Approvals", errors.ErrEmpty)
	}
	if !sort.SliceIsSorted(p.Approvals, func(i, j int) bool { return p.Approvals[i] < p.Approvals[j] }) {
		errs = errors.AppendField(errs, "Approvals", errors.Wrap(errors.ErrState, "not sorted"))
	}
	if int(p.Signs) < len(p.Approvals) {
		errs = errors.AppendField(errs, "Signs", errors.Wrap(errors.ErrState, "less than approvals"))
	}
	return errs
}

func (p *PendingTransfer) Copy() orm.Model {
	cpy := *p
	cpy.Approvals = append([]uint32(nil), p.Approvals...)
	return &cpy
}

// HasApproved returns true if the signer with given index already approved
// this transfer.
func (p *PendingTransfer) HasApproved(signer uint32) bool {
	i := sort.Search(len(p.Approvals), func(i int) bool { return p.Approvals[i] >= signer })
	return i < len(p.Approvals) && p.Approvals[i] == signer
}

// addApproval records the signer index, keeping the list sorted and free of
// duplicates.
func (p *PendingTransfer) addApproval(signer uint32) {
	i := sort.Search(len(p.Approvals), func(i int) bool { return p.Approvals[i] >= signer })
	if i < len(p.Approvals) && p.Approvals[i] == signer {
		return
	}
	p.Approvals = append(p.Approvals, 0)
	copy(p.Approvals[i+1:], p.Approvals[i:])
	p.Approvals[i] = signer
}
