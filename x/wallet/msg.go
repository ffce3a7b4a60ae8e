package wallet

import (
	"fmt"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	pathCreateAccountMsg = "wallet/create_account"
	pathIssueMsg         = "wallet/issue"
	pathTransferMsg      = "wallet/transfer"

	// maxNameLength limits the size of an account name.
	maxNameLength = 128

	// Tag keys, so that clients can search the operations of an account.
	tagAccount = "wallet.account"
	tagFrom    = "wallet.from"
	tagTo      = "wallet.to"
)

// CreateAccountMsg creates a new account. The first key must belong to the
// signer of the message.
type CreateAccountMsg struct {
	Name    string          `json:"name"`
	PubKeys []ledger.PubKey `json:"pub_keys"`
	Quorum  uint32          `json:"quorum"`
}

var _ ledger.Msg = (*CreateAccountMsg)(nil)

func (CreateAccountMsg) Path() string {
	return pathCreateAccountMsg
}

func (m *CreateAccountMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateAccountMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// Validate checks the message structure. The signer set and the quorum are
// checked by the handler, as they are reported with dedicated errors.
func (m *CreateAccountMsg) Validate() error {
	errs := validateName("Name", m.Name)
	seen := make(map[string]struct{}, len(m.PubKeys))
	for i, k := range m.PubKeys {
		if err := k.Validate(); err != nil {
			errs = errors.AppendField(errs, fieldIndex("PubKeys", i), err)
			continue
		}
		if _, ok := seen[string(k)]; ok {
			errs = errors.AppendField(errs, fieldIndex("PubKeys", i), errors.ErrDuplicate)
		}
		seen[string(k)] = struct{}{}
	}
	return errs
}

// IssueMsg adds funds to an account. Any signer can issue.
type IssueMsg struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Seed   uint64 `json:"seed"`
}

var _ ledger.Msg = (*IssueMsg)(nil)

func (IssueMsg) Path() string {
	return pathIssueMsg
}

func (m *IssueMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *IssueMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *CreateAccountMsg) Tags() []common.KVPair {
	return []common.KVPair{tag(tagAccount, m.Name)}
}

func (m *IssueMsg) Validate() error {
	return validateName("To", m.To)
}

func (m *IssueMsg) Tags() []common.KVPair {
	return []common.KVPair{tag(tagTo, m.To)}
}

// TransferMsg approves moving funds between two accounts. The transfer takes
// effect once enough signers of the sender account approved the same
// message.
type TransferMsg struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Seed   uint64 `json:"seed"`
}

var _ ledger.Msg = (*TransferMsg)(nil)

func (TransferMsg) Path() string {
	return pathTransferMsg
}

func (m *TransferMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *TransferMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

func (m *TransferMsg) Validate() error {
	errs := validateName("From", m.From)
	return errors.Append(errs, validateName("To", m.To))
}

func (m *TransferMsg) Tags() []common.KVPair {
	return []common.KVPair{tag(tagFrom, m.From), tag(tagTo, m.To)}
}

// ProposalKey returns the key of the transfer proposal this message
// approves.
func (m *TransferMsg) ProposalKey() []byte {
	return ProposalKey(m.From, m.To, m.Amount, m.Seed)
}

func validateName(field, name string) error {
	switch {
	case name == "":
		return errors.Field(field, errors.ErrEmpty, "required")
	case len(name) > maxNameLength:
		return errors.Field(field, errors.ErrInput, "longer than %d", maxNameLength)
	}
	return nil
}

func tag(key, value string) common.KVPair {
	return common.KVPair{Key: []byte(key), Value: []byte(value)}
}

func fieldIndex(name string, i int) string {
	return fmt.Sprintf("%s.%d", name, i)
}
