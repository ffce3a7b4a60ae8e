package wallet

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
)

// Tx carries a single wallet message signed by one key.
type Tx struct {
	Msg       ledger.Msg    `json:"msg"`
	PubKey    ledger.PubKey `json:"pub_key"`
	Signature []byte        `json:"signature"`
}

var _ ledger.SignedTx = (*Tx)(nil)

// GetMsg returns the message carried by this transaction.
func (tx *Tx) GetMsg() (ledger.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	return tx.Msg, nil
}

func (tx *Tx) GetPubKey() ledger.PubKey {
	return tx.PubKey
}

func (tx *Tx) GetSignature() []byte {
	return tx.Signature
}

// SignBytes returns the bytes that must be signed. The chain ID is
// followed by a zero byte so that it cannot be extended into the message.
func (tx *Tx) SignBytes(chainID string) ([]byte, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	raw, err := msg.Marshal()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrMsg, "cannot marshal: %s", err)
	}
	out := make([]byte, 0, len(chainID)+1+len(raw))
	out = append(out, chainID...)
	out = append(out, 0)
	return append(out, raw...), nil
}

// Sign sets the public key and the signature of the transaction.
func (tx *Tx) Sign(signer crypto.Signer, chainID string) error {
	bz, err := tx.SignBytes(chainID)
	if err != nil {
		return err
	}
	sig, err := signer.Sign(bz)
	if err != nil {
		return errors.Wrap(err, "sign")
	}
	tx.PubKey = signer.PublicKey()
	tx.Signature = sig
	return nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(tx)
}

func (tx *Tx) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, tx)
}

// NewTx returns a transaction carrying given message, signed by given key.
func NewTx(msg ledger.Msg, signer crypto.Signer, chainID string) (*Tx, error) {
	tx := &Tx{Msg: msg}
	if err := tx.Sign(signer, chainID); err != nil {
		return nil, err
	}
	return tx, nil
}

// TxDecoder decodes the binary representation of a Tx.
func TxDecoder(raw []byte) (ledger.Tx, error) {
	var tx Tx
	if err := tx.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot decode tx: %s", err)
	}
	return &tx, nil
}

var _ ledger.TxDecoder = TxDecoder
