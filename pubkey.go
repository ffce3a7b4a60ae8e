package ledger

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/iov-one/ledger/crypto/bech32"
	"github.com/iov-one/ledger/errors"
)

const (
	// PubKeySize is the length of an ed25519 public key.
	PubKeySize = 32

	// PubKeyHRP is the human readable part used when a public key is
	// represented as a bech32 string.
	PubKeyHRP = "wpub"
)

// PubKey identifies a signer. Accounts store the list of keys that are
// allowed to approve transfers and the host attaches the key of the verified
// signer to the context of every operation.
type PubKey []byte

// Equals checks if two public keys are the same.
func (p PubKey) Equals(o PubKey) bool {
	return bytes.Equal(p, o)
}

// Validate returns an error if the key is not the valid size.
func (p PubKey) Validate() error {
	if len(p) != PubKeySize {
		return errors.Wrapf(errors.ErrInput, "invalid public key length %d", len(p))
	}
	return nil
}

// String returns a bech32 representation of the key.
func (p PubKey) String() string {
	if len(p) == 0 {
		return "(nil)"
	}
	s, err := bech32.Encode(PubKeyHRP, p)
	if err != nil {
		return strings.ToUpper(hex.EncodeToString(p))
	}
	return s
}

// MarshalJSON provides a bech32 representation for JSON, to override the
// standard base64 []byte encoding.
func (p PubKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses JSON in bech32 or hex representation.
func (p *PubKey) UnmarshalJSON(src []byte) error {
	var s string
	if err := json.Unmarshal(src, &s); err != nil {
		return errors.Wrap(errors.ErrInput, "public key must be a string")
	}
	key, err := ParsePubKey(s)
	if err != nil {
		return err
	}
	*p = key
	return nil
}

// ParsePubKey decodes a public key from its bech32 or hex representation.
func ParsePubKey(s string) (PubKey, error) {
	if strings.HasPrefix(s, PubKeyHRP+"1") {
		hrp, raw, err := bech32.Decode(s)
		if err != nil {
			return nil, errors.Wrap(err, "bech32")
		}
		if hrp != PubKeyHRP {
			return nil, errors.Wrapf(errors.ErrInput, "invalid prefix %q", hrp)
		}
		key := PubKey(raw)
		return key, key.Validate()
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "public key is neither bech32 nor hex")
	}
	key := PubKey(raw)
	return key, key.Validate()
}
