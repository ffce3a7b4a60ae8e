package wallet

import (
	"github.com/iov-one/ledger/errors"
)

// wallet takes 1100-1109
var (
	ErrAccountExists        = errors.Register(1100, "account already exists")
	ErrSenderNotFound       = errors.Register(1101, "sender account not found")
	ErrReceiverNotFound     = errors.Register(1102, "receiver account not found")
	ErrInsufficientCurrency = errors.Register(1103, "insufficient currency amount")
	ErrNotEnoughSigns       = errors.Register(1104, "not enough signs yet")
	ErrInvalidQuorum        = errors.Register(1105, "invalid quorum")
	ErrSenderSameAsReceiver = errors.Register(1106, "sender same as receiver")
	ErrWrongSigner          = errors.Register(1107, "wrong signer")
	ErrAlreadyApproved      = errors.Register(1108, "transfer already approved by this signer")
	ErrProposalExecuted     = errors.Register(1109, "transfer already executed")
)
