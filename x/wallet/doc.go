/*
Package wallet implements a multisignature wallet ledger.

Accounts are created with a set of public keys and a quorum. Funds can be
issued to any account. A transfer takes effect once enough signers
of the sender account submitted the very same transfer (sender, receiver,
amount and seed). Every balance change is recorded in the history of the
account, summarized by a merkle root stored in the account itself, and the
root of the account map summarizes the whole wallet state.
*/
package wallet
