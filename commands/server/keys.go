package server

import (
	"encoding/json"
	"fmt"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/spf13/cobra"
)

const flagPrivate = "private"

// KeyInfo is printed by the keys command.
type KeyInfo struct {
	PrivateKey string        `json:"private_key,omitempty"`
	PubKey     ledger.PubKey `json:"pub_key"`
}

// KeysCmd returns the command generating a new signer key. With the private
// flag set, it prints the public key of an existing one instead.
func KeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate a signer key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := cmd.Flags().GetString(flagPrivate)
			if err != nil {
				return err
			}

			var info KeyInfo
			if raw == "" {
				key := crypto.GenPrivKeyEd25519()
				info = KeyInfo{PrivateKey: key.String(), PubKey: key.PublicKey()}
			} else {
				key, err := crypto.ParsePrivateKey(raw)
				if err != nil {
					return err
				}
				info = KeyInfo{PubKey: key.PublicKey()}
			}

			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return errors.Wrap(err, "cannot serialize key")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().String(flagPrivate, "", "hex encoded private key to show the public key of")
	return cmd
}
