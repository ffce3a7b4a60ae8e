package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/ledger"
	walletd "github.com/iov-one/ledger/cmd/walletd/app"
	"github.com/iov-one/ledger/commands/server"
	"github.com/iov-one/ledger/x/wallet"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"
)

func main() {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "walletd")

	root := &cobra.Command{
		Use:          "walletd",
		Short:        "Multisignature wallet ledger node",
		SilenceUsage: true,
	}
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".walletd")
	root.PersistentFlags().String(server.FlagHome, defaultHome, "directory to store files under")

	root.AddCommand(
		server.InitCmd(walletd.GenInitOptions, logger),
		server.StartCmd(walletd.GenerateApp, logger),
		server.ValidateCmd(&wallet.Initializer{}),
		server.KeysCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the app version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), ledger.Version())
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
