package server

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/iov-one/ledger/errors"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	// FlagHome is the persistent flag of the root command pointing to the
	// directory the node keeps its files in.
	FlagHome = "home"

	flagBind  = "bind"
	flagDebug = "debug"
)

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags
type AppGenerator func(home string, logger log.Logger, debug bool) (abci.Application, error)

// StartCmd returns the command running the abci server until the process
// is interrupted.
func StartCmd(gen AppGenerator, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the abci server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := cmd.Flags().GetString(FlagHome)
			if err != nil {
				return err
			}
			addr, err := cmd.Flags().GetString(flagBind)
			if err != nil {
				return err
			}
			debug, err := cmd.Flags().GetBool(flagDebug)
			if err != nil {
				return err
			}

			// Generate the app in the proper dir
			app, err := gen(home, logger, debug)
			if err != nil {
				return errors.Wrap(err, "cannot create application")
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(quit)
			return Serve(app, addr, logger, quit)
		},
	}
	cmd.Flags().String(flagBind, "tcp://localhost:26658", "address server listens on")
	cmd.Flags().Bool(flagDebug, false, "call stack returned on error")
	return cmd
}

// Serve runs the abci socket server for the application until quit
// receives a value.
func Serve(app abci.Application, addr string, logger log.Logger, quit <-chan os.Signal) error {
	logger.Info("Starting ABCI app", "bind", addr)

	svr, err := server.NewServer(addr, "socket", app)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot create listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot listen on %s: %s", addr, err)
	}

	sig := <-quit
	logger.Info("Stopping ABCI app", "signal", sig)
	return svr.Stop()
}
