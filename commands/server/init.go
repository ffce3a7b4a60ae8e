package server

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/ledger/errors"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"
)

// GenOptions can parse command-line and flag to
// generate default app_state for the genesis file.
// This is application-specific
type GenOptions func(args []string) (json.RawMessage, error)

// InitCmd will add the app_state produced by gen to the genesis file
// created by tendermint in the home directory.
func InitCmd(gen GenOptions, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init [args...]",
		Short: "Initialize app_state in the genesis file",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := cmd.Flags().GetString(FlagHome)
			if err != nil {
				return err
			}
			options, err := gen(args)
			if err != nil {
				return errors.Wrap(err, "cannot generate app state")
			}
			genFile := GenesisPath(home)
			if err := addGenesisOptions(genFile, options); err != nil {
				return err
			}
			logger.Info("App state written", "path", genFile)
			return nil
		},
	}
}

// GenesisPath returns the path of the genesis file that tendermint keeps in
// given home directory.
func GenesisPath(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

func addGenesisOptions(filename string, options json.RawMessage) error {
	bz, err := ioutil.ReadFile(filename)
	if os.IsNotExist(err) {
		return errors.Wrapf(errors.ErrNotFound, "no genesis file %s, run tendermint init first", filename)
	}
	if err != nil {
		return errors.Wrap(err, "cannot read genesis file")
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis file: %s", err)
	}
	if _, ok := doc["app_state"]; ok {
		return errors.Wrapf(errors.ErrState, "app_state already set in %s", filename)
	}

	doc["app_state"] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot serialize genesis")
	}
	return ioutil.WriteFile(filename, out, 0600)
}
