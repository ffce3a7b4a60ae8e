/*
Package app links together all the various components
to construct the walletd app.
*/
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/app"
	"github.com/iov-one/ledger/store/iavl"
	"github.com/iov-one/ledger/x/sigs"
	"github.com/iov-one/ledger/x/utils"
	"github.com/iov-one/ledger/x/wallet"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// Name is returned by the abci Info call.
const Name = "walletd"

// Chain returns a chain of decorators, to handle authentication,
// logging, replay protection and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		sigs.NewDecorator(),
		utils.NewActionTagger(),
		// records every authenticated operation, including the failed ones
		utils.NewReplay(),
		// a rejected or panicking operation leaves no trace, check runs
		// against a cache that is dropped on commit anyway
		utils.NewSavepoint().OnCheck().OnDeliver(),
	)
}

// Router returns a default router, dispatching to the wallet handlers.
func Router(s *wallet.Schema) *app.Router {
	r := app.NewRouter()
	wallet.RegisterRoutes(r, s)
	return r
}

// QueryRouter returns a default query router,
// allowing access to "/accounts", "/history", "/proposals", "/state"
// and "/txs"
func QueryRouter() ledger.QueryRouter {
	r := ledger.NewQueryRouter()
	r.RegisterAll(
		wallet.RegisterQuery,
		utils.RegisterQuery,
	)
	return r
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack(s *wallet.Schema) ledger.Handler {
	return Chain().WithHandler(Router(s))
}

// Application constructs a basic ABCI application with
// the given arguments.
func Application(name string, h ledger.Handler, s *wallet.Schema,
	tx ledger.TxDecoder, dbPath string, debug bool) (app.BaseApp, error) {

	ctx := context.Background()
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return app.BaseApp{}, err
	}
	store := app.NewStoreApp(name, kv, QueryRouter(), ctx).
		WithInit(app.ChainInitializers(&wallet.Initializer{})).
		WithStateHash(s.StateHash)
	return app.NewBaseApp(store, tx, h, debug), nil
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
func CommitKVStore(dbPath string) (ledger.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.MockCommitStore(), nil
	}

	// Expand the path fully
	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("invalid database name: %s", path)
	}

	// Some external calls accidently add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	// Split the database name into it's components (dir, name)
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name), nil
}

// GenerateApp is used to create a stub for server/start.go command
func GenerateApp(home string, logger log.Logger, debug bool) (abci.Application, error) {
	// db goes in a subdir, but "" -> "" for memdb
	var dbPath string
	if home != "" {
		dbPath = filepath.Join(home, "wallet.db")
	}

	schema := wallet.NewSchema()
	application, err := Application(Name, Stack(schema), schema, wallet.TxDecoder, dbPath, debug)
	if err != nil {
		return nil, err
	}
	application.WithLogger(logger)
	return application, nil
}
