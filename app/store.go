package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// StateHasher computes a digest of the application state that is folded
// into the app hash of every commit.
type StateHasher func(db ledger.ReadOnlyKVStore) ([]byte, error)

// StoreApp is the part of the ledger host that does not execute operations.
// It loads and commits the state, answers queries from the last committed
// version, reads the genesis and tracks the block being built.
//
// BaseApp embeds it and adds CheckTx and DeliverTx.
//
// Info, InitChain, BeginBlock, EndBlock and Commit do not take user input.
// A failure there means the node cannot go on, so they panic.
type StoreApp struct {
	name   string
	logger log.Logger
	store  *CommitStore

	initializer ledger.Initializer
	queryRouter ledger.QueryRouter
	stateHash   StateHasher

	// chainID is empty until the genesis was loaded. It is stored with
	// the state and read back on restart.
	chainID string

	// baseContext lives as long as the application, blockContext is
	// replaced on every BeginBlock.
	baseContext  ledger.Context
	blockContext ledger.Context
}

// NewStoreApp loads the latest version of given store. The chain id and the
// height of a restarted node are restored from it.
//
// It panics if the store cannot be loaded.
func NewStoreApp(name string, store ledger.CommitKVStore,
	queryRouter ledger.QueryRouter, baseContext ledger.Context) *StoreApp {
	s := &StoreApp{
		name:        name,
		store:       NewCommitStore(store),
		queryRouter: queryRouter,
		baseContext: baseContext,
	}
	s = s.WithLogger(log.NewNopLogger())

	if s.chainID = mustLoadChainID(s.DeliverStore()); s.chainID != "" {
		s.baseContext = ledger.WithChainID(s.baseContext, s.chainID)
	}
	info, err := s.store.CommitInfo()
	if err != nil {
		panic(err)
	}
	s.blockContext = ledger.WithHeight(s.baseContext, info.Version)
	return s
}

// WithInit sets the initializer that is given the genesis app state.
func (s *StoreApp) WithInit(init ledger.Initializer) *StoreApp {
	s.initializer = init
	return s
}

// WithStateHash sets the function computing the state digest that is
// folded into every app hash.
func (s *StoreApp) WithStateHash(fn StateHasher) *StoreApp {
	s.stateHash = fn
	return s
}

// WithLogger sets the logger of the application and of every context it
// creates.
func (s *StoreApp) WithLogger(logger log.Logger) *StoreApp {
	s.logger = logger
	s.baseContext = ledger.WithLogger(s.baseContext, logger)
	return s
}

func (s *StoreApp) Logger() log.Logger {
	return s.logger
}

// GetChainID returns the chain id, or an empty string before genesis.
func (s *StoreApp) GetChainID() string {
	return s.chainID
}

// BlockContext returns the context of the block being built. It carries
// the chain id, the height and the block header.
func (s *StoreApp) BlockContext() ledger.Context {
	return s.blockContext
}

// DeliverStore returns the uncommitted state of the block being built.
func (s *StoreApp) DeliverStore() ledger.CacheableKVStore {
	return s.store.DeliverStore()
}

// CheckStore returns the state operations are checked against. It starts
// from the last commit and is dropped on the next one.
func (s *StoreApp) CheckStore() ledger.CacheableKVStore {
	return s.store.CheckStore()
}

// loadGenesis stores the chain id and hands the app state over to the
// initializer. A chain can be initialized only once.
func (s *StoreApp) loadGenesis(chainID string, appState []byte) error {
	if s.chainID != "" {
		return errors.Wrapf(errors.ErrState, "genesis already loaded for chain %q", s.chainID)
	}
	var opts ledger.Options
	if len(appState) != 0 {
		if err := json.Unmarshal(appState, &opts); err != nil {
			return errors.Wrapf(errors.ErrInput, "app state: %s", err)
		}
	}

	db := s.DeliverStore()
	if err := saveChainID(db, chainID); err != nil {
		return err
	}
	s.chainID = chainID
	s.baseContext = ledger.WithChainID(s.baseContext, chainID)

	if s.initializer == nil {
		return nil
	}
	return s.initializer.FromGenesis(opts, db)
}

// appHash returns the hash reported to tendermint for given commit. The
// state digest is computed over the committed snapshot, so a restarted node
// reports the same value.
func (s *StoreApp) appHash(id ledger.CommitID) ([]byte, error) {
	if s.stateHash == nil || id.Version == 0 {
		return id.Hash, nil
	}
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "snapshot: %s", err)
	}
	state, err := s.stateHash(snap)
	if err != nil {
		return nil, errors.Wrap(err, "state hash")
	}
	return ledger.Hash(id.Hash, state), nil
}

// mustAppHash returns the height and the app hash of the last commit.
func (s *StoreApp) mustAppHash() (int64, []byte) {
	info, err := s.store.CommitInfo()
	if err != nil {
		panic(err)
	}
	hash, err := s.appHash(info)
	if err != nil {
		panic(err)
	}
	return info.Version, hash
}

// Info implements abci.Application. It reports the last committed height
// and app hash, so that tendermint knows which blocks to replay.
func (s *StoreApp) Info(req abci.RequestInfo) abci.ResponseInfo {
	height, hash := s.mustAppHash()
	s.logger.Info("Info synced",
		"height", height,
		"hash", fmt.Sprintf("%X", hash))

	return abci.ResponseInfo{
		Data:             s.name,
		Version:          ledger.Version(),
		LastBlockHeight:  height,
		LastBlockAppHash: hash,
	}
}

// SetOption is not supported.
func (s *StoreApp) SetOption(res abci.RequestSetOption) abci.ResponseSetOption {
	return abci.ResponseSetOption{Log: "Not Implemented"}
}

/*
Query serves a read from the last committed version.

The path names a registered collection, for example "/accounts", and may end
with "?prefix" to read all entries whose key starts with the data. Any other
request data is the exact key.

Only the last committed height can be queried. Key and Value of the response
are both a ResultSet, holding as many entries as were found, in the same
order.
*/
func (s *StoreApp) Query(req abci.RequestQuery) abci.ResponseQuery {
	path, mod := splitPath(req.Path)
	qh := s.queryRouter.Handler(path)
	if qh == nil {
		return s.queryError(req, errors.Wrapf(errors.ErrNotFound, "unexpected query path: %v", req.Path))
	}

	info, err := s.store.CommitInfo()
	if err != nil {
		return s.queryError(req, err)
	}
	if req.Height != 0 && req.Height != info.Version {
		return s.queryError(req, errors.Wrapf(errors.ErrInput,
			"height %d not available, last commit is %d", req.Height, info.Version))
	}
	db, err := s.store.Snapshot()
	if err != nil {
		return s.queryError(req, errors.Wrapf(errors.ErrDatabase, "snapshot: %s", err))
	}

	models, err := qh.Query(db, mod, req.Data)
	if err != nil {
		return s.queryError(req, err)
	}
	res := abci.ResponseQuery{Height: info.Version}
	if res.Key, err = ResultsFromKeys(models).Marshal(); err != nil {
		return s.queryError(req, err)
	}
	if res.Value, err = ResultsFromValues(models).Marshal(); err != nil {
		return s.queryError(req, err)
	}
	return res
}

// splitPath cuts the query modifier, everything after "?", off the path.
func splitPath(path string) (string, string) {
	chunks := strings.SplitN(path, "?", 2)
	if len(chunks) == 1 {
		return path, ""
	}
	return chunks[0], chunks[1]
}

func (s *StoreApp) queryError(req abci.RequestQuery, err error) abci.ResponseQuery {
	code, log := errors.ABCIInfo(err, false)
	s.logger.Debug("Query failed", "path", req.Path, "err", err)
	return abci.ResponseQuery{
		Code: code,
		Log:  log,
	}
}

// Commit implements abci.Application. The block state is persisted and the
// new app hash returned.
func (s *StoreApp) Commit() (res abci.ResponseCommit) {
	if _, err := s.store.Commit(); err != nil {
		panic(err)
	}
	height, hash := s.mustAppHash()
	s.logger.Debug("Commit synced",
		"height", height,
		"hash", fmt.Sprintf("%X", hash))
	return abci.ResponseCommit{Data: hash}
}

// InitChain implements abci.Application. It loads the genesis.
func (s *StoreApp) InitChain(req abci.RequestInitChain) (res abci.ResponseInitChain) {
	if err := s.loadGenesis(req.ChainId, req.AppStateBytes); err != nil {
		panic(err)
	}
	return abci.ResponseInitChain{}
}

// BeginBlock implements abci.Application. It starts a new block context. A
// header of another chain is refused.
func (s *StoreApp) BeginBlock(req abci.RequestBeginBlock) (res abci.ResponseBeginBlock) {
	if id := req.Header.GetChainID(); s.chainID != "" && id != "" && id != s.chainID {
		panic(errors.Wrapf(errors.ErrInput, "block of chain %q, expected %q", id, s.chainID))
	}
	ctx := ledger.WithHeader(s.baseContext, req.Header)
	s.blockContext = ledger.WithHeight(ctx, req.Header.GetHeight())
	return res
}

// EndBlock implements abci.Application. The ledger has no validator or
// consensus parameter updates.
func (s *StoreApp) EndBlock(_ abci.RequestEndBlock) (res abci.ResponseEndBlock) {
	return res
}
