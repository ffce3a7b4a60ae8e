package weavetest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// Tester is implemented by both *testing.T and *testing.B. Use it instead of
// the pointer type to allow notation to accept both objects.
type Tester interface {
	Helper()
	Errorf(string, ...interface{})
	Fatalf(string, ...interface{})
	Logf(string, ...interface{})
}

// WeaveRunner provides a translation layer between an ABCI interface and a
// ledger application. It takes care of serializing transactions and creating
// blocks.
type WeaveRunner struct {
	chainID string
	height  int64
	t       Tester
	app     abci.Application
}

// NewWeaveRunner creates a WeaveRunner instance that can be used to process
// deliver and check transaction requests using the ledger API.
func NewWeaveRunner(t Tester, app abci.Application, chainID string) *WeaveRunner {
	return &WeaveRunner{
		chainID: chainID,
		height:  0,
		t:       t,
		app:     app,
	}
}

// WeaveApp is the minimal interface required by the WeaveRunner to be able
// to connect ABCI and ledger APIs together.
type WeaveApp interface {
	DeliverTx(ledger.Tx) error
	CheckTx(ledger.Tx) error
}

var _ WeaveApp = (*WeaveRunner)(nil)

// ABCIError is returned when the application rejected a transaction. It
// carries the code and the log of the response.
type ABCIError struct {
	Code uint32
	Log  string
}

func (e *ABCIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Log)
}

// ABCICode returns the code of the response.
func (e *ABCIError) ABCICode() uint32 {
	return e.Code
}

// Cause returns the registered error of the response code, so that
// ErrXyz.Is can be used on a rejection.
func (e *ABCIError) Cause() error {
	if kind := errors.ForCode(e.Code); kind != nil {
		return kind
	}
	return nil
}

// InitChain serialize to JSON given genesis and loads it. Loading a genesis is
// causing a block creation.
func (w *WeaveRunner) InitChain(genesis interface{}) {
	w.t.Helper()

	raw, err := json.MarshalIndent(genesis, "", "  ")
	if err != nil {
		w.t.Fatalf("cannot JSON serialize genesis: %s", err)
	}

	// Load the genesis in a separate block.
	changed := w.InBlock(func(WeaveApp) error {
		w.app.InitChain(abci.RequestInitChain{
			Time:          time.Now(),
			ChainId:       w.chainID,
			AppStateBytes: raw,
		})
		return nil
	})

	if !changed {
		w.t.Fatalf("genesis did not change the state")
	}
}

// CheckTx translates given transaction into ABCI interface and executes.
func (w *WeaveRunner) CheckTx(tx ledger.Tx) error {
	raw, err := tx.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal transaction")
	}
	if resp := w.app.CheckTx(raw); resp.Code != 0 {
		return &ABCIError{Code: resp.Code, Log: resp.Log}
	}
	return nil
}

// DeliverTx translates given transaction into ABCI interface and executes.
func (w *WeaveRunner) DeliverTx(tx ledger.Tx) error {
	_, err := w.Deliver(tx)
	return err
}

// Deliver is like DeliverTx but it also returns the successful response.
func (w *WeaveRunner) Deliver(tx ledger.Tx) (*abci.ResponseDeliverTx, error) {
	raw, err := tx.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal transaction")
	}
	resp := w.app.DeliverTx(raw)
	if resp.Code != 0 {
		return nil, &ABCIError{Code: resp.Code, Log: resp.Log}
	}
	return &resp, nil
}

// InBlock begins a block and runs given function. All transactions executed
// within given function are part of newly created block. Upon success the
// block is finished and changes committed.
// InBlock returns true if the application state was modified.
//
// Any failure is ending the test instantly.
func (w *WeaveRunner) InBlock(executeTx func(WeaveApp) error) bool {
	w.t.Helper()

	w.height++

	initialHash := w.app.Info(abci.RequestInfo{}).LastBlockAppHash

	// BeginBlock will panic on error.
	w.app.BeginBlock(abci.RequestBeginBlock{
		Header: abci.Header{
			ChainID: w.chainID,
			Height:  w.height,
		},
	})

	if err := executeTx(w); err != nil {
		w.t.Fatalf("operation failed with %+v", err)
	}

	w.app.EndBlock(abci.RequestEndBlock{
		Height: w.height,
	})

	// Commit data contains the new app hash. It differs from the initial
	// hash only if the state was modified.
	finalHash := w.app.Commit().Data
	return !bytes.Equal(initialHash, finalHash)
}

// Query sends a query to the application. A response with non zero code
// fails the test.
func (w *WeaveRunner) Query(path string, data []byte) abci.ResponseQuery {
	w.t.Helper()

	resp := w.app.Query(abci.RequestQuery{
		Path: path,
		Data: data,
	})
	if resp.Code != 0 {
		w.t.Fatalf("query %q failed with %d: %s", path, resp.Code, resp.Log)
	}
	return resp
}

// Height returns the height of the last created block.
func (w *WeaveRunner) Height() int64 {
	return w.height
}
