/*
Package ledger defines the core interfaces of a multisignature wallet ledger.

State is kept in an authenticated key value store. Every operation delivered
by the host runs against a transactional view (KVCacheWrap) of that store and
is either written back as a whole or discarded. Reads that must not observe
uncommitted data go through a committed snapshot.

Operations are Msg instances carried by a Tx and processed by a Handler. The
Handler receives a Context that carries the verified signer, the digest of
the operation, the logger and the block information provided by the host.

Concrete implementations live in sub packages: store and store/iavl for the
storage engines, orm for typed and authenticated collections, x/wallet for
the ledger state machine and app for the ABCI host.
*/
package ledger
