// Package store implements the durable, transactional key/value layer
// underneath the BIP300 state machine: typed tables over a single embedded
// bbolt database, single-writer/many-reader semantics, and atomic per-block
// commit.
package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names mirror the logical table names from the data model.
var (
	bucketProposalByDataHash = []byte("proposal_by_datahash")
	bucketSidechainByNumber  = []byte("sidechain_by_number")
	bucketBundlesBySidechain = []byte("bundles_by_sidechain")
	bucketCtipBySidechain    = []byte("ctip_by_sidechain")
	bucketPreviousVotes      = []byte("previous_votes")
	bucketLeadingBy50        = []byte("leading_by_50")
	bucketDepositBySidechain = []byte("deposit_by_sidechain_and_number")
	bucketUndoByBlockHash    = []byte("undo_by_block_hash")

	allBuckets = [][]byte{
		bucketProposalByDataHash,
		bucketSidechainByNumber,
		bucketBundlesBySidechain,
		bucketCtipBySidechain,
		bucketPreviousVotes,
		bucketLeadingBy50,
		bucketDepositBySidechain,
		bucketUndoByBlockHash,
	}

	// singletonKey is the one key used by the previous_votes and
	// leading_by_50 singleton tables.
	singletonKey = []byte{0x00}
)

// DB wraps a bbolt database and exposes the transactional contract the BIP300
// state machine is built on.
type DB struct {
	bolt *bolt.DB
}

// Open creates (if needed) and opens the database file at path, ensuring
// every declared bucket exists.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("store: path required")
	}
	b, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	d := &DB{bolt: b}
	if err := b.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", string(name), err)
			}
		}
		return nil
	}); err != nil {
		_ = b.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the underlying database file.
func (d *DB) Close() error {
	if d == nil || d.bolt == nil {
		return nil
	}
	return d.bolt.Close()
}

// WriteTxn is a single exclusive write transaction spanning every table. The
// writer lock is held by bbolt's own Update machinery: a second concurrent
// BeginWrite blocks until this one's fn returns.
type WriteTxn struct {
	tx *bolt.Tx
}

// ReadTxn is a consistent point-in-time snapshot.
type ReadTxn struct {
	tx *bolt.Tx
}

// BeginWrite runs fn inside a single atomic write transaction. fn's error
// (if any) aborts the transaction; otherwise the transaction commits
// atomically and durably before BeginWrite returns.
func (d *DB) BeginWrite(fn func(*WriteTxn) error) error {
	return d.bolt.Update(func(tx *bolt.Tx) error {
		return fn(&WriteTxn{tx: tx})
	})
}

// BeginRead runs fn against a read-only snapshot. Mutations attempted through
// a ReadTxn's tables are not exposed; ReadTxn intentionally has no
// Insert/Remove methods.
func (d *DB) BeginRead(fn func(*ReadTxn) error) error {
	return d.bolt.View(func(tx *bolt.Tx) error {
		return fn(&ReadTxn{tx: tx})
	})
}
