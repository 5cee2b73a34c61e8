package store

import (
	"errors"
	"path/filepath"
	"testing"
)

var errRollbackSentinel = errors.New("store: test rollback")

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bip300.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_RejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestOpen_CreatesEveryBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bip300.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.BeginRead(func(rtxn *ReadTxn) error {
		for _, name := range allBuckets {
			if rtxn.tx.Bucket(name) == nil {
				t.Fatalf("bucket %s missing", name)
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
}

func TestBeginWrite_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	hash := [32]byte{0x01}
	err := db.BeginWrite(func(wtxn *WriteTxn) error {
		if err := wtxn.PutProposal(hash, SidechainProposal{SidechainNumber: 1}); err != nil {
			return err
		}
		return errRollbackSentinel
	})
	if err == nil {
		t.Fatalf("expected error to propagate")
	}

	if err := db.BeginRead(func(rtxn *ReadTxn) error {
		_, ok, err := rtxn.GetProposal(hash)
		if err != nil {
			return err
		}
		if ok {
			t.Fatalf("proposal should not have been committed")
		}
		return nil
	}); err != nil {
		t.Fatalf("BeginRead: %v", err)
	}
}
