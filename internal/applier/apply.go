package applier

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/store"
)

// ConnectBlock applies block at height inside a single write transaction:
// phase 1 walks the coinbase outputs, phase 2 walks the remaining
// transactions for CTIP transitions. Every touched row's pre-image is
// captured so DisconnectBlock can invert the effect later. On any error the
// transaction is rolled back and the store is left unchanged.
func ConnectBlock(db *store.DB, block *wire.MsgBlock, height uint32) error {
	if len(block.Transactions) == 0 {
		return wrap(ErrInvariantViolation, "block has no coinbase transaction")
	}
	blockHash := [32]byte(block.BlockHash())

	return db.BeginWrite(func(wtxn *store.WriteTxn) error {
		ub := store.NewUndoBuilder(wtxn)

		coinbase := block.Transactions[0]
		outputs := make([][]byte, len(coinbase.TxOut))
		for i, out := range coinbase.TxOut {
			outputs[i] = out.PkScript
		}
		if err := connectPhase1(wtxn, ub, outputs, height); err != nil {
			return err
		}
		if err := connectPhase2(wtxn, ub, block.Transactions[1:]); err != nil {
			return err
		}

		if err := wtxn.PutUndo(blockHash, ub.Record()); err != nil {
			return wrap(ErrStorage, "put undo record: %v", err)
		}
		return nil
	})
}

// DisconnectBlock restores the state to exactly what it was before block was
// connected, by loading and replaying its undo record in reverse. It is the
// exact inverse of ConnectBlock regardless of how many times a row was
// mutated mid-block, because the undo record holds only the pre-block value
// of every row touched.
func DisconnectBlock(db *store.DB, block *wire.MsgBlock) error {
	blockHash := [32]byte(block.BlockHash())

	return db.BeginWrite(func(wtxn *store.WriteTxn) error {
		rec, ok, err := wtxn.GetUndo(blockHash)
		if err != nil {
			return wrap(ErrStorage, "get undo record: %v", err)
		}
		if !ok {
			return wrap(ErrInvariantViolation, "no undo record for block %s", chainhash.Hash(blockHash))
		}
		if err := store.Apply(wtxn, rec); err != nil {
			return wrap(ErrStorage, "apply undo record: %v", err)
		}
		return wtxn.DeleteUndo(blockHash)
	})
}
