package applier

import (
	"errors"

	"github.com/btcsuite/btcd/wire"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/store"
)

// Verdict is the structured result of a dry-run validation: whether the
// input would be accepted by ConnectBlock, and the reason if not.
type Verdict struct {
	Valid  bool
	Reason string
}

// errAbortDryRun forces the scratch write transaction in IsBlockValid to
// roll back even when phase1/phase2 succeed; bbolt only rolls back an
// Update transaction when its callback returns a non-nil error.
var errAbortDryRun = errors.New("applier: dry run complete")

// IsBlockValid runs ConnectBlock's exact logic against a scratch
// transaction and always rolls it back, returning a verdict instead of
// committing, so a caller can pre-check a block before the upstream node
// actually connects it.
func IsBlockValid(db *store.DB, block *wire.MsgBlock, height uint32) (Verdict, error) {
	var applyErr error
	err := db.BeginWrite(func(wtxn *store.WriteTxn) error {
		ub := store.NewUndoBuilder(wtxn)
		if len(block.Transactions) == 0 {
			applyErr = wrap(ErrInvariantViolation, "block has no coinbase transaction")
			return errAbortDryRun
		}
		coinbase := block.Transactions[0]
		outputs := make([][]byte, len(coinbase.TxOut))
		for i, out := range coinbase.TxOut {
			outputs[i] = out.PkScript
		}
		if err := connectPhase1(wtxn, ub, outputs, height); err != nil {
			applyErr = err
			return errAbortDryRun
		}
		if err := connectPhase2(wtxn, ub, block.Transactions[1:]); err != nil {
			applyErr = err
			return errAbortDryRun
		}
		return errAbortDryRun
	})
	if err != nil && !errors.Is(err, errAbortDryRun) {
		return Verdict{}, wrap(ErrStorage, "dry run: %v", err)
	}
	if applyErr != nil {
		return Verdict{Valid: false, Reason: applyErr.Error()}, nil
	}
	return Verdict{Valid: true}, nil
}

// IsTransactionValid runs phase 2's CTIP-transition check for a single
// non-coinbase transaction against a scratch transaction, without mutating
// the store.
func IsTransactionValid(db *store.DB, tx *wire.MsgTx) (Verdict, error) {
	var applyErr error
	err := db.BeginWrite(func(wtxn *store.WriteTxn) error {
		ub := store.NewUndoBuilder(wtxn)
		if err := connectPhase2(wtxn, ub, []*wire.MsgTx{tx}); err != nil {
			applyErr = err
		}
		return errAbortDryRun
	})
	if err != nil && !errors.Is(err, errAbortDryRun) {
		return Verdict{}, wrap(ErrStorage, "dry run: %v", err)
	}
	if applyErr != nil {
		return Verdict{Valid: false, Reason: applyErr.Error()}, nil
	}
	return Verdict{Valid: true}, nil
}
