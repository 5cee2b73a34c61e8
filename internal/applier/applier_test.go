package applier

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/wire"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/message"
	"github.com/LayerTwo-Labs/bip300-monitor/internal/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "bip300.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// buildBlock constructs a minimal wire.MsgBlock whose coinbase transaction's
// outputs carry coinbaseScripts in order, followed by any additional
// transactions.
func buildBlock(coinbaseScripts [][]byte, txs ...*wire.MsgTx) *wire.MsgBlock {
	coinbase := wire.NewMsgTx(2)
	coinbase.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0xffffffff}})
	for _, s := range coinbaseScripts {
		coinbase.AddTxOut(wire.NewTxOut(0, s))
	}
	block := &wire.MsgBlock{Transactions: append([]*wire.MsgTx{coinbase}, txs...)}
	return block
}

func m1Script(sn uint8, data []byte) []byte {
	return message.Encode(message.M1ProposeSidechain{SidechainNumber: sn, Data: data})
}

func m2Script(sn uint8, dataHash [32]byte) []byte {
	return message.Encode(message.M2AckSidechain{SidechainNumber: sn, DataHash: dataHash})
}

func m3Script(sn uint8, txid [32]byte) []byte {
	return message.Encode(message.M3ProposeBundle{SidechainNumber: sn, BundleTxid: txid})
}

func m4OneByteScript(upvotes []byte) []byte {
	return message.Encode(message.M4AckBundles{Kind: message.M4OneByte, UpvotesOneByte: upvotes})
}

// activateSidechain drives the required sequence of M1+M2s to bring slot sn
// to activation at dataHash, starting at height 100, and returns the height
// the activating block lands at.
func activateSidechain(t *testing.T, db *store.DB, sn uint8, data []byte) uint32 {
	t.Helper()
	hash := message.Sha256d(data)
	if err := ConnectBlock(db, buildBlock([][]byte{m1Script(sn, data)}), 100); err != nil {
		t.Fatalf("connect M1: %v", err)
	}
	var lastHeight uint32
	for i := 0; i < UnusedThreshold+1; i++ {
		lastHeight = uint32(101 + i)
		if err := ConnectBlock(db, buildBlock([][]byte{m2Script(sn, hash)}), lastHeight); err != nil {
			t.Fatalf("connect M2 #%d: %v", i, err)
		}
	}
	return lastHeight
}
