package store

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// ctipWireLen is the spec-mandated fixed width of a Ctip row: 32-byte txid,
// 4-byte big-endian vout, 8-byte big-endian value.
const ctipWireLen = 32 + 4 + 8

// Ctip is the Critical Treasury Tip for one activated sidechain: the single
// outpoint currently holding its locked treasury value.
type Ctip struct {
	Outpoint wire.OutPoint
	Value    uint64
}

// encodeCtip hand-packs a Ctip into its fixed 44-byte wire form. A general
// serializer is deliberately not used here: per the data model, the stored
// bytes are part of the observable contract, the same reasoning that keeps
// block-index rows in the teacher's store hand-packed rather than run
// through a schema-evolving codec.
func encodeCtip(c Ctip) []byte {
	out := make([]byte, ctipWireLen)
	copy(out[0:32], c.Outpoint.Hash[:])
	binary.BigEndian.PutUint32(out[32:36], c.Outpoint.Index)
	binary.BigEndian.PutUint64(out[36:44], c.Value)
	return out
}

func decodeCtip(b []byte) (Ctip, error) {
	if len(b) != ctipWireLen {
		return Ctip{}, fmt.Errorf("store: ctip: expected %d bytes, got %d", ctipWireLen, len(b))
	}
	var c Ctip
	copy(c.Outpoint.Hash[:], b[0:32])
	c.Outpoint.Index = binary.BigEndian.Uint32(b[32:36])
	c.Value = binary.BigEndian.Uint64(b[36:44])
	return c, nil
}
