package message

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// Encode is the inverse of Parse: it serializes m back to an OP_RETURN
// coinbase output script. Encoding is total — every value producible through
// the typed constructors round-trips.
func Encode(m Message) []byte {
	var magic [4]byte
	var body []byte

	switch v := m.(type) {
	case M1ProposeSidechain:
		magic = MagicM1
		body = append([]byte{v.SidechainNumber}, v.Data...)
	case M2AckSidechain:
		magic = MagicM2
		body = make([]byte, 0, 33)
		body = append(body, v.SidechainNumber)
		body = append(body, v.DataHash[:]...)
	case M3ProposeBundle:
		magic = MagicM3
		body = make([]byte, 0, 33)
		body = append(body, v.SidechainNumber)
		body = append(body, v.BundleTxid[:]...)
	case M4AckBundles:
		magic = MagicM4
		body = encodeM4Body(v)
	default:
		panic(fmt.Sprintf("message: unknown message type %T", m))
	}

	payload := append(append([]byte(nil), magic[:]...), body...)
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddFullData(payload).
		Script()
	if err != nil {
		// AddFullData never fails for payload sizes this protocol produces;
		// a failure here means a caller built an oversized M1 proposal.
		panic(fmt.Sprintf("message: encode: %v", err))
	}
	return script
}

func encodeM4Body(v M4AckBundles) []byte {
	switch v.Kind {
	case M4RepeatPrevious:
		return []byte{0x00}
	case M4LeadingBy50:
		return []byte{0x01}
	case M4OneByte:
		return append([]byte{0x02}, v.UpvotesOneByte...)
	case M4TwoBytes:
		out := make([]byte, 1+2*len(v.UpvotesTwoByte))
		out[0] = 0x03
		for i, u := range v.UpvotesTwoByte {
			binary.BigEndian.PutUint16(out[1+i*2:3+i*2], u)
		}
		return out
	default:
		panic(fmt.Sprintf("message: unknown M4 kind %v", v.Kind))
	}
}

// BuildDrivechainOutput encodes the fixed 4-byte drivechain-output script for
// sidechainNumber. The layout is hand-packed rather than built through
// txscript.ScriptBuilder.AddData because AddData minimally encodes small
// single-byte pushes as OP_1..OP_16, which would corrupt the fixed
// OP_PUSHBYTES_1 wire shape this pattern is defined by.
func BuildDrivechainOutput(sidechainNumber uint8) []byte {
	return []byte{OpDrivechain, txscript.OP_DATA_1, sidechainNumber, OpTrue}
}
