// Package message implements the BIP300 coinbase-message codec: parsing and
// encoding the four M1-M4 coinbase script variants and the drivechain-output
// script pattern used for CTIP transitions.
package message

// Magic headers identify a coinbase-message variant inside the single data
// push that follows OP_RETURN. Each is 4 bytes so a truncated or malformed
// push can be rejected before any variant-specific parsing begins.
var (
	MagicM1 = [4]byte{0xD5, 0xE0, 0xC4, 0xAF} // ProposeSidechain
	MagicM2 = [4]byte{0xD6, 0xE1, 0xC5, 0xDF} // AckSidechain
	MagicM3 = [4]byte{0xD4, 0x5A, 0xA9, 0x43} // ProposeBundle
	MagicM4 = [4]byte{0xD7, 0x7D, 0x17, 0x76} // AckBundles
)

// OpDrivechain is the opcode byte repurposed by this deployment to mark a
// CTIP-bearing output in a non-coinbase transaction. It is not part of
// upstream Bitcoin Script's standard opcode set; BIP300 reuses a reserved NOP
// slot the same way OP_RETURN reuses an originally-unconditional-invalid
// opcode.
const OpDrivechain = 0xb3

// OpTrue is the canonical "anyone can spend" marker terminating a drivechain
// output: OP_1.
const OpTrue = 0x51

const (
	// ABSTAIN_ONE_BYTE / ALARM_ONE_BYTE are the M4 OneByte sentinel upvote values.
	AbstainOneByte byte = 0xFF
	AlarmOneByte   byte = 0xFE

	// ABSTAIN_TWO_BYTES / ALARM_TWO_BYTES are the M4 TwoBytes sentinel upvote values.
	AbstainTwoBytes uint16 = 0xFFFF
	AlarmTwoBytes   uint16 = 0xFFFE
)
