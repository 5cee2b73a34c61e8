package store

import "encoding/binary"

// Deposit records one M5 credit to a sidechain's treasury: an Address field
// (filled by the applier with the depositing transaction's hash, since the
// drivechain output carries no address), the value of that individual
// credit, and the sidechain's running total after it. This is the
// feature the original source sketched as per-sidechain deposit_txos_N
// tables; per the redesign note it is collapsed into one table keyed by the
// compound (sidechain_number, deposit_number).
type Deposit struct {
	Address    [32]byte
	Value      uint64
	TotalValue uint64
}

// DepositKey is the compound key (sidechain_number:u8 || deposit_number:u64)
// identifying one row in the deposit ledger.
type DepositKey struct {
	SidechainNumber uint8
	DepositNumber   uint64
}

func encodeDepositKey(k DepositKey) []byte {
	out := make([]byte, 9)
	out[0] = k.SidechainNumber
	binary.BigEndian.PutUint64(out[1:9], k.DepositNumber)
	return out
}

func decodeDepositKey(b []byte) DepositKey {
	return DepositKey{
		SidechainNumber: b[0],
		DepositNumber:   binary.BigEndian.Uint64(b[1:9]),
	}
}
