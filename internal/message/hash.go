package message

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Sha256d is the double-SHA256 hash used throughout BIP300 to derive a
// proposal's data_hash. It delegates to chainhash.DoubleHashH, the same
// primitive real Bitcoin transaction and block hashing uses, rather than
// calling crypto/sha256 twice by hand.
func Sha256d(data []byte) [32]byte {
	return [32]byte(chainhash.DoubleHashH(data))
}
