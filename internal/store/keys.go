package store

// encodeU8Key and decodeU8Key key the per-sidechain tables by the raw
// sidechain number byte.
func encodeU8Key(n uint8) []byte { return []byte{n} }
func decodeU8Key(b []byte) uint8 { return b[0] }

// encodeHashKey and decodeHashKey key proposal_by_datahash by the raw 32-byte
// hash.
func encodeHashKey(h [32]byte) []byte { return append([]byte(nil), h[:]...) }
func decodeHashKey(b []byte) [32]byte {
	var h [32]byte
	copy(h[:], b)
	return h
}

// encodeSingletonKey and decodeSingletonKey key the previous_votes and
// leading_by_50 singleton tables.
func encodeSingletonKey(struct{}) []byte { return singletonKey }
func decodeSingletonKey([]byte) struct{} { return struct{}{} }
