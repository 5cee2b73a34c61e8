package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"
)

// cborTable is a generic typed handle over one bbolt bucket whose values are
// self-describing CBOR (the Go analogue of the original store's bincode
// values): Sidechain, SidechainProposal, the per-sidechain Bundle list, the
// PreviousVotes/LeadingBy50 singletons, and the Deposit ledger all go through
// this. Fixed-width values (Ctip) intentionally do not: see codec_ctip.go.
type cborTable[K comparable, V any] struct {
	bucket    []byte
	encodeKey func(K) []byte
	decodeKey func([]byte) K
}

func newCborTable[K comparable, V any](bucket []byte, encodeKey func(K) []byte, decodeKey func([]byte) K) cborTable[K, V] {
	return cborTable[K, V]{bucket: bucket, encodeKey: encodeKey, decodeKey: decodeKey}
}

func (t cborTable[K, V]) bucketOf(tx *bolt.Tx) *bolt.Bucket {
	return tx.Bucket(t.bucket)
}

// Get reads and CBOR-decodes the row for key. ok is false if the row does
// not exist.
func (t cborTable[K, V]) Get(tx *bolt.Tx, key K) (V, bool, error) {
	var zero V
	raw := t.bucketOf(tx).Get(t.encodeKey(key))
	if raw == nil {
		return zero, false, nil
	}
	var v V
	if err := cbor.Unmarshal(raw, &v); err != nil {
		return zero, false, fmt.Errorf("store: decode %s: %w", string(t.bucket), err)
	}
	return v, true, nil
}

// Put CBOR-encodes value and writes it under key, overwriting any prior row.
func (t cborTable[K, V]) Put(tx *bolt.Tx, key K, value V) error {
	raw, err := cbor.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", string(t.bucket), err)
	}
	return t.bucketOf(tx).Put(t.encodeKey(key), raw)
}

// Delete removes the row for key. Deleting an absent key is a no-op, matching
// bbolt semantics.
func (t cborTable[K, V]) Delete(tx *bolt.Tx, key K) error {
	return t.bucketOf(tx).Delete(t.encodeKey(key))
}

// ForEach decodes and visits every row in key order. Returning an error from
// fn stops iteration and propagates the error.
func (t cborTable[K, V]) ForEach(tx *bolt.Tx, fn func(K, V) error) error {
	return t.bucketOf(tx).ForEach(func(k, raw []byte) error {
		var v V
		if err := cbor.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("store: decode %s: %w", string(t.bucket), err)
		}
		return fn(t.decodeKey(k), v)
	})
}
