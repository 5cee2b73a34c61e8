// Package facade is the thin adapter between a transport (cmd/bip300d) and
// the applier/assembler core: it decodes consensus-encoded Bitcoin bytes at
// the boundary, drives internal/applier and internal/assembler, and maps
// their errors onto the five ErrorKind values (parse, invariant violation,
// request validation, storage, unimplemented).
package facade

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/applier"
	"github.com/LayerTwo-Labs/bip300-monitor/internal/assembler"
	"github.com/LayerTwo-Labs/bip300-monitor/internal/store"
)

// ErrorKind classifies a facade error for transport-level status mapping.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindParse
	KindInvariantViolation
	KindRequestValidation
	KindStorage
	KindUnimplemented
)

// Validator wraps a store.DB and exposes the four RPC-surface operations
// from spec.md §6. The store itself serializes concurrent writers, so
// Validator needs no locking of its own.
type Validator struct {
	db *store.DB
}

// New opens (or creates) the database at path and returns a ready Validator.
func New(path string) (*Validator, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("facade: open store: %w", err)
	}
	return &Validator{db: db}, nil
}

// Close releases the underlying database.
func (v *Validator) Close() error { return v.db.Close() }

// IsValid implements the trivial health-check RPC from spec.md §6: it
// reports whether the validator is ready to accept requests, not whether
// any particular block is valid. Use internal/applier.IsBlockValid directly
// for an actual per-block dry run.
func (v *Validator) IsValid() bool { return true }

// ConnectBlock decodes a consensus-encoded Bitcoin block and applies it at
// height.
func (v *Validator) ConnectBlock(blockBytes []byte, height uint32) error {
	block, err := decodeBlock(blockBytes)
	if err != nil {
		return err
	}
	return classify(applier.ConnectBlock(v.db, block, height))
}

// DisconnectBlock decodes a consensus-encoded Bitcoin block and reverts its
// effect on the store.
func (v *Validator) DisconnectBlock(blockBytes []byte) error {
	block, err := decodeBlock(blockBytes)
	if err != nil {
		return err
	}
	return classify(applier.DisconnectBlock(v.db, block))
}

// GetCoinbasePsbt builds the coinbase transaction for req and returns its
// consensus-encoded bytes. The name is historical: the response is a plain
// serialized transaction, not a PSBT envelope.
func (v *Validator) GetCoinbasePsbt(req assembler.Request) ([]byte, error) {
	tx, err := assembler.BuildCoinbaseTx(req)
	if err != nil {
		return nil, &Error{Kind: KindRequestValidation, Cause: err}
	}
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, &Error{Kind: KindStorage, Cause: fmt.Errorf("facade: serialize coinbase tx: %w", err)}
	}
	return buf.Bytes(), nil
}

func decodeBlock(raw []byte) (*wire.MsgBlock, error) {
	block := &wire.MsgBlock{}
	if err := block.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, &Error{Kind: KindParse, Cause: fmt.Errorf("facade: decode block: %w", err)}
	}
	return block, nil
}

// Error is the typed error Validator methods return, carrying the RPC-level
// ErrorKind alongside the underlying applier error.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string { return e.Cause.Error() }
func (e *Error) Unwrap() error { return e.Cause }

// classify maps an internal/applier error onto the RPC-level ErrorKind
// taxonomy from spec.md §7.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, applier.ErrParse):
		return &Error{Kind: KindParse, Cause: err}
	case errors.Is(err, applier.ErrInvariantViolation):
		return &Error{Kind: KindInvariantViolation, Cause: err}
	case errors.Is(err, applier.ErrRequestValidation):
		return &Error{Kind: KindRequestValidation, Cause: err}
	case errors.Is(err, applier.ErrUnimplemented):
		return &Error{Kind: KindUnimplemented, Cause: err}
	default:
		return &Error{Kind: KindStorage, Cause: err}
	}
}
