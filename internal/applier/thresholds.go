// Package applier runs the block-connected state machine: phase 1 walks the
// coinbase outputs through internal/message and updates proposal/sidechain/
// bundle tallies; phase 2 walks the remaining transactions for CTIP
// transitions. Both phases run inside one store.WriteTxn per block, with
// every touched row's pre-image captured by a store.UndoBuilder so
// DisconnectBlock can restore the prior state exactly.
package applier

// Promotion/expiry thresholds for M2 acks, named after the BIP300 constants
// they implement. An "occupied" slot (one already holding an activated
// Sidechain) uses the larger retarget-period-scaled thresholds; an "empty"
// slot uses the shorter ones.
const (
	UsedMaxAge      = 26300
	UsedThreshold   = 13150
	UnusedMaxAge    = 2016
	UnusedThreshold = 1815
)
