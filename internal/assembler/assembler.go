// Package assembler builds the coinbase transaction a miner should include
// to emit a requested set of BIP300 messages: a pure transform from a
// structured request to a github.com/btcsuite/btcd/wire.MsgTx, never
// touching the state store.
package assembler

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/message"
)

// ErrUpvoteTooLarge is returned when an AckBundles upvote exceeds the
// 16-bit TwoBytes width this deployment supports.
var ErrUpvoteTooLarge = errors.New("assembler: upvote exceeds 0xFFFF")

// ProposeSidechain mirrors message.M1ProposeSidechain as a request item.
type ProposeSidechain struct {
	SidechainNumber uint8
	Data            []byte
}

// AckSidechain mirrors message.M2AckSidechain as a request item.
type AckSidechain struct {
	SidechainNumber uint8
	DataHash        [32]byte
}

// ProposeBundle mirrors message.M3ProposeBundle as a request item.
type ProposeBundle struct {
	SidechainNumber uint8
	BundleTxid      [32]byte
}

// AckBundlesTag selects which of the four M4 forms a request's AckBundles
// entry asks for. Upvotes is resolved to OneByte or TwoBytes by
// BuildCoinbaseTx based on the largest value present.
type AckBundlesTag int

const (
	AckBundlesRepeatPrevious AckBundlesTag = iota
	AckBundlesLeadingBy50
	AckBundlesUpvotes
)

// AckBundles is the optional single M4 entry in a Request.
type AckBundles struct {
	Tag     AckBundlesTag
	Upvotes []uint32
}

// Request lists the messages to assemble into one coinbase transaction, in
// the order their outputs should appear.
type Request struct {
	ProposeSidechains []ProposeSidechain
	AckSidechains     []AckSidechain
	ProposeBundles    []ProposeBundle
	AckBundles        *AckBundles
}

// BuildCoinbaseTx assembles req into a transaction with no inputs, version
// 2, locktime 0, and one zero-value output per requested message, encoded
// via internal/message. Output order follows the request's field order:
// proposals, then acks, then bundle proposals, then the single AckBundles
// entry if present.
func BuildCoinbaseTx(req Request) (*wire.MsgTx, error) {
	var msgs []message.Message

	for _, p := range req.ProposeSidechains {
		msgs = append(msgs, message.M1ProposeSidechain{SidechainNumber: p.SidechainNumber, Data: p.Data})
	}
	for _, a := range req.AckSidechains {
		msgs = append(msgs, message.M2AckSidechain{SidechainNumber: a.SidechainNumber, DataHash: a.DataHash})
	}
	for _, b := range req.ProposeBundles {
		msgs = append(msgs, message.M3ProposeBundle{SidechainNumber: b.SidechainNumber, BundleTxid: b.BundleTxid})
	}
	if req.AckBundles != nil {
		m4, err := buildAckBundles(*req.AckBundles)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m4)
	}

	tx := wire.NewMsgTx(2)
	tx.LockTime = 0
	for _, m := range msgs {
		tx.AddTxOut(wire.NewTxOut(0, message.Encode(m)))
	}
	return tx, nil
}

func buildAckBundles(a AckBundles) (message.M4AckBundles, error) {
	switch a.Tag {
	case AckBundlesRepeatPrevious:
		return message.M4AckBundles{Kind: message.M4RepeatPrevious}, nil
	case AckBundlesLeadingBy50:
		return message.M4AckBundles{Kind: message.M4LeadingBy50}, nil
	case AckBundlesUpvotes:
		return buildUpvotes(a.Upvotes)
	default:
		return message.M4AckBundles{}, fmt.Errorf("assembler: unknown AckBundles tag %v", a.Tag)
	}
}

// buildUpvotes picks OneByte when every upvote fits in a byte, otherwise
// TwoBytes, otherwise rejects the request: exactly the width-selection rule
// in spec.md §4.D.
func buildUpvotes(upvotes []uint32) (message.M4AckBundles, error) {
	twoBytes := false
	for _, v := range upvotes {
		if v > 0xFFFF {
			return message.M4AckBundles{}, fmt.Errorf("%w: %d", ErrUpvoteTooLarge, v)
		}
		if v > 0xFF {
			twoBytes = true
		}
	}
	if twoBytes {
		out := make([]uint16, len(upvotes))
		for i, v := range upvotes {
			out[i] = uint16(v)
		}
		return message.M4AckBundles{Kind: message.M4TwoBytes, UpvotesTwoByte: out}, nil
	}
	out := make([]byte, len(upvotes))
	for i, v := range upvotes {
		out[i] = byte(v)
	}
	return message.M4AckBundles{Kind: message.M4OneByte, UpvotesOneByte: out}, nil
}
