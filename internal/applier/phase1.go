package applier

import (
	"errors"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/message"
	"github.com/LayerTwo-Labs/bip300-monitor/internal/store"
)

// connectPhase1 walks the coinbase transaction's outputs in order, parsing
// each script via internal/message and dispatching M1-M4 against wtxn. ub
// records the pre-image of every row touched so the block can later be
// disconnected. height is the height the block is being connected at.
func connectPhase1(wtxn *store.WriteTxn, ub *store.UndoBuilder, outputs [][]byte, height uint32) error {
	var sawM4 bool
	seenM2 := map[[33]byte]bool{}

	for _, script := range outputs {
		msg, err := message.Parse(script)
		if err != nil {
			// Not every coinbase output encodes a BIP300 message; an output
			// that isn't even an OP_RETURN push (the usual case: the
			// miner's reward output) is simply not ours to process. An
			// OP_RETURN push that fails to decode as one of M1-M4 is a real
			// parse error and fails the whole block.
			if errors.Is(err, message.ErrNotOpReturn) {
				continue
			}
			return wrap(ErrParse, "coinbase output: %v", err)
		}

		switch m := msg.(type) {
		case message.M1ProposeSidechain:
			if err := applyM1(wtxn, ub, m, height); err != nil {
				return err
			}
		case message.M2AckSidechain:
			var key [33]byte
			key[0] = m.SidechainNumber
			copy(key[1:], m.DataHash[:])
			if seenM2[key] {
				return wrap(ErrInvariantViolation, "duplicate M2 for sidechain %d in one block", m.SidechainNumber)
			}
			seenM2[key] = true
			if err := applyM2(wtxn, ub, m, height); err != nil {
				return err
			}
		case message.M3ProposeBundle:
			if err := applyM3(wtxn, ub, m); err != nil {
				return err
			}
		case message.M4AckBundles:
			if sawM4 {
				return wrap(ErrInvariantViolation, "more than one M4 in a block")
			}
			sawM4 = true
			if err := applyM4(wtxn, ub, m); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyM1(wtxn *store.WriteTxn, ub *store.UndoBuilder, m message.M1ProposeSidechain, height uint32) error {
	h := message.Sha256d(m.Data)
	if err := ub.TouchProposal(h); err != nil {
		return wrap(ErrStorage, "touch proposal: %v", err)
	}
	_, exists, err := wtxn.GetProposal(h)
	if err != nil {
		return wrap(ErrStorage, "get proposal: %v", err)
	}
	if exists {
		return nil
	}
	return wtxn.PutProposal(h, store.SidechainProposal{
		SidechainNumber: m.SidechainNumber,
		Data:            m.Data,
		VoteCount:       0,
		ProposalHeight:  height,
	})
}

func applyM2(wtxn *store.WriteTxn, ub *store.UndoBuilder, m message.M2AckSidechain, height uint32) error {
	if err := ub.TouchProposal(m.DataHash); err != nil {
		return wrap(ErrStorage, "touch proposal: %v", err)
	}
	p, exists, err := wtxn.GetProposal(m.DataHash)
	if err != nil {
		return wrap(ErrStorage, "get proposal: %v", err)
	}
	if !exists || p.SidechainNumber != m.SidechainNumber {
		return nil
	}

	p.VoteCount++
	age := height - p.ProposalHeight

	_, used, err := wtxn.GetSidechain(p.SidechainNumber)
	if err != nil {
		return wrap(ErrStorage, "get sidechain: %v", err)
	}

	maxAge, threshold := UnusedMaxAge, UnusedThreshold
	if used {
		maxAge, threshold = UsedMaxAge, UsedThreshold
	}

	switch {
	case p.VoteCount > uint16(threshold):
		if used {
			// Promotion into an already-occupied slot takes no mutating
			// action; see DESIGN.md open question 3.
			return wtxn.PutProposal(m.DataHash, p)
		}
		if err := ub.TouchSidechain(p.SidechainNumber); err != nil {
			return wrap(ErrStorage, "touch sidechain: %v", err)
		}
		if err := wtxn.PutSidechain(p.SidechainNumber, store.Sidechain{
			SidechainNumber:  p.SidechainNumber,
			Data:             p.Data,
			VoteCount:        p.VoteCount,
			ProposalHeight:   p.ProposalHeight,
			ActivationHeight: height,
		}); err != nil {
			return wrap(ErrStorage, "put sidechain: %v", err)
		}
		// An activated slot starts with an empty bundle list for M3 to append to.
		if err := ub.TouchBundles(p.SidechainNumber); err != nil {
			return wrap(ErrStorage, "touch bundles: %v", err)
		}
		if _, hasBundles, err := wtxn.GetBundles(p.SidechainNumber); err != nil {
			return wrap(ErrStorage, "get bundles: %v", err)
		} else if !hasBundles {
			if err := wtxn.PutBundles(p.SidechainNumber, []store.Bundle{}); err != nil {
				return wrap(ErrStorage, "put bundles: %v", err)
			}
		}
		return wtxn.DeleteProposal(m.DataHash)
	case age > uint32(maxAge):
		return wtxn.DeleteProposal(m.DataHash)
	default:
		return wtxn.PutProposal(m.DataHash, p)
	}
}

func applyM3(wtxn *store.WriteTxn, ub *store.UndoBuilder, m message.M3ProposeBundle) error {
	if err := ub.TouchBundles(m.SidechainNumber); err != nil {
		return wrap(ErrStorage, "touch bundles: %v", err)
	}
	list, exists, err := wtxn.GetBundles(m.SidechainNumber)
	if err != nil {
		return wrap(ErrStorage, "get bundles: %v", err)
	}
	if !exists {
		// Slot isn't activated; no bundle list to append to.
		return nil
	}
	list = append(list, store.Bundle{BundleTxid: m.BundleTxid, VoteCount: 0})
	return wtxn.PutBundles(m.SidechainNumber, list)
}

func applyM4(wtxn *store.WriteTxn, ub *store.UndoBuilder, m message.M4AckBundles) error {
	switch m.Kind {
	case message.M4OneByte:
		return applyM4OneByte(wtxn, ub, m.UpvotesOneByte)
	case message.M4TwoBytes:
		return applyM4TwoBytes(wtxn, ub, m.UpvotesTwoByte)
	case message.M4RepeatPrevious:
		return wrap(ErrUnimplemented, "M4 RepeatPrevious")
	case message.M4LeadingBy50:
		return wrap(ErrUnimplemented, "M4 LeadingBy50")
	default:
		return wrap(ErrInvariantViolation, "unknown M4 kind %v", m.Kind)
	}
}

func applyM4OneByte(wtxn *store.WriteTxn, ub *store.UndoBuilder, upvotes []byte) error {
	for i, v := range upvotes {
		if v == message.AbstainOneByte {
			continue
		}
		sn := uint8(i)
		if err := ub.TouchBundles(sn); err != nil {
			return wrap(ErrStorage, "touch bundles: %v", err)
		}
		list, exists, err := wtxn.GetBundles(sn)
		if err != nil {
			return wrap(ErrStorage, "get bundles: %v", err)
		}
		if !exists {
			continue
		}
		if v == message.AlarmOneByte {
			alarmBundles(list)
		} else if int(v) < len(list) {
			list[v].VoteCount++
		}
		if err := wtxn.PutBundles(sn, list); err != nil {
			return wrap(ErrStorage, "put bundles: %v", err)
		}
	}
	return nil
}

func applyM4TwoBytes(wtxn *store.WriteTxn, ub *store.UndoBuilder, upvotes []uint16) error {
	for i, v := range upvotes {
		if v == message.AbstainTwoBytes {
			continue
		}
		sn := uint8(i)
		if err := ub.TouchBundles(sn); err != nil {
			return wrap(ErrStorage, "touch bundles: %v", err)
		}
		list, exists, err := wtxn.GetBundles(sn)
		if err != nil {
			return wrap(ErrStorage, "get bundles: %v", err)
		}
		if !exists {
			continue
		}
		if v == message.AlarmTwoBytes {
			alarmBundles(list)
		} else if int(v) < len(list) {
			list[v].VoteCount++
		}
		if err := wtxn.PutBundles(sn, list); err != nil {
			return wrap(ErrStorage, "put bundles: %v", err)
		}
	}
	return nil
}

// alarmBundles decrements every bundle's vote_count in place, saturating at
// zero rather than underflowing.
func alarmBundles(list []store.Bundle) {
	for i := range list {
		if list[i].VoteCount > 0 {
			list[i].VoteCount--
		}
	}
}
