package store

// UndoRecord is the pre-image of every row connect_block touched for one
// block, keyed by block hash in undo_by_block_hash. disconnect_block replays
// it by restoring (or deleting) each entry, which is sufficient regardless of
// how many times a row was mutated mid-block: only its value immediately
// before the block started matters.
//
// This table is internal to the store package; applier is the only caller
// that builds and replays a record.
type UndoRecord struct {
	Proposals     []ProposalUndoEntry
	Sidechains    []SidechainUndoEntry
	Bundles       []BundlesUndoEntry
	Ctips         []CtipUndoEntry
	PreviousVotes *VotesUndoEntry
	LeadingBy50   *VotesUndoEntry
	Deposits      []DepositUndoEntry
}

type ProposalUndoEntry struct {
	Key     [32]byte
	Existed bool
	Value   SidechainProposal
}

type SidechainUndoEntry struct {
	Key     uint8
	Existed bool
	Value   Sidechain
}

type BundlesUndoEntry struct {
	Key     uint8
	Existed bool
	Value   []Bundle
}

type CtipUndoEntry struct {
	Key     uint8
	Existed bool
	Value   Ctip
}

type VotesUndoEntry struct {
	Existed bool
	Value   [][32]byte
}

type DepositUndoEntry struct {
	Key     DepositKey
	Existed bool
	Value   Deposit
}

// NewUndoBuilder returns an UndoBuilder that records first-touch pre-images
// against wtxn as the caller mutates rows.
func NewUndoBuilder(wtxn *WriteTxn) *UndoBuilder {
	return &UndoBuilder{wtxn: wtxn, touchedProposals: map[[32]byte]bool{}, touchedSidechains: map[uint8]bool{}, touchedBundles: map[uint8]bool{}, touchedCtips: map[uint8]bool{}, touchedDeposits: map[DepositKey]bool{}}
}

// UndoBuilder accumulates an UndoRecord across a block's application. Touch*
// methods are idempotent: only the first call per key captures the
// pre-image.
type UndoBuilder struct {
	wtxn *WriteTxn
	rec  UndoRecord

	touchedProposals  map[[32]byte]bool
	touchedSidechains map[uint8]bool
	touchedBundles    map[uint8]bool
	touchedCtips      map[uint8]bool
	touchedDeposits   map[DepositKey]bool
	touchedPrevVotes  bool
	touchedLeading    bool
}

func (u *UndoBuilder) TouchProposal(key [32]byte) error {
	if u.touchedProposals[key] {
		return nil
	}
	u.touchedProposals[key] = true
	v, ok, err := u.wtxn.GetProposal(key)
	if err != nil {
		return err
	}
	u.rec.Proposals = append(u.rec.Proposals, ProposalUndoEntry{Key: key, Existed: ok, Value: v})
	return nil
}

func (u *UndoBuilder) TouchSidechain(key uint8) error {
	if u.touchedSidechains[key] {
		return nil
	}
	u.touchedSidechains[key] = true
	v, ok, err := u.wtxn.GetSidechain(key)
	if err != nil {
		return err
	}
	u.rec.Sidechains = append(u.rec.Sidechains, SidechainUndoEntry{Key: key, Existed: ok, Value: v})
	return nil
}

func (u *UndoBuilder) TouchBundles(key uint8) error {
	if u.touchedBundles[key] {
		return nil
	}
	u.touchedBundles[key] = true
	v, ok, err := u.wtxn.GetBundles(key)
	if err != nil {
		return err
	}
	u.rec.Bundles = append(u.rec.Bundles, BundlesUndoEntry{Key: key, Existed: ok, Value: v})
	return nil
}

func (u *UndoBuilder) TouchCtip(key uint8) error {
	if u.touchedCtips[key] {
		return nil
	}
	u.touchedCtips[key] = true
	v, ok, err := u.wtxn.GetCtip(key)
	if err != nil {
		return err
	}
	u.rec.Ctips = append(u.rec.Ctips, CtipUndoEntry{Key: key, Existed: ok, Value: v})
	return nil
}

func (u *UndoBuilder) TouchPreviousVotes() error {
	if u.touchedPrevVotes {
		return nil
	}
	u.touchedPrevVotes = true
	v, ok, err := u.wtxn.GetPreviousVotes()
	if err != nil {
		return err
	}
	u.rec.PreviousVotes = &VotesUndoEntry{Existed: ok, Value: v}
	return nil
}

func (u *UndoBuilder) TouchLeadingBy50() error {
	if u.touchedLeading {
		return nil
	}
	u.touchedLeading = true
	v, ok, err := u.wtxn.GetLeadingBy50()
	if err != nil {
		return err
	}
	u.rec.LeadingBy50 = &VotesUndoEntry{Existed: ok, Value: v}
	return nil
}

func (u *UndoBuilder) TouchDeposit(key DepositKey) error {
	if u.touchedDeposits[key] {
		return nil
	}
	u.touchedDeposits[key] = true
	v, ok, err := u.wtxn.GetDeposit(key)
	if err != nil {
		return err
	}
	u.rec.Deposits = append(u.rec.Deposits, DepositUndoEntry{Key: key, Existed: ok, Value: v})
	return nil
}

// Record returns the accumulated UndoRecord, ready to be persisted with
// WriteTxn.PutUndo.
func (u *UndoBuilder) Record() UndoRecord { return u.rec }

// Apply restores every entry in rec to its pre-block value, undoing a
// connect_block. Order does not matter: every entry targets a distinct key.
func Apply(wtxn *WriteTxn, rec UndoRecord) error {
	for _, e := range rec.Proposals {
		if e.Existed {
			if err := wtxn.PutProposal(e.Key, e.Value); err != nil {
				return err
			}
		} else if err := wtxn.DeleteProposal(e.Key); err != nil {
			return err
		}
	}
	for _, e := range rec.Sidechains {
		if e.Existed {
			if err := wtxn.PutSidechain(e.Key, e.Value); err != nil {
				return err
			}
		} else if err := wtxn.DeleteSidechain(e.Key); err != nil {
			return err
		}
	}
	for _, e := range rec.Bundles {
		if e.Existed {
			if err := wtxn.PutBundles(e.Key, e.Value); err != nil {
				return err
			}
		} else if err := wtxn.DeleteBundles(e.Key); err != nil {
			return err
		}
	}
	for _, e := range rec.Ctips {
		if e.Existed {
			if err := wtxn.PutCtip(e.Key, e.Value); err != nil {
				return err
			}
		} else if err := wtxn.DeleteCtip(e.Key); err != nil {
			return err
		}
	}
	if rec.PreviousVotes != nil {
		if rec.PreviousVotes.Existed {
			if err := wtxn.PutPreviousVotes(rec.PreviousVotes.Value); err != nil {
				return err
			}
		} else if err := previousVotesTable.Delete(wtxn.tx, struct{}{}); err != nil {
			return err
		}
	}
	if rec.LeadingBy50 != nil {
		if rec.LeadingBy50.Existed {
			if err := wtxn.PutLeadingBy50(rec.LeadingBy50.Value); err != nil {
				return err
			}
		} else if err := leadingBy50Table.Delete(wtxn.tx, struct{}{}); err != nil {
			return err
		}
	}
	for _, e := range rec.Deposits {
		if e.Existed {
			if err := wtxn.PutDeposit(e.Key, e.Value); err != nil {
				return err
			}
		} else if err := wtxn.DeleteDeposit(e.Key); err != nil {
			return err
		}
	}
	return nil
}
