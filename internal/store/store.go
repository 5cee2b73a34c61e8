package store

// SidechainProposal is a candidate sidechain awaiting enough M2 acks to
// activate. It is keyed by data_hash = SHA256d(Data) in proposal_by_datahash.
type SidechainProposal struct {
	SidechainNumber uint8
	Data            []byte
	VoteCount       uint16
	ProposalHeight  uint32
}

// Sidechain is an activated sidechain slot. At most one exists per
// SidechainNumber.
type Sidechain struct {
	SidechainNumber  uint8
	Data             []byte
	VoteCount        uint16
	ProposalHeight   uint32
	ActivationHeight uint32
}

// Bundle is one proposed withdrawal in a sidechain's FIFO bundle list. List
// index is the vote index used by M4.
type Bundle struct {
	BundleTxid [32]byte
	VoteCount  uint16
}

var (
	proposalsTable      = newCborTable[[32]byte, SidechainProposal](bucketProposalByDataHash, encodeHashKey, decodeHashKey)
	sidechainsTable     = newCborTable[uint8, Sidechain](bucketSidechainByNumber, encodeU8Key, decodeU8Key)
	bundlesTable        = newCborTable[uint8, []Bundle](bucketBundlesBySidechain, encodeU8Key, decodeU8Key)
	previousVotesTable  = newCborTable[struct{}, [][32]byte](bucketPreviousVotes, encodeSingletonKey, decodeSingletonKey)
	leadingBy50Table    = newCborTable[struct{}, [][32]byte](bucketLeadingBy50, encodeSingletonKey, decodeSingletonKey)
	depositsTable       = newCborTable[DepositKey, Deposit](bucketDepositBySidechain, encodeDepositKey, decodeDepositKey)
	undoTable           = newCborTable[[32]byte, UndoRecord](bucketUndoByBlockHash, encodeHashKey, decodeHashKey)
)

// --- WriteTxn: read/write access to every table. ---

func (w *WriteTxn) GetProposal(dataHash [32]byte) (SidechainProposal, bool, error) {
	return proposalsTable.Get(w.tx, dataHash)
}

func (w *WriteTxn) PutProposal(dataHash [32]byte, p SidechainProposal) error {
	return proposalsTable.Put(w.tx, dataHash, p)
}

func (w *WriteTxn) DeleteProposal(dataHash [32]byte) error {
	return proposalsTable.Delete(w.tx, dataHash)
}

func (w *WriteTxn) ForEachProposal(fn func([32]byte, SidechainProposal) error) error {
	return proposalsTable.ForEach(w.tx, fn)
}

func (w *WriteTxn) GetSidechain(n uint8) (Sidechain, bool, error) {
	return sidechainsTable.Get(w.tx, n)
}

func (w *WriteTxn) PutSidechain(n uint8, s Sidechain) error {
	return sidechainsTable.Put(w.tx, n, s)
}

func (w *WriteTxn) DeleteSidechain(n uint8) error {
	return sidechainsTable.Delete(w.tx, n)
}

func (w *WriteTxn) GetBundles(n uint8) ([]Bundle, bool, error) {
	return bundlesTable.Get(w.tx, n)
}

func (w *WriteTxn) PutBundles(n uint8, b []Bundle) error {
	return bundlesTable.Put(w.tx, n, b)
}

func (w *WriteTxn) DeleteBundles(n uint8) error {
	return bundlesTable.Delete(w.tx, n)
}

func (w *WriteTxn) GetCtip(n uint8) (Ctip, bool, error) {
	raw := w.tx.Bucket(bucketCtipBySidechain).Get(encodeU8Key(n))
	if raw == nil {
		return Ctip{}, false, nil
	}
	c, err := decodeCtip(raw)
	return c, err == nil, err
}

func (w *WriteTxn) PutCtip(n uint8, c Ctip) error {
	return w.tx.Bucket(bucketCtipBySidechain).Put(encodeU8Key(n), encodeCtip(c))
}

func (w *WriteTxn) DeleteCtip(n uint8) error {
	return w.tx.Bucket(bucketCtipBySidechain).Delete(encodeU8Key(n))
}

func (w *WriteTxn) GetPreviousVotes() ([][32]byte, bool, error) {
	return previousVotesTable.Get(w.tx, struct{}{})
}

func (w *WriteTxn) PutPreviousVotes(v [][32]byte) error {
	return previousVotesTable.Put(w.tx, struct{}{}, v)
}

func (w *WriteTxn) GetLeadingBy50() ([][32]byte, bool, error) {
	return leadingBy50Table.Get(w.tx, struct{}{})
}

func (w *WriteTxn) PutLeadingBy50(v [][32]byte) error {
	return leadingBy50Table.Put(w.tx, struct{}{}, v)
}

func (w *WriteTxn) GetDeposit(k DepositKey) (Deposit, bool, error) {
	return depositsTable.Get(w.tx, k)
}

func (w *WriteTxn) PutDeposit(k DepositKey, d Deposit) error {
	return depositsTable.Put(w.tx, k, d)
}

func (w *WriteTxn) DeleteDeposit(k DepositKey) error {
	return depositsTable.Delete(w.tx, k)
}

func (w *WriteTxn) PutUndo(blockHash [32]byte, u UndoRecord) error {
	return undoTable.Put(w.tx, blockHash, u)
}

func (w *WriteTxn) GetUndo(blockHash [32]byte) (UndoRecord, bool, error) {
	return undoTable.Get(w.tx, blockHash)
}

func (w *WriteTxn) DeleteUndo(blockHash [32]byte) error {
	return undoTable.Delete(w.tx, blockHash)
}

// --- ReadTxn: read-only mirror of the WriteTxn getters. ---

func (r *ReadTxn) GetProposal(dataHash [32]byte) (SidechainProposal, bool, error) {
	return proposalsTable.Get(r.tx, dataHash)
}

func (r *ReadTxn) GetSidechain(n uint8) (Sidechain, bool, error) {
	return sidechainsTable.Get(r.tx, n)
}

func (r *ReadTxn) GetBundles(n uint8) ([]Bundle, bool, error) {
	return bundlesTable.Get(r.tx, n)
}

func (r *ReadTxn) GetCtip(n uint8) (Ctip, bool, error) {
	raw := r.tx.Bucket(bucketCtipBySidechain).Get(encodeU8Key(n))
	if raw == nil {
		return Ctip{}, false, nil
	}
	c, err := decodeCtip(raw)
	return c, err == nil, err
}

func (r *ReadTxn) GetPreviousVotes() ([][32]byte, bool, error) {
	return previousVotesTable.Get(r.tx, struct{}{})
}

func (r *ReadTxn) GetLeadingBy50() ([][32]byte, bool, error) {
	return leadingBy50Table.Get(r.tx, struct{}{})
}

func (r *ReadTxn) GetDeposit(k DepositKey) (Deposit, bool, error) {
	return depositsTable.Get(r.tx, k)
}
