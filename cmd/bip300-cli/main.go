// Command bip300-cli is a JSON-over-stdin/stdout harness for exercising the
// validator's core operations by hand, without standing up a transport: it
// opens the store file named by db_path directly (not through a running
// bip300d), reads one JSON request on stdin and writes one JSON response on
// stdout.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/assembler"
	"github.com/LayerTwo-Labs/bip300-monitor/internal/facade"
)

type Request struct {
	Op     string `json:"op"`
	DBPath string `json:"db_path"`

	BlockHex string `json:"block_hex,omitempty"`
	Height   uint32 `json:"height,omitempty"`

	ProposeSidechains []proposeSidechainReq `json:"propose_sidechains,omitempty"`
	AckSidechains     []ackSidechainReq     `json:"ack_sidechains,omitempty"`
	ProposeBundles    []proposeBundleReq    `json:"propose_bundles,omitempty"`
	AckBundlesTag     string                `json:"ack_bundles_tag,omitempty"`
	Upvotes           []uint32              `json:"upvotes,omitempty"`
}

type proposeSidechainReq struct {
	SidechainNumber uint8  `json:"sidechain_number"`
	DataHex         string `json:"data_hex"`
}

type ackSidechainReq struct {
	SidechainNumber uint8  `json:"sidechain_number"`
	DataHashHex     string `json:"data_hash_hex"`
}

type proposeBundleReq struct {
	SidechainNumber uint8  `json:"sidechain_number"`
	BundleTxidHex   string `json:"bundle_txid_hex"`
}

type Response struct {
	Ok      bool   `json:"ok"`
	Err     string `json:"err,omitempty"`
	Valid   bool   `json:"valid,omitempty"`
	PsbtHex string `json:"psbt_hex,omitempty"`
}

func main() {
	os.Exit(run(os.Stdin, os.Stdout))
}

func run(in io.Reader, out io.Writer) int {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		writeResp(out, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return 1
	}
	if req.DBPath == "" {
		writeResp(out, Response{Ok: false, Err: "db_path is required"})
		return 1
	}

	v, err := facade.New(req.DBPath)
	if err != nil {
		writeResp(out, Response{Ok: false, Err: err.Error()})
		return 1
	}
	defer v.Close()

	switch req.Op {
	case "is_valid":
		writeResp(out, Response{Ok: true, Valid: v.IsValid()})
		return 0

	case "connect_block":
		block, err := hex.DecodeString(req.BlockHex)
		if err != nil {
			writeResp(out, Response{Ok: false, Err: "bad block_hex"})
			return 1
		}
		if err := v.ConnectBlock(block, req.Height); err != nil {
			writeResp(out, Response{Ok: false, Err: err.Error()})
			return 1
		}
		writeResp(out, Response{Ok: true})
		return 0

	case "disconnect_block":
		block, err := hex.DecodeString(req.BlockHex)
		if err != nil {
			writeResp(out, Response{Ok: false, Err: "bad block_hex"})
			return 1
		}
		if err := v.DisconnectBlock(block); err != nil {
			writeResp(out, Response{Ok: false, Err: err.Error()})
			return 1
		}
		writeResp(out, Response{Ok: true})
		return 0

	case "get_coinbase_psbt":
		areq, err := buildAssemblerRequest(req)
		if err != nil {
			writeResp(out, Response{Ok: false, Err: err.Error()})
			return 1
		}
		psbt, err := v.GetCoinbasePsbt(areq)
		if err != nil {
			writeResp(out, Response{Ok: false, Err: err.Error()})
			return 1
		}
		writeResp(out, Response{Ok: true, PsbtHex: hex.EncodeToString(psbt)})
		return 0

	default:
		writeResp(out, Response{Ok: false, Err: "unknown op " + req.Op})
		return 1
	}
}

func buildAssemblerRequest(req Request) (assembler.Request, error) {
	var areq assembler.Request
	for _, p := range req.ProposeSidechains {
		data, err := hex.DecodeString(p.DataHex)
		if err != nil {
			return areq, fmt.Errorf("bad data_hex: %w", err)
		}
		areq.ProposeSidechains = append(areq.ProposeSidechains, assembler.ProposeSidechain{
			SidechainNumber: p.SidechainNumber,
			Data:            data,
		})
	}
	for _, a := range req.AckSidechains {
		h, err := decode32(a.DataHashHex)
		if err != nil {
			return areq, err
		}
		areq.AckSidechains = append(areq.AckSidechains, assembler.AckSidechain{
			SidechainNumber: a.SidechainNumber,
			DataHash:        h,
		})
	}
	for _, b := range req.ProposeBundles {
		t, err := decode32(b.BundleTxidHex)
		if err != nil {
			return areq, err
		}
		areq.ProposeBundles = append(areq.ProposeBundles, assembler.ProposeBundle{
			SidechainNumber: b.SidechainNumber,
			BundleTxid:      t,
		})
	}
	if req.AckBundlesTag != "" {
		var tag assembler.AckBundlesTag
		switch req.AckBundlesTag {
		case "repeat_previous":
			tag = assembler.AckBundlesRepeatPrevious
		case "leading_by_50":
			tag = assembler.AckBundlesLeadingBy50
		case "upvotes":
			tag = assembler.AckBundlesUpvotes
		default:
			return areq, fmt.Errorf("unknown ack_bundles_tag %q", req.AckBundlesTag)
		}
		areq.AckBundles = &assembler.AckBundles{Tag: tag, Upvotes: req.Upvotes}
	}
	return areq, nil
}

func decode32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return out, fmt.Errorf("expected 32 hex bytes, got %q", s)
	}
	copy(out[:], b)
	return out, nil
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}
