package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/assembler"
	"github.com/LayerTwo-Labs/bip300-monitor/internal/facade"
)

// server is the thin net/http + encoding/json transport in front of
// facade.Validator. It deliberately is not a generic RPC framework: framing
// is out of scope (spec.md §1), so this is the minimum surface that makes
// the core runnable end to end.
type server struct {
	v   *facade.Validator
	log *log.Logger
}

func newServer(v *facade.Validator, logger *log.Logger) *server {
	return &server{v: v, log: logger}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/IsValid", s.handleIsValid)
	mux.HandleFunc("/v1/ConnectBlock", s.handleConnectBlock)
	mux.HandleFunc("/v1/DisconnectBlock", s.handleDisconnectBlock)
	mux.HandleFunc("/v1/GetCoinbasePsbt", s.handleGetCoinbasePsbt)
	return mux
}

type isValidResponse struct {
	Valid bool `json:"valid"`
}

func (s *server) handleIsValid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, isValidResponse{Valid: s.v.IsValid()})
}

type connectBlockRequest struct {
	Block  []byte `json:"block"`
	Height uint32 `json:"height"`
}

func (s *server) handleConnectBlock(w http.ResponseWriter, r *http.Request) {
	var req connectBlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.v.ConnectBlock(req.Block, req.Height); err != nil {
		s.writeFacadeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

type disconnectBlockRequest struct {
	Block []byte `json:"block"`
}

func (s *server) handleDisconnectBlock(w http.ResponseWriter, r *http.Request) {
	var req disconnectBlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.v.DisconnectBlock(req.Block); err != nil {
		s.writeFacadeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

type proposeSidechainJSON struct {
	SidechainNumber uint8  `json:"sidechain_number"`
	Data            []byte `json:"data"`
}

type ackSidechainJSON struct {
	SidechainNumber uint8  `json:"sidechain_number"`
	DataHash        []byte `json:"data_hash"`
}

type proposeBundleJSON struct {
	SidechainNumber uint8  `json:"sidechain_number"`
	BundleTxid      []byte `json:"bundle_txid"`
}

type ackBundlesJSON struct {
	Tag     string   `json:"tag"`
	Upvotes []uint32 `json:"upvotes,omitempty"`
}

type getCoinbasePsbtRequest struct {
	ProposeSidechains []proposeSidechainJSON `json:"propose_sidechains"`
	AckSidechains     []ackSidechainJSON     `json:"ack_sidechains"`
	ProposeBundles    []proposeBundleJSON    `json:"propose_bundles"`
	AckBundles        *ackBundlesJSON        `json:"ack_bundles,omitempty"`
}

type getCoinbasePsbtResponse struct {
	Psbt []byte `json:"psbt"`
}

func (s *server) handleGetCoinbasePsbt(w http.ResponseWriter, r *http.Request) {
	var reqJSON getCoinbasePsbtRequest
	if !decodeJSON(w, r, &reqJSON) {
		return
	}
	req, err := reqJSON.toRequest()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "request_validation"})
		return
	}
	psbt, err := s.v.GetCoinbasePsbt(req)
	if err != nil {
		s.writeFacadeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, getCoinbasePsbtResponse{Psbt: psbt})
}

func (j getCoinbasePsbtRequest) toRequest() (assembler.Request, error) {
	var req assembler.Request
	for _, p := range j.ProposeSidechains {
		req.ProposeSidechains = append(req.ProposeSidechains, assembler.ProposeSidechain{
			SidechainNumber: p.SidechainNumber,
			Data:            p.Data,
		})
	}
	for _, a := range j.AckSidechains {
		h, err := to32(a.DataHash)
		if err != nil {
			return req, err
		}
		req.AckSidechains = append(req.AckSidechains, assembler.AckSidechain{
			SidechainNumber: a.SidechainNumber,
			DataHash:        h,
		})
	}
	for _, b := range j.ProposeBundles {
		t, err := to32(b.BundleTxid)
		if err != nil {
			return req, err
		}
		req.ProposeBundles = append(req.ProposeBundles, assembler.ProposeBundle{
			SidechainNumber: b.SidechainNumber,
			BundleTxid:      t,
		})
	}
	if j.AckBundles != nil {
		tag, err := parseAckBundlesTag(j.AckBundles.Tag)
		if err != nil {
			return req, err
		}
		req.AckBundles = &assembler.AckBundles{Tag: tag, Upvotes: j.AckBundles.Upvotes}
	}
	return req, nil
}

func parseAckBundlesTag(tag string) (assembler.AckBundlesTag, error) {
	switch tag {
	case "repeat_previous":
		return assembler.AckBundlesRepeatPrevious, nil
	case "leading_by_50":
		return assembler.AckBundlesLeadingBy50, nil
	case "upvotes":
		return assembler.AckBundlesUpvotes, nil
	default:
		return 0, errors.New("server: unknown ack_bundles tag " + tag)
	}
}

func to32(b []byte) ([32]byte, error) {
	var out [32]byte
	if len(b) != 32 {
		return out, errors.New("server: expected 32 bytes, got different length")
	}
	copy(out[:], b)
	return out, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *server) writeFacadeError(w http.ResponseWriter, err error) {
	var fe *facade.Error
	status := http.StatusInternalServerError
	kind := "storage"
	if errors.As(err, &fe) {
		switch fe.Kind {
		case facade.KindParse:
			status, kind = http.StatusBadRequest, "parse"
		case facade.KindInvariantViolation:
			status, kind = http.StatusUnprocessableEntity, "invariant_violation"
		case facade.KindRequestValidation:
			status, kind = http.StatusBadRequest, "request_validation"
		case facade.KindUnimplemented:
			status, kind = http.StatusNotImplemented, "unimplemented"
		}
	}
	s.log.Printf("request failed: kind=%s err=%v", kind, err)
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "parse"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
