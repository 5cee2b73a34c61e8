package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/wire"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/facade"
	"github.com/LayerTwo-Labs/bip300-monitor/internal/message"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	v, err := facade.New(filepath.Join(t.TempDir(), "bip300.db"))
	if err != nil {
		t.Fatalf("facade.New: %v", err)
	}
	t.Cleanup(func() { _ = v.Close() })
	return newServer(v, log.New(io.Discard, "", 0))
}

func doJSON(t *testing.T, mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestServer_IsValid(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.routes(), http.MethodPost, "/v1/IsValid", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp isValidResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("valid = false, want true")
	}
}

func TestServer_ConnectAndDisconnectBlock(t *testing.T) {
	s := newTestServer(t)
	script := message.Encode(message.M1ProposeSidechain{SidechainNumber: 1, Data: []byte{0x02}})
	coinbase := wire.NewMsgTx(2)
	coinbase.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0xffffffff}})
	coinbase.AddTxOut(wire.NewTxOut(0, script))
	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{coinbase}}
	var blockBuf bytes.Buffer
	if err := block.Serialize(&blockBuf); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	rec := doJSON(t, s.routes(), http.MethodPost, "/v1/ConnectBlock", connectBlockRequest{Block: blockBuf.Bytes(), Height: 100})
	if rec.Code != http.StatusOK {
		t.Fatalf("connect status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.routes(), http.MethodPost, "/v1/DisconnectBlock", disconnectBlockRequest{Block: blockBuf.Bytes()})
	if rec.Code != http.StatusOK {
		t.Fatalf("disconnect status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestServer_ConnectBlock_BadBytesReturnsBadRequest(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.routes(), http.MethodPost, "/v1/ConnectBlock", connectBlockRequest{Block: []byte{0x01}, Height: 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != "parse" {
		t.Fatalf("kind = %q, want parse", resp.Kind)
	}
}

func TestServer_GetCoinbasePsbt(t *testing.T) {
	s := newTestServer(t)
	req := getCoinbasePsbtRequest{
		ProposeSidechains: []proposeSidechainJSON{{SidechainNumber: 4, Data: []byte{0x09}}},
	}
	rec := doJSON(t, s.routes(), http.MethodPost, "/v1/GetCoinbasePsbt", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var resp getCoinbasePsbtResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(resp.Psbt)); err != nil {
		t.Fatalf("deserialize psbt: %v", err)
	}
	if len(tx.TxOut) != 1 {
		t.Fatalf("got %d outputs, want 1", len(tx.TxOut))
	}
}

func TestServer_GetCoinbasePsbt_BadAckBundlesTagIsRequestValidation(t *testing.T) {
	s := newTestServer(t)
	req := getCoinbasePsbtRequest{AckBundles: &ackBundlesJSON{Tag: "not_a_real_tag"}}
	rec := doJSON(t, s.routes(), http.MethodPost, "/v1/GetCoinbasePsbt", req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
	}
}
