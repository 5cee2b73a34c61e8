package assembler

import (
	"errors"
	"testing"

	"github.com/LayerTwo-Labs/bip300-monitor/internal/message"
)

// S6 "assembler width choice."
func TestBuildCoinbaseTx_S6WidthChoice(t *testing.T) {
	cases := []struct {
		name    string
		upvotes []uint32
		wantM4  func(t *testing.T, msg message.Message)
	}{
		{
			name:    "two bytes",
			upvotes: []uint32{0, 1, 300},
			wantM4: func(t *testing.T, msg message.Message) {
				m4, ok := msg.(message.M4AckBundles)
				if !ok || m4.Kind != message.M4TwoBytes {
					t.Fatalf("got %#v, want M4TwoBytes", msg)
				}
			},
		},
		{
			name:    "one byte",
			upvotes: []uint32{0, 1, 2},
			wantM4: func(t *testing.T, msg message.Message) {
				m4, ok := msg.(message.M4AckBundles)
				if !ok || m4.Kind != message.M4OneByte {
					t.Fatalf("got %#v, want M4OneByte", msg)
				}
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tx, err := BuildCoinbaseTx(Request{AckBundles: &AckBundles{Tag: AckBundlesUpvotes, Upvotes: c.upvotes}})
			if err != nil {
				t.Fatalf("BuildCoinbaseTx: %v", err)
			}
			if len(tx.TxOut) != 1 {
				t.Fatalf("got %d outputs, want 1", len(tx.TxOut))
			}
			msg, err := message.Parse(tx.TxOut[0].PkScript)
			if err != nil {
				t.Fatalf("message.Parse: %v", err)
			}
			c.wantM4(t, msg)
		})
	}

	t.Run("validation error", func(t *testing.T) {
		_, err := BuildCoinbaseTx(Request{AckBundles: &AckBundles{Tag: AckBundlesUpvotes, Upvotes: []uint32{0, 70000}}})
		if !errors.Is(err, ErrUpvoteTooLarge) {
			t.Fatalf("got %v, want ErrUpvoteTooLarge", err)
		}
	})
}

func TestBuildCoinbaseTx_NoInputsVersion2LockTimeZero(t *testing.T) {
	tx, err := BuildCoinbaseTx(Request{
		ProposeSidechains: []ProposeSidechain{{SidechainNumber: 1, Data: []byte("hi")}},
	})
	if err != nil {
		t.Fatalf("BuildCoinbaseTx: %v", err)
	}
	if len(tx.TxIn) != 0 {
		t.Fatalf("got %d inputs, want 0", len(tx.TxIn))
	}
	if tx.Version != 2 {
		t.Fatalf("version = %d, want 2", tx.Version)
	}
	if tx.LockTime != 0 {
		t.Fatalf("locktime = %d, want 0", tx.LockTime)
	}
}

func TestBuildCoinbaseTx_OutputOrderFollowsRequestOrder(t *testing.T) {
	req := Request{
		ProposeSidechains: []ProposeSidechain{{SidechainNumber: 1, Data: []byte{0x01}}},
		AckSidechains:     []AckSidechain{{SidechainNumber: 2, DataHash: [32]byte{0x02}}},
		ProposeBundles:    []ProposeBundle{{SidechainNumber: 3, BundleTxid: [32]byte{0x03}}},
		AckBundles:        &AckBundles{Tag: AckBundlesRepeatPrevious},
	}
	tx, err := BuildCoinbaseTx(req)
	if err != nil {
		t.Fatalf("BuildCoinbaseTx: %v", err)
	}
	if len(tx.TxOut) != 4 {
		t.Fatalf("got %d outputs, want 4", len(tx.TxOut))
	}
	wantKinds := []any{
		message.M1ProposeSidechain{},
		message.M2AckSidechain{},
		message.M3ProposeBundle{},
		message.M4AckBundles{},
	}
	for i, out := range tx.TxOut {
		msg, err := message.Parse(out.PkScript)
		if err != nil {
			t.Fatalf("output %d: %v", i, err)
		}
		if got, want := typeName(msg), typeName(wantKinds[i]); got != want {
			t.Fatalf("output %d: got %s, want %s", i, got, want)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case message.M1ProposeSidechain:
		return "M1"
	case message.M2AckSidechain:
		return "M2"
	case message.M3ProposeBundle:
		return "M3"
	case message.M4AckBundles:
		return "M4"
	default:
		return "?"
	}
}
