package message

import (
	"bytes"
	"errors"
	"testing"
)

func roundTrip(t *testing.T, m Message) Message {
	t.Helper()
	script := Encode(m)
	got, err := Parse(script)
	if err != nil {
		t.Fatalf("Parse(Encode(m)) failed: %v", err)
	}
	return got
}

func TestRoundTripM1(t *testing.T) {
	m := M1ProposeSidechain{SidechainNumber: 5, Data: []byte{0xAA, 0xBB, 0xCC}}
	got, ok := roundTrip(t, m).(M1ProposeSidechain)
	if !ok {
		t.Fatalf("expected M1ProposeSidechain, got %T", got)
	}
	if got.SidechainNumber != m.SidechainNumber || !bytes.Equal(got.Data, m.Data) {
		t.Fatalf("mismatch: got %+v want %+v", got, m)
	}
}

func TestRoundTripM1EmptyData(t *testing.T) {
	m := M1ProposeSidechain{SidechainNumber: 0, Data: nil}
	got, ok := roundTrip(t, m).(M1ProposeSidechain)
	if !ok {
		t.Fatalf("expected M1ProposeSidechain, got %T", got)
	}
	if len(got.Data) != 0 {
		t.Fatalf("expected empty data, got %v", got.Data)
	}
}

func TestRoundTripM2(t *testing.T) {
	m := M2AckSidechain{SidechainNumber: 200, DataHash: Sha256d([]byte("hello"))}
	got, ok := roundTrip(t, m).(M2AckSidechain)
	if !ok || got != m {
		t.Fatalf("mismatch: got %+v want %+v", got, m)
	}
}

func TestRoundTripM3(t *testing.T) {
	m := M3ProposeBundle{SidechainNumber: 1, BundleTxid: Sha256d([]byte("bundle"))}
	got, ok := roundTrip(t, m).(M3ProposeBundle)
	if !ok || got != m {
		t.Fatalf("mismatch: got %+v want %+v", got, m)
	}
}

func TestRoundTripM4Variants(t *testing.T) {
	cases := []M4AckBundles{
		{Kind: M4RepeatPrevious},
		{Kind: M4LeadingBy50},
		{Kind: M4OneByte, UpvotesOneByte: []byte{0x00, 0x01, AlarmOneByte, AbstainOneByte}},
		{Kind: M4TwoBytes, UpvotesTwoByte: []uint16{0, 300, AlarmTwoBytes, AbstainTwoBytes}},
	}
	for _, m := range cases {
		got, ok := roundTrip(t, m).(M4AckBundles)
		if !ok {
			t.Fatalf("expected M4AckBundles, got %T", got)
		}
		if got.Kind != m.Kind {
			t.Fatalf("kind mismatch: got %v want %v", got.Kind, m.Kind)
		}
		if !bytes.Equal(got.UpvotesOneByte, m.UpvotesOneByte) {
			t.Fatalf("one-byte upvotes mismatch: got %v want %v", got.UpvotesOneByte, m.UpvotesOneByte)
		}
		if len(got.UpvotesTwoByte) != len(m.UpvotesTwoByte) {
			t.Fatalf("two-byte upvotes length mismatch: got %v want %v", got.UpvotesTwoByte, m.UpvotesTwoByte)
		}
		for i := range got.UpvotesTwoByte {
			if got.UpvotesTwoByte[i] != m.UpvotesTwoByte[i] {
				t.Fatalf("two-byte upvotes mismatch at %d: got %v want %v", i, got.UpvotesTwoByte, m.UpvotesTwoByte)
			}
		}
	}
}

func TestParseUnknownMagic(t *testing.T) {
	script := []byte{0x6a, 0x04, 0x00, 0x00, 0x00, 0x00}
	_, err := Parse(script)
	if !errors.Is(err, ErrUnknownMagic) {
		t.Fatalf("expected ErrUnknownMagic, got %v", err)
	}
}

func TestParseTruncated(t *testing.T) {
	script := []byte{0x6a, 0x02, 0xD5, 0xE0}
	_, err := Parse(script)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestParseNotOpReturn(t *testing.T) {
	script := []byte{0x51}
	_, err := Parse(script)
	if !errors.Is(err, ErrNotOpReturn) {
		t.Fatalf("expected ErrNotOpReturn, got %v", err)
	}
}

func TestParseM2WrongLength(t *testing.T) {
	payload := append(append([]byte{}, MagicM2[:]...), 0x01)
	script := append([]byte{0x6a, byte(len(payload))}, payload...)
	_, err := Parse(script)
	if !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestParseM4InvalidTag(t *testing.T) {
	payload := append(append([]byte{}, MagicM4[:]...), 0xEE)
	script := append([]byte{0x6a, byte(len(payload))}, payload...)
	_, err := Parse(script)
	if !errors.Is(err, ErrInvalidTag) {
		t.Fatalf("expected ErrInvalidTag, got %v", err)
	}
}

func TestDrivechainOutputRoundTrip(t *testing.T) {
	for sn := 0; sn < 256; sn++ {
		script := BuildDrivechainOutput(uint8(sn))
		got, err := ParseDrivechainOutput(script)
		if err != nil {
			t.Fatalf("sn=%d: unexpected error %v", sn, err)
		}
		if got != uint8(sn) {
			t.Fatalf("sn=%d: got %d", sn, got)
		}
	}
}

func TestParseDrivechainOutputRejectsWrongShape(t *testing.T) {
	good := BuildDrivechainOutput(7)
	cases := [][]byte{
		good[:3],
		append(append([]byte{}, good...), 0x00),
		{0x00, good[1], good[2], good[3]},
		{good[0], 0x02, good[2], good[3]},
		{good[0], good[1], good[2], 0x00},
	}
	for i, c := range cases {
		if _, err := ParseDrivechainOutput(c); !errors.Is(err, ErrNotDrivechain) {
			t.Fatalf("case %d: expected ErrNotDrivechain, got %v", i, err)
		}
	}
}
