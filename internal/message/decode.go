package message

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/txscript"
)

const scriptVersion = 0

// Parse reads a coinbase output script and returns the typed message it
// encodes, or a *ParseError describing why it could not be decoded.
//
// The wire shape is OP_RETURN followed by exactly one data push: magic(4) ||
// body. Anything else (wrong leading opcode, more than one push, trailing
// script bytes) is rejected.
func Parse(script []byte) (Message, error) {
	payload, err := readOpReturnPush(script)
	if err != nil {
		return nil, err
	}
	if len(payload) < 4 {
		return nil, parseErr(0, ErrTruncated)
	}
	var magic [4]byte
	copy(magic[:], payload[:4])
	body := payload[4:]

	switch magic {
	case MagicM1:
		return parseM1(body)
	case MagicM2:
		return parseM2(body)
	case MagicM3:
		return parseM3(body)
	case MagicM4:
		return parseM4(body)
	default:
		return nil, parseErr(0, ErrUnknownMagic)
	}
}

// readOpReturnPush tokenizes script and returns the bytes of the single data
// push following OP_RETURN.
func readOpReturnPush(script []byte) ([]byte, error) {
	tok := txscript.MakeScriptTokenizer(scriptVersion, script)
	if !tok.Next() {
		return nil, parseErr(0, ErrNotOpReturn)
	}
	if tok.Opcode() != txscript.OP_RETURN {
		return nil, parseErr(0, ErrNotOpReturn)
	}
	if !tok.Next() {
		return nil, parseErr(1, ErrTruncated)
	}
	payload := append([]byte(nil), tok.Data()...)
	if tok.Next() {
		return nil, parseErr(int(tok.ByteIndex()), ErrInvalidLength)
	}
	if err := tok.Err(); err != nil {
		return nil, parseErr(int(tok.ByteIndex()), err)
	}
	return payload, nil
}

func parseM1(body []byte) (Message, error) {
	if len(body) < 1 {
		return nil, parseErr(4, ErrTruncated)
	}
	return M1ProposeSidechain{
		SidechainNumber: body[0],
		Data:            append([]byte(nil), body[1:]...),
	}, nil
}

func parseM2(body []byte) (Message, error) {
	if len(body) != 1+32 {
		return nil, parseErr(4, ErrInvalidLength)
	}
	var hash [32]byte
	copy(hash[:], body[1:33])
	return M2AckSidechain{
		SidechainNumber: body[0],
		DataHash:        hash,
	}, nil
}

func parseM3(body []byte) (Message, error) {
	if len(body) != 1+32 {
		return nil, parseErr(4, ErrInvalidLength)
	}
	var txid [32]byte
	copy(txid[:], body[1:33])
	return M3ProposeBundle{
		SidechainNumber: body[0],
		BundleTxid:      txid,
	}, nil
}

func parseM4(body []byte) (Message, error) {
	if len(body) == 0 {
		return nil, parseErr(4, ErrTruncated)
	}
	switch body[0] {
	case 0x00:
		if len(body) != 1 {
			return nil, parseErr(5, ErrInvalidLength)
		}
		return M4AckBundles{Kind: M4RepeatPrevious}, nil
	case 0x01:
		if len(body) != 1 {
			return nil, parseErr(5, ErrInvalidLength)
		}
		return M4AckBundles{Kind: M4LeadingBy50}, nil
	case 0x02:
		upvotes := append([]byte(nil), body[1:]...)
		return M4AckBundles{Kind: M4OneByte, UpvotesOneByte: upvotes}, nil
	case 0x03:
		rest := body[1:]
		if len(rest)%2 != 0 {
			return nil, parseErr(5, ErrInvalidLength)
		}
		upvotes := make([]uint16, len(rest)/2)
		for i := range upvotes {
			upvotes[i] = binary.BigEndian.Uint16(rest[i*2 : i*2+2])
		}
		return M4AckBundles{Kind: M4TwoBytes, UpvotesTwoByte: upvotes}, nil
	default:
		return nil, parseErr(4, ErrInvalidTag)
	}
}

// ParseDrivechainOutput recognizes the OP_DRIVECHAIN || OP_PUSHBYTES_1 ||
// sidechain_number || OP_TRUE pattern used on non-coinbase CTIP outputs. It
// returns the sidechain number, or an error if script does not match exactly.
func ParseDrivechainOutput(script []byte) (uint8, error) {
	if len(script) != 4 {
		return 0, parseErr(0, ErrNotDrivechain)
	}
	if script[0] != OpDrivechain {
		return 0, parseErr(0, ErrNotDrivechain)
	}
	if script[1] != txscript.OP_DATA_1 {
		return 0, parseErr(1, ErrNotDrivechain)
	}
	if script[3] != OpTrue {
		return 0, parseErr(3, ErrNotDrivechain)
	}
	return script[2], nil
}
