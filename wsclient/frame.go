package wsclient

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Opcode identifies the purpose of a WebSocket frame per RFC 6455,
// section 5.2.
type Opcode byte

// Opcodes defined in RFC 6455, section 11.8.
const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xa
)

// IsControl reports whether the opcode identifies a control frame
// per RFC 6455, section 5.5.
func (o Opcode) IsControl() bool {
	return o >= OpClose
}

func (o Opcode) String() string {
	switch o {
	case OpContinuation:
		return "continuation"
	case OpText:
		return "text"
	case OpBinary:
		return "binary"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	default:
		return fmt.Sprintf("opcode(%d)", byte(o))
	}
}

// Frame is one decoded unit of the WebSocket wire format. MaskKey is
// meaningful only when Masked is set.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	MaskKey [4]byte
	Payload []byte
}

// Frame header constants per RFC 6455, section 5.2.
const (
	finalBit = 1 << 7 // FIN bit in byte 0
	maskBit  = 1 << 7 // MASK bit in byte 1

	opcodeMask     = 0x0f // opcode occupies bits 0-3 of byte 0
	payloadLenMask = 0x7f // base payload length occupies bits 0-6 of byte 1
	payloadLen16   = 126  // 16-bit extended payload length follows
	payloadLen64   = 127  // 64-bit extended payload length follows

	maxFrameHeaderSize = 14 // 2 bytes base + 8 bytes extended length + 4 bytes mask

	// maxFramePayloadSize bounds the payload length a decoded frame may
	// claim. The length field is attacker-controlled wire input; without
	// a cap a hostile server could demand an arbitrarily large
	// allocation before a single payload byte arrives.
	maxFramePayloadSize = 1 << 24 // 16 MiB
)

var randReader io.Reader = rand.Reader

// errNoData reports that no frame bytes arrived before the read deadline.
// The session maps it to a "no message yet" result rather than an error.
var errNoData = errors.New("wsclient: no data")

// newMaskKey returns a 4-byte mask from randReader. The all-zero key is
// rejected: it leaves the payload unmasked on the wire and some servers
// refuse such frames.
func newMaskKey() [4]byte {
	var key [4]byte
	for {
		if _, err := io.ReadFull(randReader, key[:]); err != nil {
			panic(err)
		}
		if key != [4]byte{} {
			return key
		}
	}
}

// encodeText encodes payload as a single masked text frame per RFC 6455,
// section 5.2. Client-to-server frames are always masked.
func encodeText(payload []byte) []byte {
	return encodeFrame(OpText, payload)
}

// encodeFrame builds a final masked frame with the given opcode: FIN plus
// opcode, MASK bit with the 7-bit, 16-bit, or 64-bit big-endian length
// encoding, the 4-byte mask key, then the XOR-masked payload.
func encodeFrame(op Opcode, payload []byte) []byte {
	buf := make([]byte, 0, maxFrameHeaderSize+len(payload))
	buf = append(buf, byte(op)|finalBit)

	switch n := len(payload); {
	case n <= 125:
		buf = append(buf, maskBit|byte(n))
	case n <= 65535:
		buf = append(buf, maskBit|payloadLen16, byte(n>>8), byte(n))
	default:
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], uint64(n))
		buf = append(buf, maskBit|payloadLen64)
		buf = append(buf, ext[:]...)
	}

	key := newMaskKey()
	buf = append(buf, key[:]...)

	start := len(buf)
	buf = append(buf, payload...)
	maskBytes(key, buf[start:])

	return buf
}

// maskBytes XOR-transforms data in place with the 4-byte key per RFC 6455,
// section 5.3. Applying the same key twice recovers the original bytes.
func maskBytes(key [4]byte, data []byte) {
	for i := range data {
		data[i] ^= key[i%4]
	}
}

// readFrame reads one complete frame from r, handling masked and unmasked
// input and all three payload length encodings. A read deadline on the
// underlying connection bounds the call: a deadline that expires before the
// first header byte arrives yields errNoData, while a short read inside any
// fixed-size field yields an error wrapping ErrTruncatedFrame. A frame
// claiming a payload above maxFramePayloadSize fails with ErrFrameTooBig
// before any allocation, since the length field is untrusted wire input.
// No partial-field recovery is attempted within a single call.
func readFrame(r io.Reader) (Frame, error) {
	var frame Frame

	var header [2]byte
	if n, err := io.ReadFull(r, header[:]); err != nil {
		if n == 0 {
			if isTimeout(err) {
				return frame, errNoData
			}
			return frame, err
		}
		return frame, fmt.Errorf("%w: frame header", ErrTruncatedFrame)
	}

	frame.Fin = header[0]&finalBit != 0
	frame.Opcode = Opcode(header[0] & opcodeMask)
	frame.Masked = header[1]&maskBit != 0

	payloadLen := uint64(header[1] & payloadLenMask)
	switch payloadLen {
	case payloadLen16:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return frame, fmt.Errorf("%w: extended length", ErrTruncatedFrame)
		}
		payloadLen = uint64(binary.BigEndian.Uint16(ext[:]))
	case payloadLen64:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return frame, fmt.Errorf("%w: extended length", ErrTruncatedFrame)
		}
		payloadLen = binary.BigEndian.Uint64(ext[:])
	}

	if payloadLen > maxFramePayloadSize {
		return frame, fmt.Errorf("%w: claimed payload length %d", ErrFrameTooBig, payloadLen)
	}

	if frame.Masked {
		if _, err := io.ReadFull(r, frame.MaskKey[:]); err != nil {
			return frame, fmt.Errorf("%w: mask key", ErrTruncatedFrame)
		}
	}

	frame.Payload = make([]byte, payloadLen)
	if _, err := io.ReadFull(r, frame.Payload); err != nil {
		return frame, fmt.Errorf("%w: payload", ErrTruncatedFrame)
	}

	if frame.Masked {
		maskBytes(frame.MaskKey, frame.Payload)
	}

	return frame, nil
}
