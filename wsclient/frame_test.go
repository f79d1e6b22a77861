package wsclient

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serverFrame builds an unmasked frame the way a server would send it.
func serverFrame(op Opcode, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(op) | finalBit)
	switch n := len(payload); {
	case n <= 125:
		buf.WriteByte(byte(n))
	case n <= 65535:
		buf.WriteByte(payloadLen16)
		var ext [2]byte
		binary.BigEndian.PutUint16(ext[:], uint16(n))
		buf.Write(ext[:])
	default:
		buf.WriteByte(payloadLen64)
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], uint64(n))
		buf.Write(ext[:])
	}
	buf.Write(payload)
	return buf.Bytes()
}

func TestMaskBytesSelfInverse(t *testing.T) {
	tests := []struct {
		name string
		key  [4]byte
		data []byte
	}{
		{name: "Fixed key", key: [4]byte{0x12, 0x34, 0x56, 0x78}, data: []byte("hello websocket")},
		{name: "All ones key", key: [4]byte{0xff, 0xff, 0xff, 0xff}, data: []byte{0x00, 0x01, 0x02, 0x03, 0x04}},
		{name: "Empty data", key: [4]byte{0xde, 0xad, 0xbe, 0xef}, data: []byte{}},
		{name: "Length not multiple of four", key: [4]byte{0x01, 0x02, 0x03, 0x04}, data: []byte("abcdefg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append([]byte{}, tt.data...)
			maskBytes(tt.key, data)
			maskBytes(tt.key, data)
			assert.Equal(t, tt.data, data)
		})
	}
}

func TestMaskBytesKnownTransform(t *testing.T) {
	data := []byte{0x10, 0x20, 0x30, 0x40, 0x50}
	maskBytes([4]byte{0x01, 0x02, 0x04, 0x08}, data)
	assert.Equal(t, []byte{0x11, 0x22, 0x34, 0x48, 0x51}, data)
}

func TestEncodeTextHeader(t *testing.T) {
	frame := encodeText([]byte("ping"))

	require.GreaterOrEqual(t, len(frame), 2)
	assert.Equal(t, byte(0x81), frame[0], "FIN set, text opcode")
	assert.Equal(t, byte(maskBit|4), frame[1], "MASK set, 7-bit length")
	assert.Len(t, frame, 2+4+4, "header + mask key + payload")
}

func TestEncodeTextLengthBoundaries(t *testing.T) {
	tests := []struct {
		length     int
		headerSize int // base header plus extended length bytes
	}{
		{length: 0, headerSize: 2},
		{length: 125, headerSize: 2},
		{length: 126, headerSize: 4},
		{length: 127, headerSize: 4},
		{length: 65535, headerSize: 4},
		{length: 65536, headerSize: 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("Length %d", tt.length), func(t *testing.T) {
			payload := bytes.Repeat([]byte("a"), tt.length)
			encoded := encodeText(payload)

			require.Len(t, encoded, tt.headerSize+4+tt.length)

			switch {
			case tt.length <= 125:
				assert.Equal(t, byte(tt.length), encoded[1]&payloadLenMask)
			case tt.length <= 65535:
				assert.Equal(t, byte(payloadLen16), encoded[1]&payloadLenMask)
				assert.Equal(t, uint16(tt.length), binary.BigEndian.Uint16(encoded[2:4]))
			default:
				assert.Equal(t, byte(payloadLen64), encoded[1]&payloadLenMask)
				assert.Equal(t, uint64(tt.length), binary.BigEndian.Uint64(encoded[2:10]))
			}

			decoded, err := readFrame(bytes.NewReader(encoded))
			require.NoError(t, err)
			assert.True(t, decoded.Fin)
			assert.Equal(t, OpText, decoded.Opcode)
			assert.True(t, decoded.Masked)
			assert.Equal(t, payload, decoded.Payload)
		})
	}
}

func TestEncodeTextRoundTrip(t *testing.T) {
	tests := []string{
		"ping",
		"",
		"hello, world",
		"multi\nline\ntext",
		"ünïcødé ✓ 日本語",
	}

	for _, text := range tests {
		frame, err := readFrame(bytes.NewReader(encodeText([]byte(text))))
		require.NoError(t, err)
		assert.Equal(t, text, string(frame.Payload))
	}
}

func TestNewMaskKeySkipsAllZero(t *testing.T) {
	orig := randReader
	defer func() { randReader = orig }()

	// Four zero bytes first, then a usable key.
	randReader = bytes.NewReader([]byte{0, 0, 0, 0, 0x12, 0x34, 0x56, 0x78})

	key := newMaskKey()
	assert.Equal(t, [4]byte{0x12, 0x34, 0x56, 0x78}, key)
}

func TestReadFrameUnmasked(t *testing.T) {
	frame, err := readFrame(bytes.NewReader(serverFrame(OpText, []byte("pong"))))
	require.NoError(t, err)

	assert.True(t, frame.Fin)
	assert.Equal(t, OpText, frame.Opcode)
	assert.False(t, frame.Masked)
	assert.Equal(t, "pong", string(frame.Payload))
}

func TestReadFrameExtendedLengths(t *testing.T) {
	for _, length := range []int{126, 65535, 65536} {
		payload := bytes.Repeat([]byte("b"), length)
		frame, err := readFrame(bytes.NewReader(serverFrame(OpBinary, payload)))
		require.NoError(t, err)
		assert.Equal(t, OpBinary, frame.Opcode)
		assert.Len(t, frame.Payload, length)
	}
}

func TestReadFrameCloseOpcode(t *testing.T) {
	frame, err := readFrame(bytes.NewReader(serverFrame(OpClose, nil)))
	require.NoError(t, err)
	assert.Equal(t, OpClose, frame.Opcode)
	assert.Empty(t, frame.Payload)
}

func TestReadFrameTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "Partial header", data: []byte{0x81}},
		{name: "Missing 16-bit length", data: []byte{0x81, payloadLen16, 0x01}},
		{name: "Missing 64-bit length", data: []byte{0x81, payloadLen64, 0, 0, 0}},
		{name: "Partial mask key", data: []byte{0x81, maskBit | 1, 0x12, 0x34}},
		{name: "Short payload", data: []byte{0x81, 5, 'a', 'b'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readFrame(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTruncatedFrame)
		})
	}
}

func TestReadFrameOversizedLength(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			// Claimed payload of 2^62 bytes: must fail cleanly, not
			// panic in make or attempt the allocation.
			name: "64-bit length 2^62",
			data: []byte{0x81, payloadLen64, 0x40, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "64-bit length 1 TiB",
			data: []byte{0x81, payloadLen64, 0, 0, 0x01, 0, 0, 0, 0, 0},
		},
		{
			name: "Just above the cap",
			data: []byte{0x81, payloadLen64, 0, 0, 0, 0, 0x01, 0, 0, 0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readFrame(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFrameTooBig)
		})
	}
}

func TestReadFramePayloadAtCap(t *testing.T) {
	// A frame claiming exactly the cap is still decodable.
	payload := bytes.Repeat([]byte("c"), maxFramePayloadSize)
	frame, err := readFrame(bytes.NewReader(serverFrame(OpBinary, payload)))
	require.NoError(t, err)
	assert.Len(t, frame.Payload, maxFramePayloadSize)
}

func TestReadFrameEmptyStream(t *testing.T) {
	// Zero bytes with a non-timeout error is surfaced as-is, not as a
	// truncated frame: the connection ended before any frame began.
	_, err := readFrame(bytes.NewReader(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, ErrTruncatedFrame)
}

func TestOpcode(t *testing.T) {
	assert.True(t, OpClose.IsControl())
	assert.True(t, OpPing.IsControl())
	assert.True(t, OpPong.IsControl())
	assert.False(t, OpText.IsControl())
	assert.False(t, OpContinuation.IsControl())

	assert.Equal(t, "text", OpText.String())
	assert.Equal(t, "close", OpClose.String())
	assert.Equal(t, "opcode(3)", Opcode(3).String())
}

func TestCloseFrame(t *testing.T) {
	frame := closeFrame()

	require.Len(t, frame, 6)
	assert.Equal(t, byte(0x88), frame[0], "FIN set, close opcode")
	assert.Equal(t, byte(0x80), frame[1], "MASK set, zero length")
	assert.NotEqual(t, [4]byte{}, [4]byte(frame[2:6]), "mask key must not be all zero")
}
