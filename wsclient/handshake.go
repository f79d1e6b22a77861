package wsclient

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

const (
	websocketVersion = "13"

	// handshakeBufferSize bounds the single read of the server's
	// handshake response.
	handshakeBufferSize = 4096
)

// generateChallengeKey generates a 16-byte key encoded in base64 for the
// Sec-WebSocket-Key header per RFC 6455, section 4.1. The value is never
// checked against the server's accept digest by this client, so the key
// only needs to be well-formed.
func generateChallengeKey() string {
	key := make([]byte, 16)
	if _, err := io.ReadFull(randReader, key); err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(key)
}

// performHandshake writes the HTTP Upgrade request for the endpoint and
// validates the server's response with a single bounded read. Any response
// not containing "101 Switching Protocols", including an empty read, fails
// with an error wrapping ErrHandshakeRejected.
//
// The Sec-WebSocket-Accept digest is deliberately not verified: this is a
// permissive test client. A conformance-checking client would compare the
// header against SHA-1(key + GUID) per RFC 6455, section 4.2.2.
func performHandshake(conn net.Conn, ep Endpoint, timeout time.Duration) error {
	var req strings.Builder
	fmt.Fprintf(&req, "GET %s HTTP/1.1\r\n", ep.Path)
	fmt.Fprintf(&req, "Host: %s:%d\r\n", ep.Host, ep.Port)
	req.WriteString("Upgrade: websocket\r\n")
	req.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&req, "Sec-WebSocket-Key: %s\r\n", generateChallengeKey())
	fmt.Fprintf(&req, "Sec-WebSocket-Version: %s\r\n", websocketVersion)
	req.WriteString("\r\n")

	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
		defer func() { _ = conn.SetDeadline(time.Time{}) }()
	}

	if _, err := conn.Write([]byte(req.String())); err != nil {
		return fmt.Errorf("%w: write: %v", ErrHandshakeRejected, err)
	}

	buf := make([]byte, handshakeBufferSize)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return fmt.Errorf("%w: no response", ErrHandshakeRejected)
	}

	resp := buf[:n]
	if !bytes.Contains(resp, []byte("101 Switching Protocols")) {
		return fmt.Errorf("%w: %s", ErrHandshakeRejected, statusLine(resp))
	}

	return nil
}

// statusLine returns the first line of an HTTP response for error reporting.
func statusLine(resp []byte) string {
	if i := bytes.IndexByte(resp, '\r'); i >= 0 {
		resp = resp[:i]
	}
	return string(resp)
}
