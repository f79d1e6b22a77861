package wsclient

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/eapache/queue"
)

// State tracks the session lifecycle: a session moves to Closing when a
// close frame is sent or received and ends Closed once the connection is
// released. No state is reachable from Closed. Dial handles the
// Disconnected and Handshaking phases internally and only ever returns an
// Open session, so those two values never appear on a live Session; they
// exist to name the full lifecycle.
type State int

// Session lifecycle states.
const (
	StateDisconnected State = iota
	StateHandshaking
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateHandshaking:
		return "handshaking"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Errors returned by the wsclient package.
var (
	ErrInvalidURL        = errors.New("wsclient: invalid url")
	ErrConnect           = errors.New("wsclient: connect failed")
	ErrConnectTimeout    = errors.New("wsclient: connect timed out")
	ErrHandshakeRejected = errors.New("wsclient: handshake rejected")
	ErrTruncatedFrame    = errors.New("wsclient: truncated frame")
	ErrFrameTooBig       = errors.New("wsclient: frame exceeds size limit")
	ErrNotConnected      = errors.New("wsclient: not connected")
)

// DefaultDialer is a dialer with all fields set to the default values.
var DefaultDialer = &Dialer{}

const defaultDialTimeout = 10 * time.Second

// Dialer contains options for opening WebSocket sessions.
type Dialer struct {
	// Timeout bounds the TCP connect, the TLS handshake, and the HTTP
	// upgrade exchange. Zero means 10 seconds.
	Timeout time.Duration

	// NetDial overrides the function used to open the TCP connection.
	NetDial func(network, addr string) (net.Conn, error)

	// TLSConfig is used for wss endpoints. The endpoint host is filled
	// in as ServerName when unset.
	TLSConfig *tls.Config

	// Logger receives the receive-path errors the session swallows.
	// Defaults to a discard logger.
	Logger *slog.Logger
}

// Dial connects to a ws:// or wss:// URL, performs the opening handshake,
// and returns an Open session. Establishment failures (ErrInvalidURL,
// ErrConnect, ErrConnectTimeout, ErrHandshakeRejected) are returned to the
// caller and leave no resources behind.
func (d *Dialer) Dial(urlStr string) (*Session, error) {
	ep, err := ParseURL(urlStr)
	if err != nil {
		return nil, err
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	conn, err := d.dialEndpoint(ep, timeout)
	if err != nil {
		return nil, err
	}

	if err := performHandshake(conn, ep, timeout); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Session{
		conn:     conn,
		endpoint: ep,
		state:    StateOpen,
		logger:   logger,
		pending:  queue.New(),
	}, nil
}

// Session is a client-side WebSocket connection. It exclusively owns the
// underlying net.Conn and the current State. All methods are synchronous
// and must be called from a single goroutine; independent sessions may be
// used concurrently. Closing the connection from another goroutine is the
// only way to abort a blocked receive early.
type Session struct {
	conn     net.Conn
	endpoint Endpoint
	state    State
	logger   *slog.Logger
	pending  *queue.Queue
}

// State returns the current lifecycle state. It distinguishes a receive
// timeout (session still Open) from a closed connection.
func (s *Session) State() State {
	return s.state
}

// Endpoint returns the parsed endpoint the session was dialed against.
func (s *Session) Endpoint() Endpoint {
	return s.endpoint
}

// SendText writes msg as a single masked text frame. It fails with an error
// wrapping ErrNotConnected unless the session is Open.
func (s *Session) SendText(msg string) error {
	if s.state != StateOpen {
		return fmt.Errorf("%w: state %s", ErrNotConnected, s.state)
	}
	if _, err := s.conn.Write(encodeText([]byte(msg))); err != nil {
		return fmt.Errorf("wsclient: write: %w", err)
	}
	return nil
}

// ReceiveMessage reads frames until a final text frame arrives or timeout
// elapses. It returns the message text and true for a text frame, and
// ("", false) when no complete frame arrived in time, when only control or
// out-of-scope frames arrived, or when the session is not Open or Closing.
// Use State to tell a timeout apart from a closed connection.
//
// A received close frame moves the session through Closing to Closed.
// Decode and stream errors also close the session but are not returned:
// the client is built to keep a long-running test loop alive when a server
// misbehaves, so the underlying cause is only reported through the session
// logger. Ping, pong, binary, and non-final frames are retained for
// inspection via NextPendingFrame rather than delivered as messages.
func (s *Session) ReceiveMessage(timeout time.Duration) (string, bool) {
	if s.state != StateOpen && s.state != StateClosing {
		return "", false
	}

	deadline := time.Now().Add(timeout)
	_ = s.conn.SetReadDeadline(deadline)

	for {
		frame, err := readFrame(s.conn)
		if err != nil {
			if errors.Is(err, errNoData) {
				return "", false
			}
			s.logger.Error("receive failed", "error", err, "endpoint", s.endpoint.Addr())
			s.teardown()
			return "", false
		}

		switch {
		case frame.Opcode == OpText && frame.Fin:
			return string(frame.Payload), true
		case frame.Opcode == OpClose:
			s.state = StateClosing
			s.teardown()
			return "", false
		default:
			s.pending.Add(frame)
		}

		if !time.Now().Before(deadline) {
			return "", false
		}
	}
}

// NextPendingFrame pops the oldest control or out-of-scope frame observed
// during ReceiveMessage, if any.
func (s *Session) NextPendingFrame() (Frame, bool) {
	if s.pending.Length() == 0 {
		return Frame{}, false
	}
	frame, ok := s.pending.Remove().(Frame)
	return frame, ok
}

// closeFrame builds the fixed close frame sent on shutdown: FIN with
// opcode 8, MASK bit set, zero-length masked payload.
func closeFrame() []byte {
	key := newMaskKey()
	return []byte{byte(OpClose) | finalBit, maskBit, key[0], key[1], key[2], key[3]}
}

// Close sends a best-effort close frame and releases the connection. The
// session always ends Closed regardless of whether the frame could be
// written, and calling Close on an already closed session is a no-op.
// It always returns nil.
func (s *Session) Close() error {
	switch s.state {
	case StateOpen, StateClosing:
		_, _ = s.conn.Write(closeFrame())
	}
	s.teardown()
	return nil
}

// teardown releases the connection and marks the session Closed.
func (s *Session) teardown() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.state = StateClosed
}
