package wsclient

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Endpoint identifies a WebSocket server parsed from a ws:// or wss:// URL.
type Endpoint struct {
	Host   string
	Port   uint16
	Path   string
	Secure bool
}

// Addr returns the host:port dial address for the endpoint.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// ParseURL parses a ws:// or wss:// URL into an Endpoint. The port defaults
// to 80 for ws and 443 for wss, and the path defaults to "/". Malformed
// input fails with an error wrapping ErrInvalidURL.
func ParseURL(raw string) (Endpoint, error) {
	var ep Endpoint

	switch {
	case strings.HasPrefix(raw, "ws://"):
		raw = raw[len("ws://"):]
	case strings.HasPrefix(raw, "wss://"):
		ep.Secure = true
		raw = raw[len("wss://"):]
	default:
		return Endpoint{}, fmt.Errorf("%w: scheme must be ws or wss", ErrInvalidURL)
	}

	hostPort := raw
	ep.Path = "/"
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		hostPort = raw[:i]
		ep.Path = raw[i:]
	}

	host := hostPort
	var portStr string
	var hasPort bool
	if strings.HasPrefix(hostPort, "[") {
		// Bracketed IPv6 literal, optionally followed by :port.
		end := strings.IndexByte(hostPort, ']')
		if end < 0 {
			return Endpoint{}, fmt.Errorf("%w: unterminated IPv6 host", ErrInvalidURL)
		}
		host = hostPort[1:end]
		if rest := hostPort[end+1:]; rest != "" {
			if !strings.HasPrefix(rest, ":") {
				return Endpoint{}, fmt.Errorf("%w: malformed host %q", ErrInvalidURL, hostPort)
			}
			portStr = rest[1:]
			hasPort = true
		}
	} else if i := strings.LastIndexByte(hostPort, ':'); i >= 0 {
		host = hostPort[:i]
		portStr = hostPort[i+1:]
		hasPort = true
	}

	switch {
	case hasPort:
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return Endpoint{}, fmt.Errorf("%w: invalid port %q", ErrInvalidURL, portStr)
		}
		ep.Port = uint16(port)
	case ep.Secure:
		ep.Port = 443
	default:
		ep.Port = 80
	}

	if host == "" {
		return Endpoint{}, fmt.Errorf("%w: empty host", ErrInvalidURL)
	}
	ep.Host = host

	return ep, nil
}
