package wsclient

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"
)

// dialEndpoint opens the byte stream for an endpoint: a TCP connection,
// wrapped in TLS when the endpoint is secure, with the endpoint host used
// for certificate validation. The timeout bounds both the TCP connect and
// the TLS handshake.
func (d *Dialer) dialEndpoint(ep Endpoint, timeout time.Duration) (net.Conn, error) {
	dial := d.NetDial
	if dial == nil {
		nd := &net.Dialer{Timeout: timeout}
		dial = nd.Dial
	}

	conn, err := dial("tcp", ep.Addr())
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrConnectTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	if !ep.Secure {
		return conn, nil
	}

	cfg := d.TLSConfig
	if cfg == nil {
		cfg = &tls.Config{}
	} else {
		cfg = cfg.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = ep.Host
	}

	tlsConn := tls.Client(conn, cfg)
	_ = tlsConn.SetDeadline(time.Now().Add(timeout))
	if err := tlsConn.Handshake(); err != nil {
		_ = conn.Close()
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: tls: %v", ErrConnectTimeout, err)
		}
		return nil, fmt.Errorf("%w: tls: %v", ErrConnect, err)
	}
	_ = tlsConn.SetDeadline(time.Time{})

	return tlsConn, nil
}

// isTimeout reports whether err is a network timeout.
func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
