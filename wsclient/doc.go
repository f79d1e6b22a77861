// Package wsclient implements a minimal WebSocket client for driving
// protocol-level tests against a server, covering the client side of
// RFC 6455: the opening HTTP handshake, masked text-frame encoding,
// frame decoding, and an explicit connection lifecycle.
//
// The client is deliberately permissive. It accepts any handshake response
// containing "101 Switching Protocols" without verifying the server's
// Sec-WebSocket-Accept digest, and it swallows receive-path errors to keep
// long-running test loops alive, reporting them only through the session
// logger. It is not a conformance-checking implementation.
//
// Out of scope: per-message compression (RFC 7692), reassembly of
// fragmented messages, binary message delivery, and server-side framing.
// Control and out-of-scope frames observed while waiting for a text
// message are retained and can be inspected with NextPendingFrame.
//
// Example:
//
//	session, err := wsclient.DefaultDialer.Dial("ws://127.0.0.1:3000/ws/echo")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	if err := session.SendText("ping"); err != nil {
//	    log.Fatal(err)
//	}
//
//	if msg, ok := session.ReceiveMessage(2 * time.Second); ok {
//	    fmt.Println(msg)
//	}
//
// A session is owned by a single goroutine: all operations are synchronous
// and blocking up to a caller-supplied timeout, with no background reader.
// Independent sessions may run concurrently on separate goroutines.
package wsclient
