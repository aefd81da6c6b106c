package websocket

import "io"

// Transport is the byte-oriented, bidirectional, suspending collaborator
// the engine reads frames from and writes frames to. Transport creation,
// TLS, and the opening HTTP/Upgrade handshake that produces one are all
// out of scope for this package except where [Upgrade] wires a net.Conn
// into one; any io.ReadWriter past opening negotiation works.
type Transport interface {
	io.Reader
	io.Writer
}

// EntropySource yields the bytes used as masking keys for client-role
// frames (RFC 6455 Section 5.3). Any io.Reader works; tests substitute a
// deterministic one the same way a nonce generator is swapped out in
// unit tests elsewhere in this codebase. The default is crypto/rand.Reader.
type EntropySource = io.Reader
