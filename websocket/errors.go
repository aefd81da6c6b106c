package websocket

import "errors"

// Protocol error types. Every one of these is protocol-fatal: the engine
// sends a Close frame (1007 for ErrInvalidUtf8, 1002 for the rest) before
// surfacing the error to the caller (RFC 6455 Section 7.1.5).

var (
	// ErrInvalidRsv indicates a reserved bit (RSV1-3) was set.
	// RFC 6455 Section 5.2: reserved bits must be 0 unless an extension
	// negotiated a meaning for them; this engine negotiates none.
	ErrInvalidRsv = errors.New("websocket: reserved bits must be 0")

	// ErrInvalidOpcode indicates an unknown or reserved opcode (0x3-0x7,
	// 0xB-0xF). RFC 6455 Section 5.2.
	ErrInvalidOpcode = errors.New("websocket: invalid opcode")

	// ErrFragmentedControlFrame indicates a control frame with FIN=0.
	// RFC 6455 Section 5.5: control frames must not be fragmented.
	ErrFragmentedControlFrame = errors.New("websocket: control frame must not be fragmented")

	// ErrServerMaskedData indicates a masked frame arrived on the side of
	// the connection where the protocol forbids masking: a client
	// decoder saw MASK=1 from the server. RFC 6455 Section 5.1.
	ErrServerMaskedData = errors.New("websocket: peer applied masking against its role")

	// ErrInvalidControlFrameLength indicates a control frame declared an
	// extended (126/127) payload length. RFC 6455 Section 5.5: control
	// frame payload must fit in the 7-bit length and be <= 125 bytes.
	ErrInvalidControlFrameLength = errors.New("websocket: control frame payload too large")

	// ErrInvalidPayloadLength indicates a 64-bit extended length with its
	// most significant bit set. RFC 6455 Section 5.2.
	ErrInvalidPayloadLength = errors.New("websocket: invalid payload length")

	// ErrInvalidUtf8 indicates a text frame, or an assembled text
	// message, contains a byte sequence that is not valid UTF-8.
	// RFC 6455 Section 8.1. Status code 1007.
	ErrInvalidUtf8 = errors.New("websocket: invalid UTF-8 in text frame")

	// ErrInvalidCloseSequence indicates a close frame declared a payload
	// of exactly 1 byte (neither empty nor a full 2-byte status code).
	// RFC 6455 Section 5.5.1.
	ErrInvalidCloseSequence = errors.New("websocket: close frame payload must be empty or >= 2 bytes")

	// ErrUnexpectedContinuation indicates a continuation frame arrived
	// with no message in progress. RFC 6455 Section 5.4.
	ErrUnexpectedContinuation = errors.New("websocket: unexpected continuation frame")

	// ErrUnfinishedMessage indicates a data frame of a new type arrived
	// while a fragmented message was still being assembled.
	// RFC 6455 Section 5.4.
	ErrUnfinishedMessage = errors.New("websocket: data frame interleaved with unfinished message")

	// ErrDisallowedOpcode indicates the assembler handed the message
	// model a Continuation opcode. The assembler never produces one;
	// this is a defensive check, not a reachable RFC violation.
	ErrDisallowedOpcode = errors.New("websocket: continuation is not a valid message opcode")

	// ErrInvalidCloseCode indicates a close payload's 2-byte code is
	// outside the 1000-4999 range the protocol defines.
	ErrInvalidCloseCode = errors.New("websocket: invalid close code")

	// ErrDisallowedCloseCode indicates a close payload used a code that
	// may not appear on the wire (1004, 1005, 1006, 1015, or the
	// 1012-2999 reserved-for-standards range). RFC 6455 Section 7.4.1.
	ErrDisallowedCloseCode = errors.New("websocket: close code not allowed on the wire")
)

// Connection lifecycle errors.

var (
	// ErrAlreadyClosed indicates an operation was attempted after the
	// connection reached the Terminated state. Not recoverable.
	ErrAlreadyClosed = errors.New("websocket: connection already closed")

	// ErrConnectionClosed is returned by WriteMessage and ReadMessage once a
	// Close has been sent or received but the connection is not yet
	// Terminated; nothing is written or read. This is a normal terminal
	// outcome: the caller should tear down the transport, not retry.
	ErrConnectionClosed = errors.New("websocket: close handshake complete, connection terminated")
)

// Handshake error types (RFC 6455 Section 4). The opening handshake is an
// external collaborator to the core engine, but Upgrade lives in this
// package the way the teacher keeps it alongside Conn.

var (
	// ErrInvalidMethod indicates the HTTP method was not GET.
	ErrInvalidMethod = errors.New("websocket: method must be GET")

	// ErrMissingUpgrade indicates a missing or invalid Upgrade header.
	ErrMissingUpgrade = errors.New("websocket: missing or invalid Upgrade header")

	// ErrMissingConnection indicates a missing or invalid Connection header.
	ErrMissingConnection = errors.New("websocket: missing or invalid Connection header")

	// ErrMissingSecKey indicates a missing Sec-WebSocket-Key header.
	ErrMissingSecKey = errors.New("websocket: missing Sec-WebSocket-Key header")

	// ErrInvalidVersion indicates an unsupported Sec-WebSocket-Version.
	ErrInvalidVersion = errors.New("websocket: unsupported WebSocket version")

	// ErrOriginDenied indicates the configured origin check rejected the
	// request.
	ErrOriginDenied = errors.New("websocket: origin check failed")

	// ErrHijackFailed indicates the ResponseWriter does not support
	// hijacking the underlying connection.
	ErrHijackFailed = errors.New("websocket: cannot hijack connection")
)
