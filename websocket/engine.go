package websocket

import (
	"crypto/rand"
	"sync"

	"github.com/rs/zerolog"
)

// readChunkSize is the default number of bytes requested from the
// transport per Read call when the Decoder's capacity hint is smaller
// (e.g. "2 more bytes for a header"); reading in bigger chunks avoids a
// syscall per frame header on a busy connection.
const readChunkSize = 4096

// writeChunkSize bounds how large a single frame WriteMessage emits for
// a data message; larger payloads are fragmented across Continuation
// frames (RFC 6455 Section 5.4).
const writeChunkSize = 4096

// Engine drives the WebSocket protocol over a [Transport]: frame
// decoding, message (re)assembly, control-frame bookkeeping, and the
// close handshake. It has no knowledge of how the transport was
// constructed; see [Upgrade] for the HTTP side of that.
//
// An Engine is not safe for concurrent ReadMessage calls. WriteMessage
// calls are serialized by writeMu and may come from several goroutines,
// concurrently with one ReadMessage loop: a typical caller runs
// ReadMessage in a loop on one goroutine while WriteMessage is called
// from others.
type Engine struct {
	transport Transport
	role      Role
	entropy   EntropySource
	logger    zerolog.Logger

	decoder *Decoder
	asm     assembler
	readBuf []byte

	writeMu sync.Mutex
	state   connState
}

// EngineOption customizes an Engine at construction time.
type EngineOption func(*Engine)

// WithEntropySource overrides the source of client-frame masking keys.
// The default is crypto/rand.Reader; tests substitute a deterministic
// reader the same way a nonce generator is substituted in unit tests
// elsewhere in this codebase.
func WithEntropySource(src EntropySource) EngineOption {
	return func(e *Engine) {
		e.entropy = src
	}
}

// NewEngine builds an Engine over an already-negotiated transport. role
// determines masking direction on both the read and write paths.
func NewEngine(transport Transport, role Role, opts ...EngineOption) *Engine {
	e := &Engine{
		transport: transport,
		role:      role,
		entropy:   rand.Reader,
		logger:    nopLogger,
		decoder:   NewDecoder(role),
		state:     stateActive,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEngineFromHandshake is like NewEngine, but seeds the Decoder's
// buffer with preRead: bytes a buffered HTTP reader already pulled off
// the wire past the end of the opening handshake's headers, before
// Upgrade handed the connection over (spec.md §6).
func NewEngineFromHandshake(transport Transport, role Role, preRead []byte, opts ...EngineOption) *Engine {
	e := NewEngine(transport, role, opts...)
	if len(preRead) > 0 {
		e.readBuf = append(e.readBuf, preRead...)
	}
	return e
}

// ReadMessage blocks until a complete data message (Text or Binary)
// arrives, an error occurs, or the peer closes the connection. Ping
// frames are answered with an automatic Pong and never surfaced; Pong
// frames are silently absorbed; a Close message is returned to the
// caller after the engine has completed its side of the handshake.
//
//nolint:gocyclo,cyclop // read-loop dispatch across control and data frames
func (e *Engine) ReadMessage() (*Message, error) {
	for {
		e.writeMu.Lock()
		state := e.state
		e.writeMu.Unlock()

		if !state.canRead() {
			if state == stateTerminated {
				return nil, ErrAlreadyClosed
			}
			return nil, ErrConnectionClosed
		}

		frame, consumed, needMore, err := e.decoder.Decode(e.readBuf)
		if err != nil {
			e.failProtocol(err)
			return nil, err
		}

		if frame == nil {
			if err := e.fill(needMore); err != nil {
				return nil, err
			}
			continue
		}

		e.readBuf = e.readBuf[consumed:]

		opcode, payload, ready, asmErr := e.asm.push(frame)
		if asmErr != nil {
			e.failProtocol(asmErr)
			return nil, asmErr
		}
		if !ready {
			continue
		}

		msg, convErr := messageFromRaw(opcode, payload)
		if convErr != nil {
			e.failProtocol(convErr)
			return nil, convErr
		}

		switch {
		case msg.IsPing():
			e.logger.Trace().Int("len", len(msg.Binary)).Msg("ping received, sending pong")
			if werr := e.writePong(msg.Binary); werr != nil {
				return nil, werr
			}
		case msg.IsPong():
			e.logger.Trace().Msg("pong received")
		case msg.IsClose():
			return e.handlePeerClose(msg)
		default:
			return &msg, nil
		}
	}
}

// fill makes one transport Read into a buffer of `hint` bytes (or
// readChunkSize, whichever is larger) and appends whatever arrived to
// readBuf; that may be fewer bytes than hint.
func (e *Engine) fill(hint int) error {
	n := hint
	if n < readChunkSize {
		n = readChunkSize
	}

	buf := make([]byte, n)
	read, err := e.transport.Read(buf)
	if read > 0 {
		e.readBuf = append(e.readBuf, buf[:read]...)
	}
	return err
}

// failProtocol reacts to a protocol-fatal decode or assembly error: it
// best-effort notifies the peer with a Close frame carrying the mapped
// status code, then terminates the connection. The caller still
// receives err from ReadMessage; failProtocol only handles the
// RFC 6455 Section 7.1.5 "fail the connection" side effect.
func (e *Engine) failProtocol(err error) {
	l := e.logger.With().Err(err).Logger()

	e.writeMu.Lock()
	active := e.state == stateActive
	e.writeMu.Unlock()

	if active {
		cm := closeMessageFor(err)
		if werr := e.WriteMessage(cm); werr != nil {
			l.Trace().Err(werr).Msg("failed to send close frame after protocol violation")
		}
	}

	e.writeMu.Lock()
	e.state = stateTerminated
	e.writeMu.Unlock()

	l.Trace().Msg("connection failed by protocol violation")
}

// handlePeerClose advances the close-handshake state machine on receipt
// of a peer Close message and, the first time either side closes, echoes
// it back (RFC 6455 Section 7.1.5: "an endpoint MUST send a Close frame
// in response" if it did not already send one).
func (e *Engine) handlePeerClose(msg Message) (*Message, error) {
	e.writeMu.Lock()
	wasActive := e.state == stateActive
	wasClosedByUs := e.state == stateClosedByUs
	if wasActive {
		e.state = stateClosedByPeer
	}
	e.writeMu.Unlock()

	switch {
	case wasActive:
		echo := msg.cloneClose()
		if err := e.echoClose(echo); err != nil {
			return nil, err
		}
	case wasClosedByUs:
		e.writeMu.Lock()
		e.state = stateCloseAcknowledged
		if e.role == RoleServer {
			e.state = stateTerminated
		}
		e.writeMu.Unlock()
	}

	return &msg, nil
}

// writePong sends an unsolicited-or-replying Pong frame, bypassing
// WriteMessage's state checks: a Pong is a direct reply to a Ping that
// was itself only deliverable while the connection was readable, so no
// separate Active check is needed here.
func (e *Engine) writePong(payload []byte) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	return e.writeFrameLocked(Frame{Opcode: OpPong, Final: true, Payload: payload})
}

// echoClose sends the engine's side of the close handshake in response
// to a peer-initiated close, and advances the state machine accordingly.
// It is distinct from WriteMessage's own Close handling (spec.md §9 open
// question #2): a caller-initiated WriteMessage(closeMsg) only ever
// transitions Active -> ClosedByUs, never touching a state the read path
// already moved past ClosedByPeer.
func (e *Engine) echoClose(msg Message) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	opcode, payload := msg.intoRaw()
	if err := e.writeFrameLocked(Frame{Opcode: opcode, Final: true, Payload: payload}); err != nil {
		return err
	}

	e.state = stateCloseAcknowledged
	if e.role == RoleServer {
		e.state = stateTerminated
	}

	return nil
}

// WriteMessage sends msg as one or more frames. Data messages (Text,
// Binary) larger than writeChunkSize are fragmented across Continuation
// frames; control messages (Ping, Pong, Close) are always a single
// frame.
//
// WriteMessage writes only while the connection is Active. Once a Close
// has been sent or received it writes nothing and returns
// ErrConnectionClosed, or ErrAlreadyClosed once the connection is
// Terminated; this holds for a Close message too, for either role. The
// reply to a peer's Close is sent by ReadMessage, not here, and a
// server-role engine is Terminated as soon as that reply is written, so
// no WriteMessage call completes the close handshake.
func (e *Engine) WriteMessage(msg Message) error {
	opcode, payload := msg.intoRaw()

	if opcode.IsControl() {
		if len(payload) > maxControlPayload {
			return ErrInvalidControlFrameLength
		}
		if opcode == OpClose {
			return e.writeClose(payload)
		}

		e.writeMu.Lock()
		defer e.writeMu.Unlock()

		if e.state == stateTerminated {
			return ErrAlreadyClosed
		}
		if e.state != stateActive {
			return ErrConnectionClosed
		}

		return e.writeFrameLocked(Frame{Opcode: opcode, Final: true, Payload: payload})
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.state == stateTerminated {
		return ErrAlreadyClosed
	}
	if e.state != stateActive {
		return ErrConnectionClosed
	}

	return e.writeChunkedLocked(opcode, payload)
}

// writeClose implements the caller-initiated half of WriteMessage's
// Close handling: it only ever transitions Active -> ClosedByUs
// (spec.md §9 open question #2), leaving the peer-initiated echo path
// (echoClose) to handle every other transition.
func (e *Engine) writeClose(payload []byte) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.state == stateTerminated {
		return ErrAlreadyClosed
	}
	if e.state != stateActive {
		return ErrConnectionClosed
	}

	if err := e.writeFrameLocked(Frame{Opcode: OpClose, Final: true, Payload: payload}); err != nil {
		return err
	}

	e.state = stateClosedByUs
	return nil
}

// writeChunkedLocked splits payload into writeChunkSize-sized frames.
// An empty payload still emits exactly one (empty, final) frame, the
// same priming behavior original_source/src/proto.rs gets from
// `chunks.next().unwrap_or_default()`.
func (e *Engine) writeChunkedLocked(opcode OpCode, payload []byte) error {
	if len(payload) == 0 {
		return e.writeFrameLocked(Frame{Opcode: opcode, Final: true, Payload: nil})
	}

	offset := 0
	first := true
	for offset < len(payload) {
		end := offset + writeChunkSize
		if end > len(payload) {
			end = len(payload)
		}

		chunkOpcode := opcode
		if !first {
			chunkOpcode = OpContinuation
		}

		f := Frame{Opcode: chunkOpcode, Final: end == len(payload), Payload: payload[offset:end]}
		if err := e.writeFrameLocked(f); err != nil {
			return err
		}

		offset = end
		first = false
	}

	return nil
}

// writeFrameLocked encodes and writes a single frame. Callers must hold
// writeMu.
func (e *Engine) writeFrameLocked(f Frame) error {
	encoded, err := Encode(f, e.role, e.entropy)
	if err != nil {
		return err
	}

	_, err = e.transport.Write(encoded)
	return err
}

// Close sends a Close message with the given status code and optional
// reason and is a convenience wrapper over WriteMessage.
func (e *Engine) Close(code CloseCode, reason string) error {
	var r *string
	if reason != "" {
		r = &reason
	}
	return e.WriteMessage(NewCloseMessage(&code, r))
}
