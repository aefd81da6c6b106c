package websocket

import "encoding/binary"

// Message is the application-level datum the engine exchanges with its
// caller, tagged by Opcode:
//
//   - OpText: Text holds the (already-validated) string.
//   - OpBinary, OpPing, OpPong: Binary holds the payload bytes.
//   - OpClose: CloseCode and CloseReason are both optional (nil means
//     "absent"), per RFC 6455 Section 5.5.1.
//
// Opcode is never OpContinuation; the assembler (assembler.go) never
// produces one.
type Message struct {
	Opcode      OpCode
	Text        string
	Binary      []byte
	CloseCode   *CloseCode
	CloseReason *string
}

// NewTextMessage builds a text message.
func NewTextMessage(s string) Message {
	return Message{Opcode: OpText, Text: s}
}

// NewBinaryMessage builds a binary message.
func NewBinaryMessage(data []byte) Message {
	return Message{Opcode: OpBinary, Binary: data}
}

// NewPingMessage builds a ping control message. data must be <= 125 bytes.
func NewPingMessage(data []byte) Message {
	return Message{Opcode: OpPing, Binary: data}
}

// NewPongMessage builds a pong control message. data must be <= 125 bytes.
func NewPongMessage(data []byte) Message {
	return Message{Opcode: OpPong, Binary: data}
}

// NewCloseMessage builds a close message. Either argument may be nil to
// mean "absent": a nil code means an empty close payload; a nil reason
// with a non-nil code means a 2-byte payload carrying only the code.
func NewCloseMessage(code *CloseCode, reason *string) Message {
	return Message{Opcode: OpClose, CloseCode: code, CloseReason: reason}
}

// IsText reports whether m is a text message.
func (m Message) IsText() bool { return m.Opcode == OpText }

// IsBinary reports whether m is a binary message.
func (m Message) IsBinary() bool { return m.Opcode == OpBinary }

// IsClose reports whether m is a close message.
func (m Message) IsClose() bool { return m.Opcode == OpClose }

// IsPing reports whether m is a ping message.
func (m Message) IsPing() bool { return m.Opcode == OpPing }

// IsPong reports whether m is a pong message.
func (m Message) IsPong() bool { return m.Opcode == OpPong }

// messageFromRaw converts an assembled (opcode, payload) pair into a
// Message (spec.md §4.3). The payload's text validity has already been
// checked incrementally by the assembler for OpText; it is not
// re-validated here.
func messageFromRaw(opcode OpCode, payload []byte) (Message, error) {
	switch opcode {
	case OpContinuation:
		// Defensive: the assembler never emits this opcode.
		return Message{}, ErrDisallowedOpcode

	case OpText:
		return NewTextMessage(string(payload)), nil

	case OpBinary:
		return NewBinaryMessage(payload), nil

	case OpPing:
		return NewPingMessage(payload), nil

	case OpPong:
		return NewPongMessage(payload), nil

	case OpClose:
		return closeMessageFromRaw(payload)

	default:
		return Message{}, ErrDisallowedOpcode
	}
}

func closeMessageFromRaw(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return NewCloseMessage(nil, nil), nil
	}
	if len(payload) == 1 {
		// The codec rejects this declared length before it ever reaches
		// the assembler; this is a defensive backstop.
		return Message{}, ErrInvalidCloseSequence
	}

	code := CloseCode(binary.BigEndian.Uint16(payload[:2]))
	if !code.valid() {
		return Message{}, ErrInvalidCloseCode
	}
	if code.disallowedOnWire() {
		return Message{}, ErrDisallowedCloseCode
	}

	// spec.md §9 open question #1: the reason is absent iff the payload
	// is exactly the 2-byte code, not merely "empty" (which len==0 above
	// already handled).
	if len(payload) == 2 {
		return NewCloseMessage(&code, nil), nil
	}

	reason, err := parseUTF8(payload[2:])
	if err != nil {
		return Message{}, err
	}

	return NewCloseMessage(&code, &reason), nil
}

// intoRaw converts m back into an (opcode, payload) pair for the chunker
// in Engine.WriteMessage (spec.md §4.3).
func (m Message) intoRaw() (OpCode, []byte) {
	switch m.Opcode {
	case OpText:
		return OpText, []byte(m.Text)

	case OpBinary, OpPing, OpPong:
		return m.Opcode, m.Binary

	case OpClose:
		if m.CloseCode == nil {
			return OpClose, nil
		}

		reason := ""
		if m.CloseReason != nil {
			reason = *m.CloseReason
		}

		body := make([]byte, 2+len(reason))
		binary.BigEndian.PutUint16(body[:2], uint16(*m.CloseCode))
		copy(body[2:], reason)

		return OpClose, body

	default:
		return OpBinary, m.Binary
	}
}

// cloneClose returns a copy of a close message's code/reason, suitable
// for echoing back to the peer without aliasing the original pointers.
func (m Message) cloneClose() Message {
	var code *CloseCode
	if m.CloseCode != nil {
		c := *m.CloseCode
		code = &c
	}

	var reason *string
	if m.CloseReason != nil {
		r := *m.CloseReason
		reason = &r
	}

	return NewCloseMessage(code, reason)
}
