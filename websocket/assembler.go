package websocket

// assembler reassembles a sequence of data frames (Text, Binary,
// Continuation) produced by a Decoder into complete messages (RFC 6455
// Section 5.4). Control frames are handed to push too, but pass straight
// back out without touching the assembly state: Close/Ping/Pong are always
// single, final frames and are handled directly by the caller.
//
// Only the first fragment of a message carries the real opcode;
// subsequent fragments arrive as Continuation and inherit it. Because a
// UTF-8 codepoint can straddle a fragment boundary, final validation of a
// fragmented text message's payload happens here, not in the Decoder,
// which only sees one frame at a time.
type assembler struct {
	inProgress    bool
	opcode        OpCode
	buf           []byte
	utf8ValidUpTo int
}

// push feeds f into the assembler. When a complete message is available,
// ready is true and opcode/payload describe it. Otherwise ready is false
// and the assembler has absorbed f into its in-progress state.
func (a *assembler) push(f *Frame) (opcode OpCode, payload []byte, ready bool, err error) {
	if f.Opcode.IsControl() {
		return f.Opcode, f.Payload, true, nil
	}

	if f.Opcode == OpContinuation {
		return a.pushContinuation(f)
	}

	if a.inProgress {
		return 0, nil, false, ErrUnfinishedMessage
	}

	if f.Opcode == OpText {
		fail, validLen := validateUTF8Prefix(f.Payload, f.Final)
		if fail {
			return 0, nil, false, ErrInvalidUtf8
		}
		if f.Final {
			return OpText, f.Payload, true, nil
		}

		a.start(OpText, f.Payload)
		a.utf8ValidUpTo = validLen
		return 0, nil, false, nil
	}

	// OpBinary.
	if f.Final {
		return OpBinary, f.Payload, true, nil
	}
	a.start(OpBinary, f.Payload)
	return 0, nil, false, nil
}

func (a *assembler) pushContinuation(f *Frame) (opcode OpCode, payload []byte, ready bool, err error) {
	if !a.inProgress {
		return 0, nil, false, ErrUnexpectedContinuation
	}

	a.buf = append(a.buf, f.Payload...)

	if a.opcode == OpText {
		fail, validLen := validateUTF8Prefix(a.buf[a.utf8ValidUpTo:], f.Final)
		if fail {
			a.reset()
			return 0, nil, false, ErrInvalidUtf8
		}
		a.utf8ValidUpTo += validLen
	}

	if !f.Final {
		return 0, nil, false, nil
	}

	opcode, payload = a.opcode, a.buf
	a.reset()
	return opcode, payload, true, nil
}

func (a *assembler) start(opcode OpCode, payload []byte) {
	a.inProgress = true
	a.opcode = opcode
	a.buf = append([]byte(nil), payload...)
	a.utf8ValidUpTo = 0
}

func (a *assembler) reset() {
	a.inProgress = false
	a.opcode = 0
	a.buf = nil
	a.utf8ValidUpTo = 0
}
