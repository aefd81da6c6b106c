package websocket

import "testing"

func TestMessageFromRaw_Text(t *testing.T) {
	m, err := messageFromRaw(OpText, []byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.IsText() || m.Text != "hello" {
		t.Fatalf("unexpected message: %+v", m)
	}
}

func TestMessageFromRaw_ContinuationRejected(t *testing.T) {
	_, err := messageFromRaw(OpContinuation, nil)
	if err != ErrDisallowedOpcode {
		t.Fatalf("expected ErrDisallowedOpcode, got %v", err)
	}
}

func TestMessageFromRaw_CloseEmpty(t *testing.T) {
	m, err := messageFromRaw(OpClose, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.IsClose() || m.CloseCode != nil || m.CloseReason != nil {
		t.Fatalf("expected empty close message, got %+v", m)
	}
}

// TestMessageFromRaw_CloseCodeOnlyHasNilReason is the direct test of the
// resolved ambiguity: a close payload of exactly the 2-byte code has a
// nil reason, distinct from an empty string reason.
func TestMessageFromRaw_CloseCodeOnlyHasNilReason(t *testing.T) {
	payload := []byte{0x03, 0xE8} // 1000, big-endian
	m, err := messageFromRaw(OpClose, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.CloseCode == nil || *m.CloseCode != CloseNormalClosure {
		t.Fatalf("expected code 1000, got %+v", m.CloseCode)
	}
	if m.CloseReason != nil {
		t.Fatalf("expected nil reason for a 2-byte close payload, got %q", *m.CloseReason)
	}
}

func TestMessageFromRaw_CloseWithReason(t *testing.T) {
	payload := append([]byte{0x03, 0xE8}, []byte("bye")...)
	m, err := messageFromRaw(OpClose, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.CloseReason == nil || *m.CloseReason != "bye" {
		t.Fatalf("expected reason 'bye', got %+v", m.CloseReason)
	}
}

func TestMessageFromRaw_CloseDisallowedCode(t *testing.T) {
	payload := []byte{0x03, 0xEE} // 1006: CloseAbnormalClosure
	_, err := messageFromRaw(OpClose, payload)
	if err != ErrDisallowedCloseCode {
		t.Fatalf("expected ErrDisallowedCloseCode, got %v", err)
	}
}

func TestMessageFromRaw_CloseInvalidCode(t *testing.T) {
	payload := []byte{0x00, 0x01} // 1: below the valid range
	_, err := messageFromRaw(OpClose, payload)
	if err != ErrInvalidCloseCode {
		t.Fatalf("expected ErrInvalidCloseCode, got %v", err)
	}
}

func TestMessage_IntoRaw_RoundTrip(t *testing.T) {
	code := CloseGoingAway
	reason := "shutting down"
	msg := NewCloseMessage(&code, &reason)

	opcode, payload := msg.intoRaw()
	if opcode != OpClose {
		t.Fatalf("expected OpClose, got %v", opcode)
	}

	back, err := messageFromRaw(opcode, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.CloseCode == nil || *back.CloseCode != code {
		t.Fatalf("code mismatch after round trip: %+v", back.CloseCode)
	}
	if back.CloseReason == nil || *back.CloseReason != reason {
		t.Fatalf("reason mismatch after round trip: %+v", back.CloseReason)
	}
}

func TestMessage_IntoRaw_CloseWithNilCode(t *testing.T) {
	msg := NewCloseMessage(nil, nil)
	opcode, payload := msg.intoRaw()
	if opcode != OpClose || payload != nil {
		t.Fatalf("expected (OpClose, nil), got (%v, %v)", opcode, payload)
	}
}

func TestMessage_CloneClose_DoesNotAlias(t *testing.T) {
	code := CloseNormalClosure
	reason := "ok"
	orig := NewCloseMessage(&code, &reason)

	clone := orig.cloneClose()
	*clone.CloseCode = CloseGoingAway
	*clone.CloseReason = "changed"

	if *orig.CloseCode != CloseNormalClosure || *orig.CloseReason != "ok" {
		t.Fatal("cloneClose must not alias the original's pointers")
	}
}
