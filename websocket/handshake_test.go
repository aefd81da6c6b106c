package websocket

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func validUpgradeRequest() *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Upgrade", "websocket")
	r.Header.Set("Connection", "Upgrade")
	r.Header.Set("Sec-WebSocket-Version", "13")
	r.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	return r
}

func TestUpgrade_RejectsNonGet(t *testing.T) {
	r := validUpgradeRequest()
	r.Method = http.MethodPost

	_, err := Upgrade(httptest.NewRecorder(), r, nil)
	if !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestUpgrade_RejectsMissingUpgradeHeader(t *testing.T) {
	r := validUpgradeRequest()
	r.Header.Del("Upgrade")

	_, err := Upgrade(httptest.NewRecorder(), r, nil)
	if !errors.Is(err, ErrMissingUpgrade) {
		t.Fatalf("expected ErrMissingUpgrade, got %v", err)
	}
}

func TestUpgrade_RejectsMissingConnectionHeader(t *testing.T) {
	r := validUpgradeRequest()
	r.Header.Set("Connection", "keep-alive")

	_, err := Upgrade(httptest.NewRecorder(), r, nil)
	if !errors.Is(err, ErrMissingConnection) {
		t.Fatalf("expected ErrMissingConnection, got %v", err)
	}
}

func TestUpgrade_RejectsBadVersion(t *testing.T) {
	r := validUpgradeRequest()
	r.Header.Set("Sec-WebSocket-Version", "8")

	_, err := Upgrade(httptest.NewRecorder(), r, nil)
	if !errors.Is(err, ErrInvalidVersion) {
		t.Fatalf("expected ErrInvalidVersion, got %v", err)
	}
}

func TestUpgrade_RejectsMissingKey(t *testing.T) {
	r := validUpgradeRequest()
	r.Header.Del("Sec-WebSocket-Key")

	_, err := Upgrade(httptest.NewRecorder(), r, nil)
	if !errors.Is(err, ErrMissingSecKey) {
		t.Fatalf("expected ErrMissingSecKey, got %v", err)
	}
}

func TestUpgrade_RejectsDeniedOrigin(t *testing.T) {
	r := validUpgradeRequest()
	r.Header.Set("Origin", "https://evil.example")

	opts := &UpgradeOptions{CheckOrigin: func(*http.Request) bool { return false }}
	_, err := Upgrade(httptest.NewRecorder(), r, opts)
	if !errors.Is(err, ErrOriginDenied) {
		t.Fatalf("expected ErrOriginDenied, got %v", err)
	}
}

// TestUpgrade_FailsHijackOnPlainRecorder confirms that once the header
// checks pass, a ResponseWriter lacking http.Hijacker (e.g. the standard
// test recorder) surfaces ErrHijackFailed rather than panicking.
func TestUpgrade_FailsHijackOnPlainRecorder(t *testing.T) {
	r := validUpgradeRequest()

	_, err := Upgrade(httptest.NewRecorder(), r, nil)
	if !errors.Is(err, ErrHijackFailed) {
		t.Fatalf("expected ErrHijackFailed, got %v", err)
	}
}

// computeAcceptKey is verified against the worked example from
// RFC 6455 Section 1.3.
func TestComputeAcceptKey_RFCExample(t *testing.T) {
	got := computeAcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNegotiateSubprotocol_PicksFirstClientMatch(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Sec-WebSocket-Protocol", "chat, superchat")

	got := negotiateSubprotocol(r, []string{"superchat", "chat"})
	if got != "chat" {
		t.Fatalf("expected 'chat', got %q", got)
	}
}

func TestNegotiateSubprotocol_NoMatch(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Sec-WebSocket-Protocol", "xmpp")

	got := negotiateSubprotocol(r, []string{"chat"})
	if got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestHeaderContainsToken(t *testing.T) {
	cases := []struct {
		header, token string
		want          bool
	}{
		{"Upgrade, HTTP/2.0", "upgrade", true},
		{"keep-alive", "upgrade", false},
		{"Upgrade", "UPGRADE", true},
	}
	for _, c := range cases {
		if got := headerContainsToken(c.header, c.token); got != c.want {
			t.Errorf("headerContainsToken(%q, %q) = %v, want %v", c.header, c.token, got, c.want)
		}
	}
}

func TestCheckSameOrigin(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Host = "example.com"

	r.Header.Del("Origin")
	if !CheckSameOrigin(r) {
		t.Error("expected no Origin header to be allowed")
	}

	r.Header.Set("Origin", "http://example.com")
	if !CheckSameOrigin(r) {
		t.Error("expected a matching origin to be allowed")
	}

	r.Header.Set("Origin", "http://evil.example")
	if CheckSameOrigin(r) {
		t.Error("expected a mismatched origin to be rejected")
	}
}
