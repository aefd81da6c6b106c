package websocket

// Role identifies which side of the connection the engine is playing,
// which determines masking direction (RFC 6455 Section 5.1): clients mask
// outgoing frames and expect unmasked incoming ones; servers do the
// opposite.
type Role int

const (
	// RoleClient masks outgoing frames and rejects masked incoming ones.
	RoleClient Role = iota
	// RoleServer does not mask outgoing frames; incoming ones carry MASK=1.
	RoleServer
)

// String returns "client" or "server", for logging.
func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}
