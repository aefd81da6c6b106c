package websocket

import (
	"io"

	"github.com/rs/zerolog"
)

// nopLogger is the default collaborator for an Engine built without an
// explicit logger: every call is a cheap no-op, so Engine's log call sites
// never need a nil check.
var nopLogger = zerolog.New(io.Discard).Level(zerolog.Disabled)

// WithLogger returns an EngineOption that routes an Engine's diagnostic
// trace output (ping/pong receipt, protocol violations) through l,
// instead of the no-op default.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}
