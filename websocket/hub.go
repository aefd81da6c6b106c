package websocket

import (
	"encoding/json/v2"
	"sync"
)

// Hub manages multiple WebSocket connections for broadcasting.
//
// Hub provides a central point for managing WebSocket clients and
// broadcasting messages to all connected clients simultaneously.
//
// Thread-safe operations allow concurrent client registration,
// unregistration, and broadcasting from multiple goroutines.
//
// Example Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Close()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//	    engine, _ := websocket.Upgrade(w, r, nil)
//	    hub.Register(engine)
//
//	    go func() {
//	        defer hub.UnregisterWithCode(engine, websocket.CloseNormalClosure, "")
//	        for {
//	            msg, err := engine.ReadMessage()
//	            if err != nil {
//	                break
//	            }
//	            hub.BroadcastMessage(*msg)
//	        }
//	    }()
//	})
type Hub struct {
	// Client management
	clients map[*Engine]bool // Registered clients

	// Channels for event loop
	register   chan *Engine        // Register new client
	unregister chan unregisterCall // Unregister client, with its close status
	broadcast  chan Message        // Broadcast message to all

	// shutdownCode/shutdownReason are the close status every still-
	// registered client receives when Close tears the hub down; Unregister
	// (no explicit code) falls back to CloseNormalClosure.
	shutdownCode   CloseCode
	shutdownReason string

	// Lifecycle management
	done   chan struct{}  // Shutdown signal
	closed bool           // Track if hub is closed
	wg     sync.WaitGroup // Wait for goroutines

	// Thread-safety for clients map and closed flag
	mu sync.RWMutex
}

// unregisterCall pairs a leaving client with the close status the hub
// should send it, so Unregister's caller can report *why* a client is
// being dropped (e.g. a policy violation) rather than always CloseNormalClosure.
type unregisterCall struct {
	client *Engine
	code   CloseCode
	reason string
}

// HubOption customizes a Hub at construction time.
type HubOption func(*Hub)

// WithShutdownClose overrides the close status sent to every still-
// registered client when Close is called. The default is
// CloseGoingAway, matching RFC 6455 Section 7.4.1's "server is going
// down" status.
func WithShutdownClose(code CloseCode, reason string) HubOption {
	return func(h *Hub) {
		h.shutdownCode = code
		h.shutdownReason = reason
	}
}

// NewHub creates a new WebSocket Hub.
//
// The Hub must be started by calling Run() in a goroutine:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Close()
//
// Returns a ready-to-use Hub with initialized channels.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:      make(map[*Engine]bool),
		register:     make(chan *Engine),
		unregister:   make(chan unregisterCall),
		broadcast:    make(chan Message, 256), // Buffered for performance
		done:         make(chan struct{}),
		shutdownCode: CloseGoingAway,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the Hub's event loop.
//
// This method blocks and should be called in a goroutine:
//
//	go hub.Run()
//
// The event loop handles:
//   - Client registration/unregistration
//   - Message broadcasting to all clients
//   - Graceful shutdown
//
// Run exits when Close() is called.
func (h *Hub) Run() {
	h.wg.Add(1)
	defer h.wg.Done()

	for {
		select {
		case client := <-h.register:
			// Register new client
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case call := <-h.unregister:
			// Unregister client
			h.mu.Lock()
			if _, ok := h.clients[call.client]; ok {
				delete(h.clients, call.client)
				_ = call.client.Close(call.code, call.reason) // Close connection
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			// Broadcast to all clients
			h.mu.RLock()
			for client := range h.clients {
				// Send in goroutine to avoid blocking on slow clients
				go func(c *Engine, msg Message) {
					if err := c.WriteMessage(msg); err != nil {
						// Auto-unregister on write failure
						h.Unregister(c)
					}
				}(client, message)
			}
			h.mu.RUnlock()

		case <-h.done:
			// Shutdown
			return
		}
	}
}

// Register adds a client to the Hub.
//
// The client will receive all messages sent via Broadcast().
//
// Typically called after successful WebSocket upgrade:
//
//	engine, _ := websocket.Upgrade(w, r, nil)
//	hub.Register(engine)
//
// Thread-safe: can be called from multiple goroutines.
func (h *Hub) Register(client *Engine) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	h.mu.RUnlock()

	h.register <- client
}

// Unregister removes a client from the Hub and closes it with
// CloseNormalClosure. Equivalent to UnregisterWithCode(client,
// CloseNormalClosure, "").
//
// Typically called in a defer after client registration:
//
//	defer hub.Unregister(engine)
//
// Thread-safe: can be called from multiple goroutines.
// Safe to call multiple times for the same client (no-op after first call).
func (h *Hub) Unregister(client *Engine) {
	h.UnregisterWithCode(client, CloseNormalClosure, "")
}

// UnregisterWithCode removes a client from the Hub and closes its
// connection with the given close status, letting a caller report *why*
// a client left (a policy violation, an over-capacity hub, and so on)
// rather than always sending a bare CloseNormalClosure.
//
// Thread-safe: can be called from multiple goroutines.
// Safe to call multiple times for the same client (no-op after first call).
func (h *Hub) UnregisterWithCode(client *Engine, code CloseCode, reason string) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	h.mu.RUnlock()

	h.unregister <- unregisterCall{client: client, code: code, reason: reason}
}

// Broadcast sends a Binary message carrying data to all connected
// clients. Equivalent to BroadcastMessage(NewBinaryMessage(data)).
//
// The message is queued for delivery. Actual delivery happens
// asynchronously in the event loop.
//
// If a client write fails, that client is automatically unregistered.
//
// Thread-safe: can be called from multiple goroutines.
// Queues the message on a 256-entry buffer and returns; blocks only while
// that buffer is full.
func (h *Hub) Broadcast(data []byte) {
	h.BroadcastMessage(NewBinaryMessage(data))
}

// BroadcastMessage queues msg for delivery to every connected client,
// preserving its opcode (Text, Binary, Ping, Pong, or Close) rather than
// forcing everything through a single wire representation. A Close
// message fans out the engine's normal close handshake to every client.
//
// Thread-safe: can be called from multiple goroutines.
// Queues the message on a 256-entry buffer and returns; blocks only while
// that buffer is full.
func (h *Hub) BroadcastMessage(msg Message) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	h.mu.RUnlock()

	h.broadcast <- msg
}

// BroadcastText sends a Text message to all connected clients.
//
// Convenience wrapper around BroadcastMessage() for text messages.
//
// Example:
//
//	hub.BroadcastText("Server notification")
//
// Thread-safe: can be called from multiple goroutines.
func (h *Hub) BroadcastText(text string) {
	h.BroadcastMessage(NewTextMessage(text))
}

// BroadcastJSON sends a JSON message to all connected clients.
//
// Marshals the value to JSON and broadcasts as a Text message (JSON is
// always valid UTF-8, so this never fails the Text opcode's wire
// invariant).
//
// Example:
//
//	type Message struct {
//	    Type string `json:"type"`
//	    Text string `json:"text"`
//	}
//	hub.BroadcastJSON(Message{Type: "notification", Text: "Hello"})
//
// Returns error if JSON marshaling fails.
// Thread-safe: can be called from multiple goroutines.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	h.BroadcastText(string(data))
	return nil
}

// ClientCount returns the number of currently connected clients.
//
// Thread-safe: can be called from multiple goroutines.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the Hub and disconnects all clients.
//
// Performs graceful shutdown:
//  1. Sets closed flag to prevent new operations
//  2. Stops the event loop
//  3. Waits for Run() to exit
//  4. Closes all client connections
//  5. Closes all channels
//
// Safe to call multiple times (no-op after first call).
//
// Example:
//
//	defer hub.Close()
func (h *Hub) Close() error {
	// Set closed flag first (prevents new Register/Unregister/Broadcast)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	// Signal shutdown to event loop
	close(h.done)

	// Wait for event loop to exit
	h.wg.Wait()

	// Close all client connections
	h.mu.Lock()
	for client := range h.clients {
		_ = client.Close(h.shutdownCode, h.shutdownReason)
	}
	h.clients = make(map[*Engine]bool) // Clear map
	h.mu.Unlock()

	// Close channels (safe now that event loop exited and no new sends)
	close(h.register)
	close(h.unregister)
	close(h.broadcast)

	return nil
}
