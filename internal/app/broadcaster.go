package app

import "sync"

// Event names published to connections. One per state transition.
const (
	EventPlayerJoined     = "player_joined"
	EventPlayerLeft       = "player_left"
	EventRoundStarted     = "round_started"
	EventPlayerAnswered   = "player_answered"
	EventRoundEnded       = "round_ended"
	EventLeaderboard      = "leaderboard"
	EventSessionEnded     = "session_ended"
	EventHostDisconnected = "host_disconnected"
)

// Event is the wire-agnostic envelope handed to transports.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const connBuffer = 32

// Conn is one registered recipient. Transports drain Events and write them
// to the underlying socket.
type Conn struct {
	sessionID string
	playerID  string
	host      bool

	closeOnce sync.Once
	ch        chan Event
}

// Events returns the connection's event stream. The channel is closed when
// the connection is unregistered.
func (c *Conn) Events() <-chan Event { return c.ch }

// PlayerID is empty for host connections.
func (c *Conn) PlayerID() string { return c.playerID }

func (c *Conn) IsHost() bool { return c.host }

func (c *Conn) SessionID() string { return c.sessionID }

// send never blocks: when the buffer is full the oldest pending event is
// dropped so a slow or disconnected recipient cannot stall a state
// transition.
func (c *Conn) send(ev Event) {
	select {
	case c.ch <- ev:
	default:
		select {
		case <-c.ch:
		default:
		}
		select {
		case c.ch <- ev:
		default:
		}
	}
}

// Broadcaster fans lifecycle events out to every connection registered for a
// session. Events for one session are emitted in order; there is no ordering
// guarantee across distinct recipients or sessions.
type Broadcaster struct {
	mu       sync.RWMutex
	sessions map[string]map[*Conn]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{sessions: make(map[string]map[*Conn]struct{})}
}

// RegisterHost registers the host connection for a session.
func (b *Broadcaster) RegisterHost(sessionID string) *Conn {
	return b.register(&Conn{sessionID: sessionID, host: true, ch: make(chan Event, connBuffer)})
}

// RegisterPlayer registers a player connection for a session.
func (b *Broadcaster) RegisterPlayer(sessionID, playerID string) *Conn {
	return b.register(&Conn{sessionID: sessionID, playerID: playerID, ch: make(chan Event, connBuffer)})
}

func (b *Broadcaster) register(c *Conn) *Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	conns, ok := b.sessions[c.sessionID]
	if !ok {
		conns = make(map[*Conn]struct{})
		b.sessions[c.sessionID] = conns
	}
	conns[c] = struct{}{}
	return c
}

// Unregister removes a connection and closes its event stream. It is
// idempotent and safe to call for a connection that was never registered.
func (b *Broadcaster) Unregister(c *Conn) {
	if c == nil {
		return
	}
	b.mu.Lock()
	if conns, ok := b.sessions[c.sessionID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(b.sessions, c.sessionID)
		}
	}
	b.mu.Unlock()

	c.closeOnce.Do(func() { close(c.ch) })
}

// Broadcast delivers the event to every connection registered for the
// session, host included.
func (b *Broadcaster) Broadcast(sessionID, eventType string, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.sessions[sessionID] {
		c.send(Event{Type: eventType, Payload: payload})
	}
}

// SendToHost delivers the event to the session's host connection only.
func (b *Broadcaster) SendToHost(sessionID, eventType string, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.sessions[sessionID] {
		if c.host {
			c.send(Event{Type: eventType, Payload: payload})
		}
	}
}
