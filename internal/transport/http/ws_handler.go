package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

// WSHandler upgrades HTTP requests to websockets and wires them into the
// session engine. Hosts connect with role=host&sessionId=&hostId=; players
// connect with sessionId= or code=, plus name=.
type WSHandler struct {
	game     *app.Game
	upgrader websocket.Upgrader
}

func NewWSHandler(game *app.Game) *WSHandler {
	return &WSHandler{
		game: game,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type startRoundPayload struct {
	RoundNumber int    `json:"roundNumber"`
	QuestionID  string `json:"questionId"`
}

type endRoundPayload struct {
	RoundID string `json:"roundId"`
}

type questionPayload struct {
	QuestionID string `json:"questionId"`
}

type answerPayload struct {
	RoundID   string           `json:"roundId"`
	Selection domain.Selection `json:"selection"`
}

type joinedPayload struct {
	SessionID string        `json:"sessionId"`
	Player    domain.Player `json:"player"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if query.Get("role") == "host" {
		h.serveHost(r.Context(), conn, query.Get("sessionId"), query.Get("hostId"))
		return
	}
	h.servePlayer(r.Context(), conn, query.Get("sessionId"), query.Get("code"), query.Get("name"))
}

// wsLoop owns the socket's write side and the broadcaster pump. All writes
// funnel through one goroutine; gorilla connections do not allow concurrent
// writers.
type wsLoop struct {
	send         chan outboundMessage[any]
	closeSignals chan struct{}
	writerDone   chan struct{}
	eventsDone   chan struct{}
}

func startLoop(conn *websocket.Conn, bconn *app.Conn) *wsLoop {
	l := &wsLoop{
		send:         make(chan outboundMessage[any], 16),
		closeSignals: make(chan struct{}),
		writerDone:   make(chan struct{}),
		eventsDone:   make(chan struct{}),
	}

	go func() {
		defer close(l.writerDone)
		for msg := range l.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(l.eventsDone)
		for {
			select {
			case ev, ok := <-bconn.Events():
				if !ok {
					return
				}
				select {
				case l.send <- outboundMessage[any]{Type: ev.Type, Payload: ev.Payload}:
				case <-l.closeSignals:
					return
				}
			case <-l.closeSignals:
				return
			}
		}
	}()

	return l
}

// stop tears the loop down in order: pump first, then the send channel.
func (l *wsLoop) stop() {
	close(l.closeSignals)
	<-l.eventsDone
	close(l.send)
	<-l.writerDone
}

func (h *WSHandler) servePlayer(ctx context.Context, conn *websocket.Conn, sessionID, code, name string) {
	if name == "" || (sessionID == "" && code == "") {
		writeError(conn, "missing sessionId/code or name")
		return
	}

	var player domain.Player
	var err error
	if sessionID != "" {
		player, err = h.game.Registry.Join(ctx, sessionID, name)
	} else {
		sessionID, player, err = h.game.Registry.JoinByCode(ctx, code, name)
	}
	if err != nil {
		writeError(conn, err.Error())
		return
	}

	bconn := h.game.Broadcast.RegisterPlayer(sessionID, player.ID)
	defer func() {
		h.game.Broadcast.Unregister(bconn)
		h.game.Registry.Leave(ctx, sessionID, player.ID)
	}()

	loop := startLoop(conn, bconn)
	defer loop.stop()

	loop.send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{SessionID: sessionID, Player: player}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				loop.send <- errorMessage("invalid answer payload")
				continue
			}
			res, err := h.game.Ledger.SubmitTimed(ctx, payload.RoundID, player.ID, payload.Selection)
			if err != nil {
				loop.send <- errorMessage(err.Error())
				continue
			}
			loop.send <- outboundMessage[any]{Type: "answer_result", Payload: res}
		default:
			loop.send <- errorMessage("unsupported message type")
		}
	}
}

func (h *WSHandler) serveHost(ctx context.Context, conn *websocket.Conn, sessionID, hostID string) {
	if sessionID == "" || hostID == "" {
		writeError(conn, "missing sessionId or hostId")
		return
	}
	s, err := h.game.Registry.GetSession(ctx, sessionID)
	if err != nil {
		writeError(conn, err.Error())
		return
	}
	if s.HostID != hostID {
		writeError(conn, "host id does not match session")
		return
	}

	bconn := h.game.Broadcast.RegisterHost(sessionID)
	defer func() {
		h.game.Broadcast.Unregister(bconn)
		if active, err := h.game.Registry.GetSessionStatus(ctx, sessionID); err == nil && active {
			h.game.Registry.HostDisconnected(sessionID)
		}
	}()

	loop := startLoop(conn, bconn)
	defer loop.stop()

	loop.send <- outboundMessage[any]{Type: "session", Payload: s}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "start_round":
			var payload startRoundPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				loop.send <- errorMessage("invalid start_round payload")
				continue
			}
			round, err := h.game.Rounds.StartRound(ctx, sessionID, payload.RoundNumber, payload.QuestionID)
			if err != nil {
				loop.send <- errorMessage(err.Error())
				continue
			}
			loop.send <- outboundMessage[any]{Type: "round", Payload: round}
		case "end_round":
			var payload endRoundPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				loop.send <- errorMessage("invalid end_round payload")
				continue
			}
			stats, err := h.game.Rounds.EndRound(ctx, payload.RoundID)
			if err != nil {
				loop.send <- errorMessage(err.Error())
				continue
			}
			loop.send <- outboundMessage[any]{Type: "round_stats", Payload: stats}
		case "question":
			// Host-scoped fetch: includes correctness, so it rides this
			// connection only, never a broadcast.
			var payload questionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				loop.send <- errorMessage("invalid question payload")
				continue
			}
			q, err := h.game.Registry.HostQuestion(ctx, sessionID, payload.QuestionID)
			if err != nil {
				loop.send <- errorMessage(err.Error())
				continue
			}
			loop.send <- outboundMessage[any]{Type: "question", Payload: q}
		case "end_session":
			if _, err := h.game.Registry.EndSession(ctx, sessionID); err != nil {
				loop.send <- errorMessage(err.Error())
				continue
			}
		default:
			loop.send <- errorMessage("unsupported message type")
		}
	}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

func writeError(conn *websocket.Conn, msg string) {
	_ = conn.WriteJSON(errorMessage(msg))
}
