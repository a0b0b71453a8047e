package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Conn is the minimal connection surface the hub needs; the gorilla
// adapter implements it and tests substitute a mock.
type Conn interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Ping() error
	Close(errCode string)
}

type websocketConn struct {
	socket *websocket.Conn
}

func (wc *websocketConn) Write(data []byte) error {
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *websocketConn) Ping() error {
	return wc.socket.WriteMessage(websocket.PingMessage, nil)
}

func (wc *websocketConn) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

func (wc *websocketConn) Close(errCode string) {
	wc.socket.SetWriteDeadline(time.Now().Add(time.Second * 20))
	wc.socket.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, errCode))
	wc.socket.Close()
}

// NewWebsocketConn wraps a gorilla connection with pong-driven read
// deadlines.
func NewWebsocketConn(conn *websocket.Conn) Conn {
	conn.SetReadDeadline(time.Now().Add(time.Minute))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(time.Minute))
		return nil
	})
	return &websocketConn{socket: conn}
}

type client struct {
	id    string
	sock  Conn
	send  chan []byte
	rooms map[string]struct{}
}

// Hub tracks live connections and their room membership, and delivers
// events to one connection or to everyone tagged with a room code. It
// implements game.Emitter.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
	rooms   map[string]map[string]*client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]*client),
	}
}

func (h *Hub) register(id string, sock Conn) *client {
	c := &client{
		id:    id,
		sock:  sock,
		send:  make(chan []byte, 256),
		rooms: make(map[string]struct{}),
	}
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	return c
}

// unregister drops the connection and returns the room codes it was in
// so the caller can run the leave path for each.
func (h *Hub) unregister(id string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return nil
	}
	delete(h.clients, id)
	close(c.send)

	codes := make([]string, 0, len(c.rooms))
	for code := range c.rooms {
		codes = append(codes, code)
		if members, exists := h.rooms[code]; exists {
			delete(members, id)
			if len(members) == 0 {
				delete(h.rooms, code)
			}
		}
	}
	return codes
}

func (h *Hub) joinRoom(id, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return
	}
	c.rooms[code] = struct{}{}
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[string]*client)
	}
	h.rooms[code][id] = c
}

func (h *Hub) leaveRoom(id, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[id]; ok {
		delete(c.rooms, code)
	}
	if members, ok := h.rooms[code]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

func marshalEnvelope(event string, payload any) []byte {
	data, err := json.Marshal(Envelope{Event: event, Payload: mustRaw(payload)})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal envelope failed")
		return nil
	}
	return data
}

func mustRaw(payload any) json.RawMessage {
	raw, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage(`null`)
	}
	return raw
}

// ToConn sends one event to one connection. Slow consumers are dropped
// rather than blocked on. The non-blocking send happens under the hub
// lock so it serializes with unregister closing the channel.
func (h *Hub) ToConn(connID, event string, payload any) {
	data := marshalEnvelope(event, payload)
	if data == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("conn", connID).Str("event", event).Msg("send buffer full, dropping")
	}
}

// ToRoom fans one event out to every connection in the room.
func (h *Hub) ToRoom(code, event string, payload any) {
	h.toRoomExcept(code, "", event, payload)
}

// ToRoomExcept fans out to the room, skipping one connection (used to
// relay drawing changes without echoing them to the drawer).
func (h *Hub) ToRoomExcept(code, exceptID, event string, payload any) {
	h.toRoomExcept(code, exceptID, event, payload)
}

func (h *Hub) toRoomExcept(code, exceptID, event string, payload any) {
	data := marshalEnvelope(event, payload)
	if data == nil {
		return
	}

	// The hub lock is held across the fan-out: every send is
	// non-blocking, and a concurrent unregister must not close a
	// channel between snapshot and send.
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.rooms[code] {
		if id == exceptID {
			continue
		}
		select {
		case c.send <- data:
		default:
			log.Warn().Str("conn", c.id).Str("event", event).Msg("send buffer full, dropping")
		}
	}
}
