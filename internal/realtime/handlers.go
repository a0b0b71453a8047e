package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/htxzdfunny/drawful-web/internal/game"
)

const (
	noticeAlreadyGuessed = "你已经猜中过了"
	noticeDrawerChatLeak = "画手不能在聊天中泄露答案"
	noticeDrawerSendLeak = "画手不能直接发送答案"
)

// Server attaches the websocket event surface to the game core. It is
// thin glue: decode, validate, call one core operation, broadcast.
type Server struct {
	reg      *game.Registry
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewServer(reg *game.Registry, hub *Hub) *Server {
	return &Server{
		reg: reg,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the HTTP request and runs the connection's pumps
// until it drops.
func (s *Server) HandleWS(ctx *gin.Context) {
	conn, err := s.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("ws upgrade failed")
		return
	}

	connID := uuid.NewString()
	c := s.hub.register(connID, NewWebsocketConn(conn))
	log.Debug().Str("conn", connID).Msg("client connected")

	go s.writePump(c)
	s.readPump(c)
	s.disconnect(connID)
}

// writePump drains the send buffer and keeps the connection alive with
// pings. It owns the socket's lifetime: whichever way it exits (send
// channel closed by unregister, write or ping failure) the socket is
// closed behind it.
func (s *Server) writePump(c *client) {
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()
	defer c.sock.Close("")
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.sock.Write(data); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := c.sock.Ping(); err != nil {
				return
			}
		}
	}
}

func (s *Server) readPump(c *client) {
	limiter := rate.NewLimiter(rate.Limit(25), 50)
	for {
		data, err := c.sock.Read()
		if err != nil {
			return
		}
		if !limiter.Allow() {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			s.hub.ToConn(c.id, "room:error", gin.H{"error": "invalid_payload"})
			continue
		}
		s.dispatch(c.id, env)
	}
}

func (s *Server) disconnect(connID string) {
	codes := s.hub.unregister(connID)
	for _, code := range codes {
		if err := s.reg.RemovePlayer(code, connID); err != nil {
			continue
		}
		s.broadcastState(code)
	}
	log.Debug().Str("conn", connID).Msg("client disconnected")
}

func (s *Server) dispatch(connID string, env Envelope) {
	switch env.Event {
	case "room:join":
		s.onJoin(connID, env.Payload)
	case "profile:update":
		s.onProfileUpdate(connID, env.Payload)
	case "room:leave":
		s.onLeave(connID, env.Payload)
	case "room:set_round_duration":
		s.onSetRoundDuration(connID, env.Payload)
	case "room:set_rounds_per_match":
		s.onSetRoundsPerMatch(connID, env.Payload)
	case "room:transfer_owner":
		s.onTransferOwner(connID, env.Payload)
	case "draw:change":
		s.onDrawChange(connID, env.Payload)
	case "draw:clear":
		s.onDrawClear(connID, env.Payload)
	case "chat:message":
		s.onMessage(connID, env.Payload, noticeDrawerChatLeak)
	case "guess:submit":
		s.onMessage(connID, env.Payload, noticeDrawerSendLeak)
	case "game:start":
		s.onStart(connID, env.Payload)
	case "game:choose_word":
		s.onChooseWord(connID, env.Payload)
	case "game:abort":
		s.onAbort(connID, env.Payload)
	case "game:abort_vote":
		s.onAbortVote(connID, env.Payload)
	case "game:abort_match":
		s.onAbortMatch(connID, env.Payload)
	case "game:abort_match_vote":
		s.onAbortMatchVote(connID, env.Payload)
	default:
		s.hub.ToConn(connID, "room:error", gin.H{"error": "invalid_payload"})
	}
}

// broadcastState sends the public projection to the room plus the
// drawer-private variant to the drawer.
func (s *Server) broadcastState(code string) {
	st, err := s.reg.PublicState(code, "")
	if err != nil {
		s.hub.ToRoom(code, "room:error", gin.H{"error": game.ErrRoomNotFound.Error()})
		return
	}
	s.hub.ToRoom(code, "room:state", st)

	if drawer, err := s.reg.DrawerID(code); err == nil && drawer != "" {
		if private, err := s.reg.PublicState(code, drawer); err == nil {
			s.hub.ToConn(drawer, "room:state", private)
		}
	}
}

func (s *Server) emitError(connID, event string, err error) {
	s.hub.ToConn(connID, event, gin.H{"error": err.Error()})
}

func (s *Server) systemNotice(connID, code, text string) {
	s.hub.ToConn(connID, "chat:message", game.ChatMessage{
		RoomCode: code, From: "system", Text: text,
	})
}

func (s *Server) onJoin(connID string, raw json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.validate() != nil {
		s.emitError(connID, "room:error", errInvalidPayload)
		return
	}

	if err := s.reg.UpsertPlayer(p.RoomCode, connID, p.Name, p.Avatar, p.PlayerKey); err != nil {
		s.emitError(connID, "room:error", err)
		return
	}
	s.hub.joinRoom(connID, p.RoomCode)

	// Replay both histories so reconnects and late joiners catch up.
	elements, messages, err := s.reg.HistorySnapshot(p.RoomCode)
	if err == nil {
		s.hub.ToConn(connID, "draw:sync", gin.H{"roomCode": p.RoomCode, "elements": elements})
		s.hub.ToConn(connID, "chat:sync", gin.H{"roomCode": p.RoomCode, "messages": messages})
	}

	s.reg.EnsureLoop(p.RoomCode)
	s.broadcastState(p.RoomCode)
}

func (s *Server) onProfileUpdate(connID string, raw json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.validate() != nil {
		s.emitError(connID, "room:error", errInvalidPayload)
		return
	}
	if !s.reg.HasPlayer(p.RoomCode, connID) {
		s.emitError(connID, "room:error", game.ErrNotInRoom)
		return
	}
	if err := s.reg.UpsertPlayer(p.RoomCode, connID, p.Name, p.Avatar, p.PlayerKey); err != nil {
		s.emitError(connID, "room:error", err)
		return
	}
	s.broadcastState(p.RoomCode)
}

func (s *Server) onLeave(connID string, raw json.RawMessage) {
	var p roomOnlyPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.validate() != nil {
		return
	}
	s.hub.leaveRoom(connID, p.RoomCode)
	if err := s.reg.RemovePlayer(p.RoomCode, connID); err != nil {
		return
	}
	s.broadcastState(p.RoomCode)
}

func (s *Server) onSetRoundDuration(connID string, raw json.RawMessage) {
	var p setDurationPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RoomCode == "" {
		s.emitError(connID, "room:error", errInvalidPayload)
		return
	}
	sec, err := intField(p.RoundDurationSec)
	if err != nil {
		s.emitError(connID, "room:error", game.ErrInvalidDuration)
		return
	}
	if err := s.reg.SetRoundDuration(p.RoomCode, connID, sec); err != nil {
		s.emitError(connID, "room:error", err)
		return
	}
	s.broadcastState(p.RoomCode)
}

func (s *Server) onSetRoundsPerMatch(connID string, raw json.RawMessage) {
	var p setRoundsPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RoomCode == "" {
		s.emitError(connID, "room:error", errInvalidPayload)
		return
	}
	rounds, err := intField(p.RoundsPerMatch)
	if err != nil {
		s.emitError(connID, "room:error", game.ErrInvalidRounds)
		return
	}
	if err := s.reg.SetRoundsPerMatch(p.RoomCode, connID, rounds); err != nil {
		s.emitError(connID, "room:error", err)
		return
	}
	s.broadcastState(p.RoomCode)
}

func (s *Server) onTransferOwner(connID string, raw json.RawMessage) {
	var p transferOwnerPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RoomCode == "" || p.NewOwnerID == "" {
		s.emitError(connID, "room:error", errInvalidPayload)
		return
	}
	if err := s.reg.TransferOwner(p.RoomCode, connID, p.NewOwnerID); err != nil {
		s.emitError(connID, "room:error", err)
		return
	}
	s.broadcastState(p.RoomCode)
}

func (s *Server) onDrawChange(connID string, raw json.RawMessage) {
	var p drawChangePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RoomCode == "" || p.Elements == nil {
		return
	}
	if err := s.reg.MergeDrawElements(p.RoomCode, connID, p.Elements); err != nil {
		return
	}
	s.hub.ToRoomExcept(p.RoomCode, connID, "draw:change", gin.H{
		"roomCode": p.RoomCode,
		"elements": p.Elements,
	})
}

func (s *Server) onDrawClear(connID string, raw json.RawMessage) {
	var p roomOnlyPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.validate() != nil {
		return
	}
	if err := s.reg.ClearDraw(p.RoomCode, connID); err != nil {
		return
	}
	s.hub.ToRoom(p.RoomCode, "draw:clear", gin.H{"roomCode": p.RoomCode})
}

func (s *Server) onMessage(connID string, raw json.RawMessage, leakNotice string) {
	var p textPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.validate() != nil {
		return
	}

	res, err := s.reg.SubmitGuess(p.RoomCode, connID, p.Text)
	if err != nil {
		return
	}

	switch res.Kind {
	case game.GuessChat:
		s.hub.ToRoom(p.RoomCode, "chat:message", game.ChatMessage{
			RoomCode: p.RoomCode, From: connID, Text: p.Text,
		})
	case game.GuessBlocked:
		s.systemNotice(connID, p.RoomCode, leakNotice)
	case game.GuessDuplicate:
		s.systemNotice(connID, p.RoomCode, noticeAlreadyGuessed)
	case game.GuessCorrect:
		s.hub.ToRoom(p.RoomCode, "guess:correct", gin.H{"roomCode": p.RoomCode, "by": connID})
		if res.Revealed {
			s.hub.ToRoom(p.RoomCode, "game:reveal", gin.H{"roomCode": p.RoomCode, "word": res.Word})
		}
		s.broadcastState(p.RoomCode)
	}
}

func (s *Server) onStart(connID string, raw json.RawMessage) {
	var p startPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RoomCode == "" {
		return
	}
	if err := s.reg.StartMatch(p.RoomCode, connID, p.cleanWords()); err != nil {
		s.emitError(connID, "game:error", err)
		return
	}
	// Fresh match, fresh board on every client.
	s.hub.ToRoom(p.RoomCode, "draw:clear", gin.H{"roomCode": p.RoomCode})
	s.broadcastState(p.RoomCode)
	s.reg.EnsureLoop(p.RoomCode)
}

func (s *Server) onChooseWord(connID string, raw json.RawMessage) {
	var p chooseWordPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RoomCode == "" || p.Word == "" {
		return
	}
	if err := s.reg.ChooseWord(p.RoomCode, connID, p.Word); err != nil {
		s.emitError(connID, "game:error", err)
		return
	}
	s.broadcastState(p.RoomCode)
	s.reg.EnsureLoop(p.RoomCode)
}

func (s *Server) onAbort(connID string, raw json.RawMessage) {
	var p roomOnlyPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.validate() != nil {
		return
	}
	word, err := s.reg.AbortRound(p.RoomCode, connID)
	if err != nil {
		s.emitError(connID, "game:error", err)
		return
	}
	s.hub.ToRoom(p.RoomCode, "game:reveal", gin.H{"roomCode": p.RoomCode, "word": word})
	s.broadcastState(p.RoomCode)
}

func (s *Server) onAbortVote(connID string, raw json.RawMessage) {
	var p roomOnlyPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.validate() != nil {
		return
	}
	tally, err := s.reg.AddAbortVote(p.RoomCode, connID)
	if err != nil {
		return
	}
	if tally.Aborted {
		s.hub.ToRoom(p.RoomCode, "game:reveal", gin.H{"roomCode": p.RoomCode, "word": tally.Word})
	}
	s.broadcastState(p.RoomCode)
}

func (s *Server) onAbortMatch(connID string, raw json.RawMessage) {
	var p roomOnlyPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.validate() != nil {
		s.emitError(connID, "game:error", errInvalidPayload)
		return
	}
	if err := s.reg.AbortMatch(p.RoomCode, connID); err != nil {
		s.emitError(connID, "game:error", err)
		return
	}
	s.broadcastState(p.RoomCode)
}

func (s *Server) onAbortMatchVote(connID string, raw json.RawMessage) {
	var p roomOnlyPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.validate() != nil {
		s.emitError(connID, "game:error", errInvalidPayload)
		return
	}
	tally, err := s.reg.AddMatchAbortVote(p.RoomCode, connID)
	if err != nil {
		return
	}
	s.hub.ToConn(connID, "game:abort_match_vote", gin.H{
		"votes":   tally.Votes,
		"needed":  tally.Needed,
		"aborted": tally.Aborted,
	})
	s.broadcastState(p.RoomCode)
}
