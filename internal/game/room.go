package game

import "context"

// RoomState is the lifecycle phase of a room.
type RoomState string

const (
	StateLobby    RoomState = "lobby"
	StateChoosing RoomState = "choosing"
	StatePlaying  RoomState = "playing"
	StateReveal   RoomState = "reveal"
)

const (
	maxDrawHistory = 2000
	maxChatHistory = 200
)

// Player is one connection's seat in a room. playerKey is a stable,
// client-retained identifier used for reconnection; it is never exposed
// to other clients.
type Player struct {
	id        string
	name      string
	avatar    string
	score     int
	connected bool
	playerKey string
}

// DrawElement is one whiteboard element as sent by the drawer's client.
// The core only inspects its "id" field for merge-by-id semantics.
type DrawElement map[string]any

// ChatMessage is a single chat entry kept for late-joiner sync.
type ChatMessage struct {
	RoomCode string `json:"roomCode"`
	From     string `json:"from"`
	Text     string `json:"text"`
}

// Room is one match instance. Every field is guarded by the owning
// Registry's lock; nothing outside the game package touches a Room
// directly.
type Room struct {
	code    string
	ownerID string
	state   RoomState

	round           int
	roundsPerMatch  int
	matchRoundIndex int

	drawerID    string
	word        string
	wordChoices []string
	customWords []string

	// Absolute deadlines in ms since epoch, 0 = absent. Exactly one of
	// the three "ends" deadlines is set at a time, matching state.
	startedAtMs    int64
	chooseEndsAtMs int64
	roundEndsAtMs  int64
	revealEndsAtMs int64

	correctGuessers map[string]struct{}
	abortVotes      map[string]struct{}
	matchAbortVotes map[string]struct{}

	roundDurationSec int

	players        map[string]*Player
	order          []string // insertion order, drives drawer rotation
	playerKeyIndex map[string]string

	lastEmptyAtMs int64

	drawHistory []DrawElement
	chatHistory []ChatMessage

	// One-shot trusted overrides consumed by the next choosing transition.
	nextWord     string
	nextDrawerID string

	loopRunning bool
	cancelLoop  context.CancelFunc
}

func newRoom(code, ownerID string, roundDurationSec, roundsPerMatch int) *Room {
	return &Room{
		code:             code,
		ownerID:          ownerID,
		state:            StateLobby,
		roundsPerMatch:   roundsPerMatch,
		roundDurationSec: roundDurationSec,
		correctGuessers:  make(map[string]struct{}),
		abortVotes:       make(map[string]struct{}),
		matchAbortVotes:  make(map[string]struct{}),
		players:          make(map[string]*Player),
		playerKeyIndex:   make(map[string]string),
	}
}

// playerIDs returns the present players in roster-insertion order.
func (r *Room) playerIDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

func (r *Room) removeFromOrder(id string) {
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

func (r *Room) appendChat(msg ChatMessage) {
	r.chatHistory = append(r.chatHistory, msg)
	if len(r.chatHistory) > maxChatHistory {
		r.chatHistory = r.chatHistory[len(r.chatHistory)-maxChatHistory:]
	}
}

// mergeDrawElement updates the element with the same id in place, or
// appends it, evicting the oldest entries past the cap.
func (r *Room) mergeDrawElement(el DrawElement) {
	id, _ := el["id"].(string)
	if id == "" {
		return
	}
	for i, existing := range r.drawHistory {
		if eid, _ := existing["id"].(string); eid == id {
			r.drawHistory[i] = el
			return
		}
	}
	r.drawHistory = append(r.drawHistory, el)
	if len(r.drawHistory) > maxDrawHistory {
		r.drawHistory = r.drawHistory[len(r.drawHistory)-maxDrawHistory:]
	}
}
