package game

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Emitter delivers events to connected clients. The realtime hub
// implements it; tests use a recorder. Emit calls must never run while
// the registry lock is held.
type Emitter interface {
	ToConn(connID, event string, payload any)
	ToRoom(code, event string, payload any)
}

// TickerCreator abstracts time.Ticker so scheduler tests can drive
// ticks by hand.
type TickerCreator interface {
	Create(d time.Duration) <-chan time.Time
}

type tickerGen struct{}

func (tickerGen) Create(d time.Duration) <-chan time.Time {
	return time.NewTicker(d).C
}

// NewTickerGen returns the real time.Ticker-backed TickerCreator.
func NewTickerGen() TickerCreator {
	return tickerGen{}
}

// Options carries the game timing knobs, normally filled from env config.
type Options struct {
	RoundDurationSec int
	RoundsPerMatch   int
	WordChoicesCount int
	ChooseDuration   time.Duration
	RevealDuration   time.Duration
	EmptyRoomTTL     time.Duration
	SchedulerCadence time.Duration
}

// DefaultOptions mirrors the production defaults.
func DefaultOptions() Options {
	return Options{
		RoundDurationSec: 60,
		RoundsPerMatch:   3,
		WordChoicesCount: 3,
		ChooseDuration:   12 * time.Second,
		RevealDuration:   6 * time.Second,
		EmptyRoomTTL:     10 * time.Second,
		SchedulerCadence: 250 * time.Millisecond,
	}
}

// Registry owns every active room. A single mutex serializes all reads
// and writes of room state; exported methods lock, unexported *Locked
// helpers assume the lock is held. The lock is never held across an
// emit or a sleep.
type Registry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	opts    Options
	words   *WordBank
	emitter Emitter
	tickers TickerCreator
	now     func() time.Time
}

func NewRegistry(opts Options, words *WordBank, emitter Emitter, tickers TickerCreator) *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		opts:    opts,
		words:   words,
		emitter: emitter,
		tickers: tickers,
		now:     time.Now,
	}
}

func (reg *Registry) nowMs() int64 {
	return reg.now().UnixMilli()
}

func newRoomCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateRoom registers a new room and returns its code.
// roundDurationSec <= 0 falls back to the configured default.
func (reg *Registry) CreateRoom(ownerID string, roundDurationSec int) string {
	if roundDurationSec <= 0 {
		roundDurationSec = reg.opts.RoundDurationSec
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := newRoomCode()
	for {
		if _, taken := reg.rooms[code]; !taken {
			break
		}
		code = newRoomCode()
	}

	reg.rooms[code] = newRoom(code, ownerID, roundDurationSec, reg.opts.RoundsPerMatch)
	log.Info().Str("room", code).Str("owner", ownerID).Msg("room created")
	return code
}

// RoomExists reports whether code names an active room.
func (reg *Registry) RoomExists(code string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, ok := reg.rooms[code]
	return ok
}

// DeleteRoom removes the room and stops its scheduler loop.
func (reg *Registry) DeleteRoom(code string) bool {
	reg.mu.Lock()
	room, ok := reg.rooms[code]
	if ok {
		reg.deleteRoomLocked(room)
	}
	reg.mu.Unlock()
	return ok
}

func (reg *Registry) deleteRoomLocked(room *Room) {
	if room.cancelLoop != nil {
		room.cancelLoop()
	}
	delete(reg.rooms, room.code)
	log.Info().Str("room", room.code).Msg("room deleted")
}

// ListRoomCodes returns the codes of every active room.
func (reg *Registry) ListRoomCodes() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	codes := make([]string, 0, len(reg.rooms))
	for code := range reg.rooms {
		codes = append(codes, code)
	}
	return codes
}
