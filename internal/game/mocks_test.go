package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Emitter ---

type recordedEmit struct {
	toRoom  bool
	target  string
	event   string
	payload any
}

type recorderEmitter struct {
	mu    sync.Mutex
	emits []recordedEmit
}

func (r *recorderEmitter) ToConn(connID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emits = append(r.emits, recordedEmit{target: connID, event: event, payload: payload})
}

func (r *recorderEmitter) ToRoom(code, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emits = append(r.emits, recordedEmit{toRoom: true, target: code, event: event, payload: payload})
}

func (r *recorderEmitter) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.emits))
	for _, e := range r.emits {
		names = append(names, e.event)
	}
	return names
}

// --- TickerCreator ---

type MockTickerCreator struct {
	mock.Mock
}

func (m *MockTickerCreator) Create(d time.Duration) <-chan time.Time {
	args := m.Called(d)
	return args.Get(0).(chan time.Time)
}

// --- fixture ---

type fixture struct {
	reg     *Registry
	emitter *recorderEmitter

	clockMu sync.Mutex
	now     time.Time
}

// newFixture builds a registry with a hand-driven clock and a
// deterministic word sampler (always picks in pool order).
func newFixture(t *testing.T) *fixture {
	t.Helper()

	words := NewWordBank()
	words.intn = func(int) int { return 0 }

	f := &fixture{
		emitter: &recorderEmitter{},
		now:     time.UnixMilli(1_700_000_000_000),
	}
	f.reg = NewRegistry(DefaultOptions(), words, f.emitter, NewTickerGen())
	f.reg.now = func() time.Time {
		f.clockMu.Lock()
		defer f.clockMu.Unlock()
		return f.now
	}
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	f.now = f.now.Add(d)
}

// newRoomWithPlayers creates a room owned by the first player id.
func (f *fixture) newRoomWithPlayers(t *testing.T, ids ...string) string {
	t.Helper()
	code := f.reg.CreateRoom("rest", 0)
	for _, id := range ids {
		require.NoError(t, f.reg.UpsertPlayer(code, id, "name-"+id, "", ""))
	}
	return code
}

// room returns the raw room for white-box assertions.
func (f *fixture) room(t *testing.T, code string) *Room {
	t.Helper()
	f.reg.mu.Lock()
	defer f.reg.mu.Unlock()
	room, ok := f.reg.rooms[code]
	require.True(t, ok, "room %s not found", code)
	return room
}

// assertDeadlineMatchesState checks the state/deadline consistency
// invariant: exactly the deadline matching the state is set.
func assertDeadlineMatchesState(t *testing.T, f *fixture, code string) {
	t.Helper()
	st, err := f.reg.PublicState(code, "")
	require.NoError(t, err)

	type check struct {
		name string
		set  bool
		want bool
	}
	checks := []check{
		{"chooseEndsAtMs", st.ChooseEndsAtMs != 0, st.State == StateChoosing},
		{"roundEndsAtMs", st.RoundEndsAtMs != 0, st.State == StatePlaying},
		{"revealEndsAtMs", st.RevealEndsAtMs != 0, st.State == StateReveal},
	}
	for _, c := range checks {
		require.Equal(t, c.want, c.set, "state %s: %s set=%v", st.State, c.name, c.set)
	}
}
