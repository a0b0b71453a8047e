package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStep_ChooseTimeoutAutoPicks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2")
	require.NoError(t, f.reg.StartMatch(code, "p1", []string{"苹果"}))

	// Before the deadline nothing happens.
	tasks, alive := f.reg.step(code)
	assert.True(t, alive)
	assert.Empty(t, tasks)

	f.advance(12 * time.Second)
	tasks, alive = f.reg.step(code)
	assert.True(t, alive)
	require.NotEmpty(t, tasks)

	room := f.room(t, code)
	assert.Equal(t, StatePlaying, room.state)
	assert.Equal(t, "苹果", room.word)
	assertDeadlineMatchesState(t, f, code)
}

func TestStep_RoundTimeoutReveals(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2")
	require.NoError(t, f.reg.StartMatch(code, "p1", []string{"苹果"}))
	require.NoError(t, f.reg.ChooseWord(code, "p1", "苹果"))

	f.advance(60 * time.Second)
	tasks, alive := f.reg.step(code)
	assert.True(t, alive)

	var revealed bool
	for _, task := range tasks {
		if task.event == "game:reveal" {
			revealed = true
			payload := task.payload.(map[string]any)
			assert.Equal(t, "苹果", payload["word"])
		}
	}
	assert.True(t, revealed, "expected a game:reveal task")

	room := f.room(t, code)
	assert.Equal(t, StateReveal, room.state)
	assertDeadlineMatchesState(t, f, code)
}

func TestStep_RevealTimeoutStartsNextRound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2")
	require.NoError(t, f.reg.StartMatch(code, "p1", []string{"苹果"}))
	require.NoError(t, f.reg.ChooseWord(code, "p1", "苹果"))
	_, err := f.reg.AbortRound(code, "p1")
	require.NoError(t, err)

	f.advance(6 * time.Second)
	_, alive := f.reg.step(code)
	assert.True(t, alive)

	room := f.room(t, code)
	assert.Equal(t, StateChoosing, room.state)
	assert.Equal(t, 2, room.matchRoundIndex)
	assert.Equal(t, "p2", room.drawerID)
	assertDeadlineMatchesState(t, f, code)
}

func TestStep_RevealTimeoutAfterLastRoundEndsMatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2")
	require.NoError(t, f.reg.SetRoundsPerMatch(code, "p1", 1))
	require.NoError(t, f.reg.StartMatch(code, "p1", []string{"苹果"}))
	require.NoError(t, f.reg.ChooseWord(code, "p1", "苹果"))
	_, err := f.reg.AbortRound(code, "p1")
	require.NoError(t, err)

	f.advance(6 * time.Second)
	_, alive := f.reg.step(code)
	assert.True(t, alive)

	room := f.room(t, code)
	assert.Equal(t, StateLobby, room.state)
	assert.Zero(t, room.matchRoundIndex)
	assertDeadlineMatchesState(t, f, code)
}

func TestStep_EmptyRoomEvictedAfterTTL(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1")
	require.NoError(t, f.reg.RemovePlayer(code, "p1"))

	f.advance(9 * time.Second)
	_, alive := f.reg.step(code)
	assert.True(t, alive)
	assert.True(t, f.reg.RoomExists(code))

	f.advance(time.Second)
	_, alive = f.reg.step(code)
	assert.False(t, alive)
	assert.False(t, f.reg.RoomExists(code))
}

func TestStep_RejoinCancelsEviction(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1")
	require.NoError(t, f.reg.RemovePlayer(code, "p1"))

	f.advance(9 * time.Second)
	require.NoError(t, f.reg.UpsertPlayer(code, "p2", "bob", "", ""))

	f.advance(time.Minute)
	_, alive := f.reg.step(code)
	assert.True(t, alive)
	assert.True(t, f.reg.RoomExists(code))
}

func TestStep_MissingRoomStopsLoop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, alive := f.reg.step("gone")
	assert.False(t, alive)
}

func TestRunLoop_TickerDrivenAndCancelledOnDelete(t *testing.T) {
	f := newFixture(t)

	ticks := make(chan time.Time)
	tickers := new(MockTickerCreator)
	tickers.On("Create", f.reg.opts.SchedulerCadence).Return(ticks)
	f.reg.tickers = tickers

	code := f.newRoomWithPlayers(t, "p1", "p2")
	require.NoError(t, f.reg.StartMatch(code, "p1", []string{"苹果"}))
	f.reg.EnsureLoop(code)

	// Two ticks: the first fires game:tick, the second crosses the
	// choose deadline and auto-picks a word.
	ticks <- time.Now()
	f.advance(12 * time.Second)
	ticks <- time.Now()

	require.Eventually(t, func() bool {
		for _, ev := range f.emitter.events() {
			if ev == "room:state" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	room := f.room(t, code)
	assert.Equal(t, StatePlaying, room.state)

	// DeleteRoom cancels the loop; a stopped loop no longer consumes
	// ticks.
	assert.True(t, f.reg.DeleteRoom(code))
	select {
	case ticks <- time.Now():
		// The in-flight select may consume one final tick.
		select {
		case ticks <- time.Now():
			t.Fatal("loop still consuming ticks after cancellation")
		case <-time.After(100 * time.Millisecond):
		}
	case <-time.After(100 * time.Millisecond):
	}

	tickers.AssertExpectations(t)
}

func TestEnsureLoop_SecondCallIsNoop(t *testing.T) {
	f := newFixture(t)

	ticks := make(chan time.Time)
	created := make(chan struct{})
	tickers := new(MockTickerCreator)
	tickers.On("Create", f.reg.opts.SchedulerCadence).Return(ticks).Once().
		Run(func(mock.Arguments) { close(created) })
	f.reg.tickers = tickers

	code := f.newRoomWithPlayers(t, "p1")
	f.reg.EnsureLoop(code)
	select {
	case <-created:
	case <-time.After(time.Second):
		t.Fatal("loop never created its ticker")
	}
	f.reg.EnsureLoop(code)

	tickers.AssertNumberOfCalls(t, "Create", 1)
	f.reg.DeleteRoom(code)
}
