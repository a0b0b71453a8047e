package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbortQuorum(t *testing.T) {
	t.Parallel()
	cases := []struct {
		players int
		needed  int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{5, 4},
		{6, 4},
		{10, 7},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.needed, abortQuorum(tc.players), "players=%d", tc.players)
	}
}

func TestAddAbortVote_QuorumForcesReveal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2", "p3", "p4", "p5")
	require.NoError(t, f.reg.StartMatch(code, "p1", []string{"苹果"}))
	require.NoError(t, f.reg.ChooseWord(code, "p1", "苹果"))

	for i, voter := range []string{"p1", "p2", "p3"} {
		tally, err := f.reg.AddAbortVote(code, voter)
		require.NoError(t, err)
		assert.Equal(t, i+1, tally.Votes)
		assert.Equal(t, 4, tally.Needed)
		assert.False(t, tally.Aborted)
	}

	tally, err := f.reg.AddAbortVote(code, "p4")
	require.NoError(t, err)
	assert.True(t, tally.Aborted)
	assert.Equal(t, "苹果", tally.Word)

	st, err := f.reg.PublicState(code, "")
	require.NoError(t, err)
	assert.Equal(t, StateReveal, st.State)
	assert.Zero(t, st.AbortVotesCount)
	assertDeadlineMatchesState(t, f, code)
}

func TestAddAbortVote_Dedup(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2", "p3")
	require.NoError(t, f.reg.StartMatch(code, "p1", nil))

	first, err := f.reg.AddAbortVote(code, "p2")
	require.NoError(t, err)
	again, err := f.reg.AddAbortVote(code, "p2")
	require.NoError(t, err)
	assert.Equal(t, first.Votes, again.Votes)
	assert.Equal(t, 1, again.Votes)
}

func TestAddAbortVote_DepartureCanLowerQuorum(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2", "p3", "p4", "p5")
	require.NoError(t, f.reg.StartMatch(code, "p1", []string{"苹果"}))
	require.NoError(t, f.reg.ChooseWord(code, "p1", "苹果"))

	for _, voter := range []string{"p2", "p3", "p4"} {
		_, err := f.reg.AddAbortVote(code, voter)
		require.NoError(t, err)
	}

	// Five players need 4 votes; after p5 leaves, four need only 3,
	// but standing votes are only re-evaluated on the next ballot.
	require.NoError(t, f.reg.RemovePlayer(code, "p5"))
	tally, err := f.reg.AddAbortVote(code, "p2")
	require.NoError(t, err)
	assert.Equal(t, 3, tally.Votes)
	assert.Equal(t, 3, tally.Needed)
	assert.True(t, tally.Aborted)
}

func TestAddAbortVote_IgnoredOutsideRound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2")

	tally, err := f.reg.AddAbortVote(code, "p1")
	require.NoError(t, err)
	assert.Zero(t, tally.Votes)
	assert.False(t, tally.Aborted)

	room := f.room(t, code)
	assert.Empty(t, room.abortVotes)
}

func TestAddAbortVote_NonMemberRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2", "p3")
	require.NoError(t, f.reg.StartMatch(code, "p1", nil))

	_, err := f.reg.AddAbortVote(code, "ghost")
	assert.ErrorIs(t, err, ErrNotInRoom)
	_, err = f.reg.AddMatchAbortVote(code, "ghost")
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestAddMatchAbortVote_QuorumResetsToLobby(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2", "p3")
	require.NoError(t, f.reg.StartMatch(code, "p1", nil))

	tally, err := f.reg.AddMatchAbortVote(code, "p2")
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Votes)
	assert.Equal(t, 2, tally.Needed)
	assert.False(t, tally.Aborted)

	tally, err = f.reg.AddMatchAbortVote(code, "p3")
	require.NoError(t, err)
	assert.True(t, tally.Aborted)

	st, err := f.reg.PublicState(code, "")
	require.NoError(t, err)
	assert.Equal(t, StateLobby, st.State)
	assert.Zero(t, st.MatchRoundIndex)
	assert.Zero(t, st.MatchAbortVotesCount)
	assertDeadlineMatchesState(t, f, code)
}

func TestAddMatchAbortVote_IgnoredInLobby(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.newRoomWithPlayers(t, "p1", "p2")

	tally, err := f.reg.AddMatchAbortVote(code, "p1")
	require.NoError(t, err)
	assert.Zero(t, tally.Votes)
	assert.False(t, tally.Aborted)
}
