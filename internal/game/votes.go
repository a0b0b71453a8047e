package game

// abortQuorum is the minimum vote count that forces a transition:
// floor(3N/5)+1 for N present players, unreachable for an empty room.
func abortQuorum(playerCount int) int {
	if playerCount <= 0 {
		return 0
	}
	return (3*playerCount)/5 + 1
}

// VoteTally is the live outcome of one ballot call.
type VoteTally struct {
	Votes   int
	Needed  int
	Aborted bool
	// Word is the active word at the moment a round-abort quorum was
	// reached, for the reveal broadcast.
	Word string
}

// AddAbortVote records a round-abort vote. Reaching quorum drives the
// room to reveal immediately.
func (reg *Registry) AddAbortVote(code, voterID string) (VoteTally, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return VoteTally{}, ErrRoomNotFound
	}
	if room.state != StateChoosing && room.state != StatePlaying {
		return VoteTally{}, nil
	}
	if _, present := room.players[voterID]; !present {
		return VoteTally{Votes: len(room.abortVotes)}, ErrNotInRoom
	}

	room.abortVotes[voterID] = struct{}{}

	tally := VoteTally{
		Votes:  len(room.abortVotes),
		Needed: abortQuorum(len(room.players)),
	}
	if tally.Needed > 0 && tally.Votes >= tally.Needed {
		tally.Aborted = true
		tally.Word = room.word
		reg.revealRoundLocked(room)
	}
	return tally, nil
}

// AddMatchAbortVote records a match-abort vote. Reaching quorum resets
// the room to the lobby.
func (reg *Registry) AddMatchAbortVote(code, voterID string) (VoteTally, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return VoteTally{}, ErrRoomNotFound
	}
	if room.state == StateLobby {
		return VoteTally{}, nil
	}
	if _, present := room.players[voterID]; !present {
		return VoteTally{Votes: len(room.matchAbortVotes)}, ErrNotInRoom
	}

	room.matchAbortVotes[voterID] = struct{}{}

	tally := VoteTally{
		Votes:  len(room.matchAbortVotes),
		Needed: abortQuorum(len(room.players)),
	}
	if tally.Needed > 0 && tally.Votes >= tally.Needed {
		tally.Aborted = true
		reg.resetToLobbyLocked(room)
	}
	return tally, nil
}
