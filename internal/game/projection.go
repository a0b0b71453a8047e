package game

import "strings"

// PlayerState is the roster entry clients see. Reconnection keys are
// deliberately absent.
type PlayerState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// PublicState is the read-only projection broadcast as room:state.
// Word is populated only at reveal or for the drawer; WordChoices only
// for the drawer while choosing.
type PublicState struct {
	Code                 string        `json:"code"`
	OwnerID              string        `json:"ownerId"`
	State                RoomState     `json:"state"`
	Round                int           `json:"round"`
	RoundsPerMatch       int           `json:"roundsPerMatch"`
	MatchRoundIndex      int           `json:"matchRoundIndex"`
	DrawerID             string        `json:"drawerId,omitempty"`
	RoundDurationSec     int           `json:"roundDurationSec"`
	StartedAtMs          int64         `json:"startedAtMs,omitempty"`
	ChooseEndsAtMs       int64         `json:"chooseEndsAtMs,omitempty"`
	RoundEndsAtMs        int64         `json:"roundEndsAtMs,omitempty"`
	RevealEndsAtMs       int64         `json:"revealEndsAtMs,omitempty"`
	Players              []PlayerState `json:"players"`
	WordHint             string        `json:"wordHint,omitempty"`
	AbortVotesCount      int           `json:"abortVotesCount"`
	AbortVotesNeeded     int           `json:"abortVotesNeeded"`
	MatchAbortVotesCount int           `json:"matchAbortVotesCount"`
	MatchAbortVotesNeed  int           `json:"matchAbortVotesNeeded"`
	Word                 string        `json:"word,omitempty"`
	WordChoices          []string      `json:"wordChoices,omitempty"`
}

// PublicState builds the projection for one viewer ("" for the
// room-wide broadcast). The whole snapshot is taken under the lock.
func (reg *Registry) PublicState(code, viewerID string) (PublicState, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return PublicState{}, ErrRoomNotFound
	}
	return publicStateLocked(room, viewerID), nil
}

func publicStateLocked(room *Room, viewerID string) PublicState {
	players := make([]PlayerState, 0, len(room.order))
	for _, id := range room.order {
		p := room.players[id]
		players = append(players, PlayerState{
			ID:        p.id,
			Name:      p.name,
			Avatar:    p.avatar,
			Score:     p.score,
			Connected: p.connected,
		})
	}

	needed := abortQuorum(len(room.players))

	st := PublicState{
		Code:                 room.code,
		OwnerID:              room.ownerID,
		State:                room.state,
		Round:                room.round,
		RoundsPerMatch:       room.roundsPerMatch,
		MatchRoundIndex:      room.matchRoundIndex,
		DrawerID:             room.drawerID,
		RoundDurationSec:     room.roundDurationSec,
		StartedAtMs:          room.startedAtMs,
		ChooseEndsAtMs:       room.chooseEndsAtMs,
		RoundEndsAtMs:        room.roundEndsAtMs,
		RevealEndsAtMs:       room.revealEndsAtMs,
		Players:              players,
		AbortVotesCount:      len(room.abortVotes),
		AbortVotesNeeded:     needed,
		MatchAbortVotesCount: len(room.matchAbortVotes),
		MatchAbortVotesNeed:  needed,
	}

	if room.word != "" {
		st.WordHint = strings.Repeat("_", len([]rune(room.word)))
	}
	if room.state == StateReveal && room.word != "" {
		st.Word = room.word
	}
	if viewerID != "" && viewerID == room.drawerID {
		st.Word = room.word
		if room.state == StateChoosing && len(room.wordChoices) > 0 {
			st.WordChoices = append([]string(nil), room.wordChoices...)
		}
	}
	return st
}

// DrawerID reports the current drawer so callers can address the
// drawer-private state broadcast.
func (reg *Registry) DrawerID(code string) (string, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[code]
	if !ok {
		return "", ErrRoomNotFound
	}
	return room.drawerID, nil
}
