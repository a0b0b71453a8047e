package game

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// startChoosingLocked begins a new round: bumps the round counter,
// resets per-round state, draws word choices and rotates the drawer.
func (reg *Registry) startChoosingLocked(room *Room, customWords []string) {
	room.state = StateChoosing
	room.round++
	room.startedAtMs = 0
	room.roundEndsAtMs = 0
	room.revealEndsAtMs = 0
	room.correctGuessers = make(map[string]struct{})
	room.abortVotes = make(map[string]struct{})
	room.matchAbortVotes = make(map[string]struct{})

	room.customWords = append([]string(nil), customWords...)
	room.word = ""
	room.wordChoices = reg.words.PickWordChoices(reg.opts.WordChoicesCount, room.customWords)
	room.chooseEndsAtMs = reg.nowMs() + reg.opts.ChooseDuration.Milliseconds()

	ids := room.playerIDs()
	if len(ids) == 0 {
		room.drawerID = ""
		room.chooseEndsAtMs = 0
		room.state = StateLobby
		return
	}

	if room.nextDrawerID != "" {
		if _, present := room.players[room.nextDrawerID]; present {
			room.drawerID = room.nextDrawerID
		} else {
			room.drawerID = rotateDrawer(ids, room.drawerID)
		}
	} else {
		room.drawerID = rotateDrawer(ids, room.drawerID)
	}
	room.nextDrawerID = ""

	log.Debug().Str("room", room.code).Int("round", room.round).
		Str("drawer", room.drawerID).Msg("choosing started")

	// Trusted override: skip choosing and play the forced word.
	if room.nextWord != "" {
		reg.startPlayingLocked(room, room.nextWord)
	}
}

// rotateDrawer picks the player after prev in insertion order, wrapping
// around; the first player when prev is gone.
func rotateDrawer(ids []string, prev string) string {
	for i, id := range ids {
		if id == prev {
			return ids[(i+1)%len(ids)]
		}
	}
	return ids[0]
}

func (reg *Registry) startPlayingLocked(room *Room, word string) {
	room.state = StatePlaying
	room.word = word
	room.wordChoices = nil
	room.chooseEndsAtMs = 0
	room.startedAtMs = reg.nowMs()
	room.roundEndsAtMs = room.startedAtMs + int64(room.roundDurationSec)*1000
	room.revealEndsAtMs = 0
	room.correctGuessers = make(map[string]struct{})
	room.abortVotes = make(map[string]struct{})
	room.nextWord = ""
	room.nextDrawerID = ""
}

func (reg *Registry) revealRoundLocked(room *Room) {
	room.state = StateReveal
	room.chooseEndsAtMs = 0
	room.roundEndsAtMs = 0
	room.revealEndsAtMs = reg.nowMs() + reg.opts.RevealDuration.Milliseconds()
	room.abortVotes = make(map[string]struct{})
	room.matchAbortVotes = make(map[string]struct{})
}

func (reg *Registry) resetToLobbyLocked(room *Room) {
	room.state = StateLobby
	room.word = ""
	room.wordChoices = nil
	room.chooseEndsAtMs = 0
	room.roundEndsAtMs = 0
	room.revealEndsAtMs = 0
	room.startedAtMs = 0
	room.correctGuessers = make(map[string]struct{})
	room.abortVotes = make(map[string]struct{})
	room.matchAbortVotes = make(map[string]struct{})
	room.matchRoundIndex = 0
}

// advanceAfterRevealLocked continues the match or returns to the lobby.
func (reg *Registry) advanceAfterRevealLocked(room *Room) {
	if room.matchRoundIndex == 0 {
		reg.resetToLobbyLocked(room)
		return
	}
	if room.matchRoundIndex < room.roundsPerMatch {
		room.matchRoundIndex++
		reg.startChoosingLocked(room, room.customWords)
		return
	}
	reg.resetToLobbyLocked(room)
}

// StartMatch begins a match of roundsPerMatch rounds. Owner only.
func (reg *Registry) StartMatch(code, actorID string, customWords []string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if actorID != room.ownerID {
		return ErrOnlyOwner
	}

	// A fresh match starts with a clean board.
	room.drawHistory = nil
	room.matchRoundIndex = 1
	reg.startChoosingLocked(room, customWords)
	return nil
}

// ChooseWord lets the current drawer pick one of the offered words.
func (reg *Registry) ChooseWord(code, actorID, word string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if room.state != StateChoosing || actorID != room.drawerID {
		return ErrChooseNotAllowed
	}
	w := strings.TrimSpace(word)
	if w == "" {
		return ErrChooseNotAllowed
	}
	if len(room.wordChoices) > 0 && !containsWord(room.wordChoices, w) {
		return ErrChooseNotAllowed
	}
	reg.startPlayingLocked(room, w)
	return nil
}

func containsWord(words []string, w string) bool {
	for _, c := range words {
		if c == w {
			return true
		}
	}
	return false
}

// autoChooseLocked picks the first offered word on choose timeout.
func (reg *Registry) autoChooseLocked(room *Room) {
	if room.state != StateChoosing {
		return
	}
	if len(room.wordChoices) > 0 {
		reg.startPlayingLocked(room, room.wordChoices[0])
		return
	}
	// The built-in pool guarantees at least one word.
	reg.startPlayingLocked(room, reg.words.PickWordChoices(1, nil)[0])
}

// AbortRound ends the current round immediately. Owner only.
func (reg *Registry) AbortRound(code, actorID string) (word string, err error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return "", ErrRoomNotFound
	}
	if actorID != room.ownerID {
		return "", ErrOnlyOwner
	}
	if room.state != StateChoosing && room.state != StatePlaying {
		return "", ErrChooseNotAllowed
	}
	reg.revealRoundLocked(room)
	return room.word, nil
}

// AbortMatch resets the room to the lobby. Owner only.
func (reg *Registry) AbortMatch(code, actorID string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if actorID != room.ownerID {
		return ErrOnlyOwner
	}
	reg.resetToLobbyLocked(room)
	return nil
}

// SetRoundDuration updates the play-phase length (10-300 seconds) and
// recomputes the running deadline when a round is in progress.
func (reg *Registry) SetRoundDuration(code, actorID string, durationSec int) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if actorID != room.ownerID {
		return ErrOnlyOwner
	}
	if durationSec < 10 || durationSec > 300 {
		return ErrInvalidDuration
	}

	room.roundDurationSec = durationSec
	if room.state == StatePlaying && room.startedAtMs != 0 {
		room.roundEndsAtMs = room.startedAtMs + int64(durationSec)*1000
	}
	return nil
}

// SetRoundsPerMatch configures match length (1-20), lobby only.
func (reg *Registry) SetRoundsPerMatch(code, actorID string, rounds int) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if actorID != room.ownerID {
		return ErrOnlyOwner
	}
	if room.state != StateLobby {
		return ErrInvalidRounds
	}
	if rounds < 1 || rounds > 20 {
		return ErrInvalidRounds
	}
	room.roundsPerMatch = rounds
	return nil
}
