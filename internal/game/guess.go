package game

import "strings"

// normalizeText casefolds and strips everything except latin
// alphanumerics and CJK ideographs, so "Apple!" and " a p p l e "
// both compare as "apple".
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 0x4e00 && r <= 0x9fff:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// containsAnswer reports whether the normalized answer occurs inside
// the normalized text.
func containsAnswer(text, answer string) bool {
	a := normalizeText(answer)
	if a == "" {
		return false
	}
	return strings.Contains(normalizeText(text), a)
}

// GuessKind classifies the outcome of a submitted message.
type GuessKind int

const (
	// GuessChat: plain chat, broadcast to the room.
	GuessChat GuessKind = iota
	// GuessBlocked: the drawer tried to leak the answer; only a private
	// system notice goes back.
	GuessBlocked
	// GuessDuplicate: the guesser already scored this round.
	GuessDuplicate
	// GuessCorrect: first correct guess by this player this round.
	GuessCorrect
)

// GuessResult tells the caller what to broadcast.
type GuessResult struct {
	Kind GuessKind
	// Word and Revealed are set on a correct guess that ended the round
	// (every non-drawer has now guessed).
	Word     string
	Revealed bool
}

// SubmitGuess resolves a chat message or guess against the secret word.
// Chat messages are appended to the bounded history here; the caller
// only broadcasts.
func (reg *Registry) SubmitGuess(code, connID, text string) (GuessResult, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return GuessResult{}, ErrRoomNotFound
	}

	inRound := room.state == StateChoosing || room.state == StatePlaying
	if room.word != "" && inRound && containsAnswer(text, room.word) {
		if connID == room.drawerID {
			return GuessResult{Kind: GuessBlocked}, nil
		}
		if room.state == StatePlaying {
			return reg.scoreCorrectGuessLocked(room, connID), nil
		}
	}

	room.appendChat(ChatMessage{RoomCode: code, From: connID, Text: text})
	return GuessResult{Kind: GuessChat}, nil
}

func (reg *Registry) scoreCorrectGuessLocked(room *Room, guesserID string) GuessResult {
	if _, dup := room.correctGuessers[guesserID]; dup {
		return GuessResult{Kind: GuessDuplicate}
	}

	room.correctGuessers[guesserID] = struct{}{}
	if p, present := room.players[guesserID]; present {
		p.score += 10
	}
	if room.drawerID != "" {
		if drawer, present := room.players[room.drawerID]; present {
			drawer.score += 5
		}
	}

	res := GuessResult{Kind: GuessCorrect, Word: room.word}

	// When every non-drawer has guessed, end the round ahead of the timer.
	if room.drawerID != "" {
		nonDrawers, guessed := 0, 0
		for _, id := range room.order {
			if id == room.drawerID {
				continue
			}
			nonDrawers++
			if _, has := room.correctGuessers[id]; has {
				guessed++
			}
		}
		if nonDrawers > 0 && guessed == nonDrawers {
			reg.revealRoundLocked(room)
			res.Revealed = true
		}
	}
	return res
}
