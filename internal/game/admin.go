package game

import "github.com/rs/zerolog/log"

// Override is the trusted-caller surface: one-shot word/drawer forcing
// for the next choosing transition plus direct score overwrites. It is
// reachable only from the shared-secret HTTP routes, never from the
// player event surface.
type Override struct {
	NextWord     *string
	NextDrawerID *string
	Scores       map[string]int
}

// AdminOverride applies an Override to a room without the validation
// the player surface performs.
func (reg *Registry) AdminOverride(code string, ov Override) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}

	if ov.NextWord != nil {
		room.nextWord = *ov.NextWord
	}
	if ov.NextDrawerID != nil {
		room.nextDrawerID = *ov.NextDrawerID
	}
	for id, score := range ov.Scores {
		if p, present := room.players[id]; present {
			p.score = score
		}
	}
	log.Warn().Str("room", code).Msg("admin override applied")
	return nil
}

// AdminRoomStates snapshots every room's public projection for the
// admin listing.
func (reg *Registry) AdminRoomStates() []PublicState {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	states := make([]PublicState, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		states = append(states, publicStateLocked(room, ""))
	}
	return states
}
