package game

import "github.com/rs/zerolog/log"

// UpsertPlayer creates or updates the player seated on connID. When
// playerKey already maps to a different connection the call is a
// reconnect: the old seat is removed and every reference to the old
// identity is migrated to connID, preserving the accumulated score.
func (reg *Registry) UpsertPlayer(code, connID, name, avatar, playerKey string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}

	// Any join cancels a pending empty-room eviction.
	room.lastEmptyAtMs = 0

	// Ghost-owner reclaim: a lone stale owner entry without a
	// reconnection key is replaced by the joining connection.
	if playerKey != "" && len(room.players) == 1 {
		if owner, present := room.players[room.ownerID]; present &&
			owner.playerKey == "" && room.ownerID != connID {
			delete(room.players, room.ownerID)
			room.removeFromOrder(room.ownerID)
			room.ownerID = connID
		}
	}
	if room.ownerID == "" || len(room.players) == 0 {
		room.ownerID = connID
	}

	score := 0
	if playerKey != "" {
		if oldID, mapped := room.playerKeyIndex[playerKey]; mapped && oldID != connID {
			if old, present := room.players[oldID]; present {
				score = old.score
				delete(room.players, oldID)
				room.removeFromOrder(oldID)
				migrateIdentityLocked(room, oldID, connID)
				log.Info().Str("room", code).Str("old", oldID).Str("new", connID).
					Msg("player reconnected")
			}
		}
	}

	if p, present := room.players[connID]; present {
		p.name = name
		p.avatar = avatar
		p.connected = true
		if playerKey != "" {
			p.playerKey = playerKey
		}
	} else {
		room.players[connID] = &Player{
			id:        connID,
			name:      name,
			avatar:    avatar,
			score:     score,
			connected: true,
			playerKey: playerKey,
		}
		room.order = append(room.order, connID)
	}

	if playerKey != "" {
		room.playerKeyIndex[playerKey] = connID
	}
	return nil
}

// migrateIdentityLocked rewrites every stored reference to oldID. This
// is the closed list from the reconnection protocol: owner, drawer and
// the three identity sets. Anything new that stores a connection id
// must be added here.
func migrateIdentityLocked(room *Room, oldID, newID string) {
	if room.ownerID == oldID {
		room.ownerID = newID
	}
	if room.drawerID == oldID {
		room.drawerID = newID
	}
	for _, set := range []map[string]struct{}{room.correctGuessers, room.abortVotes, room.matchAbortVotes} {
		if _, voted := set[oldID]; voted {
			delete(set, oldID)
			set[newID] = struct{}{}
		}
	}
}

// RemovePlayer drops the seat and repairs ownership; the room's
// empty-TTL clock starts when the last player leaves.
func (reg *Registry) RemovePlayer(code, connID string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	p, present := room.players[connID]
	if !present {
		return ErrNotInRoom
	}

	if p.playerKey != "" && room.playerKeyIndex[p.playerKey] == connID {
		delete(room.playerKeyIndex, p.playerKey)
	}
	delete(room.players, connID)
	room.removeFromOrder(connID)
	delete(room.correctGuessers, connID)
	delete(room.abortVotes, connID)
	delete(room.matchAbortVotes, connID)

	if len(room.players) == 0 {
		room.lastEmptyAtMs = reg.nowMs()
	} else if room.ownerID == connID {
		room.ownerID = room.order[0]
	}
	return nil
}

// TransferOwner hands room ownership to another present player.
func (reg *Registry) TransferOwner(code, actorID, newOwnerID string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if actorID != room.ownerID {
		return ErrOnlyOwner
	}
	if newOwnerID == "" {
		return ErrInvalidTarget
	}
	if _, present := room.players[newOwnerID]; !present {
		return ErrInvalidTarget
	}
	room.ownerID = newOwnerID
	return nil
}
