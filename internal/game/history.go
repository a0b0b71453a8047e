package game

// MergeDrawElements folds the drawer's changed elements into the bounded
// board history. Only the current drawer may draw, and only while the
// round is being played.
func (reg *Registry) MergeDrawElements(code, connID string, elements []DrawElement) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if room.state != StatePlaying || connID != room.drawerID {
		return ErrNotInRoom
	}
	for _, el := range elements {
		room.mergeDrawElement(el)
	}
	return nil
}

// ClearDraw wipes the board history. Drawer only, while playing.
func (reg *Registry) ClearDraw(code, connID string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if room.state != StatePlaying || connID != room.drawerID {
		return ErrNotInRoom
	}
	room.drawHistory = nil
	return nil
}

// HistorySnapshot returns copies of both append logs for late-joiner
// sync.
func (reg *Registry) HistorySnapshot(code string) (elements []DrawElement, messages []ChatMessage, err error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	elements = make([]DrawElement, len(room.drawHistory))
	copy(elements, room.drawHistory)
	messages = make([]ChatMessage, len(room.chatHistory))
	copy(messages, room.chatHistory)
	return elements, messages, nil
}

// HasPlayer reports whether connID is seated in the room.
func (reg *Registry) HasPlayer(code, connID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return false
	}
	_, present := room.players[connID]
	return present
}
