package game

import "errors"

var (
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrRoomNotFound     = errors.New("room_not_found")
	ErrOnlyOwner        = errors.New("only_owner")
	ErrInvalidDuration  = errors.New("invalid_duration")
	ErrInvalidRounds    = errors.New("invalid_rounds")
	ErrChooseNotAllowed = errors.New("choose_not_allowed")
	ErrNotInRoom        = errors.New("not_in_room")
	ErrInvalidTarget    = errors.New("invalid_target")
)
