package errors

import "errors"

var (
	ErrIllegalMove       = errors.New("illegal move")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrGameOver          = errors.New("game is over")
	ErrNoMoves           = errors.New("no legal moves")
	ErrInvalidPosition   = errors.New("invalid position")
	ErrUnknownGameType   = errors.New("unknown game type")
	ErrMalformedMove     = errors.New("malformed move descriptor")
	ErrMalformedMessage  = errors.New("malformed message")
	ErrRoomExists        = errors.New("room already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrNotInRoom         = errors.New("not in a room")
	ErrAlreadyInRoom     = errors.New("already in a room")
	ErrDesync            = errors.New("peer state desynchronized")
	ErrSessionEnded      = errors.New("session ended")
	ErrInvalidTransition = errors.New("invalid protocol transition")
	ErrInternal          = errors.New("internal error")
)
