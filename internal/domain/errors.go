package domain

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNotInRoom        = errors.New("user not in the room")
	ErrNameRequired     = errors.New("room name is required")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrTxAborted        = errors.New("transaction aborted after retries")
)
