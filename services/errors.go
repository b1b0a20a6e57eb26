package services

import "errors"

// Sentinel errors the fiber handlers translate into status codes.
var (
	ErrAlreadyMatching    = errors.New("user is already matching or in a room")
	ErrRoomNotFound       = errors.New("room not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAttemptNotFound    = errors.New("tracked question not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrGameNotFound       = errors.New("game not found")
	ErrNotParticipant     = errors.New("user is not a participant of this room")
	ErrRoomNotSearching   = errors.New("room is no longer searching")
	ErrResubmitNotAllowed = errors.New("question was already answered")
	ErrGameNotJoinable    = errors.New("game is not open for joining")
	ErrGameFull           = errors.New("game is full")
	ErrWrongPassword      = errors.New("incorrect password")
	ErrNotHost            = errors.New("only the host may do this")
)
