/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package match

import "errors"

// Rejections. Their text is shown to the player who sent the command.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrNotAcceptingJoins = errors.New("room is not accepting new players")
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyInRoom     = errors.New("already in this room")
	ErrNotHost           = errors.New("only the host can do that")
	ErrWrongState        = errors.New("not possible at this stage of the game")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrCannotKickHost    = errors.New("the host cannot be kicked")
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrTooManyRooms      = errors.New("too many open rooms, try again later")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrMalformed         = errors.New("malformed command")
)
