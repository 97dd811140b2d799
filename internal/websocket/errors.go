package websocket

import "errors"

var (
	ErrNotInRoom        = errors.New("join or create a room first")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotYourTurn      = errors.New("it is not your turn")
	ErrNotEnoughPlayers = errors.New("at least 2 players are needed to start")
	ErrRateLimited      = errors.New("too many messages, slow down")
	ErrDisplaced        = errors.New("this player connected from another session")
)
