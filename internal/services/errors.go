package services

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")

	ErrLettersAlreadyPlayed = errors.New("category can only be refreshed before any letter is played")
	ErrTimerNotRunning      = errors.New("turn has not been started")
	ErrTimerAlreadyRunning  = errors.New("turn already started")
	ErrGameInProgress       = errors.New("a round is already in progress")
	ErrRoundNotActive       = errors.New("no round in progress")
	ErrRoundUndecided       = errors.New("round has more than one remaining player")
	ErrLetterUsed           = errors.New("letter already used this round")

	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrInvalidTurnTime   = errors.New("invalid turn time")
	ErrInvalidLetter     = errors.New("invalid letter")
)
