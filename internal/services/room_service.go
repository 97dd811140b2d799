package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"kiatere/internal/models"
	"kiatere/pkg/logger"
)

// Rules holds the tunable game constants.
type Rules struct {
	DefaultTurnTime  int
	MinTurnTime      int
	MaxTurnTime      int
	WinsToEndGame    int
	EmptyRoomTimeout time.Duration
	RoomTimeout      time.Duration
}

// DefaultRules returns the standard game: 10s turns within 5-60s, 3 wins.
func DefaultRules() Rules {
	return Rules{
		DefaultTurnTime:  10,
		MinTurnTime:      5,
		MaxTurnTime:      60,
		WinsToEndGame:    3,
		EmptyRoomTimeout: 5 * time.Minute,
		RoomTimeout:      30 * time.Minute,
	}
}

// ResultType tags how a turn-ending operation resolved.
type ResultType string

const (
	ResultContinue      ResultType = "continue"
	ResultOvertimeStart ResultType = "overtimeStart"
	ResultRoundEnd      ResultType = "roundEnd"
	ResultGameEnd       ResultType = "gameEnd"
)

// TurnResult is what a turn-ending operation resolved to. Room is a snapshot
// taken after the mutation.
type TurnResult struct {
	Type       ResultType
	Room       *models.Room
	Winner     string
	Eliminated string
}

// LeaveResult describes the effect of a permanent departure.
type LeaveResult struct {
	Room *models.Room
	// Deleted is set when the last player left and the room was dropped.
	Deleted bool
	// TurnInterrupted is set when the leaver's running turn was cancelled.
	TurnInterrupted bool
	// Turn is set when the departure decided the round.
	Turn *TurnResult
}

// RoomService owns every room. All reads and writes go through its methods and
// every value it returns is a copy.
type RoomService struct {
	mu      sync.Mutex
	rooms   map[string]*models.Room
	rules   Rules
	now     func() time.Time
	newCode func() string
}

func NewRoomService(rules Rules) *RoomService {
	return &RoomService{
		rooms:   make(map[string]*models.Room),
		rules:   rules,
		now:     time.Now,
		newCode: generateRoomCode,
	}
}

func (s *RoomService) CreateRoom(hostName string) *models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.newCode()
	for s.rooms[code] != nil {
		code = s.newCode()
	}

	now := s.now()
	room := &models.Room{
		RoomCode:         code,
		Players:          []string{hostName},
		ConnectedPlayers: []string{hostName},
		Host:             hostName,
		GameState:        models.NewGameState([]string{hostName}, s.rules.DefaultTurnTime),
		CreatedAt:        now,
		LastActivity:     now,
	}
	s.rooms[code] = room

	logger.Info("Room %s created by %s", code, hostName)
	return room.Clone()
}

func (s *RoomService) GetRoom(roomCode string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *RoomService) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

func (s *RoomService) JoinRoom(roomCode, playerName string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}

	if room.HasPlayer(playerName) {
		if !room.IsConnected(playerName) {
			room.ConnectedPlayers = append(room.ConnectedPlayers, playerName)
		}
	} else {
		room.Players = append(room.Players, playerName)
		room.ConnectedPlayers = append(room.ConnectedPlayers, playerName)
	}
	if _, ok := room.GameState.RoundWins[playerName]; !ok {
		room.GameState.RoundWins[playerName] = 0
	}

	room.EmptyAt = nil
	s.touch(room)
	return room.Clone(), nil
}

// RemovePlayer marks a player disconnected. The roster and scores are kept so
// the player can rejoin.
func (s *RoomService) RemovePlayer(roomCode, playerName string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}

	room.ConnectedPlayers = without(room.ConnectedPlayers, playerName)
	if len(room.ConnectedPlayers) == 0 && room.EmptyAt == nil {
		emptyAt := s.now()
		room.EmptyAt = &emptyAt
	}
	s.touch(room)
	return room.Clone(), nil
}

// LeaveRoom removes a player permanently: roster, scores and the running game.
func (s *RoomService) LeaveRoom(roomCode, playerName string) (*LeaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if !room.HasPlayer(playerName) {
		return &LeaveResult{Room: room.Clone()}, nil
	}

	res := &LeaveResult{}
	gs := room.GameState

	room.Players = without(room.Players, playerName)
	room.ConnectedPlayers = without(room.ConnectedPlayers, playerName)
	delete(gs.RoundWins, playerName)
	gs.Players = without(gs.Players, playerName)

	if idx := indexOf(gs.ActivePlayers, playerName); idx >= 0 {
		wasCurrent := idx == gs.CurrentPlayerIndex
		gs.ActivePlayers = append(gs.ActivePlayers[:idx:idx], gs.ActivePlayers[idx+1:]...)
		if idx < gs.CurrentPlayerIndex {
			gs.CurrentPlayerIndex--
		}
		if gs.CurrentPlayerIndex >= len(gs.ActivePlayers) {
			gs.CurrentPlayerIndex = 0
		}
		if wasCurrent && gs.IsTimerRunning {
			gs.IsTimerRunning = false
			gs.TimeLeft = gs.TurnTime
			res.TurnInterrupted = true
		}

		switch {
		case gs.RoundActive && len(gs.ActivePlayers) == 1:
			res.Turn = s.endRound(room)
		case len(gs.ActivePlayers) == 0:
			gs.RoundActive = false
			gs.IsTimerRunning = false
		}
	}

	if len(room.Players) == 0 {
		delete(s.rooms, roomCode)
		res.Deleted = true
		logger.Info("Room %s closed: last player %s left", roomCode, playerName)
		return res, nil
	}

	if room.Host == playerName {
		room.Host = room.Players[0]
		if len(room.ConnectedPlayers) > 0 {
			room.Host = room.ConnectedPlayers[0]
		}
		logger.Info("Room %s host passed from %s to %s", roomCode, playerName, room.Host)
	}
	if len(room.ConnectedPlayers) == 0 && room.EmptyAt == nil {
		emptyAt := s.now()
		room.EmptyAt = &emptyAt
	}
	s.touch(room)

	res.Room = room.Clone()
	if res.Turn != nil {
		res.Turn.Room = res.Room
	}
	return res, nil
}

// StartGame replaces the game state with a fresh one seeded from the full
// roster. A turnTime of 0 selects the default.
func (s *RoomService) StartGame(roomCode string, difficulty models.Difficulty, turnTime int) (*models.Room, error) {
	if difficulty == "" {
		difficulty = models.DifficultyEasy
	}
	if !difficulty.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDifficulty, difficulty)
	}
	if turnTime == 0 {
		turnTime = s.rules.DefaultTurnTime
	}
	if turnTime < s.rules.MinTurnTime || turnTime > s.rules.MaxTurnTime {
		return nil, fmt.Errorf("%w: must be between %d and %d seconds", ErrInvalidTurnTime, s.rules.MinTurnTime, s.rules.MaxTurnTime)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}

	prev := room.GameState
	gs := models.NewGameState(room.Players, turnTime)
	gs.UsedCategories = append(gs.UsedCategories, prev.UsedCategories...)
	gs.CurrentCategory = prev.CurrentCategory
	gs.GameStarted = true
	gs.RoundActive = true
	gs.Difficulty = difficulty
	selectCategory(gs)

	room.GameState = gs
	s.touch(room)

	logger.Info("Game started in room %s (%s, %ds turns, %d players)", roomCode, difficulty, turnTime, len(gs.Players))
	return room.Clone(), nil
}

// SetDifficulty changes the alphabet while no round is being played.
func (s *RoomService) SetDifficulty(roomCode string, difficulty models.Difficulty) (*models.Room, error) {
	if !difficulty.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDifficulty, difficulty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.GameState.RoundActive {
		return nil, ErrGameInProgress
	}

	room.GameState.Difficulty = difficulty
	s.touch(room)
	return room.Clone(), nil
}

func (s *RoomService) RefreshCategory(roomCode string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}

	gs := room.GameState
	if len(gs.UsedLetters) > 0 {
		return nil, ErrLettersAlreadyPlayed
	}

	gs.UsedCategories = without(gs.UsedCategories, gs.CurrentCategory)
	selectCategory(gs)
	s.touch(room)
	return room.Clone(), nil
}

// StartTurn starts the current player's countdown. The caller checks that the
// sender is the current player.
func (s *RoomService) StartTurn(roomCode string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}

	room.GameState.IsTimerRunning = true
	room.GameState.TimeLeft = room.GameState.TurnTime
	s.touch(room)
	return room.Clone(), nil
}

// EndTurn records the played letter and passes the turn on. It is a no-op
// when no turn is running so a late or duplicate submission cannot advance
// play twice.
func (s *RoomService) EndTurn(roomCode, selectedLetter string) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}

	gs := room.GameState
	if !gs.IsTimerRunning {
		return &TurnResult{Type: ResultContinue, Room: room.Clone()}, nil
	}
	selectedLetter = strings.ToUpper(strings.TrimSpace(selectedLetter))
	if !gs.Difficulty.HasLetter(selectedLetter) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLetter, selectedLetter)
	}
	if gs.HasUsedLetter(selectedLetter) {
		return nil, fmt.Errorf("%w: %s", ErrLetterUsed, selectedLetter)
	}

	gs.UsedLetters = append(gs.UsedLetters, selectedLetter)
	s.touch(room)

	var res *TurnResult
	if s.shouldStartOvertime(gs) {
		res = s.startOvertimeRound(room)
	} else {
		gs.CurrentPlayerIndex = (gs.CurrentPlayerIndex + 1) % len(gs.ActivePlayers)
		gs.TimeLeft = gs.TurnTime
		gs.IsTimerRunning = true
		res = &TurnResult{Type: ResultContinue}
	}

	res.Room = room.Clone()
	return res, nil
}

// EliminatePlayer removes the current player after their time ran out and
// resolves what happens next.
func (s *RoomService) EliminatePlayer(roomCode string) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}

	gs := room.GameState
	eliminated, ok := gs.CurrentPlayer()
	if !ok || !gs.RoundActive || len(gs.ActivePlayers) < 2 {
		return nil, ErrRoundNotActive
	}

	idx := gs.CurrentPlayerIndex
	gs.ActivePlayers = append(gs.ActivePlayers[:idx:idx], gs.ActivePlayers[idx+1:]...)
	gs.IsTimerRunning = false
	s.touch(room)

	logger.Info("Room %s: %s eliminated", roomCode, eliminated)

	var res *TurnResult
	switch {
	case len(gs.ActivePlayers) == 1:
		res = s.endRound(room)
	case s.shouldStartOvertime(gs):
		res = s.startOvertimeRound(room)
	default:
		if gs.CurrentPlayerIndex >= len(gs.ActivePlayers) {
			gs.CurrentPlayerIndex = 0
		}
		gs.TimeLeft = gs.TurnTime
		gs.IsTimerRunning = true
		res = &TurnResult{Type: ResultContinue}
	}

	res.Eliminated = eliminated
	res.Room = room.Clone()
	return res, nil
}

// EndRound scores the sole remaining active player and either finishes the
// game or sets up the next round.
func (s *RoomService) EndRound(roomCode string) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if len(room.GameState.ActivePlayers) != 1 {
		return nil, ErrRoundUndecided
	}

	res := s.endRound(room)
	res.Room = room.Clone()
	return res, nil
}

func (s *RoomService) StartOvertimeRound(roomCode string) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return nil, ErrRoomNotFound
	}

	res := s.startOvertimeRound(room)
	res.Room = room.Clone()
	return res, nil
}

// Tick advances a running countdown by one second. expired reports that the
// current player ran out of time.
func (s *RoomService) Tick(roomCode string) (timeLeft int, expired bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomCode]
	if !ok {
		return 0, false, ErrRoomNotFound
	}

	gs := room.GameState
	if !gs.IsTimerRunning || !gs.RoundActive {
		return gs.TimeLeft, false, ErrTimerNotRunning
	}

	gs.TimeLeft--
	if gs.TimeLeft < 0 {
		gs.TimeLeft = 0
	}
	return gs.TimeLeft, gs.TimeLeft == 0, nil
}

// CleanupRooms drops rooms that have been empty or idle for too long and
// returns their codes.
func (s *RoomService) CleanupRooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed []string
	for code, room := range s.rooms {
		switch {
		case room.EmptyAt != nil && now.Sub(*room.EmptyAt) > s.rules.EmptyRoomTimeout:
			logger.Info("Cleaned up empty room %s", code)
		case now.Sub(room.LastActivity) > s.rules.RoomTimeout:
			logger.Info("Cleaned up idle room %s", code)
		default:
			continue
		}
		delete(s.rooms, code)
		removed = append(removed, code)
	}
	return removed
}

func (s *RoomService) endRound(room *models.Room) *TurnResult {
	gs := room.GameState
	winner := gs.ActivePlayers[0]

	points := 1
	if gs.IsOvertimeRound {
		points = gs.AnswersRequired
	}
	gs.RoundWins[winner] += points
	gs.IsTimerRunning = false

	if gs.RoundWins[winner] >= s.rules.WinsToEndGame {
		gs.RoundActive = false
		logger.Info("Room %s: %s won the game with %d points", room.RoomCode, winner, gs.RoundWins[winner])
		return &TurnResult{Type: ResultGameEnd, Winner: winner}
	}

	next := 0
	if i := indexOf(gs.Players, winner); i >= 0 && len(gs.Players) > 0 {
		next = (i + 1) % len(gs.Players)
	}

	gs.RoundNumber++
	gs.ActivePlayers = append([]string{}, gs.Players...)
	gs.CurrentPlayerIndex = next
	gs.UsedLetters = []string{}
	gs.TimeLeft = gs.TurnTime
	gs.RoundActive = true
	gs.IsOvertimeRound = false
	gs.OvertimeLevel = 0
	gs.AnswersRequired = 1
	selectCategory(gs)

	logger.Info("Room %s: %s won round %d", room.RoomCode, winner, gs.RoundNumber-1)
	return &TurnResult{Type: ResultRoundEnd, Winner: winner}
}

func (s *RoomService) startOvertimeRound(room *models.Room) *TurnResult {
	gs := room.GameState
	gs.OvertimeLevel++
	gs.AnswersRequired = gs.OvertimeLevel + 1
	gs.IsOvertimeRound = true
	gs.UsedLetters = []string{}
	selectCategory(gs)
	gs.CurrentPlayerIndex = 0
	gs.TimeLeft = gs.TurnTime
	gs.IsTimerRunning = false

	logger.Info("Room %s: overtime level %d, %d answers required", room.RoomCode, gs.OvertimeLevel, gs.AnswersRequired)
	return &TurnResult{Type: ResultOvertimeStart}
}

func (s *RoomService) shouldStartOvertime(gs *models.GameState) bool {
	return gs.LettersExhausted() && len(gs.ActivePlayers) > 1
}

func (s *RoomService) touch(room *models.Room) {
	room.LastActivity = s.now()
}

func without(s []string, v string) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
