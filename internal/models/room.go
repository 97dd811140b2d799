package models

import "time"

type Room struct {
	RoomCode         string     `json:"roomCode"`
	Players          []string   `json:"players"`
	ConnectedPlayers []string   `json:"connectedPlayers"`
	Host             string     `json:"host"`
	GameState        *GameState `json:"gameState"`
	CreatedAt        time.Time  `json:"createdAt"`
	LastActivity     time.Time  `json:"lastActivity"`
	EmptyAt          *time.Time `json:"emptyAt,omitempty"`
}

type GameState struct {
	Players            []string       `json:"players"`
	ActivePlayers      []string       `json:"activePlayers"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	RoundWins          map[string]int `json:"roundWins"`
	CurrentCategory    string         `json:"currentCategory"`
	UsedLetters        []string       `json:"usedLetters"`
	UsedCategories     []string       `json:"usedCategories"`
	TimeLeft           int            `json:"timeLeft"`
	TurnTime           int            `json:"turnTime"`
	IsTimerRunning     bool           `json:"isTimerRunning"`
	RoundActive        bool           `json:"roundActive"`
	RoundNumber        int            `json:"roundNumber"`
	GameStarted        bool           `json:"gameStarted"`
	Difficulty         Difficulty     `json:"difficulty"`
	IsOvertimeRound    bool           `json:"isOvertimeRound"`
	OvertimeLevel      int            `json:"overtimeLevel"`
	AnswersRequired    int            `json:"answersRequired"`
}

// NewGameState returns a not-yet-started state seeded from the given roster.
func NewGameState(players []string, turnTime int) *GameState {
	roundWins := make(map[string]int, len(players))
	for _, p := range players {
		roundWins[p] = 0
	}
	return &GameState{
		Players:         copyStrings(players),
		ActivePlayers:   copyStrings(players),
		RoundWins:       roundWins,
		UsedLetters:     []string{},
		UsedCategories:  []string{},
		TimeLeft:        turnTime,
		TurnTime:        turnTime,
		RoundNumber:     1,
		Difficulty:      DifficultyEasy,
		AnswersRequired: 1,
	}
}

// CurrentPlayer returns the name of the player whose turn it is.
func (gs *GameState) CurrentPlayer() (string, bool) {
	if gs.CurrentPlayerIndex < 0 || gs.CurrentPlayerIndex >= len(gs.ActivePlayers) {
		return "", false
	}
	return gs.ActivePlayers[gs.CurrentPlayerIndex], true
}

// LettersExhausted reports whether every letter of the configured alphabet
// has been played this round.
func (gs *GameState) LettersExhausted() bool {
	return len(gs.UsedLetters) >= len(gs.Difficulty.Letters())
}

func (gs *GameState) HasUsedLetter(letter string) bool {
	return containsString(gs.UsedLetters, letter)
}

func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.Players = copyStrings(gs.Players)
	c.ActivePlayers = copyStrings(gs.ActivePlayers)
	c.UsedLetters = copyStrings(gs.UsedLetters)
	c.UsedCategories = copyStrings(gs.UsedCategories)
	c.RoundWins = make(map[string]int, len(gs.RoundWins))
	for k, v := range gs.RoundWins {
		c.RoundWins[k] = v
	}
	return &c
}

// Clone returns a deep copy safe to hand outside the registry.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = copyStrings(r.Players)
	c.ConnectedPlayers = copyStrings(r.ConnectedPlayers)
	c.GameState = r.GameState.Clone()
	if r.EmptyAt != nil {
		t := *r.EmptyAt
		c.EmptyAt = &t
	}
	return &c
}

func (r *Room) HasPlayer(name string) bool {
	return containsString(r.Players, name)
}

func (r *Room) IsConnected(name string) bool {
	return containsString(r.ConnectedPlayers, name)
}

func copyStrings(s []string) []string {
	return append([]string{}, s...)
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
