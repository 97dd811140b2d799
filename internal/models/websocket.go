package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type MessageType string

// Client -> server.
const (
	MessageTypeCreateRoom           MessageType = "CREATE_ROOM"
	MessageTypeJoinRoom             MessageType = "JOIN_ROOM"
	MessageTypeStartGame            MessageType = "START_GAME"
	MessageTypeSetDifficulty        MessageType = "SET_DIFFICULTY"
	MessageTypeRefreshCategory      MessageType = "REFRESH_CATEGORY"
	MessageTypeStartTurn            MessageType = "START_TURN"
	MessageTypeEndTurn              MessageType = "END_TURN"
	MessageTypePlayerSelectedLetter MessageType = "PLAYER_SELECTED_LETTER"
	MessageTypeTimeUp               MessageType = "TIME_UP"
	MessageTypeLeaveRoom            MessageType = "LEAVE_ROOM"
)

// Server -> client.
const (
	MessageTypeRoomCreated      MessageType = "ROOM_CREATED"
	MessageTypeRoomJoined       MessageType = "ROOM_JOINED"
	MessageTypePlayerJoined     MessageType = "PLAYER_JOINED"
	MessageTypePlayerLeft       MessageType = "PLAYER_LEFT"
	MessageTypeGameStarted      MessageType = "GAME_STARTED"
	MessageTypeGameStateUpdate  MessageType = "GAME_STATE_UPDATE"
	MessageTypeTimerUpdate      MessageType = "TIMER_UPDATE"
	MessageTypePlayerEliminated MessageType = "PLAYER_ELIMINATED"
	MessageTypeOvertimeStart    MessageType = "OVERTIME_START"
	MessageTypeRoundEnd         MessageType = "ROUND_END"
	MessageTypeGameEnd          MessageType = "GAME_END"
	MessageTypeError            MessageType = "ERROR"
)

var (
	ErrMalformedMessage   = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMissingField       = errors.New("missing required field")
)

// ClientMessage is one of the inbound message structs below.
type ClientMessage interface {
	Type() MessageType
}

type CreateRoomMessage struct {
	PlayerName string `json:"playerName"`
}

type JoinRoomMessage struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type StartGameMessage struct {
	Difficulty Difficulty `json:"difficulty"`
	TurnTime   int        `json:"turnTime"`
}

type SetDifficultyMessage struct {
	Difficulty Difficulty `json:"difficulty"`
}

type RefreshCategoryMessage struct{}

type StartTurnMessage struct{}

type EndTurnMessage struct {
	SelectedLetter string `json:"selectedLetter"`
}

// PlayerSelectedLetterMessage carries a nil Letter when the player deselects.
type PlayerSelectedLetterMessage struct {
	Letter *string `json:"letter"`
}

type TimeUpMessage struct{}

type LeaveRoomMessage struct{}

func (CreateRoomMessage) Type() MessageType           { return MessageTypeCreateRoom }
func (JoinRoomMessage) Type() MessageType             { return MessageTypeJoinRoom }
func (StartGameMessage) Type() MessageType            { return MessageTypeStartGame }
func (SetDifficultyMessage) Type() MessageType        { return MessageTypeSetDifficulty }
func (RefreshCategoryMessage) Type() MessageType      { return MessageTypeRefreshCategory }
func (StartTurnMessage) Type() MessageType            { return MessageTypeStartTurn }
func (EndTurnMessage) Type() MessageType              { return MessageTypeEndTurn }
func (PlayerSelectedLetterMessage) Type() MessageType { return MessageTypePlayerSelectedLetter }
func (TimeUpMessage) Type() MessageType               { return MessageTypeTimeUp }
func (LeaveRoomMessage) Type() MessageType            { return MessageTypeLeaveRoom }

// DecodeClientMessage parses a raw frame into its typed message and checks
// the fields each type requires.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var envelope struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch envelope.Type {
	case MessageTypeCreateRoom:
		var m CreateRoomMessage
		if err := unmarshalPayload(data, &m); err != nil {
			return nil, err
		}
		m.PlayerName = strings.TrimSpace(m.PlayerName)
		if m.PlayerName == "" {
			return nil, fmt.Errorf("%w: playerName", ErrMissingField)
		}
		return m, nil

	case MessageTypeJoinRoom:
		var m JoinRoomMessage
		if err := unmarshalPayload(data, &m); err != nil {
			return nil, err
		}
		m.PlayerName = strings.TrimSpace(m.PlayerName)
		m.RoomCode = strings.ToUpper(strings.TrimSpace(m.RoomCode))
		if m.RoomCode == "" {
			return nil, fmt.Errorf("%w: roomCode", ErrMissingField)
		}
		if m.PlayerName == "" {
			return nil, fmt.Errorf("%w: playerName", ErrMissingField)
		}
		return m, nil

	case MessageTypeStartGame:
		var m StartGameMessage
		if err := unmarshalPayload(data, &m); err != nil {
			return nil, err
		}
		if m.Difficulty == "" {
			m.Difficulty = DifficultyEasy
		}
		return m, nil

	case MessageTypeSetDifficulty:
		var m SetDifficultyMessage
		if err := unmarshalPayload(data, &m); err != nil {
			return nil, err
		}
		if m.Difficulty == "" {
			return nil, fmt.Errorf("%w: difficulty", ErrMissingField)
		}
		return m, nil

	case MessageTypeEndTurn:
		var m EndTurnMessage
		if err := unmarshalPayload(data, &m); err != nil {
			return nil, err
		}
		m.SelectedLetter = strings.ToUpper(strings.TrimSpace(m.SelectedLetter))
		if m.SelectedLetter == "" {
			return nil, fmt.Errorf("%w: selectedLetter", ErrMissingField)
		}
		return m, nil

	case MessageTypePlayerSelectedLetter:
		var m PlayerSelectedLetterMessage
		if err := unmarshalPayload(data, &m); err != nil {
			return nil, err
		}
		if m.Letter != nil {
			upper := strings.ToUpper(strings.TrimSpace(*m.Letter))
			m.Letter = &upper
		}
		return m, nil

	case MessageTypeRefreshCategory:
		return RefreshCategoryMessage{}, nil
	case MessageTypeStartTurn:
		return StartTurnMessage{}, nil
	case MessageTypeTimeUp:
		return TimeUpMessage{}, nil
	case MessageTypeLeaveRoom:
		return LeaveRoomMessage{}, nil

	case "":
		return nil, fmt.Errorf("%w: type", ErrMissingField)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, envelope.Type)
	}
}

func unmarshalPayload(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return nil
}

type RoomMembershipMessage struct {
	Type             MessageType `json:"type"`
	RoomCode         string      `json:"roomCode"`
	Players          []string    `json:"players"`
	ConnectedPlayers []string    `json:"connectedPlayers"`
}

type PlayersChangedMessage struct {
	Type             MessageType    `json:"type"`
	Players          []string       `json:"players"`
	ConnectedPlayers []string       `json:"connectedPlayers"`
	RoundWins        map[string]int `json:"roundWins"`
}

type GameStateMessage struct {
	Type      MessageType `json:"type"`
	GameState *GameState  `json:"gameState"`
}

type TimerUpdateMessage struct {
	Type     MessageType `json:"type"`
	TimeLeft int         `json:"timeLeft"`
}

type LetterPreviewMessage struct {
	Type   MessageType `json:"type"`
	Player string      `json:"player"`
	Letter *string     `json:"letter"`
}

type PlayerEliminatedMessage struct {
	Type   MessageType `json:"type"`
	Player string      `json:"player"`
}

type OvertimeStartMessage struct {
	Type            MessageType `json:"type"`
	GameState       *GameState  `json:"gameState"`
	OvertimeLevel   int         `json:"overtimeLevel"`
	AnswersRequired int         `json:"answersRequired"`
	NewCategory     string      `json:"newCategory"`
}

type RoundEndMessage struct {
	Type        MessageType    `json:"type"`
	GameState   *GameState     `json:"gameState"`
	RoundWins   map[string]int `json:"roundWins"`
	RoundNumber int            `json:"roundNumber"`
	Winner      string         `json:"winner"`
}

type GameEndMessage struct {
	Type      MessageType    `json:"type"`
	RoundWins map[string]int `json:"roundWins"`
	Winner    string         `json:"winner"`
}

type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

func NewRoomCreated(room *Room) RoomMembershipMessage {
	return RoomMembershipMessage{
		Type:             MessageTypeRoomCreated,
		RoomCode:         room.RoomCode,
		Players:          room.Players,
		ConnectedPlayers: room.ConnectedPlayers,
	}
}

func NewRoomJoined(room *Room) RoomMembershipMessage {
	m := NewRoomCreated(room)
	m.Type = MessageTypeRoomJoined
	return m
}

func NewPlayerJoined(room *Room) PlayersChangedMessage {
	return PlayersChangedMessage{
		Type:             MessageTypePlayerJoined,
		Players:          room.Players,
		ConnectedPlayers: room.ConnectedPlayers,
		RoundWins:        room.GameState.RoundWins,
	}
}

func NewPlayerLeft(room *Room) PlayersChangedMessage {
	m := NewPlayerJoined(room)
	m.Type = MessageTypePlayerLeft
	return m
}

func NewGameStarted(gs *GameState) GameStateMessage {
	return GameStateMessage{Type: MessageTypeGameStarted, GameState: gs}
}

func NewGameStateUpdate(gs *GameState) GameStateMessage {
	return GameStateMessage{Type: MessageTypeGameStateUpdate, GameState: gs}
}

func NewTimerUpdate(timeLeft int) TimerUpdateMessage {
	return TimerUpdateMessage{Type: MessageTypeTimerUpdate, TimeLeft: timeLeft}
}

func NewLetterPreview(player string, letter *string) LetterPreviewMessage {
	return LetterPreviewMessage{Type: MessageTypePlayerSelectedLetter, Player: player, Letter: letter}
}

func NewPlayerEliminated(player string) PlayerEliminatedMessage {
	return PlayerEliminatedMessage{Type: MessageTypePlayerEliminated, Player: player}
}

func NewOvertimeStart(gs *GameState) OvertimeStartMessage {
	return OvertimeStartMessage{
		Type:            MessageTypeOvertimeStart,
		GameState:       gs,
		OvertimeLevel:   gs.OvertimeLevel,
		AnswersRequired: gs.AnswersRequired,
		NewCategory:     gs.CurrentCategory,
	}
}

func NewRoundEnd(gs *GameState, winner string) RoundEndMessage {
	return RoundEndMessage{
		Type:        MessageTypeRoundEnd,
		GameState:   gs,
		RoundWins:   gs.RoundWins,
		RoundNumber: gs.RoundNumber,
		Winner:      winner,
	}
}

func NewGameEnd(gs *GameState, winner string) GameEndMessage {
	return GameEndMessage{Type: MessageTypeGameEnd, RoundWins: gs.RoundWins, Winner: winner}
}

func NewError(message string) ErrorMessage {
	return ErrorMessage{Type: MessageTypeError, Message: message}
}
