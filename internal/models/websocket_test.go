package models

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDecodeClientMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ClientMessage
	}{
		{
			name: "create room trims name",
			raw:  `{"type":"CREATE_ROOM","playerName":"  Alice "}`,
			want: CreateRoomMessage{PlayerName: "Alice"},
		},
		{
			name: "join room normalises code",
			raw:  `{"type":"JOIN_ROOM","roomCode":" ab12cd ","playerName":"Bob"}`,
			want: JoinRoomMessage{RoomCode: "AB12CD", PlayerName: "Bob"},
		},
		{
			name: "start game defaults difficulty",
			raw:  `{"type":"START_GAME","turnTime":15}`,
			want: StartGameMessage{Difficulty: DifficultyEasy, TurnTime: 15},
		},
		{
			name: "start game hard",
			raw:  `{"type":"START_GAME","difficulty":"hard"}`,
			want: StartGameMessage{Difficulty: DifficultyHard},
		},
		{
			name: "set difficulty",
			raw:  `{"type":"SET_DIFFICULTY","difficulty":"hard"}`,
			want: SetDifficultyMessage{Difficulty: DifficultyHard},
		},
		{
			name: "end turn upper-cases letter",
			raw:  `{"type":"END_TURN","selectedLetter":"m"}`,
			want: EndTurnMessage{SelectedLetter: "M"},
		},
		{
			name: "letter preview",
			raw:  `{"type":"PLAYER_SELECTED_LETTER","letter":"q"}`,
			want: PlayerSelectedLetterMessage{Letter: strPtr("Q")},
		},
		{
			name: "letter preview cleared",
			raw:  `{"type":"PLAYER_SELECTED_LETTER","letter":null}`,
			want: PlayerSelectedLetterMessage{},
		},
		{name: "refresh", raw: `{"type":"REFRESH_CATEGORY"}`, want: RefreshCategoryMessage{}},
		{name: "start turn", raw: `{"type":"START_TURN"}`, want: StartTurnMessage{}},
		{name: "time up", raw: `{"type":"TIME_UP"}`, want: TimeUpMessage{}},
		{name: "leave", raw: `{"type":"LEAVE_ROOM"}`, want: LeaveRoomMessage{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeClientMessage([]byte(tt.raw))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeClientMessage mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.want.Type(), got.Type())
		})
	}
}

func TestDecodeClientMessageErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"not json", `hello`, ErrMalformedMessage},
		{"wrong field type", `{"type":"START_GAME","turnTime":"ten"}`, ErrMalformedMessage},
		{"missing type", `{"playerName":"Alice"}`, ErrMissingField},
		{"unknown type", `{"type":"DANCE"}`, ErrUnknownMessageType},
		{"blank player name", `{"type":"CREATE_ROOM","playerName":"   "}`, ErrMissingField},
		{"join without code", `{"type":"JOIN_ROOM","playerName":"Bob"}`, ErrMissingField},
		{"join without name", `{"type":"JOIN_ROOM","roomCode":"ABCDEF"}`, ErrMissingField},
		{"end turn without letter", `{"type":"END_TURN"}`, ErrMissingField},
		{"set difficulty without value", `{"type":"SET_DIFFICULTY"}`, ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeClientMessage([]byte(tt.raw))
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOutboundMessageShapes(t *testing.T) {
	gs := NewGameState([]string{"Alice", "Bob"}, 10)
	gs.RoundWins["Bob"] = 2
	gs.OvertimeLevel = 1
	gs.AnswersRequired = 2
	gs.CurrentCategory = "Fruits"

	data, err := json.Marshal(NewOvertimeStart(gs))
	require.NoError(t, err)
	var overtime map[string]any
	require.NoError(t, json.Unmarshal(data, &overtime))
	assert.Equal(t, "OVERTIME_START", overtime["type"])
	assert.Equal(t, "Fruits", overtime["newCategory"])
	assert.EqualValues(t, 2, overtime["answersRequired"])
	assert.Contains(t, overtime, "gameState")

	data, err = json.Marshal(NewLetterPreview("Alice", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PLAYER_SELECTED_LETTER","player":"Alice","letter":null}`, string(data))

	data, err = json.Marshal(NewGameEnd(gs, "Bob"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"GAME_END","roundWins":{"Alice":0,"Bob":2},"winner":"Bob"}`, string(data))

	room := &Room{RoomCode: "ABC123", Players: []string{"Alice"}, ConnectedPlayers: []string{"Alice"}, GameState: gs}
	data, err = json.Marshal(NewRoomJoined(room))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ROOM_JOINED","roomCode":"ABC123","players":["Alice"],"connectedPlayers":["Alice"]}`, string(data))
}

func TestGameStateClone(t *testing.T) {
	gs := NewGameState([]string{"Alice", "Bob"}, 10)
	c := gs.Clone()

	c.ActivePlayers[0] = "Mallory"
	c.RoundWins["Alice"] = 5
	c.UsedLetters = append(c.UsedLetters, "A")

	assert.Equal(t, []string{"Alice", "Bob"}, gs.ActivePlayers)
	assert.Equal(t, 0, gs.RoundWins["Alice"])
	assert.Empty(t, gs.UsedLetters)
}

func TestDifficultyLetters(t *testing.T) {
	assert.Len(t, DifficultyEasy.Letters(), 18)
	assert.Len(t, DifficultyHard.Letters(), 26)
	assert.True(t, DifficultyEasy.HasLetter("w"))
	assert.False(t, DifficultyEasy.HasLetter("Q"))
	assert.True(t, DifficultyHard.HasLetter("Q"))
	assert.False(t, Difficulty("medium").Valid())
}
