package protocol

import (
	"encoding/json"

	"boardduel/internal/domain/game"
)

const (
	TypeCreateRoom           = "create_room"
	TypeJoinRoom             = "join_room"
	TypeMove                 = "move"
	TypeGameOver             = "game_over"
	TypeRoomCreated          = "room_created"
	TypeRoomJoined           = "room_joined"
	TypeOpponentJoined       = "opponent_joined"
	TypeOpponentMove         = "opponent_move"
	TypeOpponentDisconnected = "opponent_disconnected"
	TypeError                = "error"
)

// Error texts sent to the offending connection.
const (
	MsgRoomExists   = "Room already exists. Try a different code."
	MsgRoomNotFound = "Room not found. Check the code and try again."
	MsgRoomFull     = "Room is full."
	MsgNotInRoom    = "Not in a room."
	MsgMalformed    = "Malformed message."
)

// Message is the single JSON envelope used in both directions. Move stays raw
// so the relay can forward it without understanding it.
type Message struct {
	Type     string          `json:"type"`
	Code     string          `json:"code,omitempty"`
	GameType game.Type       `json:"gameType,omitempty"`
	Color    string          `json:"color,omitempty"`
	Move     json.RawMessage `json:"move,omitempty"`
	Winner   string          `json:"winner,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// MarshalJSON always writes winner on game_over, empty for a draw.
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	if m.Type != TypeGameOver {
		return json.Marshal(plain(m))
	}
	return json.Marshal(struct {
		plain
		Winner string `json:"winner"`
	}{plain(m), m.Winner})
}

func CreateRoom(code string, t game.Type) Message {
	return Message{Type: TypeCreateRoom, Code: code, GameType: t}
}

func JoinRoom(code string) Message {
	return Message{Type: TypeJoinRoom, Code: code}
}

func RoomCreated(code, color string) Message {
	return Message{Type: TypeRoomCreated, Code: code, Color: color}
}

func RoomJoined(code, color string, t game.Type) Message {
	return Message{Type: TypeRoomJoined, Code: code, Color: color, GameType: t}
}

func OpponentJoined() Message {
	return Message{Type: TypeOpponentJoined}
}

func MoveMessage(raw json.RawMessage) Message {
	return Message{Type: TypeMove, Move: raw}
}

func OpponentMove(raw json.RawMessage) Message {
	return Message{Type: TypeOpponentMove, Move: raw}
}

func GameOver(winner, reason string) Message {
	return Message{Type: TypeGameOver, Winner: winner, Reason: reason}
}

func OpponentDisconnected() Message {
	return Message{Type: TypeOpponentDisconnected}
}

func Error(text string) Message {
	return Message{Type: TypeError, Message: text}
}

// GameOverFor builds the notification for a finished status. A draw carries
// an empty winner.
func GameOverFor(t game.Type, st game.Status) Message {
	winner := ""
	if st.Outcome == game.Win {
		winner = t.Color(st.Winner)
	}
	return GameOver(winner, string(st.Reason))
}
