// Package peer tracks one client's progress through the relay protocol. It
// performs no I/O: callers feed it the messages they send and receive.
package peer

import (
	"encoding/json"
	"fmt"
	"strings"

	"boardduel/internal/domain/game"
	"boardduel/internal/domain/protocol"
	errs "boardduel/internal/errors"
)

type Phase int

const (
	Disconnected Phase = iota
	RoomPending
	Active
	Ended
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case RoomPending:
		return "room-pending"
	case Active:
		return "active"
	case Ended:
		return "ended"
	}
	return "unknown"
}

type Role int

const (
	NoRole Role = iota
	Creator
	Joiner
)

// Event tells the caller what a received message means for the game.
type Event int

const (
	EventNone Event = iota
	// EventRoomCreated: the room exists and the creator waits for a joiner.
	EventRoomCreated
	// EventStart: both players are present; GameType and Side are known.
	EventStart
	EventRemoteMove
	EventGameOver
	EventOpponentLeft
	// EventRejected: the relay refused the create or join request.
	EventRejected
)

type Machine struct {
	phase    Phase
	role     Role
	code     string
	gameType game.Type
	side     game.Side
	acked    bool
}

func NewMachine() *Machine {
	return &Machine{}
}

func (m *Machine) Phase() Phase { return m.phase }
func (m *Machine) Role() Role { return m.role }
func (m *Machine) Code() string { return m.code }
func (m *Machine) GameType() game.Type { return m.gameType }
func (m *Machine) Side() game.Side { return m.side }

func (m *Machine) transition(want Phase, op string) error {
	if m.phase != want {
		return fmt.Errorf("%w: %s while %s", errs.ErrInvalidTransition, op, m.phase)
	}
	return nil
}

// Create returns the request that opens a room. The creator always plays the
// side that moves first.
func (m *Machine) Create(code string, t game.Type) (protocol.Message, error) {
	if err := m.transition(Disconnected, "create"); err != nil {
		return protocol.Message{}, err
	}
	if !t.Valid() {
		return protocol.Message{}, fmt.Errorf("%w: %q", errs.ErrUnknownGameType, t)
	}
	m.phase, m.role, m.acked = RoomPending, Creator, false
	m.code, m.gameType, m.side = NormalizeCode(code), t, game.First
	return protocol.CreateRoom(m.code, t), nil
}

func (m *Machine) Join(code string) (protocol.Message, error) {
	if err := m.transition(Disconnected, "join"); err != nil {
		return protocol.Message{}, err
	}
	m.phase, m.role, m.acked = RoomPending, Joiner, false
	m.code, m.side = NormalizeCode(code), game.Second
	return protocol.JoinRoom(m.code), nil
}

// SendMove wraps a local move descriptor for the relay.
func (m *Machine) SendMove(desc json.RawMessage) (protocol.Message, error) {
	if err := m.transition(Active, "move"); err != nil {
		return protocol.Message{}, err
	}
	return protocol.MoveMessage(desc), nil
}

// Finish records that the local engine detected the end of the game and
// returns the notification for the opponent.
func (m *Machine) Finish(st game.Status) (protocol.Message, error) {
	if err := m.transition(Active, "game over"); err != nil {
		return protocol.Message{}, err
	}
	m.phase = Ended
	return protocol.GameOverFor(m.gameType, st), nil
}

// Closed handles loss of the connection. It is valid in every phase.
func (m *Machine) Closed() {
	m.phase = Ended
}

// Receive advances the machine for a message from the relay.
func (m *Machine) Receive(msg protocol.Message) (Event, error) {
	switch msg.Type {
	case protocol.TypeRoomCreated:
		if m.phase != RoomPending || m.role != Creator || m.acked {
			return EventNone, m.unexpected(msg)
		}
		m.acked = true
		m.code = msg.Code
		return EventRoomCreated, nil

	case protocol.TypeOpponentJoined:
		if m.phase != RoomPending || m.role != Creator || !m.acked {
			return EventNone, m.unexpected(msg)
		}
		m.phase = Active
		return EventStart, nil

	case protocol.TypeRoomJoined:
		if m.phase != RoomPending || m.role != Joiner {
			return EventNone, m.unexpected(msg)
		}
		t, err := game.ParseType(string(msg.GameType))
		if err != nil {
			return EventNone, err
		}
		side, ok := t.SideOf(msg.Color)
		if !ok {
			return EventNone, fmt.Errorf("%w: colour %q", errs.ErrMalformedMessage, msg.Color)
		}
		m.code, m.gameType, m.side = msg.Code, t, side
		m.phase = Active
		return EventStart, nil

	case protocol.TypeError:
		if m.phase == RoomPending && !m.acked {
			m.phase, m.role = Disconnected, NoRole
			return EventRejected, nil
		}
		return EventNone, nil

	case protocol.TypeOpponentMove:
		if m.phase != Active {
			return EventNone, m.unexpected(msg)
		}
		return EventRemoteMove, nil

	case protocol.TypeGameOver:
		if m.phase != Active {
			return EventNone, m.unexpected(msg)
		}
		m.phase = Ended
		return EventGameOver, nil

	case protocol.TypeOpponentDisconnected:
		if m.phase != Active && m.phase != RoomPending {
			return EventNone, m.unexpected(msg)
		}
		m.phase = Ended
		return EventOpponentLeft, nil
	}
	return EventNone, fmt.Errorf("%w: type %q", errs.ErrMalformedMessage, msg.Type)
}

func (m *Machine) unexpected(msg protocol.Message) error {
	return fmt.Errorf("%w: %s while %s", errs.ErrInvalidTransition, msg.Type, m.phase)
}

// NormalizeCode is the canonical form of a room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
