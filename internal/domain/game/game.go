package game

import (
	"fmt"
	"strings"

	errs "boardduel/internal/errors"
)

// Type names a rule variant. The string form is what travels on the wire.
type Type string

const (
	Chess    Type = "chess"
	Checkers Type = "checkers"
)

func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Chess, Checkers:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownGameType, s)
	}
}

func (t Type) Valid() bool {
	return t == Chess || t == Checkers
}

// Side is one of the two players. First always moves first.
type Side uint8

const (
	First Side = iota
	Second
)

func (s Side) Opponent() Side {
	return 1 - s
}

// Color is the colour name used on the wire for a side of this variant.
func (t Type) Color(s Side) string {
	switch t {
	case Chess:
		if s == First {
			return "w"
		}
		return "b"
	case Checkers:
		if s == First {
			return "red"
		}
		return "black"
	}
	return ""
}

func (t Type) SideOf(color string) (Side, bool) {
	switch color {
	case t.Color(First):
		return First, true
	case t.Color(Second):
		return Second, true
	}
	return 0, false
}

// Outcome of a game at a given state.
type Outcome uint8

const (
	InProgress Outcome = iota
	Win
	Draw
)

type Reason string

const (
	ReasonNone         Reason = ""
	ReasonCheckmate    Reason = "checkmate"
	ReasonStalemate    Reason = "stalemate"
	ReasonKingCaptured Reason = "king_captured"
	ReasonNoPieces     Reason = "no_pieces"
	ReasonNoMoves      Reason = "no_moves"
)

type Status struct {
	Outcome Outcome
	Winner  Side
	Reason  Reason
}

func (s Status) Over() bool {
	return s.Outcome != InProgress
}

func WinFor(side Side, reason Reason) Status {
	return Status{Outcome: Win, Winner: side, Reason: reason}
}

func DrawBy(reason Reason) Status {
	return Status{Outcome: Draw, Reason: reason}
}
