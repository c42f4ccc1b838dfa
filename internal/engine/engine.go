// Package engine puts both rule variants behind one State contract used by
// the searcher, the session and the delivery layers.
package engine

import (
	"fmt"

	"boardduel/internal/domain/game"
	"boardduel/internal/engine/checkers"
	"boardduel/internal/engine/chess"
	errs "boardduel/internal/errors"
)

// State is an immutable game position. Apply returns a new State and never
// modifies the receiver.
type State interface {
	Type() game.Type
	SideToMove() game.Side
	Status() game.Status
	InCheck() bool
	// Active is the piece that must continue a checkers capture chain.
	Active() (game.Square, bool)
	PieceAt(sq game.Square) (game.Piece, bool)
	LegalMoves() []game.Move
	LegalMovesFrom(sq game.Square) []game.Move
	// Apply commits m when it matches a legal candidate. turnEnds is false
	// while a capture chain stays open.
	Apply(m game.Move) (next State, turnEnds bool, err error)
	// Evaluate is the static score; positive favours game.First.
	Evaluate() int
	Encode() string
	History() []game.Move
}

func New(t game.Type) (State, error) {
	switch t {
	case game.Chess:
		return chessState{chess.New()}, nil
	case game.Checkers:
		return checkersState{checkers.New()}, nil
	}
	return nil, fmt.Errorf("%w: %q", errs.ErrUnknownGameType, t)
}

// Decode parses a position string: FEN for chess, the row codec for checkers.
func Decode(t game.Type, pos string) (State, error) {
	switch t {
	case game.Chess:
		s, err := chess.ParseFEN(pos)
		if err != nil {
			return nil, err
		}
		return chessState{s}, nil
	case game.Checkers:
		s, err := checkers.Parse(pos)
		if err != nil {
			return nil, err
		}
		return checkersState{s}, nil
	}
	return nil, fmt.Errorf("%w: %q", errs.ErrUnknownGameType, t)
}

type chessState struct {
	*chess.State
}

func (chessState) Type() game.Type { return game.Chess }

func (chessState) Active() (game.Square, bool) { return game.Square{}, false }

func (s chessState) PieceAt(sq game.Square) (game.Piece, bool) {
	pc := s.State.PieceAt(sq)
	return pc, !pc.Empty()
}

func (s chessState) Apply(m game.Move) (State, bool, error) {
	next, turnEnds, err := s.State.Apply(m)
	if err != nil {
		return s, false, err
	}
	return chessState{next}, turnEnds, nil
}

type checkersState struct {
	*checkers.State
}

func (checkersState) Type() game.Type { return game.Checkers }

func (checkersState) InCheck() bool { return false }

func (s checkersState) PieceAt(sq game.Square) (game.Piece, bool) {
	pc := s.State.PieceAt(sq)
	return pc, !pc.Empty()
}

func (s checkersState) Apply(m game.Move) (State, bool, error) {
	next, turnEnds, err := s.State.Apply(m)
	if err != nil {
		return s, false, err
	}
	return checkersState{next}, turnEnds, nil
}
