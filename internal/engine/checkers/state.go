package checkers

import (
	"fmt"

	"boardduel/internal/domain/game"
	errs "boardduel/internal/errors"
)

// State is an immutable checkers position. While a capture chain is open the
// chain piece is the only piece with legal moves and the turn does not pass.
type State struct {
	board     game.Board
	turn      game.Side
	active    game.Square
	hasActive bool
	status    game.Status
	log       game.MoveLog
}

func New() *State {
	return newState(StartBoard(), Red, game.Square{}, false)
}

func newState(b game.Board, turn game.Side, active game.Square, hasActive bool) *State {
	s := &State{board: b, turn: turn, active: active, hasActive: hasActive}
	if !hasActive {
		s.settle()
	}
	return s
}

// settle runs once the turn has passed: a side without pieces loses, then a
// side to move without any step or jump loses.
func (s *State) settle() {
	s.status = game.Status{}
	switch {
	case s.board.Count(Red) == 0:
		s.status = game.WinFor(Black, game.ReasonNoPieces)
	case s.board.Count(Black) == 0:
		s.status = game.WinFor(Red, game.ReasonNoPieces)
	case !anyMove(&s.board, s.turn):
		s.status = game.WinFor(s.turn.Opponent(), game.ReasonNoMoves)
	}
}

func (s *State) Board() game.Board { return s.board }
func (s *State) SideToMove() game.Side { return s.turn }
func (s *State) Status() game.Status { return s.status }
func (s *State) History() []game.Move { return s.log.Moves() }

// Active returns the piece that must continue a capture chain.
func (s *State) Active() (game.Square, bool) {
	return s.active, s.hasActive
}

func (s *State) PieceAt(sq game.Square) game.Piece {
	if !sq.Valid() {
		return game.Piece{}
	}
	return s.board.At(sq)
}

// LegalMovesFrom applies mandatory capture: when any piece of the side to
// move can jump, only jumps are legal.
func (s *State) LegalMovesFrom(sq game.Square) []game.Move {
	if s.status.Over() || !sq.Valid() {
		return nil
	}
	pc := s.board.At(sq)
	if pc.Empty() || pc.Side != s.turn {
		return nil
	}
	if s.hasActive {
		if sq != s.active {
			return nil
		}
		return jumpsFrom(&s.board, sq)
	}
	steps, jumps := PseudoLegalMoves(s.board, sq)
	if len(jumps) > 0 {
		return jumps
	}
	if anyJump(&s.board, s.turn) {
		return nil
	}
	return steps
}

func (s *State) LegalMoves() []game.Move {
	if s.status.Over() {
		return nil
	}
	if s.hasActive {
		return jumpsFrom(&s.board, s.active)
	}
	var steps, jumps []game.Move
	for _, sq := range s.board.Squares(s.turn) {
		st, j := PseudoLegalMoves(s.board, sq)
		steps = append(steps, st...)
		jumps = append(jumps, j...)
	}
	if len(jumps) > 0 {
		return jumps
	}
	return steps
}

// Apply commits a legal move. turnEnds is false when the move was a jump and
// the same piece can jump again; a man crowned by the jump continues as a
// king.
func (s *State) Apply(m game.Move) (*State, bool, error) {
	if s.status.Over() {
		return s, false, errs.ErrGameOver
	}
	var cand game.Move
	found := false
	for _, c := range s.LegalMovesFrom(m.From) {
		if c.Matches(m) {
			cand, found = c, true
			break
		}
	}
	if !found {
		return s, false, fmt.Errorf("%w: %s", errs.ErrIllegalMove, m)
	}
	if cand.HasCapture {
		cand.Taken = s.board.At(cand.Captured)
	}

	b, _ := applyToBoard(s.board, cand)
	log := s.log.Append(cand)
	if cand.Kind == game.Jump && len(jumpsFrom(&b, cand.To)) > 0 {
		next := newState(b, s.turn, cand.To, true)
		next.log = log
		return next, false, nil
	}
	next := newState(b, s.turn.Opponent(), game.Square{}, false)
	next.log = log
	return next, true, nil
}
