package chess

import (
	"fmt"

	"boardduel/internal/domain/game"
	errs "boardduel/internal/errors"
)

// State is one immutable chess position plus its history. Apply never
// modifies the receiver.
type State struct {
	board    game.Board
	turn     game.Side
	special  Special
	halfmove int
	fullmove int
	status   game.Status
	inCheck  bool
	log      game.MoveLog
}

func New() *State {
	return newState(StartBoard(), White, Special{Castling: AllCastling}, 0, 1)
}

func newState(b game.Board, turn game.Side, sp Special, halfmove, fullmove int) *State {
	s := &State{
		board:    b,
		turn:     turn,
		special:  sp,
		halfmove: halfmove,
		fullmove: fullmove,
	}
	s.settle()
	return s
}

// settle recomputes the check flag and terminal status for the side to move.
func (s *State) settle() {
	s.inCheck = InCheck(&s.board, s.turn)
	s.status = game.Status{}
	switch {
	case !hasKing(&s.board, s.turn):
		s.status = game.WinFor(s.turn.Opponent(), game.ReasonKingCaptured)
	case !hasKing(&s.board, s.turn.Opponent()):
		s.status = game.WinFor(s.turn, game.ReasonKingCaptured)
	case !hasLegalMove(s.board, s.turn, s.special):
		if s.inCheck {
			s.status = game.WinFor(s.turn.Opponent(), game.ReasonCheckmate)
		} else {
			s.status = game.DrawBy(game.ReasonStalemate)
		}
	}
}

func hasKing(b *game.Board, side game.Side) bool {
	_, ok := b.Find(game.Piece{Side: side, Kind: game.King})
	return ok
}

func (s *State) Board() game.Board { return s.board }
func (s *State) SideToMove() game.Side { return s.turn }
func (s *State) Status() game.Status { return s.status }
func (s *State) InCheck() bool { return s.inCheck }
func (s *State) Special() Special { return s.special }
func (s *State) History() []game.Move { return s.log.Moves() }
func (s *State) PieceAt(sq game.Square) game.Piece {
	if !sq.Valid() {
		return game.Piece{}
	}
	return s.board.At(sq)
}

// LegalMovesFrom returns the legal moves of the piece on sq. Pieces that do
// not belong to the side to move have none.
func (s *State) LegalMovesFrom(sq game.Square) []game.Move {
	if s.status.Over() || !sq.Valid() {
		return nil
	}
	pc := s.board.At(sq)
	if pc.Empty() || pc.Side != s.turn {
		return nil
	}
	return legalFrom(s.board, sq, s.special)
}

// LegalMoves returns every legal move of the side to move, row-major by
// origin square.
func (s *State) LegalMoves() []game.Move {
	if s.status.Over() {
		return nil
	}
	return legalAll(s.board, s.turn, s.special)
}

// Apply commits m if it names a member of the current legal set. A chess
// move always ends the turn. Promotion defaults to a queen when m does not
// request a piece.
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
	if cand.Kind == game.Promotion {
		switch m.Promotion {
		case game.NoPiece:
			cand.Promotion = game.Queen
		case game.Queen, game.Rook, game.Bishop, game.Knight:
			cand.Promotion = m.Promotion
		default:
			return s, false, fmt.Errorf("%w: cannot promote to kind %d", errs.ErrIllegalMove, m.Promotion)
		}
	}

	mover := s.board.At(cand.From)
	if cand.HasCapture {
		cand.Taken = s.board.At(cand.Captured)
	}

	next := &State{
		board:    applyToBoard(s.board, cand),
		turn:     s.turn.Opponent(),
		special:  s.special.next(cand, mover),
		halfmove: s.halfmove + 1,
		fullmove: s.fullmove,
		log:      s.log.Append(cand),
	}
	if mover.Kind == game.Pawn || cand.HasCapture {
		next.halfmove = 0
	}
	if s.turn == Black {
		next.fullmove++
	}
	next.settle()
	return next, true, nil
}
