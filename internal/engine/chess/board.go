package chess

import "boardduel/internal/domain/game"

const (
	White = game.First
	Black = game.Second
)

// Castling holds the four castling rights as bits.
type Castling uint8

const (
	WhiteKingside Castling = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastling  Castling = 0
	AllCastling          = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

func (c Castling) Has(r Castling) bool {
	return c&r != 0
}

func kingsideRight(side game.Side) Castling {
	if side == White {
		return WhiteKingside
	}
	return BlackKingside
}

func queensideRight(side game.Side) Castling {
	if side == White {
		return WhiteQueenside
	}
	return BlackQueenside
}

// cornerRight maps a rook home square to the right it guards.
func cornerRight(sq game.Square) Castling {
	switch sq {
	case game.Sq(7, 7):
		return WhiteKingside
	case game.Sq(7, 0):
		return WhiteQueenside
	case game.Sq(0, 7):
		return BlackKingside
	case game.Sq(0, 0):
		return BlackQueenside
	}
	return NoCastling
}

// Special is the chess special state: castling rights and the en passant
// target square, which lives for exactly one reply.
type Special struct {
	Castling     Castling
	EnPassant    game.Square
	HasEnPassant bool
}

// next derives the special state that follows m. mover is the piece that
// made the move; nothing else on the board is consulted.
func (sp Special) next(m game.Move, mover game.Piece) Special {
	out := Special{Castling: sp.Castling}
	if m.Kind == game.DoubleStep {
		out.EnPassant = game.Sq((m.From.Row+m.To.Row)/2, m.From.Col)
		out.HasEnPassant = true
	}
	if mover.Kind == game.King {
		out.Castling &^= kingsideRight(mover.Side) | queensideRight(mover.Side)
	}
	out.Castling &^= cornerRight(m.From) | cornerRight(m.To)
	return out
}

func homeRow(side game.Side) int {
	if side == White {
		return 7
	}
	return 0
}

func pawnDir(side game.Side) int {
	if side == White {
		return -1
	}
	return 1
}

func pawnStartRow(side game.Side) int {
	if side == White {
		return 6
	}
	return 1
}

func promotionRow(side game.Side) int {
	if side == White {
		return 0
	}
	return 7
}

var backRank = [game.Size]game.PieceKind{
	game.Rook, game.Knight, game.Bishop, game.Queen, game.King, game.Bishop, game.Knight, game.Rook,
}

// StartBoard is the standard initial arrangement.
func StartBoard() game.Board {
	var b game.Board
	for c := 0; c < game.Size; c++ {
		b[0][c] = game.Piece{Side: Black, Kind: backRank[c]}
		b[1][c] = game.Piece{Side: Black, Kind: game.Pawn}
		b[6][c] = game.Piece{Side: White, Kind: game.Pawn}
		b[7][c] = game.Piece{Side: White, Kind: backRank[c]}
	}
	return b
}

// applyToBoard relocates pieces for m on a copy of b. m must come from the
// generator for b; the caller owns legality.
func applyToBoard(b game.Board, m game.Move) game.Board {
	pc := b.At(m.From)
	if m.HasCapture {
		b.Clear(m.Captured)
	}
	b.Clear(m.From)
	b.Set(m.To, pc)

	switch m.Kind {
	case game.CastleKingside:
		row := m.To.Row
		b.Set(game.Sq(row, 5), b.At(game.Sq(row, 7)))
		b.Clear(game.Sq(row, 7))
	case game.CastleQueenside:
		row := m.To.Row
		b.Set(game.Sq(row, 3), b.At(game.Sq(row, 0)))
		b.Clear(game.Sq(row, 0))
	case game.Promotion:
		kind := m.Promotion
		if kind == game.NoPiece {
			kind = game.Queen
		}
		b.Set(m.To, game.Piece{Side: pc.Side, Kind: kind})
	}
	return b
}
