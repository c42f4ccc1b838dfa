package game

import (
	"fmt"

	errs "boardduel/internal/errors"
)

const Size = 8

// Square is a (row, column) pair. Row 0 is the far side from the First player.
type Square struct {
	Row int
	Col int
}

func Sq(row, col int) Square {
	return Square{Row: row, Col: col}
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < Size && s.Col >= 0 && s.Col < Size
}

func (s Square) Offset(dr, dc int) Square {
	return Square{Row: s.Row + dr, Col: s.Col + dc}
}

// String renders the square algebraically: column a-h, row 0 is rank 8.
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return string([]byte{byte('a' + s.Col), byte('0' + Size - s.Row)})
}

func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: square %q", errs.ErrInvalidPosition, s)
	}
	sq := Square{Row: Size - int(s[1]-'0'), Col: int(s[0] - 'a')}
	if !sq.Valid() {
		return Square{}, fmt.Errorf("%w: square %q", errs.ErrInvalidPosition, s)
	}
	return sq, nil
}

type PieceKind uint8

const (
	NoPiece PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
	Man
)

// Piece is an immutable value. The zero value is an empty square.
type Piece struct {
	Side Side
	Kind PieceKind
}

func (p Piece) Empty() bool {
	return p.Kind == NoPiece
}

// Board is a plain value: assigning it copies every square, so a scratch
// board never aliases the live one.
type Board [Size][Size]Piece

func (b *Board) At(sq Square) Piece {
	return b[sq.Row][sq.Col]
}

func (b *Board) Set(sq Square, p Piece) {
	b[sq.Row][sq.Col] = p
}

func (b *Board) Clear(sq Square) {
	b[sq.Row][sq.Col] = Piece{}
}

func (b *Board) Occupied(sq Square) bool {
	return !b.At(sq).Empty()
}

// Find returns the first square holding p, scanning row-major.
func (b *Board) Find(p Piece) (Square, bool) {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == p {
				return Sq(r, c), true
			}
		}
	}
	return Square{}, false
}

func (b *Board) Count(side Side) int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if p := b[r][c]; !p.Empty() && p.Side == side {
				n++
			}
		}
	}
	return n
}

// Squares returns the occupied squares of side in row-major order.
func (b *Board) Squares(side Side) []Square {
	out := make([]Square, 0, 16)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if p := b[r][c]; !p.Empty() && p.Side == side {
				out = append(out, Sq(r, c))
			}
		}
	}
	return out
}
