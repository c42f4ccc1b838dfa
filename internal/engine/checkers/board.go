package checkers

import "boardduel/internal/domain/game"

const (
	Red   = game.First
	Black = game.Second
)

// Dark reports whether pieces may stand on sq.
func Dark(sq game.Square) bool {
	return (sq.Row+sq.Col)%2 == 1
}

// forward is the row step of a man of side.
func forward(side game.Side) int {
	if side == Red {
		return -1
	}
	return 1
}

func crownRow(side game.Side) int {
	if side == Red {
		return 0
	}
	return game.Size - 1
}

// StartBoard fills the dark squares of the three rows nearest each player.
func StartBoard() game.Board {
	var b game.Board
	for r := 0; r < game.Size; r++ {
		for c := 0; c < game.Size; c++ {
			if !Dark(game.Sq(r, c)) {
				continue
			}
			switch {
			case r < 3:
				b[r][c] = game.Piece{Side: Black, Kind: game.Man}
			case r > 4:
				b[r][c] = game.Piece{Side: Red, Kind: game.Man}
			}
		}
	}
	return b
}

// applyToBoard moves the piece, removes a jumped piece and crowns a man that
// reaches the far row. It reports whether the piece was crowned.
func applyToBoard(b game.Board, m game.Move) (game.Board, bool) {
	pc := b.At(m.From)
	b.Clear(m.From)
	if m.HasCapture {
		b.Clear(m.Captured)
	}
	crowned := false
	if pc.Kind == game.Man && m.To.Row == crownRow(pc.Side) {
		pc.Kind = game.King
		crowned = true
	}
	b.Set(m.To, pc)
	return b, crowned
}
