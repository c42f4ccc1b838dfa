package chess

import "boardduel/internal/domain/game"

type offset struct{ dr, dc int }

var (
	rookDirs      = []offset{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirs    = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	queenDirs     = append(append([]offset{}, rookDirs...), bishopDirs...)
	knightOffsets = []offset{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = []offset{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
)

// PseudoLegalMoves enumerates the moves of the piece on from that follow its
// movement pattern and board occupancy. Whose turn it is and whether the
// mover's king is left attacked are not considered.
func PseudoLegalMoves(b game.Board, from game.Square, sp Special) []game.Move {
	pc := b.At(from)
	if pc.Empty() {
		return nil
	}
	var moves []game.Move
	switch pc.Kind {
	case game.Pawn:
		moves = pawnMoves(&b, from, pc.Side, sp)
	case game.Knight:
		moves = stepMoves(&b, from, pc.Side, knightOffsets, nil)
	case game.Bishop:
		moves = slideMoves(&b, from, pc.Side, bishopDirs, nil)
	case game.Rook:
		moves = slideMoves(&b, from, pc.Side, rookDirs, nil)
	case game.Queen:
		moves = slideMoves(&b, from, pc.Side, queenDirs, nil)
	case game.King:
		moves = stepMoves(&b, from, pc.Side, kingOffsets, nil)
		moves = castleMoves(&b, from, pc.Side, sp.Castling, moves)
	}
	return moves
}

func target(b *game.Board, from, to game.Square, side game.Side) (game.Move, bool) {
	occ := b.At(to)
	if occ.Empty() {
		return game.Move{From: from, To: to, Kind: game.Plain}, true
	}
	if occ.Side != side {
		return game.Move{From: from, To: to, Kind: game.Capture, Captured: to, HasCapture: true}, true
	}
	return game.Move{}, false
}

func stepMoves(b *game.Board, from game.Square, side game.Side, offs []offset, out []game.Move) []game.Move {
	for _, o := range offs {
		to := from.Offset(o.dr, o.dc)
		if !to.Valid() {
			continue
		}
		if m, ok := target(b, from, to, side); ok {
			out = append(out, m)
		}
	}
	return out
}

func slideMoves(b *game.Board, from game.Square, side game.Side, dirs []offset, out []game.Move) []game.Move {
	for _, d := range dirs {
		for to := from.Offset(d.dr, d.dc); to.Valid(); to = to.Offset(d.dr, d.dc) {
			m, ok := target(b, from, to, side)
			if ok {
				out = append(out, m)
			}
			if b.Occupied(to) {
				break
			}
		}
	}
	return out
}

func pawnMoves(b *game.Board, from game.Square, side game.Side, sp Special) []game.Move {
	var out []game.Move
	dir := pawnDir(side)
	last := promotionRow(side)

	one := from.Offset(dir, 0)
	if one.Valid() && !b.Occupied(one) {
		kind := game.Plain
		if one.Row == last {
			kind = game.Promotion
		}
		out = append(out, game.Move{From: from, To: one, Kind: kind})
		two := one.Offset(dir, 0)
		if from.Row == pawnStartRow(side) && two.Valid() && !b.Occupied(two) {
			out = append(out, game.Move{From: from, To: two, Kind: game.DoubleStep})
		}
	}

	for _, dc := range []int{-1, 1} {
		to := from.Offset(dir, dc)
		if !to.Valid() {
			continue
		}
		if occ := b.At(to); !occ.Empty() && occ.Side != side {
			kind := game.Capture
			if to.Row == last {
				kind = game.Promotion
			}
			out = append(out, game.Move{From: from, To: to, Kind: kind, Captured: to, HasCapture: true})
			continue
		}
		if sp.HasEnPassant && sp.EnPassant == to && !b.Occupied(to) {
			victim := game.Sq(from.Row, to.Col)
			if v := b.At(victim); v.Kind == game.Pawn && v.Side != side {
				out = append(out, game.Move{From: from, To: to, Kind: game.EnPassant, Captured: victim, HasCapture: true})
			}
		}
	}
	return out
}

// castleMoves appends castling candidates for a king on its home square.
// The king may not start on, pass through, or land on an attacked square.
func castleMoves(b *game.Board, from game.Square, side game.Side, rights Castling, out []game.Move) []game.Move {
	row := homeRow(side)
	if from != game.Sq(row, 4) {
		return out
	}
	enemy := side.Opponent()
	rook := game.Piece{Side: side, Kind: game.Rook}

	if rights.Has(kingsideRight(side)) &&
		!b.Occupied(game.Sq(row, 5)) && !b.Occupied(game.Sq(row, 6)) &&
		b.At(game.Sq(row, 7)) == rook &&
		!anyAttacked(b, enemy, game.Sq(row, 4), game.Sq(row, 5), game.Sq(row, 6)) {
		out = append(out, game.Move{From: from, To: game.Sq(row, 6), Kind: game.CastleKingside})
	}
	if rights.Has(queensideRight(side)) &&
		!b.Occupied(game.Sq(row, 3)) && !b.Occupied(game.Sq(row, 2)) && !b.Occupied(game.Sq(row, 1)) &&
		b.At(game.Sq(row, 0)) == rook &&
		!anyAttacked(b, enemy, game.Sq(row, 4), game.Sq(row, 3), game.Sq(row, 2)) {
		out = append(out, game.Move{From: from, To: game.Sq(row, 2), Kind: game.CastleQueenside})
	}
	return out
}

func anyAttacked(b *game.Board, by game.Side, squares ...game.Square) bool {
	for _, sq := range squares {
		if Attacked(b, sq, by) {
			return true
		}
	}
	return false
}

// Attacked reports whether any piece of side by could capture on sq. It walks
// the same step and slide patterns as the generator outward from sq, so it is
// pseudo-legal only and never recurses into castling or check filtering.
func Attacked(b *game.Board, sq game.Square, by game.Side) bool {
	// a pawn of side by attacks sq from one row behind it, relative to by
	dir := pawnDir(by)
	for _, dc := range []int{-1, 1} {
		from := sq.Offset(-dir, dc)
		if from.Valid() && b.At(from) == (game.Piece{Side: by, Kind: game.Pawn}) {
			return true
		}
	}
	for _, o := range knightOffsets {
		from := sq.Offset(o.dr, o.dc)
		if from.Valid() && b.At(from) == (game.Piece{Side: by, Kind: game.Knight}) {
			return true
		}
	}
	for _, o := range kingOffsets {
		from := sq.Offset(o.dr, o.dc)
		if from.Valid() && b.At(from) == (game.Piece{Side: by, Kind: game.King}) {
			return true
		}
	}
	if rayHits(b, sq, by, rookDirs, game.Rook) || rayHits(b, sq, by, bishopDirs, game.Bishop) {
		return true
	}
	return false
}

func rayHits(b *game.Board, sq game.Square, by game.Side, dirs []offset, slider game.PieceKind) bool {
	for _, d := range dirs {
		for from := sq.Offset(d.dr, d.dc); from.Valid(); from = from.Offset(d.dr, d.dc) {
			pc := b.At(from)
			if pc.Empty() {
				continue
			}
			if pc.Side == by && (pc.Kind == slider || pc.Kind == game.Queen) {
				return true
			}
			break
		}
	}
	return false
}
