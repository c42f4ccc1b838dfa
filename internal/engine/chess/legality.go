package chess

import "boardduel/internal/domain/game"

// InCheck reports whether side's king is attacked on b. A side without a
// king is not in check; that case is a terminal condition of its own.
func InCheck(b *game.Board, side game.Side) bool {
	king, ok := b.Find(game.Piece{Side: side, Kind: game.King})
	if !ok {
		return false
	}
	return Attacked(b, king, side.Opponent())
}

// legalFrom filters the pseudo-legal moves of the piece on from by playing
// each one on a scratch board and rejecting those that leave the mover's
// king attacked.
func legalFrom(b game.Board, from game.Square, sp Special) []game.Move {
	pc := b.At(from)
	if pc.Empty() {
		return nil
	}
	pseudo := PseudoLegalMoves(b, from, sp)
	out := pseudo[:0]
	for _, m := range pseudo {
		scratch := applyToBoard(b, m)
		if !InCheck(&scratch, pc.Side) {
			out = append(out, m)
		}
	}
	return out
}

func legalAll(b game.Board, side game.Side, sp Special) []game.Move {
	var out []game.Move
	for _, sq := range b.Squares(side) {
		out = append(out, legalFrom(b, sq, sp)...)
	}
	return out
}

func hasLegalMove(b game.Board, side game.Side, sp Special) bool {
	for _, sq := range b.Squares(side) {
		if len(legalFrom(b, sq, sp)) > 0 {
			return true
		}
	}
	return false
}
