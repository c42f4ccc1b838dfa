package checkers

import "boardduel/internal/domain/game"

func directions(pc game.Piece) []int {
	if pc.Kind == game.King {
		return []int{-1, 1}
	}
	return []int{forward(pc.Side)}
}

// PseudoLegalMoves returns the diagonal steps and single jumps of the piece
// on from, ignoring mandatory capture and chain state.
func PseudoLegalMoves(b game.Board, from game.Square) (steps, jumps []game.Move) {
	pc := b.At(from)
	if pc.Empty() {
		return nil, nil
	}
	for _, dr := range directions(pc) {
		for _, dc := range []int{-1, 1} {
			to := from.Offset(dr, dc)
			if !to.Valid() {
				continue
			}
			occ := b.At(to)
			if occ.Empty() {
				steps = append(steps, game.Move{From: from, To: to, Kind: game.Plain})
				continue
			}
			if occ.Side == pc.Side {
				continue
			}
			land := to.Offset(dr, dc)
			if land.Valid() && !b.Occupied(land) {
				jumps = append(jumps, game.Move{From: from, To: land, Kind: game.Jump, Captured: to, HasCapture: true})
			}
		}
	}
	return steps, jumps
}

func jumpsFrom(b *game.Board, from game.Square) []game.Move {
	_, jumps := PseudoLegalMoves(*b, from)
	return jumps
}

func anyJump(b *game.Board, side game.Side) bool {
	for _, sq := range b.Squares(side) {
		if len(jumpsFrom(b, sq)) > 0 {
			return true
		}
	}
	return false
}

func anyMove(b *game.Board, side game.Side) bool {
	for _, sq := range b.Squares(side) {
		steps, jumps := PseudoLegalMoves(*b, sq)
		if len(steps) > 0 || len(jumps) > 0 {
			return true
		}
	}
	return false
}
