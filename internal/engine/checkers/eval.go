package checkers

import "boardduel/internal/domain/game"

// Weights are tenths of a man's base value of three.
const (
	manValue     = 30
	kingValue    = 50
	advanceBonus = 3
	centreBonus  = 5
)

// Evaluate scores material, advancement of men and central control. Red is
// positive.
func Evaluate(b *game.Board) int {
	score := 0
	for r := 0; r < game.Size; r++ {
		for c := 0; c < game.Size; c++ {
			pc := b[r][c]
			if pc.Empty() {
				continue
			}
			val := kingValue
			if pc.Kind == game.Man {
				val = manValue
				if pc.Side == Black {
					val += r * advanceBonus
				} else {
					val += (game.Size - 1 - r) * advanceBonus
				}
			}
			if r >= 2 && r <= 5 && c >= 2 && c <= 5 {
				val += centreBonus
			}
			if pc.Side == Red {
				score += val
			} else {
				score -= val
			}
		}
	}
	return score
}

func (s *State) Evaluate() int {
	return Evaluate(&s.board)
}
