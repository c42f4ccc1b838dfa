package chess_test

import (
	"testing"

	notnil "github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"boardduel/internal/domain/game"
)

// countMoves expands each promotion candidate into its four piece choices so
// the total is comparable with a generator that lists them separately.
func countMoves(moves []game.Move) int {
	n := 0
	for _, m := range moves {
		if m.Kind == game.Promotion {
			n += 4
			continue
		}
		n++
	}
	return n
}

func TestLegalMoveCountsAgainstOracle(t *testing.T) {
	positions := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
		"rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
		"k7/8/1K6/8/8/8/8/1R6 b - - 0 1",
	}
	for _, f := range positions {
		t.Run(f, func(t *testing.T) {
			opt, err := notnil.FEN(f)
			require.NoError(t, err)
			want := len(notnil.NewGame(opt).ValidMoves())

			s := fen(t, f)
			require.Equal(t, want, countMoves(s.LegalMoves()))

			for _, m := range s.LegalMoves() {
				next, _, err := s.Apply(m)
				require.NoError(t, err)
				opt, err := notnil.FEN(next.Encode())
				require.NoError(t, err)
				require.Equal(t, len(notnil.NewGame(opt).ValidMoves()), countMoves(next.LegalMoves()), "after %s", m)
			}
		})
	}
}
