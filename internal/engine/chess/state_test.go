package chess_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boardduel/internal/domain/game"
	"boardduel/internal/engine/chess"
	errs "boardduel/internal/errors"
)

func sq(t *testing.T, s string) game.Square {
	t.Helper()
	out, err := game.ParseSquare(s)
	require.NoError(t, err)
	return out
}

// play applies uci-like moves ("e2e4") by looking up the matching legal
// candidate, which is how a user-facing caller picks moves.
func play(t *testing.T, s *chess.State, moves ...string) *chess.State {
	t.Helper()
	for _, mv := range moves {
		from, to := sq(t, mv[:2]), sq(t, mv[2:4])
		var pick *game.Move
		for _, c := range s.LegalMovesFrom(from) {
			if c.To == to {
				c := c
				pick = &c
				break
			}
		}
		require.NotNil(t, pick, "move %s not legal in %s", mv, s.Encode())
		next, turnEnds, err := s.Apply(*pick)
		require.NoError(t, err)
		require.True(t, turnEnds)
		s = next
	}
	return s
}

func fen(t *testing.T, f string) *chess.State {
	t.Helper()
	s, err := chess.ParseFEN(f)
	require.NoError(t, err)
	return s
}

func perft(s *chess.State, depth int) int {
	moves := s.LegalMoves()
	if depth == 1 {
		return len(moves)
	}
	n := 0
	for _, m := range moves {
		next, _, err := s.Apply(m)
		if err != nil {
			panic(err)
		}
		n += perft(next, depth-1)
	}
	return n
}

func TestStartPositionPerft(t *testing.T) {
	s := chess.New()
	require.Equal(t, chess.StartFEN, s.Encode())
	require.Equal(t, 20, perft(s, 1))
	require.Equal(t, 400, perft(s, 2))
	require.Equal(t, 8902, perft(s, 3))
}

func TestEnPassant(t *testing.T) {
	s := play(t, chess.New(), "e2e4", "a7a6", "e4e5", "d7d5")
	require.True(t, s.Special().HasEnPassant)
	require.Equal(t, sq(t, "d6"), s.Special().EnPassant)

	var ep game.Move
	for _, m := range s.LegalMovesFrom(sq(t, "e5")) {
		if m.Kind == game.EnPassant {
			ep = m
		}
	}
	require.Equal(t, game.EnPassant, ep.Kind)
	require.Equal(t, sq(t, "d5"), ep.Captured)

	next, _, err := s.Apply(ep)
	require.NoError(t, err)
	require.True(t, next.PieceAt(sq(t, "d5")).Empty())
	require.Equal(t, game.Piece{Side: chess.White, Kind: game.Pawn}, next.PieceAt(sq(t, "d6")))
	require.Equal(t, game.Piece{Side: chess.Black, Kind: game.Pawn}, next.History()[4].Taken)
	require.False(t, next.Special().HasEnPassant)
}

func TestEnPassantExpiresAfterOneMove(t *testing.T) {
	s := play(t, chess.New(), "e2e4", "a7a6", "e4e5", "d7d5", "h2h3", "h7h6")
	for _, m := range s.LegalMovesFrom(sq(t, "e5")) {
		require.NotEqual(t, game.EnPassant, m.Kind)
	}
}

func castles(s *chess.State, from game.Square) map[game.MoveKind]bool {
	out := map[game.MoveKind]bool{}
	for _, m := range s.LegalMovesFrom(from) {
		if m.Kind == game.CastleKingside || m.Kind == game.CastleQueenside {
			out[m.Kind] = true
		}
	}
	return out
}

func TestCastling(t *testing.T) {
	e1 := game.Sq(7, 4)

	t.Run("both sides", func(t *testing.T) {
		s := fen(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		require.Equal(t, map[game.MoveKind]bool{game.CastleKingside: true, game.CastleQueenside: true}, castles(s, e1))

		next, _, err := s.Apply(game.Move{From: e1, To: sq(t, "g1"), Kind: game.CastleKingside})
		require.NoError(t, err)
		require.Equal(t, game.Piece{Side: chess.White, Kind: game.King}, next.PieceAt(sq(t, "g1")))
		require.Equal(t, game.Piece{Side: chess.White, Kind: game.Rook}, next.PieceAt(sq(t, "f1")))
		require.True(t, next.PieceAt(sq(t, "h1")).Empty())
		require.True(t, next.PieceAt(sq(t, "e1")).Empty())
		require.False(t, next.Special().Castling.Has(chess.WhiteQueenside))

		next, _, err = s.Apply(game.Move{From: e1, To: sq(t, "c1"), Kind: game.CastleQueenside})
		require.NoError(t, err)
		require.Equal(t, game.Piece{Side: chess.White, Kind: game.King}, next.PieceAt(sq(t, "c1")))
		require.Equal(t, game.Piece{Side: chess.White, Kind: game.Rook}, next.PieceAt(sq(t, "d1")))
		require.True(t, next.PieceAt(sq(t, "a1")).Empty())
	})

	t.Run("through attacked square", func(t *testing.T) {
		s := fen(t, "r3k2r/8/8/8/8/8/5r2/R3K2R w KQkq - 0 1")
		require.Equal(t, map[game.MoveKind]bool{game.CastleQueenside: true}, castles(s, e1))
	})

	t.Run("while in check", func(t *testing.T) {
		s := fen(t, "r3k2r/8/8/8/8/8/4r3/R3K2R w KQkq - 0 1")
		require.True(t, s.InCheck())
		require.Empty(t, castles(s, e1))
	})

	t.Run("occupied path", func(t *testing.T) {
		s := fen(t, "r3k2r/8/8/8/8/8/8/RN2K2R w KQkq - 0 1")
		require.Equal(t, map[game.MoveKind]bool{game.CastleKingside: true}, castles(s, e1))
	})

	t.Run("after king moved", func(t *testing.T) {
		s := fen(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		s = play(t, s, "e1f1", "a8b8", "f1e1", "b8a8")
		require.Empty(t, castles(s, e1))
		require.Equal(t, map[game.MoveKind]bool{game.CastleKingside: true}, castles(play(t, s, "a1b1"), game.Sq(0, 4)))
	})

	t.Run("after rook captured", func(t *testing.T) {
		s := fen(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		s = play(t, s, "h1h8")
		require.False(t, s.Special().Castling.Has(chess.BlackKingside))
		require.False(t, s.Special().Castling.Has(chess.WhiteKingside))
	})
}

func TestCheckmateVersusStalemate(t *testing.T) {
	start := "k7/8/1K6/8/8/8/8/7R w - - 0 1"

	mate := play(t, fen(t, start), "h1h8")
	require.True(t, mate.InCheck())
	require.Equal(t, game.WinFor(chess.White, game.ReasonCheckmate), mate.Status())
	require.Empty(t, mate.LegalMoves())

	stale := play(t, fen(t, start), "h1b1")
	require.False(t, stale.InCheck())
	require.Equal(t, game.DrawBy(game.ReasonStalemate), stale.Status())

	_, _, err := mate.Apply(game.Move{From: sq(t, "a8"), To: sq(t, "a7")})
	require.ErrorIs(t, err, errs.ErrGameOver)
}

func TestPinnedPieceCannotExposeKing(t *testing.T) {
	s := fen(t, "4k3/8/8/8/4r3/8/4B3/4K3 w - - 0 1")
	require.Empty(t, s.LegalMovesFrom(sq(t, "e2")))
}

func TestPromotion(t *testing.T) {
	s := fen(t, "8/P6k/8/8/8/8/8/K7 w - - 0 1")
	moves := s.LegalMovesFrom(sq(t, "a7"))
	require.Len(t, moves, 1)
	require.Equal(t, game.Promotion, moves[0].Kind)

	queen, _, err := s.Apply(moves[0])
	require.NoError(t, err)
	require.Equal(t, game.Piece{Side: chess.White, Kind: game.Queen}, queen.PieceAt(sq(t, "a8")))

	m := moves[0]
	m.Promotion = game.Knight
	knight, _, err := s.Apply(m)
	require.NoError(t, err)
	require.Equal(t, game.Piece{Side: chess.White, Kind: game.Knight}, knight.PieceAt(sq(t, "a8")))

	m.Promotion = game.King
	_, _, err = s.Apply(m)
	require.ErrorIs(t, err, errs.ErrIllegalMove)
}

func TestApplyRejectsIllegalMoveAndKeepsState(t *testing.T) {
	s := chess.New()
	before := s.Encode()

	_, turnEnds, err := s.Apply(game.Move{From: sq(t, "e2"), To: sq(t, "e5"), Kind: game.Plain})
	require.ErrorIs(t, err, errs.ErrIllegalMove)
	require.False(t, turnEnds)

	_, _, err = s.Apply(game.Move{From: sq(t, "e7"), To: sq(t, "e5"), Kind: game.DoubleStep})
	require.ErrorIs(t, err, errs.ErrIllegalMove)
	require.Equal(t, before, s.Encode())
}

func TestApplyIsDeterministic(t *testing.T) {
	line := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6", "e1g1"}
	a := play(t, chess.New(), line...)
	b := play(t, chess.New(), line...)
	require.Equal(t, a.Encode(), b.Encode())
	require.Equal(t, a.History(), b.History())
	require.Equal(t, "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQ1RK1 b kq - 5 4", a.Encode())
}

func TestParseFEN(t *testing.T) {
	for _, f := range []string{
		chess.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
	} {
		require.Equal(t, f, fen(t, f).Encode())
	}

	s := fen(t, "8/8/8/8/8/8/8/K6k w - -")
	require.Equal(t, "8/8/8/8/8/8/8/K6k w - - 0 1", s.Encode())

	for _, bad := range []string{
		"",
		"8/8/8/8/8/8/8/K6k w",
		"8/8/8/8/8/8/K6k w - - 0 1",
		"8/8/8/8/8/8/8/K5kk w - - 0 1",
		"8/8/8/8/8/8/8/K6x w - - 0 1",
		"8/8/8/8/8/8/8/K6k x - - 0 1",
		"8/8/8/8/8/8/8/K6k w Z - 0 1",
		"8/8/8/8/8/8/8/K6k w - - 0 0",
	} {
		_, err := chess.ParseFEN(bad)
		require.ErrorIs(t, err, errs.ErrInvalidPosition, bad)
	}
}

func TestMissingKingEndsGame(t *testing.T) {
	s := fen(t, "8/8/8/8/8/8/8/K7 b - - 0 1")
	require.Equal(t, game.WinFor(chess.White, game.ReasonKingCaptured), s.Status())
}

func TestEvaluateIsSymmetric(t *testing.T) {
	require.Equal(t, 0, chess.New().Evaluate())
	s := fen(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	mirrored := fen(t, "3qk3/8/8/8/8/8/8/4K3 w - - 0 1")
	require.Equal(t, 895, s.Evaluate())
	require.Equal(t, -s.Evaluate(), mirrored.Evaluate())
}
