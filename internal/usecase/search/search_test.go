package search

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"boardduel/internal/domain/game"
	"boardduel/internal/engine"
	errs "boardduel/internal/errors"
)

func decode(t *testing.T, typ game.Type, pos string) engine.State {
	t.Helper()
	s, err := engine.Decode(typ, pos)
	require.NoError(t, err)
	return s
}

func seeded(seed int64, opts ...Option) *Searcher {
	return NewSearcher(append(opts, WithRand(rand.New(rand.NewSource(seed))))...)
}

func TestSelectMoveFindsMateInOne(t *testing.T) {
	st := decode(t, game.Chess, "k7/8/1K6/8/8/8/8/7R w - - 0 1")
	res, err := seeded(1, WithWorkers(4)).SelectMove(context.Background(), st, game.First, 2)
	require.NoError(t, err)
	require.Equal(t, game.Sq(7, 7), res.Move.From)
	require.Equal(t, game.Sq(0, 7), res.Move.To)
	require.Equal(t, MateScore-1, res.Score)
	require.Equal(t, 1, res.Candidates)
}

func TestSelectMoveAvoidsStalemateWhenWinning(t *testing.T) {
	st := decode(t, game.Chess, "k7/8/1K6/8/8/8/8/7R w - - 0 1")
	res, err := seeded(3).SelectMove(context.Background(), st, game.First, 1)
	require.NoError(t, err)

	next, _, err := st.Apply(res.Move)
	require.NoError(t, err)
	require.NotEqual(t, game.Draw, next.Status().Outcome)
}

func TestSelectMoveIsDeterministicForSeed(t *testing.T) {
	st, err := engine.New(game.Chess)
	require.NoError(t, err)

	serial := seeded(42)
	parallel := seeded(42, WithWorkers(8))
	for i := 0; i < 3; i++ {
		a, err := serial.SelectMove(context.Background(), st, game.First, 2)
		require.NoError(t, err)
		b, err := parallel.SelectMove(context.Background(), st, game.First, 2)
		require.NoError(t, err)
		require.Equal(t, a, b)
	}
}

func TestSelectMoveLeavesLiveStateUntouched(t *testing.T) {
	for _, typ := range []game.Type{game.Chess, game.Checkers} {
		st, err := engine.New(typ)
		require.NoError(t, err)
		before := st.Encode()
		moves := st.LegalMoves()

		_, err = seeded(7, WithWorkers(2)).SelectMove(context.Background(), st, game.First, 3)
		require.NoError(t, err)
		require.Equal(t, before, st.Encode())
		require.Equal(t, moves, st.LegalMoves())
		require.Empty(t, st.History())
	}
}

func TestSelectMoveCheckersPrefersWinningJump(t *testing.T) {
	st := decode(t, game.Checkers, "......../......../......../......../.....b../r...r.../......../........ red -")
	res, err := seeded(5).SelectMove(context.Background(), st, game.First, 4)
	require.NoError(t, err)
	require.Equal(t, game.Jump, res.Move.Kind)
	require.Equal(t, MateScore-1, res.Score)
}

func TestSelectMoveContinuesChain(t *testing.T) {
	st := decode(t, game.Checkers, ".......b/......../......../....b.../...r..../......../......../..r..... red d4")
	res, err := seeded(5).SelectMove(context.Background(), st, game.First, 0)
	require.NoError(t, err)
	require.Equal(t, game.Sq(4, 3), res.Move.From)
	require.Equal(t, game.Sq(2, 5), res.Move.To)
}

func TestSelectMoveErrors(t *testing.T) {
	s := seeded(1)

	stalemate := decode(t, game.Chess, "k7/8/1K6/8/8/8/8/1R6 b - - 0 1")
	_, err := s.SelectMove(context.Background(), stalemate, game.Second, 2)
	require.ErrorIs(t, err, errs.ErrGameOver)

	start, err := engine.New(game.Chess)
	require.NoError(t, err)
	_, err = s.SelectMove(context.Background(), start, game.Second, 2)
	require.ErrorIs(t, err, errs.ErrNotYourTurn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SelectMove(ctx, start, game.First, 3)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOrderedPutsCapturesFirst(t *testing.T) {
	quiet := game.Move{From: game.Sq(6, 0), To: game.Sq(5, 0)}
	capture := game.Move{From: game.Sq(6, 1), To: game.Sq(5, 2), Kind: game.Capture, HasCapture: true}
	quiet2 := game.Move{From: game.Sq(6, 2), To: game.Sq(5, 2)}

	in := []game.Move{quiet, capture, quiet2}
	require.Equal(t, []game.Move{capture, quiet, quiet2}, ordered(in))
	require.Equal(t, quiet, in[0])
}

func TestTerminalScores(t *testing.T) {
	require.Equal(t, MateScore-3, terminal(game.WinFor(game.First, game.ReasonCheckmate), game.First, 3))
	require.Equal(t, -(MateScore - 3), terminal(game.WinFor(game.First, game.ReasonCheckmate), game.Second, 3))
	require.Equal(t, 0, terminal(game.DrawBy(game.ReasonStalemate), game.First, 3))
}

func TestSelectMoveCapsDepth(t *testing.T) {
	start, err := engine.New(game.Chess)
	require.NoError(t, err)

	res, err := seeded(1, WithMaxDepth(2)).SelectMove(context.Background(), start, game.First, 40)
	require.NoError(t, err)
	require.Equal(t, 2, res.Depth)

	res, err = seeded(1, WithMaxDepth(1), WithDepth(game.Chess, 5)).SelectMove(context.Background(), start, game.First, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.Depth)

	res, err = seeded(1).SelectMove(context.Background(), start, game.First, 0)
	require.NoError(t, err)
	require.Equal(t, DefaultChessDepth, res.Depth)
}
