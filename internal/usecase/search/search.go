package search

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"boardduel/internal/domain/game"
	"boardduel/internal/engine"
	errs "boardduel/internal/errors"
)

// MateScore is the value of a won position at the root; each ply of delay
// costs one point so faster wins rank higher.
const MateScore = 99999

const (
	DefaultChessDepth    = 3
	DefaultCheckersDepth = 5
	// DefaultMaxDepth caps any requested depth.
	DefaultMaxDepth = 6
)

type Searcher struct {
	depths   map[game.Type]int
	maxDepth int
	workers  int

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Searcher)

func WithDepth(t game.Type, depth int) Option {
	return func(s *Searcher) {
		if depth > 0 {
			s.depths[t] = depth
		}
	}
}

// WithMaxDepth caps the depth callers may ask for.
func WithMaxDepth(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// WithWorkers bounds how many root moves are searched at once.
func WithWorkers(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRand sets the tie-break source. Two searchers built with equally
// seeded sources pick the same moves for the same positions.
func WithRand(r *rand.Rand) Option {
	return func(s *Searcher) {
		if r != nil {
			s.rnd = r
		}
	}
}

func NewSearcher(opts ...Option) *Searcher {
	s := &Searcher{
		depths: map[game.Type]int{
			game.Chess:    DefaultChessDepth,
			game.Checkers: DefaultCheckersDepth,
		},
		maxDepth: DefaultMaxDepth,
		workers:  1,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	for t, d := range s.depths {
		s.depths[t] = min(d, s.maxDepth)
	}
	return s
}

// Result is a chosen move with its score from the mover's point of view.
type Result struct {
	Move  game.Move
	Score int
	// Candidates is how many root moves shared the best score.
	Candidates int
	// Depth is the depth actually searched.
	Depth int
}

// SelectMove searches st to depth plies (the configured depth for the game
// type when depth <= 0, never more than the cap) and returns the best move
// for side. st is never modified; every node is a fresh state.
func (s *Searcher) SelectMove(ctx context.Context, st engine.State, side game.Side, depth int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if st.Status().Over() {
		return Result{}, errs.ErrGameOver
	}
	if st.SideToMove() != side {
		return Result{}, errs.ErrNotYourTurn
	}
	if depth <= 0 {
		depth = s.depths[st.Type()]
	}
	depth = min(depth, s.maxDepth)
	moves := ordered(st.LegalMoves())
	if len(moves) == 0 {
		return Result{}, errs.ErrNoMoves
	}

	scores := make([]int, len(moves))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, m := range moves {
		i, m := i, m
		g.Go(func() error {
			next, _, err := st.Apply(m)
			if err != nil {
				return fmt.Errorf("%w: root move %s: %v", errs.ErrInternal, m, err)
			}
			v, err := s.child(gctx, st, next, depth-1, -MateScore-1, MateScore+1, 1)
			if err != nil {
				return err
			}
			scores[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	best := slices.Max(scores)
	var tied []int
	for i, v := range scores {
		if v == best {
			tied = append(tied, i)
		}
	}
	s.mu.Lock()
	pick := tied[s.rnd.Intn(len(tied))]
	s.mu.Unlock()

	return Result{Move: moves[pick], Score: best, Candidates: len(tied), Depth: depth}, nil
}

// child scores next from the point of view of the side to move in parent.
// A capture chain keeps the mover, so only a real turn change flips signs.
func (s *Searcher) child(ctx context.Context, parent, next engine.State, depth, alpha, beta, ply int) (int, error) {
	if next.SideToMove() == parent.SideToMove() {
		return s.negamax(ctx, next, depth, alpha, beta, ply)
	}
	v, err := s.negamax(ctx, next, depth, -beta, -alpha, ply)
	return -v, err
}

// negamax returns the value of st for its side to move.
func (s *Searcher) negamax(ctx context.Context, st engine.State, depth, alpha, beta, ply int) (int, error) {
	if status := st.Status(); status.Over() {
		return terminal(status, st.SideToMove(), ply), nil
	}
	if depth <= 0 {
		return perspective(st.Evaluate(), st.SideToMove()), nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	moves := ordered(st.LegalMoves())
	if len(moves) == 0 {
		return perspective(st.Evaluate(), st.SideToMove()), nil
	}
	best := -MateScore - 1
	for _, m := range moves {
		next, _, err := st.Apply(m)
		if err != nil {
			return 0, fmt.Errorf("%w: move %s: %v", errs.ErrInternal, m, err)
		}
		v, err := s.child(ctx, st, next, depth-1, alpha, beta, ply+1)
		if err != nil {
			return 0, err
		}
		best = max(best, v)
		alpha = max(alpha, v)
		if alpha >= beta {
			break
		}
	}
	return best, nil
}

// terminal scores a finished game for toMove. Wins found later are worth
// less; draws are zero. A checkers side left without moves has already lost
// (no_moves), so it scores as a loss here rather than by static evaluation.
func terminal(st game.Status, toMove game.Side, ply int) int {
	if st.Outcome != game.Win {
		return 0
	}
	if st.Winner == toMove {
		return MateScore - ply
	}
	return -(MateScore - ply)
}

func perspective(score int, side game.Side) int {
	if side == game.First {
		return score
	}
	return -score
}

// ordered puts captures first and keeps generator order otherwise.
func ordered(moves []game.Move) []game.Move {
	out := slices.Clone(moves)
	slices.SortStableFunc(out, func(a, b game.Move) int {
		switch {
		case a.IsCapture() && !b.IsCapture():
			return -1
		case !a.IsCapture() && b.IsCapture():
			return 1
		}
		return 0
	})
	return out
}
