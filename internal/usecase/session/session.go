package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"boardduel/internal/domain/game"
	"boardduel/internal/domain/protocol"
	"boardduel/internal/engine"
	errs "boardduel/internal/errors"
)

// Outbox carries messages to the opponent.
type Outbox interface {
	Send(ctx context.Context, msg protocol.Message) error
}

// TurnFunc is called by Run whenever it is the local side's turn.
type TurnFunc func(ctx context.Context, s *Session) error

// Session owns one game for one player. Local and remote moves pass through
// the same engine Apply. A Session is not safe for concurrent use; Run
// serialises inbound messages and local turns on one goroutine.
type Session struct {
	log   *zap.SugaredLogger
	state engine.State
	local game.Side
	out   Outbox

	ended bool
	err   error
}

func New(log *zap.SugaredLogger, t game.Type, local game.Side, out Outbox) (*Session, error) {
	st, err := engine.New(t)
	if err != nil {
		return nil, err
	}
	return &Session{log: log, state: st, local: local, out: out}, nil
}

func (s *Session) State() engine.State { return s.state }
func (s *Session) LocalSide() game.Side { return s.local }
func (s *Session) Ended() bool { return s.ended }

// Err is nil while the session runs and after a normal finish.
func (s *Session) Err() error { return s.err }

func (s *Session) MyTurn() bool {
	return !s.ended && !s.state.Status().Over() && s.state.SideToMove() == s.local
}

func (s *Session) end(err error) {
	if s.ended {
		return
	}
	s.ended = true
	s.err = err
	if err != nil {
		s.log.Warnw("session ended", "error", err)
	} else {
		s.log.Infow("session finished", "status", s.state.Status())
	}
}

// PlayLocal applies a move of the local player and sends its descriptor. An
// illegal move changes nothing. When the move ends the game the opponent is
// told with a game_over message.
func (s *Session) PlayLocal(ctx context.Context, m game.Move) (bool, error) {
	if s.ended {
		return false, errs.ErrSessionEnded
	}
	if !s.MyTurn() {
		return false, errs.ErrNotYourTurn
	}
	next, turnEnds, err := s.state.Apply(m)
	if err != nil {
		return false, err
	}
	applied := next.History()[len(next.History())-1]
	raw, err := protocol.EncodeMove(applied)
	if err != nil {
		return false, err
	}
	s.state = next
	if err := s.out.Send(ctx, protocol.MoveMessage(raw)); err != nil {
		s.end(fmt.Errorf("%w: send move: %v", errs.ErrSessionEnded, err))
		return turnEnds, s.err
	}
	if st := next.Status(); st.Over() {
		if err := s.out.Send(ctx, protocol.GameOverFor(next.Type(), st)); err != nil {
			s.log.Warnw("game over notification failed", "error", err)
		}
		s.end(nil)
	}
	return turnEnds, nil
}

// ApplyRemote replays an opponent move. A move the local engine rejects
// means the two copies disagree and the session ends with ErrDesync.
func (s *Session) ApplyRemote(raw []byte) error {
	if s.ended {
		return errs.ErrSessionEnded
	}
	m, err := protocol.DecodeMove(raw)
	if err != nil {
		s.end(fmt.Errorf("%w: %v", errs.ErrDesync, err))
		return s.err
	}
	if s.state.SideToMove() == s.local {
		s.end(fmt.Errorf("%w: opponent moved out of turn", errs.ErrDesync))
		return s.err
	}
	next, _, err := s.state.Apply(m)
	if err != nil {
		s.end(fmt.Errorf("%w: %v", errs.ErrDesync, err))
		return s.err
	}
	s.state = next
	if next.Status().Over() {
		s.end(nil)
	}
	return nil
}

// Handle processes one message from the relay.
func (s *Session) Handle(msg protocol.Message) error {
	if s.ended {
		return errs.ErrSessionEnded
	}
	switch msg.Type {
	case protocol.TypeOpponentMove:
		return s.ApplyRemote(msg.Move)
	case protocol.TypeGameOver:
		s.log.Infow("opponent reported game over", "winner", msg.Winner, "reason", msg.Reason)
		s.end(nil)
	case protocol.TypeOpponentDisconnected:
		s.end(fmt.Errorf("%w: opponent disconnected", errs.ErrSessionEnded))
	case protocol.TypeError:
		s.log.Warnw("relay error", "message", msg.Message)
	default:
		s.log.Debugw("ignoring message", "type", msg.Type)
	}
	return nil
}

// Run consumes inbound in arrival order until the game ends, the channel
// closes or ctx is cancelled. onTurn, when set, is invoked each time the
// local side has to move.
func (s *Session) Run(ctx context.Context, inbound <-chan protocol.Message, onTurn TurnFunc) error {
	for !s.ended {
		if onTurn != nil && s.MyTurn() {
			played := len(s.state.History())
			if err := onTurn(ctx, s); err != nil {
				s.end(err)
				break
			}
			if len(s.state.History()) == played {
				s.end(fmt.Errorf("%w: turn callback made no move", errs.ErrInternal))
			}
			continue
		}
		select {
		case <-ctx.Done():
			s.end(ctx.Err())
		case msg, ok := <-inbound:
			if !ok {
				s.end(fmt.Errorf("%w: connection closed", errs.ErrSessionEnded))
				break
			}
			if err := s.Handle(msg); err != nil && !errors.Is(err, errs.ErrSessionEnded) {
				s.log.Debugw("message rejected", "type", msg.Type, "error", err)
			}
		}
	}
	return s.err
}
