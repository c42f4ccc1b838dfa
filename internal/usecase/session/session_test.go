package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"boardduel/internal/domain/game"
	"boardduel/internal/domain/protocol"
	errs "boardduel/internal/errors"
	"boardduel/internal/usecase/session"
)

type recordingOutbox struct {
	sent []protocol.Message
	err  error
}

func (o *recordingOutbox) Send(_ context.Context, msg protocol.Message) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

// relayOutbox delivers to the other session's inbound queue the way the
// relay would rewrite it.
type relayOutbox struct {
	to chan<- protocol.Message
}

func (o relayOutbox) Send(_ context.Context, msg protocol.Message) error {
	if msg.Type == protocol.TypeMove {
		msg = protocol.OpponentMove(msg.Move)
	}
	o.to <- msg
	return nil
}

func move(t *testing.T, uci string) game.Move {
	t.Helper()
	from, err := game.ParseSquare(uci[:2])
	require.NoError(t, err)
	to, err := game.ParseSquare(uci[2:])
	require.NoError(t, err)
	return game.Move{From: from, To: to}
}

// scripted plays the next matching legal move from line on each turn.
func scripted(t *testing.T, line ...string) session.TurnFunc {
	return func(ctx context.Context, s *session.Session) error {
		if len(line) == 0 {
			return errors.New("script exhausted")
		}
		want := move(t, line[0])
		line = line[1:]
		for _, m := range s.State().LegalMovesFrom(want.From) {
			if m.To == want.To {
				_, err := s.PlayLocal(ctx, m)
				return err
			}
		}
		return errs.ErrIllegalMove
	}
}

func newSession(t *testing.T, typ game.Type, side game.Side, out session.Outbox) *session.Session {
	t.Helper()
	s, err := session.New(zap.NewNop().Sugar(), typ, side, out)
	require.NoError(t, err)
	return s
}

func TestPlayLocalSendsDescriptor(t *testing.T) {
	out := &recordingOutbox{}
	s := newSession(t, game.Checkers, game.First, out)
	require.True(t, s.MyTurn())

	turnEnds, err := s.PlayLocal(context.Background(), game.Move{From: game.Sq(5, 0), To: game.Sq(4, 1)})
	require.NoError(t, err)
	require.True(t, turnEnds)
	require.False(t, s.MyTurn())
	require.Len(t, out.sent, 1)
	require.Equal(t, protocol.TypeMove, out.sent[0].Type)
	require.JSONEq(t, `{"fromR":5,"fromC":0,"move":{"r":4,"c":1,"type":"move"}}`, string(out.sent[0].Move))

	_, err = s.PlayLocal(context.Background(), game.Move{From: game.Sq(2, 1), To: game.Sq(3, 0)})
	require.ErrorIs(t, err, errs.ErrNotYourTurn)
}

func TestPlayLocalRejectsIllegalMove(t *testing.T) {
	out := &recordingOutbox{}
	s := newSession(t, game.Chess, game.First, out)
	before := s.State().Encode()

	_, err := s.PlayLocal(context.Background(), move(t, "e2e5"))
	require.ErrorIs(t, err, errs.ErrIllegalMove)
	require.Equal(t, before, s.State().Encode())
	require.Empty(t, out.sent)
	require.False(t, s.Ended())
}

func TestPlayLocalSendFailureEndsSession(t *testing.T) {
	s := newSession(t, game.Chess, game.First, &recordingOutbox{err: errors.New("broken pipe")})
	_, err := s.PlayLocal(context.Background(), game.Move{From: game.Sq(6, 4), To: game.Sq(4, 4), Kind: game.DoubleStep})
	require.ErrorIs(t, err, errs.ErrSessionEnded)
	require.True(t, s.Ended())
}

func TestApplyRemote(t *testing.T) {
	s := newSession(t, game.Checkers, game.Second, &recordingOutbox{})
	require.False(t, s.MyTurn())

	err := s.ApplyRemote([]byte(`{"fromR":5,"fromC":0,"move":{"r":4,"c":1,"type":"move"}}`))
	require.NoError(t, err)
	require.True(t, s.MyTurn())
	pc, ok := s.State().PieceAt(game.Sq(4, 1))
	require.True(t, ok)
	require.Equal(t, game.First, pc.Side)
}

func TestApplyRemoteDesyncEndsSession(t *testing.T) {
	for name, raw := range map[string]string{
		"illegal":   `{"fromR":5,"fromC":0,"move":{"r":3,"c":2,"type":"move"}}`,
		"malformed": `{"fromR":5}`,
	} {
		t.Run(name, func(t *testing.T) {
			s := newSession(t, game.Checkers, game.Second, &recordingOutbox{})
			before := s.State().Encode()

			err := s.ApplyRemote([]byte(raw))
			require.ErrorIs(t, err, errs.ErrDesync)
			require.True(t, s.Ended())
			require.ErrorIs(t, s.Err(), errs.ErrDesync)
			require.Equal(t, before, s.State().Encode())

			require.ErrorIs(t, s.ApplyRemote([]byte(raw)), errs.ErrSessionEnded)
		})
	}
}

func TestApplyRemoteOutOfTurnIsDesync(t *testing.T) {
	s := newSession(t, game.Checkers, game.First, &recordingOutbox{})
	err := s.ApplyRemote([]byte(`{"fromR":2,"fromC":1,"move":{"r":3,"c":0,"type":"move"}}`))
	require.ErrorIs(t, err, errs.ErrDesync)
}

func TestRunPlaysScriptedGameToCheckmate(t *testing.T) {
	toWhite := make(chan protocol.Message, 8)
	toBlack := make(chan protocol.Message, 8)

	white := newSession(t, game.Chess, game.First, relayOutbox{to: toBlack})
	black := newSession(t, game.Chess, game.Second, relayOutbox{to: toWhite})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- white.Run(ctx, toWhite, scripted(t, "f2f3", "g2g4"))
	}()
	require.NoError(t, black.Run(ctx, toBlack, scripted(t, "e7e5", "d8h4")))
	require.NoError(t, <-done)

	require.Equal(t, game.WinFor(game.Second, game.ReasonCheckmate), white.State().Status())
	require.Equal(t, white.State().Encode(), black.State().Encode())

	over := <-toWhite
	require.Equal(t, protocol.GameOver("b", "checkmate"), over)
}

func TestRunEndsWhenInboundCloses(t *testing.T) {
	inbound := make(chan protocol.Message, 1)
	inbound <- protocol.OpponentMove(json.RawMessage(`{"fromR":5,"fromC":0,"move":{"r":4,"c":1,"type":"move"}}`))
	close(inbound)

	s := newSession(t, game.Checkers, game.Second, &recordingOutbox{})
	err := s.Run(context.Background(), inbound, nil)
	require.ErrorIs(t, err, errs.ErrSessionEnded)
	require.Len(t, s.State().History(), 1)
}

func TestRunEndsOnOpponentDisconnect(t *testing.T) {
	inbound := make(chan protocol.Message, 1)
	inbound <- protocol.OpponentDisconnected()

	s := newSession(t, game.Chess, game.Second, &recordingOutbox{})
	err := s.Run(context.Background(), inbound, nil)
	require.ErrorIs(t, err, errs.ErrSessionEnded)
}
