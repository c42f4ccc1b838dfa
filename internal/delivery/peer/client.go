package peer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	searchDelivery "boardduel/internal/delivery/search"
	"boardduel/internal/domain/game"
	"boardduel/internal/domain/protocol"
	"boardduel/internal/engine"
	errs "boardduel/internal/errors"
	peeruc "boardduel/internal/usecase/peer"
	"boardduel/internal/usecase/session"
)

const (
	writeWait   = 10 * time.Second
	inboxLength = 16
)

// Request says which room to open or enter.
type Request struct {
	Role     peeruc.Role
	Code     string
	GameType game.Type
}

// Result is the local view of a finished (or abandoned) game.
type Result struct {
	Code     string
	GameType game.Type
	Side     game.Side
	State    engine.State
}

// Client plays games through a relay.
type Client struct {
	log    *zap.SugaredLogger
	url    string
	dialer *websocket.Dialer
}

func NewClient(log *zap.SugaredLogger, url string) *Client {
	return &Client{log: log, url: url, dialer: websocket.DefaultDialer}
}

// BotTurn moves for the local side with the given selector.
func BotTurn(selector searchDelivery.MoveSelector, depth int) session.TurnFunc {
	return func(ctx context.Context, s *session.Session) error {
		res, err := selector.SelectMove(ctx, s.State(), s.LocalSide(), depth)
		if err != nil {
			return err
		}
		_, err = s.PlayLocal(ctx, res.Move)
		return err
	}
}

// match is the state of one Play call. It is the session's Outbox.
type match struct {
	log  *zap.SugaredLogger
	conn *websocket.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	machine *peeruc.Machine
	sess    *session.Session
}

// Play connects, opens or joins the room and runs the game until it ends.
// onTurn is called whenever the local side is to move.
func (c *Client) Play(ctx context.Context, req Request, onTurn session.TurnFunc) (Result, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("dial relay %s: %w", c.url, err)
	}
	m := &match{log: c.log, conn: conn, machine: peeruc.NewMachine()}
	defer m.close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	var hello protocol.Message
	switch req.Role {
	case peeruc.Creator:
		hello, err = m.machine.Create(req.Code, req.GameType)
	case peeruc.Joiner:
		hello, err = m.machine.Join(req.Code)
	default:
		err = fmt.Errorf("%w: no role", errs.ErrInvalidTransition)
	}
	if err != nil {
		return Result{}, err
	}
	if err := m.write(ctx, hello); err != nil {
		return Result{}, err
	}

	incoming := make(chan protocol.Message, inboxLength)
	go m.readLoop(incoming, stop)

	if err := m.lobby(ctx, incoming); err != nil {
		return Result{}, err
	}

	sess, err := session.New(c.log, m.machine.GameType(), m.machine.Side(), m)
	if err != nil {
		return Result{}, err
	}
	m.sess = sess
	c.log.Infow("game started", "code", m.machine.Code(), "gameType", m.machine.GameType(),
		"color", m.machine.GameType().Color(m.machine.Side()))

	inbound := make(chan protocol.Message, inboxLength)
	go m.forward(incoming, inbound, stop)

	err = sess.Run(ctx, inbound, onTurn)
	return Result{
		Code:     m.machine.Code(),
		GameType: m.machine.GameType(),
		Side:     m.machine.Side(),
		State:    sess.State(),
	}, err
}

// lobby waits for the room to be ready.
func (m *match) lobby(ctx context.Context, incoming <-chan protocol.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-incoming:
			if !ok {
				return fmt.Errorf("%w: connection closed before the game started", errs.ErrSessionEnded)
			}
			ev, err := m.machine.Receive(msg)
			if err != nil {
				return err
			}
			switch ev {
			case peeruc.EventRoomCreated:
				m.log.Infow("room created, waiting for opponent", "code", msg.Code)
			case peeruc.EventRejected:
				return rejection(msg.Message)
			case peeruc.EventOpponentLeft:
				return fmt.Errorf("%w: opponent disconnected", errs.ErrSessionEnded)
			case peeruc.EventStart:
				return nil
			}
		}
	}
}

func rejection(text string) error {
	var sentinel error
	switch text {
	case protocol.MsgRoomExists:
		sentinel = errs.ErrRoomExists
	case protocol.MsgRoomNotFound:
		sentinel = errs.ErrRoomNotFound
	case protocol.MsgRoomFull:
		sentinel = errs.ErrRoomFull
	default:
		sentinel = errs.ErrMalformedMessage
	}
	return fmt.Errorf("%w: %s", sentinel, text)
}

func (m *match) readLoop(out chan<- protocol.Message, stop <-chan struct{}) {
	defer close(out)
	for {
		var msg protocol.Message
		if err := m.conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				m.log.Debugw("relay read stopped", "error", err)
			}
			return
		}
		select {
		case out <- msg:
		case <-stop:
			return
		}
	}
}

// forward passes game messages on to the session once the machine accepts
// them.
func (m *match) forward(in <-chan protocol.Message, out chan<- protocol.Message, stop <-chan struct{}) {
	defer close(out)
	for msg := range in {
		m.mu.Lock()
		_, err := m.machine.Receive(msg)
		m.mu.Unlock()
		if err != nil && msg.Type != protocol.TypeError {
			m.log.Debugw("dropping message", "type", msg.Type, "error", err)
			continue
		}
		select {
		case out <- msg:
		case <-stop:
			return
		}
	}
	m.mu.Lock()
	m.machine.Closed()
	m.mu.Unlock()
}

// Send implements session.Outbox.
func (m *match) Send(ctx context.Context, msg protocol.Message) error {
	m.mu.Lock()
	var err error
	switch msg.Type {
	case protocol.TypeMove:
		msg, err = m.machine.SendMove(msg.Move)
	case protocol.TypeGameOver:
		msg, err = m.machine.Finish(m.sess.State().Status())
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.write(ctx, msg)
}

func (m *match) write(ctx context.Context, msg protocol.Message) error {
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = m.conn.SetWriteDeadline(deadline)
	return m.conn.WriteJSON(msg)
}

func (m *match) close() {
	m.writeMu.Lock()
	_ = m.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	m.writeMu.Unlock()
	_ = m.conn.Close()
}
