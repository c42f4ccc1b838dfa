package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"boardduel/internal/domain/game"
	"boardduel/internal/domain/protocol"
	errs "boardduel/internal/errors"
	"boardduel/internal/usecase/peer"
)

// Peer is one relay connection.
type Peer interface {
	ID() string
	Send(msg protocol.Message) error
	Alive() bool
}

// MatchRecord describes a room whose game was reported finished.
type MatchRecord struct {
	Code     string
	GameType game.Type
	Winner   string
	Reason   string
	Moves    []json.RawMessage
	Started  time.Time
	Finished time.Time
}

// Recorder keeps a write-only trail of relayed traffic. Nothing is ever
// restored from it.
type Recorder interface {
	AppendMove(ctx context.Context, code string, move json.RawMessage) error
	Finish(ctx context.Context, rec MatchRecord) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) AppendMove(context.Context, string, json.RawMessage) error { return nil }
func (NopRecorder) Finish(context.Context, MatchRecord) error { return nil }

type room struct {
	code     string
	gameType game.Type
	players  []Peer
	moves    []json.RawMessage
	started  time.Time
}

func (r *room) opponent(p Peer) Peer {
	for _, other := range r.players {
		if other.ID() != p.ID() {
			return other
		}
	}
	return nil
}

// RoomInfo is the public view of a room.
type RoomInfo struct {
	Code     string    `json:"code"`
	GameType game.Type `json:"gameType"`
	Players  int       `json:"players"`
	Moves    int       `json:"moves"`
}

type outgoing struct {
	to  Peer
	msg protocol.Message
}

// Manager is the relay's room bookkeeping. Messages are computed under the
// lock and delivered after it is released.
type Manager struct {
	log *zap.SugaredLogger
	rec Recorder
	now func() time.Time

	mu     sync.Mutex
	rooms  map[string]*room
	byPeer map[string]*room
}

func NewManager(log *zap.SugaredLogger, rec Recorder) *Manager {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Manager{
		log:    log,
		rec:    rec,
		now:    time.Now,
		rooms:  make(map[string]*room),
		byPeer: make(map[string]*room),
	}
}

// Handle dispatches one client message. Protocol errors are answered to the
// sender only and returned for logging.
func (m *Manager) Handle(ctx context.Context, p Peer, msg protocol.Message) error {
	var err error
	switch msg.Type {
	case protocol.TypeCreateRoom:
		err = m.Create(p, msg.Code, msg.GameType)
	case protocol.TypeJoinRoom:
		err = m.Join(p, msg.Code)
	case protocol.TypeMove:
		err = m.Move(ctx, p, msg.Move)
	case protocol.TypeGameOver:
		err = m.GameOver(ctx, p, msg.Winner, msg.Reason)
	default:
		err = fmt.Errorf("%w: type %q", errs.ErrMalformedMessage, msg.Type)
		m.deliver(outgoing{p, protocol.Error(protocol.MsgMalformed)})
	}
	return err
}

func (m *Manager) reject(p Peer, err error) error {
	text := protocol.MsgMalformed
	switch {
	case errors.Is(err, errs.ErrRoomExists):
		text = protocol.MsgRoomExists
	case errors.Is(err, errs.ErrRoomNotFound):
		text = protocol.MsgRoomNotFound
	case errors.Is(err, errs.ErrRoomFull):
		text = protocol.MsgRoomFull
	case errors.Is(err, errs.ErrNotInRoom):
		text = protocol.MsgNotInRoom
	}
	m.deliver(outgoing{p, protocol.Error(text)})
	return err
}

// Create opens a room with p as its first player. The creator moves first.
func (m *Manager) Create(p Peer, code string, t game.Type) error {
	code = peer.NormalizeCode(code)
	if code == "" {
		return m.reject(p, fmt.Errorf("%w: empty room code", errs.ErrMalformedMessage))
	}
	if !t.Valid() {
		return m.reject(p, fmt.Errorf("%w: %q", errs.ErrUnknownGameType, t))
	}

	m.mu.Lock()
	if _, ok := m.byPeer[p.ID()]; ok {
		m.mu.Unlock()
		return m.reject(p, errs.ErrAlreadyInRoom)
	}
	if _, ok := m.rooms[code]; ok {
		m.mu.Unlock()
		return m.reject(p, fmt.Errorf("%w: %s", errs.ErrRoomExists, code))
	}
	r := &room{code: code, gameType: t, players: []Peer{p}, started: m.now()}
	m.rooms[code] = r
	m.byPeer[p.ID()] = r
	m.mu.Unlock()

	m.log.Infow("room created", "code", code, "gameType", t, "peer", p.ID())
	m.deliver(outgoing{p, protocol.RoomCreated(code, t.Color(game.First))})
	return nil
}

func (m *Manager) Join(p Peer, code string) error {
	code = peer.NormalizeCode(code)

	m.mu.Lock()
	if _, ok := m.byPeer[p.ID()]; ok {
		m.mu.Unlock()
		return m.reject(p, errs.ErrAlreadyInRoom)
	}
	r, ok := m.rooms[code]
	if !ok {
		m.mu.Unlock()
		return m.reject(p, fmt.Errorf("%w: %s", errs.ErrRoomNotFound, code))
	}
	if len(r.players) >= 2 {
		m.mu.Unlock()
		return m.reject(p, fmt.Errorf("%w: %s", errs.ErrRoomFull, code))
	}
	r.players = append(r.players, p)
	m.byPeer[p.ID()] = r
	creator := r.players[0]
	t := r.gameType
	m.mu.Unlock()

	m.log.Infow("room joined", "code", code, "peer", p.ID())
	m.deliver(
		outgoing{p, protocol.RoomJoined(code, t.Color(game.Second), t)},
		outgoing{creator, protocol.OpponentJoined()},
	)
	return nil
}

// Move forwards a descriptor to the opponent verbatim.
func (m *Manager) Move(ctx context.Context, p Peer, move json.RawMessage) error {
	m.mu.Lock()
	r, ok := m.byPeer[p.ID()]
	if !ok {
		m.mu.Unlock()
		return m.reject(p, errs.ErrNotInRoom)
	}
	r.moves = append(r.moves, move)
	opp := r.opponent(p)
	code := r.code
	m.mu.Unlock()

	if opp != nil {
		m.deliver(outgoing{opp, protocol.OpponentMove(move)})
	}
	if err := m.rec.AppendMove(ctx, code, move); err != nil {
		m.log.Warnw("failed to record move", "code", code, "error", err)
	}
	return nil
}

// GameOver forwards the notification and archives the match.
func (m *Manager) GameOver(ctx context.Context, p Peer, winner, reason string) error {
	m.mu.Lock()
	r, ok := m.byPeer[p.ID()]
	if !ok {
		m.mu.Unlock()
		return m.reject(p, errs.ErrNotInRoom)
	}
	opp := r.opponent(p)
	rec := MatchRecord{
		Code:     r.code,
		GameType: r.gameType,
		Winner:   winner,
		Reason:   reason,
		Moves:    append([]json.RawMessage(nil), r.moves...),
		Started:  r.started,
		Finished: m.now(),
	}
	m.mu.Unlock()

	if opp != nil {
		m.deliver(outgoing{opp, protocol.GameOver(winner, reason)})
	}
	if err := m.rec.Finish(ctx, rec); err != nil {
		m.log.Warnw("failed to archive match", "code", rec.Code, "error", err)
	}
	return nil
}

// Leave removes p's room, telling the opponent, when p disconnects.
func (m *Manager) Leave(p Peer) {
	m.mu.Lock()
	r, ok := m.byPeer[p.ID()]
	if !ok {
		m.mu.Unlock()
		return
	}
	opp := r.opponent(p)
	m.dropLocked(r)
	m.mu.Unlock()

	m.log.Infow("room closed", "code", r.code, "peer", p.ID())
	if opp != nil && opp.Alive() {
		m.deliver(outgoing{opp, protocol.OpponentDisconnected()})
	}
}

func (m *Manager) dropLocked(r *room) {
	for _, pl := range r.players {
		if m.byPeer[pl.ID()] == r {
			delete(m.byPeer, pl.ID())
		}
	}
	if m.rooms[r.code] == r {
		delete(m.rooms, r.code)
	}
}

// Sweep deletes every room with a dead player, telling any live opponent
// the same way Leave does. It returns how many rooms were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	var notify []outgoing
	removed := 0
	for _, r := range m.rooms {
		var live []Peer
		for _, pl := range r.players {
			if pl.Alive() {
				live = append(live, pl)
			}
		}
		if len(live) == len(r.players) {
			continue
		}
		for _, pl := range live {
			notify = append(notify, outgoing{pl, protocol.OpponentDisconnected()})
		}
		m.dropLocked(r)
		removed++
	}
	m.mu.Unlock()

	m.deliver(notify...)
	return removed
}

func (m *Manager) Room(code string) (RoomInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[peer.NormalizeCode(code)]
	if !ok {
		return RoomInfo{}, false
	}
	return RoomInfo{Code: r.code, GameType: r.gameType, Players: len(r.players), Moves: len(r.moves)}, true
}

func (m *Manager) Rooms() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

func (m *Manager) deliver(msgs ...outgoing) {
	for _, o := range msgs {
		if err := o.to.Send(o.msg); err != nil {
			m.log.Warnw("send failed", "peer", o.to.ID(), "type", o.msg.Type, "error", err)
		}
	}
}
