package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	searchDelivery "boardduel/internal/delivery/search"
	"boardduel/internal/domain/protocol"
	"boardduel/internal/httpresponse"
	ownMiddleware "boardduel/internal/middleware"
	repo "boardduel/internal/repository"
	"boardduel/internal/usecase/peer"
	relayuc "boardduel/internal/usecase/relay"
)

const (
	maxMessageSize      = 64 << 10
	defaultHistoryLimit = 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// MatchHistory lists archived matches of a room code.
type MatchHistory interface {
	RecentByCode(ctx context.Context, code string, limit int64) ([]repo.MatchDocument, error)
}

// MoveLog lists the descriptors relayed in a live room.
type MoveLog interface {
	Moves(ctx context.Context, code string) ([]json.RawMessage, error)
}

type RelayHandler struct {
	log     *zap.SugaredLogger
	manager *relayuc.Manager
	bot     *searchDelivery.BotHandler
	history MatchHistory
	moves   MoveLog

	peersMu sync.Mutex
	peers   map[string]*wsPeer
}

// NewRelayHandler wires the websocket relay. bot, history and moves are
// optional.
func NewRelayHandler(log *zap.SugaredLogger, manager *relayuc.Manager, bot *searchDelivery.BotHandler, history MatchHistory, moves MoveLog) *RelayHandler {
	return &RelayHandler{
		log:     log,
		manager: manager,
		bot:     bot,
		history: history,
		moves:   moves,
		peers:   make(map[string]*wsPeer),
	}
}

func (h *RelayHandler) Router(isLocalCors bool) *chi.Mux {
	r := chi.NewRouter()
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", h.HandleWS)
	r.Get("/healthz", h.HandleHealth)
	r.Get("/api/rooms/{code}", h.HandleRoom)
	if h.history != nil {
		r.Get("/api/rooms/{code}/matches", h.HandleMatches)
	}
	if h.moves != nil {
		r.Get("/api/rooms/{code}/moves", h.HandleMoves)
	}
	if h.bot != nil {
		r.Post("/api/bot/move", h.bot.HandleBotMove)
	}
	return r
}

func (h *RelayHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	p := newPeer(conn)
	h.register(p)
	h.log.Debugw("peer connected", "peer", p.ID(), "remote", r.RemoteAddr)

	defer func() {
		h.manager.Leave(p)
		h.unregister(p)
		p.terminate()
		h.log.Debugw("peer disconnected", "peer", p.ID())
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && p.Alive() {
				h.log.Debugw("read failed", "peer", p.ID(), "error", err)
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.Debugw("malformed message", "peer", p.ID(), "error", err)
			_ = p.Send(protocol.Error(protocol.MsgMalformed))
			continue
		}
		if err := h.manager.Handle(ctx, p, msg); err != nil {
			h.log.Debugw("message rejected", "peer", p.ID(), "type", msg.Type, "error", err)
		}
	}
}

type healthResponse struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

func (h *RelayHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, healthResponse{
		Rooms:       h.manager.Rooms(),
		Connections: h.Connections(),
	})
}

func (h *RelayHandler) HandleRoom(w http.ResponseWriter, r *http.Request) {
	info, ok := h.manager.Room(chi.URLParam(r, "code"))
	if !ok {
		httpresponse.WriteError(w, http.StatusNotFound, protocol.MsgRoomNotFound)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, info)
}

func (h *RelayHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultHistoryLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			httpresponse.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	docs, err := h.history.RecentByCode(r.Context(), peer.NormalizeCode(chi.URLParam(r, "code")), limit)
	if err != nil {
		h.log.Errorw("failed to load match history", "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	if docs == nil {
		docs = []repo.MatchDocument{}
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, docs)
}

// HandleMoves returns the recorded descriptors of a live room in order.
func (h *RelayHandler) HandleMoves(w http.ResponseWriter, r *http.Request) {
	code := peer.NormalizeCode(chi.URLParam(r, "code"))
	if _, ok := h.manager.Room(code); !ok {
		httpresponse.WriteError(w, http.StatusNotFound, protocol.MsgRoomNotFound)
		return
	}
	moves, err := h.moves.Moves(r.Context(), code)
	if err != nil {
		h.log.Errorw("failed to load move log", "code", code, "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, moves)
}

func (h *RelayHandler) register(p *wsPeer) {
	h.peersMu.Lock()
	h.peers[p.ID()] = p
	h.peersMu.Unlock()
}

func (h *RelayHandler) unregister(p *wsPeer) {
	h.peersMu.Lock()
	delete(h.peers, p.ID())
	h.peersMu.Unlock()
}

func (h *RelayHandler) snapshot() []*wsPeer {
	h.peersMu.Lock()
	defer h.peersMu.Unlock()
	out := make([]*wsPeer, 0, len(h.peers))
	for _, p := range h.peers {
		out = append(out, p)
	}
	return out
}

func (h *RelayHandler) Connections() int {
	h.peersMu.Lock()
	defer h.peersMu.Unlock()
	return len(h.peers)
}

// Heartbeat pings every connection. A connection that did not answer the
// previous ping is terminated; its read loop then releases its room.
func (h *RelayHandler) Heartbeat() int {
	terminated := 0
	for _, p := range h.snapshot() {
		if !p.heartbeat() {
			terminated++
		}
	}
	return terminated
}

// CloseAll terminates every open connection.
func (h *RelayHandler) CloseAll() {
	for _, p := range h.snapshot() {
		p.terminate()
	}
}

// RunHeartbeat calls Heartbeat every interval until ctx is done.
func (h *RelayHandler) RunHeartbeat(ctx context.Context, interval time.Duration) error {
	return every(ctx, interval, func() {
		if n := h.Heartbeat(); n > 0 {
			h.log.Infow("terminated unresponsive peers", "count", n)
		}
	})
}

// RunRoomGC sweeps dead players and empty rooms every interval until ctx is done.
func (h *RelayHandler) RunRoomGC(ctx context.Context, interval time.Duration) error {
	return every(ctx, interval, func() {
		if n := h.manager.Sweep(); n > 0 {
			h.log.Infow("removed empty rooms", "count", n)
		}
	})
}

func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}
