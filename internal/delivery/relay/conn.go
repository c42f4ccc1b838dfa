package relay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"boardduel/internal/domain/protocol"
)

const writeWait = 10 * time.Second

// wsPeer is one websocket client of the relay.
type wsPeer struct {
	id   string
	conn *websocket.Conn

	writeMu sync.Mutex
	// pong is cleared by every heartbeat and set again when the client
	// answers the ping.
	pong   atomic.Bool
	closed atomic.Bool
}

func newPeer(conn *websocket.Conn) *wsPeer {
	p := &wsPeer{id: uuid.New().String(), conn: conn}
	p.pong.Store(true)
	conn.SetPongHandler(func(string) error {
		p.pong.Store(true)
		return nil
	})
	return p
}

func (p *wsPeer) ID() string { return p.id }

func (p *wsPeer) Alive() bool { return !p.closed.Load() }

func (p *wsPeer) Send(msg protocol.Message) error {
	if p.closed.Load() {
		return websocket.ErrCloseSent
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(msg)
}

// heartbeat pings the client, or terminates it when the previous ping went
// unanswered. It reports whether the connection is still up.
func (p *wsPeer) heartbeat() bool {
	if p.closed.Load() {
		return false
	}
	if !p.pong.Swap(false) {
		p.terminate()
		return false
	}
	p.writeMu.Lock()
	err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
	p.writeMu.Unlock()
	if err != nil {
		p.terminate()
		return false
	}
	return true
}

// terminate closes the socket, which unblocks the read loop.
func (p *wsPeer) terminate() {
	if p.closed.CompareAndSwap(false, true) {
		_ = p.conn.Close()
	}
}
