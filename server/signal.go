package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// writeWait is the time allowed to write a message to a peer
	writeWait = 10 * time.Second
	// maxSignalSize is the largest signaling message accepted, SDP offers
	// with many candidates can run to tens of kilobytes
	maxSignalSize = 64 * 1024
	// peerQueue is the number of messages buffered per peer before messages
	// to a slow peer are dropped
	peerQueue = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// peer is one connected signaling participant
type peer struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}

// Hub relays WebRTC signaling messages between the participants of a single
// room.  A text message from one participant is sent to every other
// participant, never back to the sender.
type Hub struct {
	mu     sync.Mutex
	peers  map[*peer]struct{}
	closed bool
	logger *zap.Logger
}

// NewHub returns an empty Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		peers:  make(map[*peer]struct{}),
		logger: logger.Named("signal"),
	}
}

// HandleSignal upgrades the request to a WebSocket and joins it to the room
// until the connection closes
func (h *Hub) HandleSignal(c echo.Context) error {

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)

	if err != nil {
		// the upgrader has already replied to the client
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return nil
	}

	p := &peer{
		conn: conn,
		send: make(chan []byte, peerQueue),
		addr: c.RealIP(),
	}

	if !h.join(p) {
		conn.Close()
		return nil
	}

	go p.writePump(h.logger)

	h.readPump(p)

	return nil
}

// Len returns the number of connected participants
func (h *Hub) Len() int {

	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.peers)
}

func (h *Hub) join(p *peer) bool {

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.peers[p] = struct{}{}
	h.logger.Info("Signaling participant joined", zap.String("remote", p.addr), zap.Int("participants", len(h.peers)))

	return true
}

func (h *Hub) leave(p *peer) {

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.peers[p]; !ok {
		return
	}

	delete(h.peers, p)
	close(p.send)

	h.logger.Info("Signaling participant left", zap.String("remote", p.addr), zap.Int("participants", len(h.peers)))
}

// broadcast queues msg for every participant except from
func (h *Hub) broadcast(from *peer, msg []byte) {

	h.mu.Lock()
	defer h.mu.Unlock()

	for p := range h.peers {
		if p == from {
			continue
		}

		select {
		case p.send <- msg:
		default:
			h.logger.Warn("Signaling participant too slow, message dropped", zap.String("remote", p.addr))
		}
	}
}

// Close disconnects every participant and refuses new ones
func (h *Hub) Close() {

	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for p := range h.peers {
		delete(h.peers, p)
		close(p.send)
	}
}

func (h *Hub) readPump(p *peer) {

	defer h.leave(p)

	p.conn.SetReadLimit(maxSignalSize)

	for {
		mt, msg, err := p.conn.ReadMessage()

		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Signaling connection error", zap.String("remote", p.addr), zap.Error(err))
			}
			return
		}

		if mt != websocket.TextMessage {
			continue
		}

		h.broadcast(p, msg)
	}
}

// writePump sends queued messages until the queue is closed by the hub
func (p *peer) writePump(logger *zap.Logger) {

	defer p.conn.Close()

	for msg := range p.send {
		p.conn.SetWriteDeadline(time.Now().Add(writeWait))

		if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debug("Signaling write failed", zap.String("remote", p.addr), zap.Error(err))
			return
		}
	}

	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	p.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
