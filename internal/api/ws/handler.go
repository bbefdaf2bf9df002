package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/anzchy/frontend-sandbox/internal/domain/preview"
	"github.com/anzchy/frontend-sandbox/internal/domain/project"
	"github.com/anzchy/frontend-sandbox/internal/domain/relay"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/logging"
	"github.com/anzchy/frontend-sandbox/internal/infrastructure/monitoring"
	"github.com/anzchy/frontend-sandbox/internal/shared/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2 << 20
	sendBuffer     = 64
)

// ClientMessage is an inbound editor message
type ClientMessage struct {
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
}

// ServerMessage is an outbound frame
type ServerMessage struct {
	Type     string               `json:"type"`
	ClientID string               `json:"client_id,omitempty"`
	State    preview.State        `json:"state,omitempty"`
	Record   *types.ConsoleRecord `json:"record,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// Handler serves the editor's realtime stream: inbound keystrokes are
// coalesced per file before they hit the store, and console records
// plus scheduler state transitions are pushed to every client.
type Handler struct {
	store        *project.Store
	scheduler    *preview.Scheduler
	relay        *relay.Relay
	editDebounce time.Duration

	mu    sync.RWMutex
	conns map[string]*connection

	upgrader websocket.Upgrader
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates the stream handler and wires its broadcast
// sources. Call once; it subscribes to the relay and scheduler.
func NewHandler(store *project.Store, scheduler *preview.Scheduler, r *relay.Relay, editDebounce time.Duration, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if editDebounce <= 0 {
		editDebounce = 300 * time.Millisecond
	}
	h := &Handler{
		store:        store,
		scheduler:    scheduler,
		relay:        r,
		editDebounce: editDebounce,
		conns:        map[string]*connection{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}

	// Record frames carry the record kind as their type; scheduler
	// transitions arrive as preview frames
	r.Subscribe(func(rec types.ConsoleRecord) {
		h.broadcast(ServerMessage{Type: string(rec.Kind), Record: &rec})
	})
	scheduler.OnState(func(st preview.State) {
		h.broadcast(ServerMessage{Type: "preview", State: st})
	})
	return h
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(m *monitoring.Metrics) *Handler {
	h.metrics = m
	return h
}

// Serve upgrades the request and runs the connection until it closes
func (h *Handler) Serve(c *gin.Context) {
	sock, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &connection{
		id:      uuid.NewString(),
		sock:    sock,
		send:    make(chan []byte, sendBuffer),
		pending: map[string]string{},
		timers:  map[string]*time.Timer{},
	}

	h.mu.Lock()
	h.conns[conn.id] = conn
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
	h.logger.Info("websocket client connected", zap.String("client", conn.id))

	h.send(conn, ServerMessage{
		Type:     "welcome",
		ClientID: conn.id,
		State:    h.scheduler.State(),
	})

	go h.writePump(conn)
	h.readPump(conn)

	h.mu.Lock()
	delete(h.conns, conn.id)
	h.mu.Unlock()

	conn.flushEdits(h.store)
	conn.close()
	if h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
	h.logger.Info("websocket client disconnected", zap.String("client", conn.id))
}

func (h *Handler) readPump(conn *connection) {
	conn.sock.SetReadLimit(maxMessageSize)
	conn.sock.SetReadDeadline(time.Now().Add(pongWait))
	conn.sock.SetPongHandler(func(string) error {
		conn.sock.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.send(conn, ServerMessage{Type: "error", Error: "malformed message"})
			continue
		}
		if h.metrics != nil {
			h.metrics.WSMessages.WithLabelValues("in", msg.Type).Inc()
		}
		h.handle(conn, msg)
	}
}

func (h *Handler) handle(conn *connection, msg ClientMessage) {
	switch msg.Type {
	case "edit":
		if msg.Name == "" {
			h.send(conn, ServerMessage{Type: "error", Error: "edit requires a file name"})
			return
		}
		conn.scheduleEdit(msg.Name, msg.Content, h.editDebounce, h.store)
	case "refresh":
		conn.flushEdits(h.store)
		h.scheduler.Refresh()
	case "ping":
		h.send(conn, ServerMessage{Type: "pong"})
	default:
		h.send(conn, ServerMessage{Type: "error", Error: "unknown message type: " + msg.Type})
	}
}

func (h *Handler) writePump(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-conn.send:
			conn.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send queues one frame for a single connection. A full send buffer
// drops the frame rather than blocking the pipeline.
func (h *Handler) send(conn *connection, msg ServerMessage) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return
	}
	if h.metrics != nil {
		h.metrics.WSMessages.WithLabelValues("out", msg.Type).Inc()
	}
	conn.enqueue(data)
}

func (h *Handler) broadcast(msg ServerMessage) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make([]*connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if h.metrics != nil && len(conns) > 0 {
		h.metrics.WSMessages.WithLabelValues("out", msg.Type).Add(float64(len(conns)))
	}
	for _, c := range conns {
		c.enqueue(data)
	}
}

// connection is one editor client. Pending edits are coalesced per
// file so a typing burst commits once per quiet window.
type connection struct {
	id   string
	sock *websocket.Conn

	sendMu sync.Mutex
	send   chan []byte
	closed bool

	mu      sync.Mutex
	pending map[string]string
	timers  map[string]*time.Timer
}

func (c *connection) enqueue(data []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *connection) close() {
	c.sendMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.sendMu.Unlock()
	c.sock.Close()
}

// scheduleEdit retains the newest content for the file and (re)starts
// its coalescing timer
func (c *connection) scheduleEdit(name, content string, debounce time.Duration, store *project.Store) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[name] = content
	if t, ok := c.timers[name]; ok {
		t.Stop()
	}
	c.timers[name] = time.AfterFunc(debounce, func() {
		c.commitEdit(name, store)
	})
}

func (c *connection) commitEdit(name string, store *project.Store) {
	c.mu.Lock()
	content, ok := c.pending[name]
	delete(c.pending, name)
	delete(c.timers, name)
	c.mu.Unlock()
	if !ok {
		return
	}
	store.Update(name, content)
}

// flushEdits commits every pending edit immediately
func (c *connection) flushEdits(store *project.Store) {
	c.mu.Lock()
	pending := c.pending
	c.pending = map[string]string{}
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = map[string]*time.Timer{}
	c.mu.Unlock()

	for name, content := range pending {
		store.Update(name, content)
	}
}
