package monitor

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openipu/ipu-emulator/ipu"
)

// Server is the optional HTTP+WebSocket live-state server (SPEC_FULL.md
// DOMAIN STACK). Grounded on api/server.go: a plain http.ServeMux, a
// localhost-only CORS policy, and a health endpoint, plus this package's own
// WebSocket event stream and a point-in-time snapshot endpoint.
type Server struct {
	machine *ipu.IPU
	hub     *Hub
	mux     *http.ServeMux
	server  *http.Server
	addr    string
}

// NewServer wires a Server around machine, listening on addr (host:port).
func NewServer(machine *ipu.IPU, addr string) *Server {
	s := &Server{
		machine: machine,
		hub:     NewHub(),
		mux:     http.NewServeMux(),
		addr:    addr,
	}
	s.registerRoutes()
	return s
}

// Hub returns the server's broadcast hub, so the run loop can push per-cycle
// events into it without importing net/http.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/state", s.handleState)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
}

// Handler returns the HTTP handler with CORS middleware applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start runs the HTTP server; it blocks until the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("monitor: listening on http://%s", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and disconnects every WebSocket
// client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isAllowedOrigin restricts CORS to localhost origins (the monitor is a
// local debugging aid, not a public API).
func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "subscribers": s.hub.SubscriptionCount()})
}

// handleState returns a one-shot snapshot of the live machine state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, Snapshot(s.machine))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("monitor: encoding response: %v", err)
	}
}

// Snapshot captures the subset of IPU state worth broadcasting: PC, cycle
// count, the LR/CR banks, and the active dtype. XMEM and the 608-byte
// accumulator are intentionally left out of the wire snapshot -- too large
// to broadcast every cycle; /state is meant for register/PC-level
// observability, not a full memory dump (use loader.DumpXMemFile for that).
func Snapshot(machine *ipu.IPU) map[string]any {
	lr := make([]uint32, ipu.LRRegs)
	copy(lr, machine.Regs.LR[:])
	cr := make([]uint32, ipu.CRRegs)
	copy(cr, machine.Regs.CR[:])

	dtype := "invalid"
	if d, err := machine.Regs.Dtype(); err == nil {
		dtype = d.String()
	}

	return map[string]any{
		"pc":     machine.PC,
		"cycles": machine.Cycles,
		"halted": machine.Halted(),
		"lr":     lr,
		"cr":     cr,
		"dtype":  dtype,
	}
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return isAllowedOrigin(r.Header.Get("Origin"))
	},
}

// client is one connected WebSocket subscriber. Grounded on
// api/websocket.go's WebSocketClient: a read pump that only processes
// subscription-filter requests, and a write pump that forwards hub events
// plus periodic pings.
type client struct {
	conn *websocket.Conn
	send chan Event
	sub  *subscription
	hub  *Hub
	mu   sync.Mutex
}

type subscribeRequest struct {
	Events []string `json:"events"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("monitor: websocket upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, 256), hub: s.hub}
	c.sub = s.hub.subscribe(nil)
	go c.forward()
	go c.writePump()
	c.readPump()
}

// forward relays events from the hub subscription to the client's send
// channel, dropping events if the client is too slow to keep up.
func (c *client) forward() {
	for event := range c.sub.channel {
		select {
		case c.send <- event:
		default:
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unsubscribe(c.sub)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("monitor: websocket error: %v", err)
			}
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		c.applyFilter(req.Events)
	}
}

// applyFilter swaps the client's subscription for one filtered to the
// requested event types.
func (c *client) applyFilter(events []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hub.unsubscribe(c.sub)
	types := make([]EventType, 0, len(events))
	for _, e := range events {
		types = append(types, EventType(e))
	}
	c.sub = c.hub.subscribe(types)
	go c.forward()
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
