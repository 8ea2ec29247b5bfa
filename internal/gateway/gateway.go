// Package gateway serves engine state and accepts commands over
// WebSocket. Clients connect to /ws, receive the latest snapshot
// immediately, then get periodic snapshot broadcasts and per-command
// results.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/terrahex/engine/internal/cache"
	"github.com/terrahex/engine/internal/channel"
	"github.com/terrahex/engine/internal/dispatcher"
	"github.com/terrahex/engine/internal/engine"
	"github.com/terrahex/engine/pkg/streaming"
)

const (
	sendChSize     = 64
	writeWait      = 10 * time.Second
	snapshotPeriod = 5 * time.Second
	maxMessageSize = 1 << 20
)

// Config holds the gateway's listen settings.
type Config struct {
	Listen string

	// SnapshotInterval is the broadcast period; zero means the default.
	SnapshotInterval time.Duration
}

// Dependencies holds the gateway's collaborators.
type Dependencies struct {
	Dispatcher *dispatcher.Dispatcher
	Engine     *engine.Service
	Snapshots  *cache.SnapshotCache
	Logger     *slog.Logger
}

// client is one connected WebSocket peer with a single write goroutine
// draining its outbound queue.
type client struct {
	id   int
	conn *ws.Conn
	out  channel.Channel[[]byte]
}

// Server accepts WebSocket clients and bridges them to the dispatcher.
type Server struct {
	cfg  Config
	deps Dependencies

	upgrader ws.Upgrader
	httpSrv  *http.Server

	mu      sync.Mutex
	clients map[int]*client
	closed  bool

	nextID cache.SafeCounter
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewServer creates a gateway server. Start must be called to listen.
func NewServer(cfg Config, deps Dependencies) *Server {
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = snapshotPeriod
	}
	return &Server{
		cfg:  cfg,
		deps: deps,
		upgrader: ws.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Local-only gateway, clients are trusted.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[int]*client),
		done:    make(chan struct{}),
	}
}

// Start binds the listen address and begins accepting clients.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("gateway listen on %s: %w", s.cfg.Listen, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{Handler: mux}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deps.Logger.Error("Gateway server stopped", "error", err)
		}
	}()
	go s.broadcastLoop()

	s.deps.Logger.Info("Gateway listening", "addr", ln.Addr().String())
	return nil
}

// Close stops accepting clients, closes active connections and waits
// for the broadcast loop to finish.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[int]*client)
	s.mu.Unlock()

	close(s.done)

	for _, c := range clients {
		_ = c.conn.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait),
		)
		c.out.Close()
		_ = c.conn.Close()
	}

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// broadcastLoop refreshes the snapshot cache and pushes it to every
// connected client.
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.pushSnapshot()
		}
	}
}

func (s *Server) pushSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	snap, err := s.deps.Engine.Snapshot(ctx)
	if err != nil {
		s.deps.Logger.Warn("Snapshot refresh failed", "error", err)
		return
	}
	s.deps.Snapshots.Set(snap)

	data, err := marshalEnvelope(streaming.TypeSnapshot, snap)
	if err != nil {
		s.deps.Logger.Warn("Snapshot marshal failed", "error", err)
		return
	}
	s.broadcast(data)
}

// broadcast queues data on every client. Slow clients drop the message
// rather than stall the loop.
func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if !c.out.TrySend(data) {
			s.deps.Logger.Warn("Client send queue full, dropping", "client", c.id)
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.nextID.Inc()
	c := &client{
		id:   s.nextID.Value(),
		conn: conn,
		out:  channel.New[[]byte](sendChSize),
	}
	s.clients[c.id] = c
	s.mu.Unlock()

	s.deps.Logger.Info("Client connected", "client", c.id, "remote", conn.RemoteAddr().String())

	// New clients get the cached snapshot without waiting a full
	// broadcast period.
	if snap, ok := s.deps.Snapshots.Get(); ok {
		if data, err := marshalEnvelope(streaming.TypeSnapshot, snap); err == nil {
			c.out.TrySend(data)
		}
	}

	go s.writeLoop(c)
	s.readLoop(c)
}

// writeLoop drains the client's queue onto the socket. It exits when
// the queue is closed or a write fails.
func (s *Server) writeLoop(c *client) {
	for data := range c.out.Receive() {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
			s.deps.Logger.Debug("Client write failed", "client", c.id, "error", err)
			return
		}
	}
}

// readLoop decodes envelopes off the socket and dispatches commands.
func (s *Server) readLoop(c *client) {
	defer s.dropClient(c)

	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				s.deps.Logger.Debug("Client read ended", "client", c.id, "error", err)
			}
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			s.sendError(c, fmt.Sprintf("malformed envelope: %v", err))
			continue
		}
		if env.Type != streaming.TypeCommand {
			s.sendError(c, fmt.Sprintf("unsupported message type %q", env.Type))
			continue
		}

		var cmd streaming.CommandPayload
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			s.sendError(c, fmt.Sprintf("malformed command: %v", err))
			continue
		}
		s.runCommand(c, cmd)
	}
}

// runCommand dispatches one command and queues its result envelope.
func (s *Server) runCommand(c *client, cmd streaming.CommandPayload) {
	reply := streaming.CommandResultPayload{Command: cmd.Command, ID: cmd.ID}

	if !s.deps.Dispatcher.HasHandler(cmd.Command) {
		reply.Error = fmt.Sprintf("unknown command %q", cmd.Command)
	} else {
		result, err := s.deps.Dispatcher.Dispatch(dispatcher.Event{
			Command:   cmd.Command,
			Payload:   cmd.Args,
			Timestamp: time.Now(),
		})
		if err != nil {
			reply.Error = err.Error()
		} else {
			reply.OK = true
			reply.Result = result
		}
	}

	data, err := marshalEnvelope(streaming.TypeCommandResult, reply)
	if err != nil {
		s.deps.Logger.Warn("Command result marshal failed", "command", cmd.Command, "error", err)
		return
	}
	if !c.out.TrySend(data) {
		s.deps.Logger.Warn("Client send queue full, dropping result", "client", c.id, "command", cmd.Command)
	}
}

func (s *Server) sendError(c *client, message string) {
	data, err := marshalEnvelope(streaming.TypeError, streaming.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	c.out.TrySend(data)
}

// dropClient unregisters the client and tears down its connection.
func (s *Server) dropClient(c *client) {
	s.mu.Lock()
	if s.closed {
		// Close already tore everything down.
		s.mu.Unlock()
		return
	}
	_, registered := s.clients[c.id]
	delete(s.clients, c.id)
	s.mu.Unlock()

	if !registered {
		return
	}
	c.out.Close()
	_ = c.conn.Close()
	s.deps.Logger.Info("Client disconnected", "client", c.id)
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type
// and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}
