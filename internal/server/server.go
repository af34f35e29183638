package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/time/rate"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// ClientMessage is sent by WebSocket clients.
type ClientMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type errorData struct {
	Message string `json:"message"`
}

// publishRequest covers both accepted payload shapes: price updates and screen alerts.
type publishRequest struct {
	Type        string          `json:"type"`
	ItemID      string          `json:"itemId"`
	Region      json.RawMessage `json:"region"`
	Prices      json.RawMessage `json:"prices"`
	Opportunity json.RawMessage `json:"opportunity"`
}

type priceUpdate struct {
	ItemID string          `json:"itemId"`
	Region json.RawMessage `json:"region,omitempty"`
	Prices json.RawMessage `json:"prices"`
	TS     int64           `json:"ts"`
}

type client struct {
	remote  string
	send    chan Event
	limiter *rate.Limiter

	mu    sync.Mutex
	rooms map[string]struct{}
}

func (c *client) in(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[room]
	return ok
}

func (c *client) join(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[room]; ok {
		return false
	}
	c.rooms[room] = struct{}{}
	return true
}

func (c *client) leave(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

// enqueue never blocks; a client that cannot keep up loses events.
func (c *client) enqueue(e Event) bool {
	select {
	case c.send <- e:
		return true
	default:
		return false
	}
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	history *History
	now     func() time.Time

	mu      sync.RWMutex
	clients map[*client]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a relay keeping the last historySize broadcasts for replay.
func New(historySize int) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		history: NewHistory(historySize),
		now:     time.Now,
		clients: make(map[*client]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Close disconnects every WebSocket client. http.Server.Shutdown does not
// reach hijacked connections.
func (s *Server) Close() { s.cancel() }

// History returns the replay buffer.
func (s *Server) History() *History { return s.history }

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("POST /publish", s.handlePublish)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Ingest validates one published payload and broadcasts the events it
// produces. Malformed payloads return PARSE_FAILED.
func (s *Server) Ingest(ctx context.Context, body []byte) error {
	var req publishRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.Wrap(err, apperrors.CodeParseFailed, "decode payload")
	}

	if req.Type == EventScreenAlert {
		s.Broadcast(Event{Type: EventScreenAlert, Data: json.RawMessage(body)})
		trace.Logger(ctx).Debug("screen alert relayed")
		return nil
	}

	if req.ItemID == "" || isNull(req.Prices) {
		return apperrors.New(apperrors.CodeParseFailed, "missing itemId or prices")
	}

	update, err := json.Marshal(priceUpdate{
		ItemID: req.ItemID,
		Region: req.Region,
		Prices: req.Prices,
		TS:     s.now().UnixMilli(),
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "encode price update")
	}

	s.Broadcast(Event{Type: EventPriceUpdate, Room: ItemRoomPrefix + req.ItemID, Data: update})
	s.Broadcast(Event{Type: EventPriceUpdateGlobal, Data: update})
	if !isNull(req.Opportunity) {
		s.Broadcast(Event{Type: EventFlipOpportunity, Data: req.Opportunity})
	}

	trace.Logger(ctx).Debug("price update relayed", "item", req.ItemID, "opportunity", !isNull(req.Opportunity))
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Broadcast records e in the history and queues it for every client that
// should see it. Room events reach only clients that joined the room.
func (s *Server) Broadcast(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.history.Add(e)
	for c := range s.clients {
		if e.Room != "" && !c.in(e.Room) {
			continue
		}
		if !c.enqueue(e) {
			slog.Warn("client queue full, event dropped", "remote", c.remote, "type", e.Type)
		}
	}
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	log := trace.Logger(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPublishBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body"})
		return
	}

	if err := s.Ingest(r.Context(), body); err != nil {
		log.Warn("publish rejected", "error", err)
		status := http.StatusBadRequest
		if !apperrors.IsCode(err, apperrors.CodeParseFailed) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, map[string]string{"error": errorMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.history.Recent())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": s.Clients()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// register adds c and queues the global history for it under the same lock
// Broadcast takes, so no event is both replayed and delivered live.
func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.history.Recent() {
		if e.Room == "" {
			c.enqueue(e)
		}
	}
	s.clients[c] = struct{}{}
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

// joinRoom adds c to room and replays the room's history to it.
func (s *Server) joinRoom(c *client, room string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !c.join(room) {
		return
	}
	for _, e := range s.history.ForRoom(room) {
		c.enqueue(e)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	c := &client{
		remote:  r.RemoteAddr,
		send:    make(chan Event, s.history.maxSize+ClientSendBuffer),
		limiter: rate.NewLimiter(rate.Every(RateLimitWindow/RateLimitMessages), RateLimitMessages),
		rooms:   make(map[string]struct{}),
	}
	s.register(c)
	defer s.unregister(c)

	log := trace.Logger(ctx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	go s.writeLoop(ctx, cancel, conn, c)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !c.limiter.Allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			payload, _ := json.Marshal(errorData{Message: "rate limit exceeded"})
			c.enqueue(Event{Type: EventError, Data: payload})
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "join":
			if msg.Room == "" {
				continue
			}
			s.joinRoom(c, msg.Room)
			log.Debug("joined room", "room", msg.Room)
		case "leave":
			c.leave(msg.Room)
		default:
			log.Debug("unknown client message", "type", msg.Type)
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, c *client) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-c.send:
			wctx, wcancel := context.WithTimeout(ctx, WriteTimeout)
			err := wsjson.Write(wctx, conn, e)
			wcancel()
			if err != nil {
				slog.Debug("websocket write error", "remote", c.remote, "error", err)
				return
			}
		}
	}
}
