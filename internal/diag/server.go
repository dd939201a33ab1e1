// Package diag exposes the journal event stream to debugging clients over
// WebSocket. Purely observational: a missing or slow client never affects
// core behavior; slow subscribers are dropped, not waited on.
package diag

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HueByte/vshorde/internal/journal"
)

const (
	clientBuffer = 256
	writeTimeout = 5 * time.Second
)

// Server broadcasts journal events to connected WebSocket clients.
// Implements journal.Sink.
type Server struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	out  chan []byte
}

// NewServer creates an observer broadcast hub.
func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 32 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true }, // local debugging tool
		},
		clients: make(map[*client]struct{}),
	}
}

// Record implements journal.Sink: serializes the event once and fans it
// out, dropping clients whose buffers are full.
func (s *Server) Record(ev journal.Event) {
	s.mu.Lock()
	if len(s.clients) == 0 {
		s.mu.Unlock()
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		s.mu.Unlock()
		return
	}
	var stale []*client
	for c := range s.clients {
		select {
		case c.out <- payload:
		default:
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		delete(s.clients, c)
		close(c.out)
	}
	s.mu.Unlock()

	for _, c := range stale {
		slog.Debug("observer client dropped (slow consumer)", "addr", c.conn.RemoteAddr())
		_ = c.conn.Close()
	}
}

// Handler returns the HTTP handler that upgrades to WebSocket and streams
// events until the client disconnects.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}

		c := &client{conn: conn, out: make(chan []byte, clientBuffer)}
		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()
		slog.Info("observer client connected", "addr", conn.RemoteAddr())

		go s.writeLoop(c)

		// Drain reads to detect disconnect; inbound payloads are ignored.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		s.detach(c)
	}
}

func (s *Server) writeLoop(c *client) {
	for payload := range c.out {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
	_ = c.conn.Close()
}

func (s *Server) detach(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.out)
	}
	s.mu.Unlock()
	_ = c.conn.Close()
	slog.Info("observer client disconnected", "addr", c.conn.RemoteAddr())
}

// ListenAndServe runs the observer HTTP server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, bind string) error {
	mux := http.NewServeMux()
	mux.Handle("/events", s.Handler())

	srv := &http.Server{Addr: bind, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("observer listening", "bind", bind)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
