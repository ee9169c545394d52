// Package server streams search progress and results to browsers and
// tooling: websocket clients on /ws get per-round progress frames and the
// final result, and /api/result serves the latest finished result as JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fwachter/quintus/piece"
	"github.com/fwachter/quintus/search"
)

// Frame is one websocket message.
type Frame struct {
	Type     string        `json:"type"` // "progress" or "result"
	Progress *ProgressBody `json:"progress,omitempty"`
	Result   *ResultBody   `json:"result,omitempty"`
}

// ProgressBody mirrors one search round.
type ProgressBody struct {
	Round       int     `json:"round"`
	BeamSize    int     `json:"beam_size"`
	NCandidates int     `json:"n_candidates"`
	NDeadEnds   int     `json:"n_dead_ends"`
	NTrials     int     `json:"n_trials"`
	NRollouts   int     `json:"n_rollouts"`
	BestReward  float64 `json:"best_reward"`
	HasBest     bool    `json:"has_best"`
}

// ResultBody is a finished search result.
type ResultBody struct {
	Best    LineBody   `json:"best"`
	Runners []LineBody `json:"runners"`
}

// LineBody is one finished counterpoint line.
type LineBody struct {
	Reward float64   `json:"reward"`
	Notes  []NoteRef `json:"notes"`
}

// NoteRef is one placed note in eighths.
type NoteRef struct {
	Note  string `json:"note"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Server broadcasts frames to websocket clients and keeps the latest result
// for plain HTTP consumers.
type Server struct {
	addr     string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool
	latest  *ResultBody
}

type client struct {
	conn *websocket.Conn
	send chan Frame
}

// New creates a server listening on addr once started.
func New(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/result", s.handleResult)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe serves until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("[Server] Listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// PublishProgress broadcasts one search round to all connected clients.
func (s *Server) PublishProgress(p search.Progress) {
	s.broadcast(Frame{
		Type: "progress",
		Progress: &ProgressBody{
			Round:       p.Round,
			BeamSize:    p.BeamSize,
			NCandidates: p.NCandidates,
			NDeadEnds:   p.NDeadEnds,
			NTrials:     p.NTrials,
			NRollouts:   p.NRollouts,
			BestReward:  p.BestReward,
			HasBest:     p.HasBest,
		},
	})
}

// PublishResult stores the result for /api/result and broadcasts it.
func (s *Server) PublishResult(result *search.Result) {
	body := resultBody(result)
	s.mu.Lock()
	s.latest = body
	s.mu.Unlock()
	s.broadcast(Frame{Type: "result", Result: body})
}

func resultBody(result *search.Result) *ResultBody {
	body := &ResultBody{
		Best:    lineBody(result.Best),
		Runners: make([]LineBody, 0, len(result.Runners)),
	}
	for _, runner := range result.Runners {
		body.Runners = append(body.Runners, lineBody(runner))
	}
	return body
}

func lineBody(record search.Record) LineBody {
	line := LineBody{
		Reward: record.Reward,
		Notes:  make([]NoteRef, 0, len(record.Piece.Counterpoint)),
	}
	for _, el := range record.Piece.Counterpoint {
		line.Notes = append(line.Notes, noteRef(el))
	}
	return line
}

func noteRef(el piece.LineElement) NoteRef {
	return NoteRef{
		Note:  el.Note,
		Start: el.StartTimeInEighths,
		End:   el.EndTimeInEighths,
	}
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest == nil {
		http.Error(w, "no result yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(latest); err != nil {
		log.Printf("[Server] Failed to encode result: %v", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] Upgrade failed: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Frame, 64),
	}
	s.mu.Lock()
	s.clients[c] = true
	latest := s.latest
	s.mu.Unlock()

	// Late joiners still get the current result.
	if latest != nil {
		c.send <- Frame{Type: "result", Result: latest}
	}

	go s.writeLoop(c)
	go s.readLoop(c)
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(frame); err != nil {
			s.drop(c)
			return
		}
	}
}

// readLoop discards client messages and detects disconnects.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) broadcast(frame Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- frame:
		default:
			// Slow client: drop it rather than block the search.
			delete(s.clients, c)
			close(c.send)
		}
	}
}
