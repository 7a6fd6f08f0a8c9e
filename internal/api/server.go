// Package api provides the HTTP API for observing and driving a game.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (the player control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/courtchess/internal/engine"
	"github.com/talgya/courtchess/internal/llm"
	"github.com/talgya/courtchess/internal/persistence"
	"github.com/talgya/courtchess/internal/rules"
)

// Server serves one game over HTTP.
type Server struct {
	Game     *engine.Game
	DB       *persistence.DB  // Optional; history endpoints 404 without it.
	Guard    *llm.Guardrail   // Optional; instructions go unchecked without it.
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	startedAt time.Time
	plyCount  int

	// Serializes DecideTurn/ApplyMove: the engine documents that they must
	// not run concurrently on one game, and the HTTP surface is where
	// concurrent callers appear.
	turnMu sync.Mutex
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.startedAt = time.Now()
	s.restorePlyCount()

	// LLM-consuming endpoints get per-IP limits on top of the client's own.
	turnLimiter := NewRateLimiter(30, time.Hour)
	instructionLimiter := NewRateLimiter(60, time.Hour)

	mux := http.NewServeMux()

	// Public observation endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/economy", s.handleEconomy)
	mux.HandleFunc("/api/v1/factions", s.handleFactions)
	mux.HandleFunc("/api/v1/commentary", s.handleCommentary)
	mux.HandleFunc("/api/v1/moves", s.handleMoves)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// Player control plane (POST, bearer token).
	mux.HandleFunc("/api/v1/instruction", s.adminOnly(RateLimitMiddleware(instructionLimiter, s.handleInstruction)))
	mux.HandleFunc("/api/v1/move", s.adminOnly(s.handleMove))
	mux.HandleFunc("/api/v1/turn", s.adminOnly(RateLimitMiddleware(turnLimiter, s.handleTurn)))
	mux.HandleFunc("/api/v1/commentary/clear", s.adminOnly(s.handleCommentaryClear))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, corsMiddleware(mux)); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// restorePlyCount resumes the ply counter from the stored move history, so
// a restarted process extends the same game's record instead of writing
// duplicate ply numbers.
func (s *Server) restorePlyCount() {
	if s.DB == nil {
		return
	}
	n, err := s.DB.MoveCount(s.Game.ID.String())
	if err != nil {
		slog.Error("restore ply count failed", "error", err)
		return
	}
	s.plyCount = n
	if n > 0 {
		slog.Info("resumed move numbering", "plies", n)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list; localhost dev servers are
// always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly gates a handler behind the bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "control endpoints disabled", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Game.Board().Status()
	resp := map[string]any{
		"game_id": s.Game.ID.String(),
		"fen":     s.Game.Board().FEN(),
		"board":   s.Game.Board().Render(),
		"turn":    s.Game.Board().Turn().String(),
		"phase":   s.Game.Phase().String(),
		"status":  st,
		"uptime":  humanize.Time(s.startedAt),
		"moves":   humanize.Comma(int64(s.plyCount)),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEconomy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Game.EconomySnapshot())
}

func (s *Server) handleFactions(w http.ResponseWriter, r *http.Request) {
	pool := s.Game.Pool()
	resp := map[string]any{
		"white": pool.All(rules.White),
		"black": pool.All(rules.Black),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommentary(w http.ResponseWriter, r *http.Request) {
	c := s.Game.Commentary()
	if c == nil {
		writeJSON(w, http.StatusOK, map[string]any{"commentary": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commentary": c})
}

func (s *Server) handleCommentaryClear(w http.ResponseWriter, r *http.Request) {
	s.Game.ClearCommentary()
	writeJSON(w, http.StatusOK, map[string]string{"result": "cleared"})
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "history unavailable", http.StatusNotFound)
		return
	}
	moves, err := s.DB.Moves(s.Game.ID.String())
	if err != nil {
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"moves": moves})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "history unavailable", http.StatusNotFound)
		return
	}
	events, err := s.DB.RecentEvents(s.Game.ID.String(), 100)
	if err != nil {
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type instructionRequest struct {
	Colour string `json:"colour"`
	Piece  string `json:"piece"`
	Text   string `json:"text"`
}

func (s *Server) handleInstruction(w http.ResponseWriter, r *http.Request) {
	var req instructionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	colour, ok := rules.ParseColour(req.Colour)
	if !ok {
		http.Error(w, "unknown colour", http.StatusBadRequest)
		return
	}
	piece, ok := rules.ParsePieceType(req.Piece)
	if !ok {
		http.Error(w, "unknown piece", http.StatusBadRequest)
		return
	}

	// Screen player text before it reaches the advisory prompts.
	if s.Guard != nil {
		verdict, err := s.Guard.Check(r.Context(), req.Text)
		if err != nil {
			slog.Warn("guardrail check failed, allowing instruction", "error", err)
		} else if !verdict.Allowed {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"result": "rejected",
				"reason": verdict.Reasoning,
			})
			return
		}
	}

	if err := s.Game.SetInstruction(colour, piece, req.Text); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "updated"})
}

type moveRequest struct {
	Notation string `json:"notation"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	s.turnMu.Lock()
	ok, msg := s.Game.ApplyMove(r.Context(), req.Notation)
	if ok {
		s.plyCount++
	}
	s.turnMu.Unlock()

	status := http.StatusOK
	if !ok {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]any{"applied": ok, "message": msg})
}

// handleTurn runs a full decide-and-apply cycle, streaming decision events
// to the client as server-sent events.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	var collected []engine.Event
	var chosen string

	for ev := range s.Game.DecideTurn(ctx) {
		collected = append(collected, ev)
		if ev.Kind == engine.EventMove {
			chosen = ev.Text
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	if chosen == "" {
		// Cancelled or game over; nothing to apply.
		return
	}

	applied, msg := s.Game.ApplyMove(ctx, chosen)
	if applied {
		s.plyCount++
		s.persistTurn(chosen, collected)
	}

	final := map[string]any{"type": "applied", "applied": applied, "message": msg, "move": chosen}
	payload, _ := json.Marshal(final)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

func (s *Server) persistTurn(san string, events []engine.Event) {
	if s.DB == nil {
		return
	}
	gameID := s.Game.ID.String()

	var rationale string
	for _, ev := range events {
		if ev.Kind == engine.EventDebate && ev.Faction == "arbiter" {
			rationale = ev.Text
		}
	}

	// Mover colour is the side that is no longer to move.
	mover := s.Game.Board().Turn().Opponent()

	if err := s.DB.RecordMove(gameID, persistence.MoveRecord{
		Ply:       s.plyCount,
		Colour:    mover.String(),
		SAN:       san,
		Rationale: rationale,
	}); err != nil {
		slog.Error("record move failed", "error", err)
	}
	if err := s.DB.RecordEvents(gameID, s.plyCount, events); err != nil {
		slog.Error("record events failed", "error", err)
	}
	if err := s.DB.SaveGameState(s.Game); err != nil {
		slog.Error("save game failed", "error", err)
	}
}
