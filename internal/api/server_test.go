package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/courtchess/internal/engine"
	"github.com/talgya/courtchess/internal/persistence"
	"github.com/talgya/courtchess/internal/rules"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	game := engine.NewGame(engine.Config{Board: rules.NewBoard()})
	return &Server{Game: game, AdminKey: "secret", startedAt: time.Now()}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	s.handleStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "white", body["turn"])
	assert.Equal(t, "idle", body["phase"])
	assert.Contains(t, body["fen"], "rnbqkbnr/pppppppp")
	assert.NotEmpty(t, body["board"])
}

func TestEconomyEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/economy", nil)
	rec := httptest.NewRecorder()
	s.handleEconomy(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	health := body["health"].(map[string]any)
	assert.Equal(t, float64(49), health["white"])
	assert.Equal(t, float64(49), health["black"])
}

func TestFactionsEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/factions", nil)
	rec := httptest.NewRecorder()
	s.handleFactions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	white := body["white"].([]any)
	assert.Len(t, white, 5)
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)
	handler := s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/move", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/move", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("correct token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/move", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("GET rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/move", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("no key configured", func(t *testing.T) {
		s2 := newTestServer(t)
		s2.AdminKey = ""
		h := s2.adminOnly(func(w http.ResponseWriter, r *http.Request) {})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/move", nil)
		rec := httptest.NewRecorder()
		h(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMoveEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("legal move applied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/move",
			strings.NewReader(`{"notation":"e4"}`))
		rec := httptest.NewRecorder()
		s.handleMove(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["applied"])
		assert.Equal(t, rules.Black, s.Game.Board().Turn())
	})

	t.Run("illegal move rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/move",
			strings.NewReader(`{"notation":"e4"}`))
		rec := httptest.NewRecorder()
		s.handleMove(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["applied"])
	})

	t.Run("bad body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/move",
			strings.NewReader("not json"))
		rec := httptest.NewRecorder()
		s.handleMove(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInstructionEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("update accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/instruction",
			strings.NewReader(`{"colour":"white","piece":"knight","text":"seek outposts"}`))
		rec := httptest.NewRecorder()
		s.handleInstruction(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		text, err := s.Game.Instruction(rules.White, rules.Knight)
		require.NoError(t, err)
		assert.Equal(t, "seek outposts", text)
	})

	t.Run("king rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/instruction",
			strings.NewReader(`{"colour":"white","piece":"king","text":"hide"}`))
		rec := httptest.NewRecorder()
		s.handleInstruction(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown colour rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/instruction",
			strings.NewReader(`{"colour":"green","piece":"pawn","text":"x"}`))
		rec := httptest.NewRecorder()
		s.handleInstruction(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCommentaryEndpoints(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/commentary", nil)
	rec := httptest.NewRecorder()
	s.handleCommentary(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Nil(t, body["commentary"])

	rec = httptest.NewRecorder()
	s.handleCommentaryClear(rec, httptest.NewRequest(http.MethodPost, "/api/v1/commentary/clear", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestPlyCountResumesFromHistory(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "courtchess.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := newTestServer(t)
	s.DB = db
	gameID := s.Game.ID.String()

	// Two plies recorded before a restart.
	require.NoError(t, db.RecordMove(gameID, persistence.MoveRecord{Ply: 1, Colour: "white", SAN: "e4"}))
	require.NoError(t, db.RecordMove(gameID, persistence.MoveRecord{Ply: 2, Colour: "black", SAN: "e5"}))

	s.restorePlyCount()
	assert.Equal(t, 2, s.plyCount)

	// The next persisted turn extends the history instead of reusing ply 1.
	require.NoError(t, s.Game.Board().Apply("e4"))
	s.plyCount++
	s.persistTurn("e4", nil)

	moves, err := db.Moves(gameID)
	require.NoError(t, err)
	require.Len(t, moves, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{moves[0].Ply, moves[1].Ply, moves[2].Ply})
	assert.Equal(t, "e4", moves[2].SAN)
	assert.Equal(t, "white", moves[2].Colour)
}

func TestHistoryEndpointsWithoutDB(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleMoves(rec, httptest.NewRequest(http.MethodGet, "/api/v1/moves", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.handleEvents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
