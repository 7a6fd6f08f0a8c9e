package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/courtchess/internal/engine"
	"github.com/talgya/courtchess/internal/factions"
	"github.com/talgya/courtchess/internal/rules"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "courtchess.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadGame(t *testing.T) {
	db := openTestDB(t)

	latest, err := db.LatestGame()
	require.NoError(t, err)
	assert.Nil(t, latest, "empty database has no game")

	rec := GameRecord{
		ID:          "game-1",
		FEN:         "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		WhitePoints: 1,
		BlackPoints: 0,
	}
	require.NoError(t, db.SaveGame(rec))

	latest, err = db.LatestGame()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, rec, *latest)

	// Upsert overwrites position and points.
	rec.FEN = "updated-fen"
	rec.WhitePoints = 7
	require.NoError(t, db.SaveGame(rec))
	latest, err = db.LatestGame()
	require.NoError(t, err)
	assert.Equal(t, "updated-fen", latest.FEN)
	assert.Equal(t, 7, latest.WhitePoints)
}

func TestInstructionsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	pool := factions.NewPool("hold the centre", "")
	require.NoError(t, pool.SetInstruction(rules.Black, rules.Knight, "seek outposts"))
	require.NoError(t, db.SaveInstructions("game-1", pool))

	restored := factions.NewPool("", "")
	require.NoError(t, db.LoadInstructions("game-1", restored))

	text, err := restored.Instruction(rules.White, rules.Pawn)
	require.NoError(t, err)
	assert.Equal(t, "hold the centre", text)

	text, err = restored.Instruction(rules.Black, rules.Knight)
	require.NoError(t, err)
	assert.Equal(t, "seek outposts", text)
}

func TestMoveHistory(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordMove("game-1", MoveRecord{Ply: 1, Colour: "white", SAN: "e4", Rationale: "centre"}))
	require.NoError(t, db.RecordMove("game-1", MoveRecord{Ply: 2, Colour: "black", SAN: "e5"}))
	require.NoError(t, db.RecordMove("game-2", MoveRecord{Ply: 1, Colour: "white", SAN: "d4"}))

	moves, err := db.Moves("game-1")
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "e4", moves[0].SAN)
	assert.Equal(t, "e5", moves[1].SAN)
	assert.Equal(t, "centre", moves[0].Rationale)
}

func TestMoveCount(t *testing.T) {
	db := openTestDB(t)

	n, err := db.MoveCount("game-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "no moves yet")

	require.NoError(t, db.RecordMove("game-1", MoveRecord{Ply: 1, Colour: "white", SAN: "e4"}))
	require.NoError(t, db.RecordMove("game-1", MoveRecord{Ply: 2, Colour: "black", SAN: "e5"}))
	require.NoError(t, db.RecordMove("game-2", MoveRecord{Ply: 1, Colour: "white", SAN: "d4"}))

	n, err = db.MoveCount("game-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A resumed process continues numbering where the history left off.
	require.NoError(t, db.RecordMove("game-1", MoveRecord{Ply: n + 1, Colour: "white", SAN: "Nf3"}))
	moves, err := db.Moves("game-1")
	require.NoError(t, err)
	require.Len(t, moves, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{moves[0].Ply, moves[1].Ply, moves[2].Ply})
}

func TestEventLog(t *testing.T) {
	db := openTestDB(t)

	events := []engine.Event{
		{Kind: engine.EventStatus, Text: "deciding move for white"},
		{Kind: engine.EventDebate, Faction: "white pawn", Text: "advance!"},
		{Kind: engine.EventMove, Text: "e4"},
	}
	require.NoError(t, db.RecordEvents("game-1", 1, events))

	recent, err := db.RecentEvents("game-1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// Newest first.
	assert.Equal(t, "move", recent[0].Kind)
	assert.Equal(t, "e4", recent[0].Text)
	assert.Equal(t, "white pawn", recent[1].Faction)
}
