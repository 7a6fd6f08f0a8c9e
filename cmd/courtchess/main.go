// Command courtchess serves one advisory-chess game over HTTP. Players set
// faction instructions and drive turns through the API; the game resumes
// from the database across restarts.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/google/uuid"

	"github.com/talgya/courtchess/internal/api"
	"github.com/talgya/courtchess/internal/engine"
	"github.com/talgya/courtchess/internal/llm"
	"github.com/talgya/courtchess/internal/persistence"
	"github.com/talgya/courtchess/internal/rules"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Courtchess: a royal court plays chess")

	dbPath := os.Getenv("COURTCHESS_DB")
	if dbPath == "" {
		dbPath = "data/courtchess.db"
	}
	apiPort := 8080
	if portStr := os.Getenv("COURTCHESS_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			apiPort = p
		}
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(dbPath), 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── LLM Client ────────────────────────────────────────────────────
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	llmClient := llm.NewClient(anthropicKey)
	if llmClient.Enabled() {
		slog.Info("LLM client enabled (Haiku)")
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set, advisory calls will fail over to the first legal move")
	}

	// ── Load or Start Game ────────────────────────────────────────────
	game, err := loadOrStartGame(db, llmClient)
	if err != nil {
		slog.Error("failed to initialize game", "error", err)
		os.Exit(1)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("COURTCHESS_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("COURTCHESS_ADMIN_KEY not set, control endpoints disabled")
	}

	apiServer := &api.Server{
		Game:     game,
		DB:       db,
		Guard:    llm.NewGuardrail(llmClient),
		Port:     apiPort,
		AdminKey: adminKey,
	}
	apiServer.Start()

	fmt.Printf("\nThe court is in session. Board:\n%s\n", game.Board().Render())
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", apiPort)
	fmt.Println("Ctrl+C to adjourn.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	if err := db.SaveGameState(game); err != nil {
		slog.Error("final save failed", "error", err)
	}
	fmt.Println("Game adjourned. State saved.")
}

// loadOrStartGame resumes the most recent persisted game, or starts a fresh
// one when the database is empty.
func loadOrStartGame(db *persistence.DB, client *llm.Client) (*engine.Game, error) {
	cfg := engine.Config{
		Advisor:     llm.NewAdvisor(client),
		Arbiter:     llm.NewArbiter(client),
		Commentator: llm.NewCommentator(client),
	}

	rec, err := db.LatestGame()
	if err != nil {
		return nil, err
	}

	if rec == nil {
		slog.Info("no saved game found, starting fresh")
		cfg.Board = rules.NewBoard()
		game := engine.NewGame(cfg)
		if err := db.SaveGameState(game); err != nil {
			return nil, fmt.Errorf("initial save: %w", err)
		}
		return game, nil
	}

	slog.Info("found saved game, resuming", "id", rec.ID, "fen", rec.FEN)

	board, err := rules.NewBoardFEN(rec.FEN)
	if err != nil {
		return nil, fmt.Errorf("restore position: %w", err)
	}
	cfg.Board = board

	game := engine.NewGame(cfg)
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("restore game id: %w", err)
	}
	game.ID = id
	game.Economy().Restore(rec.WhitePoints, rec.BlackPoints)

	if err := db.LoadInstructions(rec.ID, game.Pool()); err != nil {
		slog.Warn("failed to load instructions, using defaults", "error", err)
	}

	slog.Info("game restored",
		"turn", game.Board().Turn(),
		"white_points", rec.WhitePoints,
		"black_points", rec.BlackPoints,
	)
	return game, nil
}
