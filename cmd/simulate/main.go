// Command simulate runs an autonomous self-play game. Both courts are
// advised by Claude Haiku, and a per-side strategist revises one faction
// decree each turn based on how the game is going.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

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

	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	maxTurns := envIntOrDefault("SIMULATE_MAX_TURNS", 120)
	dbPath := os.Getenv("COURTCHESS_DB")

	llmClient := llm.NewClient(anthropicKey)
	if !llmClient.Enabled() {
		slog.Warn("ANTHROPIC_API_KEY not set, every move falls back to the first legal move")
	}

	var db *persistence.DB
	if dbPath != "" {
		var err error
		db, err = persistence.Open(dbPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	game := engine.NewGame(engine.Config{
		Board:            rules.NewBoard(),
		Advisor:          llm.NewAdvisor(llmClient),
		Arbiter:          llm.NewArbiter(llmClient),
		Commentator:      llm.NewCommentator(llmClient),
		WhiteInstruction: "Play solid, classical chess. Control the center.",
		BlackInstruction: "Play sharp, unbalancing chess. Seek counterplay.",
	})

	strategists := map[rules.Colour]*llm.Strategist{
		rules.White: llm.NewStrategist(llmClient, rules.White),
		rules.Black: llm.NewStrategist(llmClient, rules.Black),
	}
	guard := llm.NewGuardrail(llmClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, stopping self-play", "signal", sig)
		cancel()
	}()

	fmt.Printf("Self-play begins (up to %d turns).\n%s\n", maxTurns, game.Board().Render())

	ply := 0
	for turn := 1; turn <= maxTurns; turn++ {
		if ctx.Err() != nil {
			break
		}
		if game.Board().Status().GameOver {
			break
		}

		mover := game.Board().Turn()
		reviseInstruction(ctx, game, strategists[mover], guard, mover)

		san, events := runDecision(ctx, game)
		if san == "" {
			// Cancelled mid-decision; no move to apply.
			break
		}

		applied, msg := game.ApplyMove(ctx, san)
		if !applied {
			slog.Error("self-play move rejected", "san", san, "message", msg)
			break
		}
		ply++

		fmt.Printf("\nTurn %d: %s plays %s\n%s\n", turn, mover, san, game.Board().Render())
		if c := game.Commentary(); c != nil {
			fmt.Printf("Jester: %s (%s)\n", c.Quip, c.Judgement)
		}

		if db != nil {
			persistTurn(db, game, ply, mover, san, events)
		}
	}

	report(game)
}

// runDecision drains one decision stream, printing the debate as it arrives.
func runDecision(ctx context.Context, game *engine.Game) (string, []engine.Event) {
	var san string
	var collected []engine.Event
	for ev := range game.DecideTurn(ctx) {
		collected = append(collected, ev)
		switch ev.Kind {
		case engine.EventDebate:
			fmt.Printf("  [%s] %s\n", ev.Faction, ev.Text)
		case engine.EventMove:
			san = ev.Text
		}
	}
	return san, collected
}

// reviseInstruction lets the mover's strategist adjust one faction decree.
// Failures are logged and skipped; self-play never stalls on strategy.
func reviseInstruction(ctx context.Context, game *engine.Game, strategist *llm.Strategist, guard *llm.Guardrail, mover rules.Colour) {
	view := engine.BoardView{FEN: game.Board().FEN(), Grid: game.Board().Render()}
	update, err := strategist.ProposeUpdate(ctx, view, game.Pool().Active(mover))
	if err != nil {
		slog.Warn("strategist call failed", "colour", mover, "error", err)
		return
	}
	if update == nil {
		return
	}

	verdict, err := guard.Check(ctx, update.Instruction)
	if err != nil {
		slog.Warn("guardrail check failed, skipping update", "error", err)
		return
	}
	if !verdict.Allowed {
		slog.Warn("strategist update rejected", "reason", verdict.Reasoning)
		return
	}

	if err := game.SetInstruction(mover, update.Piece, update.Instruction); err != nil {
		slog.Warn("instruction update rejected", "error", err)
		return
	}
	slog.Info("instruction revised",
		"colour", mover,
		"piece", update.Piece,
		"reasoning", update.Reasoning,
	)
}

func persistTurn(db *persistence.DB, game *engine.Game, ply int, mover rules.Colour, san string, events []engine.Event) {
	var rationale string
	for _, ev := range events {
		if ev.Kind == engine.EventDebate && ev.Faction == "arbiter" {
			rationale = ev.Text
		}
	}
	if err := db.RecordMove(game.ID.String(), persistence.MoveRecord{
		Ply:       ply,
		Colour:    mover.String(),
		SAN:       san,
		Rationale: rationale,
	}); err != nil {
		slog.Error("record move failed", "error", err)
	}
	if err := db.RecordEvents(game.ID.String(), ply, events); err != nil {
		slog.Error("record events failed", "error", err)
	}
	if err := db.SaveGameState(game); err != nil {
		slog.Error("save game failed", "error", err)
	}
}

// report prints the final standing of the game.
func report(game *engine.Game) {
	st := game.Board().Status()
	snap := game.EconomySnapshot()

	fmt.Println("\n──── Final report ────")
	fmt.Printf("Result: %s\n", st.Result)
	switch {
	case st.Checkmate && st.Winner != nil:
		fmt.Printf("Checkmate. The %s court prevails.\n", st.Winner)
	case st.Stalemate:
		fmt.Println("Stalemate. Both courts retire.")
	case st.InsufficientMaterial:
		fmt.Println("Drawn: neither court can deliver mate.")
	case st.MoveLimitDraw:
		fmt.Println("Drawn by the seventy-five move rule.")
	case st.RepetitionDraw:
		fmt.Println("Drawn by fivefold repetition.")
	default:
		fmt.Println("The game stands unfinished.")
	}
	fmt.Printf("Health: white %d, black %d\n", snap.Health["white"], snap.Health["black"])
	fmt.Printf("Points: white %d, black %d\n", snap.Points["white"], snap.Points["black"])
	fmt.Printf("Evaluation: %+d\n", snap.Evaluation)
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
