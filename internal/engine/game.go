// Package engine orchestrates one chess turn end to end: it collects faction
// suggestions, arbitrates a move, validates and applies it, updates the
// scoring economy, and gathers post-move commentary.
package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/courtchess/internal/economy"
	"github.com/talgya/courtchess/internal/factions"
	"github.com/talgya/courtchess/internal/rules"
)

// Phase is the engine's position in the turn state machine.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseCollectingSuggestions
	PhaseArbitrating
	PhaseValidating
	PhaseApplying
	PhaseCommentary
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollectingSuggestions:
		return "collecting_suggestions"
	case PhaseArbitrating:
		return "arbitrating"
	case PhaseValidating:
		return "validating"
	case PhaseApplying:
		return "applying"
	case PhaseCommentary:
		return "commentary"
	case PhaseGameOver:
		return "game_over"
	}
	return "unknown"
}

// Config wires a Game's collaborators.
type Config struct {
	Board       rules.Board
	Advisor     AdvisoryCaller
	Arbiter     ArbiterCaller
	Commentator CommentaryCaller

	// Seed instructions for each side's factions.
	WhiteInstruction string
	BlackInstruction string
}

// Game is one independent game instance: board, faction pool, economy, and
// callers. Games share no state with each other.
//
// DecideTurn and ApplyMove must not run concurrently against the same Game;
// a turn is one cooperative task and the engine takes no internal lock.
type Game struct {
	ID uuid.UUID

	board       rules.Board
	pool        *factions.Pool
	econ        *economy.Tracker
	advisor     AdvisoryCaller
	arbiter     ArbiterCaller
	commentator CommentaryCaller

	phase      Phase
	commentary *Commentary
}

// NewGame creates a game over the given board with all factions active.
func NewGame(cfg Config) *Game {
	g := &Game{
		ID:          uuid.New(),
		board:       cfg.Board,
		pool:        factions.NewPool(cfg.WhiteInstruction, cfg.BlackInstruction),
		econ:        economy.NewTracker(),
		advisor:     cfg.Advisor,
		arbiter:     cfg.Arbiter,
		commentator: cfg.Commentator,
		phase:       PhaseIdle,
	}
	g.pool.RefreshStatus(g.board)
	slog.Info("game initialized", "id", g.ID, "fen", g.board.FEN())
	return g
}

// Board exposes the underlying board (read-only use expected).
func (g *Game) Board() rules.Board { return g.board }

// Pool exposes the faction pool.
func (g *Game) Pool() *factions.Pool { return g.pool }

// Economy exposes the tracker, for persistence restore at initialization.
func (g *Game) Economy() *economy.Tracker { return g.econ }

// Phase returns the engine's current phase.
func (g *Game) Phase() Phase { return g.phase }

// EconomySnapshot returns current health, points, and evaluation.
func (g *Game) EconomySnapshot() economy.Snapshot {
	return g.econ.Snapshot(g.board)
}

// Instruction returns a faction's instruction text.
func (g *Game) Instruction(c rules.Colour, p rules.PieceType) (string, error) {
	return g.pool.Instruction(c, p)
}

// SetInstruction replaces a faction's instruction text.
func (g *Game) SetInstruction(c rules.Colour, p rules.PieceType, text string) error {
	return g.pool.SetInstruction(c, p, text)
}

// Commentary returns the stored post-move commentary, or nil when unset.
// The engine never expires it; consumers clear it explicitly.
func (g *Game) Commentary() *Commentary { return g.commentary }

// ClearCommentary discards the stored commentary.
func (g *Game) ClearCommentary() { g.commentary = nil }

// view snapshots the board for callers.
func (g *Game) view() BoardView {
	return BoardView{FEN: g.board.FEN(), Grid: g.board.Render()}
}

// ApplyMove pushes a decided move onto the board and settles the turn:
// turn and capture points for the mover, faction status refresh, and a
// best-effort commentary call. A rejected move changes nothing.
func (g *Game) ApplyMove(ctx context.Context, san string) (bool, string) {
	if g.board.Status().GameOver {
		g.phase = PhaseGameOver
		return false, "game is already over"
	}

	g.phase = PhaseApplying
	mover := g.board.Turn()
	preWhite, preBlack := g.econ.Health(g.board)

	if err := g.board.Apply(san); err != nil {
		slog.Warn("move rejected", "san", san, "error", err)
		g.phase = PhaseIdle
		return false, err.Error()
	}

	// Turn bonus, then capture bonus from the opponent's health drop.
	g.econ.AwardTurn(mover)
	postWhite, postBlack := g.econ.Health(g.board)
	switch mover {
	case rules.White:
		g.econ.AwardCapture(rules.White, preBlack-postBlack)
	case rules.Black:
		g.econ.AwardCapture(rules.Black, preWhite-postWhite)
	}

	g.pool.RefreshStatus(g.board)
	slog.Info("move applied", "san", san, "mover", mover, "fen", g.board.FEN())

	// Commentary is flavor: a failure leaves it empty and never blocks the turn.
	g.phase = PhaseCommentary
	g.commentary = nil
	if g.commentator != nil {
		if c, err := g.commentator.Comment(ctx, g.view()); err == nil {
			g.commentary = &c
		} else {
			slog.Warn("commentary call failed", "error", err)
		}
	}

	if g.board.Status().GameOver {
		g.phase = PhaseGameOver
	} else {
		g.phase = PhaseIdle
	}
	return true, "move applied"
}
