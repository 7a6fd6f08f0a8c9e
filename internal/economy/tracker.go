// Package economy provides the scoring economy of the game: health derived
// from live board material, and a cumulative per-side points tally.
package economy

import (
	"log/slog"

	"github.com/talgya/courtchess/internal/rules"
)

// EvaluationRange clamps the health-difference evaluation to ±10.
const EvaluationRange = 10

// Snapshot is a point-in-time view of the economy for callers and the API.
type Snapshot struct {
	Health     map[string]int `json:"health"`
	Points     map[string]int `json:"points"`
	Evaluation int            `json:"evaluation"` // positive = white ahead
}

// Tracker accumulates points. Health is never stored: it is always recomputed
// from the board, so it cannot drift from board truth.
type Tracker struct {
	points map[rules.Colour]int
}

// NewTracker starts both sides at zero points.
func NewTracker() *Tracker {
	return &Tracker{points: map[rules.Colour]int{
		rules.White: 0,
		rules.Black: 0,
	}}
}

// Restore overwrites the tallies with persisted values. Only valid at game
// initialization; points never decrease within a running game.
func (t *Tracker) Restore(white, black int) {
	t.points[rules.White] = white
	t.points[rules.Black] = black
}

// Health returns the material totals for both sides, recomputed from the board.
func (t *Tracker) Health(board rules.Board) (white, black int) {
	return board.MaterialSum(rules.White), board.MaterialSum(rules.Black)
}

// Points returns the colour's cumulative tally.
func (t *Tracker) Points(c rules.Colour) int {
	return t.points[c]
}

// AwardTurn grants the mover the flat bonus for completing a legal move.
func (t *Tracker) AwardTurn(mover rules.Colour) {
	t.points[mover]++
}

// AwardCapture grants the mover the material value it removed from the
// opponent. Non-positive deltas award nothing.
func (t *Tracker) AwardCapture(mover rules.Colour, delta int) {
	if delta <= 0 {
		return
	}
	t.points[mover] += delta
	slog.Info("capture bonus awarded", "mover", mover, "value", delta)
}

// Evaluate returns the white-minus-black health difference clamped to
// [-EvaluationRange, EvaluationRange].
func (t *Tracker) Evaluate(board rules.Board) int {
	white, black := t.Health(board)
	eval := white - black
	if eval > EvaluationRange {
		eval = EvaluationRange
	}
	if eval < -EvaluationRange {
		eval = -EvaluationRange
	}
	return eval
}

// Snapshot captures health, points, and evaluation for the given board.
func (t *Tracker) Snapshot(board rules.Board) Snapshot {
	white, black := t.Health(board)
	return Snapshot{
		Health: map[string]int{
			rules.White.String(): white,
			rules.Black.String(): black,
		},
		Points: map[string]int{
			rules.White.String(): t.points[rules.White],
			rules.Black.String(): t.points[rules.Black],
		},
		Evaluation: t.Evaluate(board),
	}
}
