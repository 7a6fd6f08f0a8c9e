package engine

import (
	"context"

	"github.com/talgya/courtchess/internal/factions"
)

// BoardView is the board snapshot handed to language-model callers.
type BoardView struct {
	FEN  string
	Grid string // 2D ASCII rendering
}

// Decision is the arbiter's chosen move plus its stated reasoning.
type Decision struct {
	Move      string `json:"move"`
	Rationale string `json:"reasoning"`
}

// Judgement grades the most recent move.
type Judgement string

const (
	JudgementBlunder    Judgement = "blunder"
	JudgementMistake    Judgement = "mistake"
	JudgementInaccuracy Judgement = "inaccuracy"
	JudgementGood       Judgement = "good"
	JudgementBrilliant  Judgement = "brilliant"
)

// ValidJudgement reports whether j is one of the five known grades.
func ValidJudgement(j Judgement) bool {
	switch j {
	case JudgementBlunder, JudgementMistake, JudgementInaccuracy,
		JudgementGood, JudgementBrilliant:
		return true
	}
	return false
}

// Commentary is the post-move quip and grade.
type Commentary struct {
	Quip      string    `json:"quip"`
	Judgement Judgement `json:"judgement"`
}

// AdvisoryCaller produces one faction's move suggestion. Calls are long-latency
// I/O and may fail; failures degrade to inline error text in the debate.
type AdvisoryCaller interface {
	Suggest(ctx context.Context, faction *factions.Faction, view BoardView, legalMoves []string) (string, error)
}

// ArbiterCaller selects the final move from the full debate transcript.
type ArbiterCaller interface {
	Decide(ctx context.Context, transcript string, view BoardView, legalMoves []string) (Decision, error)
}

// CommentaryCaller grades the position after a move. Best-effort only.
type CommentaryCaller interface {
	Comment(ctx context.Context, view BoardView) (Commentary, error)
}
