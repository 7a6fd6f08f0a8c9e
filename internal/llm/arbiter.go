// Arbitration: the king weighs the faction debate and commits to one move.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talgya/courtchess/internal/engine"
)

const arbiterSystemPrompt = `You are the King in a game of chess. Your factions have each petitioned you with a move recommendation. Weigh their counsel against the board and decide on one legal move.

Your move MUST be copied exactly from the available-moves list.

Respond ONLY with a single JSON object:
{"move": "<move in standard algebraic notation>", "reasoning": "<2-3 sentences explaining your decision>"}`

// Arbiter implements engine.ArbiterCaller over the Haiku client.
type Arbiter struct {
	client *Client
}

// NewArbiter creates the arbitration caller.
func NewArbiter(client *Client) *Arbiter {
	return &Arbiter{client: client}
}

// Decide sends the debate transcript and board to Haiku and returns the
// chosen move with its rationale.
func (a *Arbiter) Decide(ctx context.Context, transcript string, view engine.BoardView, legalMoves []string) (engine.Decision, error) {
	if !a.client.Enabled() {
		return engine.Decision{}, fmt.Errorf("LLM client not configured")
	}

	var b strings.Builder
	b.WriteString("Faction statements:\n")
	b.WriteString(transcript)
	b.WriteString("\n\n")
	b.WriteString(buildBoardPrompt(view, legalMoves))
	b.WriteString("\nDecide your move. Respond with a single JSON object.")

	resp, err := a.client.Complete(ctx, arbiterSystemPrompt, b.String(), 400)
	if err != nil {
		return engine.Decision{}, fmt.Errorf("arbitration call: %w", err)
	}

	return parseDecision(resp)
}

func parseDecision(resp string) (engine.Decision, error) {
	jsonStr, err := extractJSONObject(resp)
	if err != nil {
		return engine.Decision{}, err
	}

	var d engine.Decision
	if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
		return engine.Decision{}, fmt.Errorf("parse decision: %w", err)
	}
	if d.Move == "" {
		return engine.Decision{}, fmt.Errorf("decision has no move")
	}
	d.Move = strings.TrimSpace(d.Move)
	return d, nil
}

// extractJSONObject finds the outermost JSON object in a model response,
// tolerating prose or markdown fences around it.
func extractJSONObject(resp string) (string, error) {
	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return resp[start : end+1], nil
}
