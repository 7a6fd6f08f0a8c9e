// Post-move commentary: the court jester quips about the position and
// grades the most recent move. Pure flavor, never load-bearing.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talgya/courtchess/internal/engine"
)

const commentatorSystemPrompt = `You are the royal court jester on an enchanted chessboard. Your duties: delight the audience with a quick one-liner about the position, and grade the most recent move.

Grading cues (no engine evaluation available):
- Hanging a major piece or allowing forced mate: "blunder"
- Losing a minor piece or a clear fork without compensation: "mistake"
- A dubious positional concession with no tactic lost: "inaccuracy"
- A neutral, developing, or solid move: "good"
- Winning material or setting up an unstoppable tactic: "brilliant"
When in doubt, use the milder label.

Personality: quick-witted, fond of puns, light medieval flair. Two short sentences at most.

Respond ONLY with a single JSON object:
{"quip": "<the one-liner>", "judgement": "<blunder|mistake|inaccuracy|good|brilliant>"}`

// Commentator implements engine.CommentaryCaller over the Haiku client.
type Commentator struct {
	client *Client
}

// NewCommentator creates the commentary caller.
func NewCommentator(client *Client) *Commentator {
	return &Commentator{client: client}
}

// Comment grades the current position after a move.
func (c *Commentator) Comment(ctx context.Context, view engine.BoardView) (engine.Commentary, error) {
	if !c.client.Enabled() {
		return engine.Commentary{}, fmt.Errorf("LLM client not configured")
	}

	prompt := fmt.Sprintf("FEN: %s\n\n%s\n\nRespond with a single JSON object.", view.FEN, view.Grid)

	resp, err := c.client.Complete(ctx, commentatorSystemPrompt, prompt, 200)
	if err != nil {
		return engine.Commentary{}, fmt.Errorf("commentary call: %w", err)
	}

	return parseCommentary(resp)
}

func parseCommentary(resp string) (engine.Commentary, error) {
	jsonStr, err := extractJSONObject(resp)
	if err != nil {
		return engine.Commentary{}, err
	}

	var c engine.Commentary
	if err := json.Unmarshal([]byte(jsonStr), &c); err != nil {
		return engine.Commentary{}, fmt.Errorf("parse commentary: %w", err)
	}

	c.Judgement = normalizeJudgement(c.Judgement)
	if !engine.ValidJudgement(c.Judgement) {
		return engine.Commentary{}, fmt.Errorf("invalid judgement: %s", c.Judgement)
	}
	return c, nil
}

// normalizeJudgement tolerates common label variants.
func normalizeJudgement(j engine.Judgement) engine.Judgement {
	switch strings.ToLower(strings.TrimSpace(string(j))) {
	case "good move", "good":
		return engine.JudgementGood
	case "brilliant move", "brilliant":
		return engine.JudgementBrilliant
	case "blunder":
		return engine.JudgementBlunder
	case "mistake":
		return engine.JudgementMistake
	case "inaccuracy":
		return engine.JudgementInaccuracy
	}
	return j
}
