// Faction advisory calls: each faction petitions the king with one move
// suggestion per turn, in character but grounded in the legal-move list.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/talgya/courtchess/internal/engine"
	"github.com/talgya/courtchess/internal/factions"
)

// Advisor implements engine.AdvisoryCaller over the Haiku client.
type Advisor struct {
	client *Client
}

// NewAdvisor creates the advisory caller. A nil client is tolerated; every
// call then fails and the engine degrades to inline error text.
func NewAdvisor(client *Client) *Advisor {
	return &Advisor{client: client}
}

// Suggest asks one faction for its move recommendation. Returns the
// suggestion as plain prose.
func (a *Advisor) Suggest(ctx context.Context, f *factions.Faction, view engine.BoardView, legalMoves []string) (string, error) {
	if !a.client.Enabled() {
		return "", fmt.Errorf("LLM client not configured")
	}

	system := buildAdvisorSystemPrompt(f)
	user := buildBoardPrompt(view, legalMoves)

	text, err := a.client.Complete(ctx, system, user, 300)
	if err != nil {
		return "", fmt.Errorf("advisory call (%s): %w", f.Label(), err)
	}
	return strings.TrimSpace(text), nil
}

func buildAdvisorSystemPrompt(f *factions.Faction) string {
	var b strings.Builder

	fmt.Fprintf(&b,
		"You are the Lord-Commander of the %s faction on an enchanted chessboard. "+
			"Your sworn duty is to maneuver every %s %s under your banner.\n\n",
		f.Label(), f.Colour, f.Piece)

	b.WriteString("Capital letters on the board are white pieces, lowercase are black. " +
		"Recommend only moves for your own pieces, chosen from the legal-move list.\n\n")

	if f.Instruction != "" {
		fmt.Fprintf(&b,
			"The king delivers this decree from his court advisor; follow it unless it breaks the rules of chess:\n%q\n\n",
			f.Instruction)
	}

	b.WriteString("Think through the tactics silently. Respond with a single actionable " +
		"recommendation in 2-3 sentences, addressed to the king, naming the move you favour.")

	return b.String()
}

// buildBoardPrompt formats the board snapshot shared by advisory and
// arbitration calls.
func buildBoardPrompt(view engine.BoardView, legalMoves []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current board state:\nFEN: %s\n\n%s\n", view.FEN, view.Grid)

	if len(legalMoves) > 0 {
		b.WriteString("\nAvailable moves:\n")
		for _, m := range legalMoves {
			fmt.Fprintf(&b, "* %s\n", m)
		}
	}

	return b.String()
}
