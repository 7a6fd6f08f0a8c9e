// Self-play strategist: a side-level agent that steers its factions by
// rewriting one instruction per turn. Used by the simulation binary; the
// interactive game leaves instructions to the player.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talgya/courtchess/internal/engine"
	"github.com/talgya/courtchess/internal/factions"
	"github.com/talgya/courtchess/internal/rules"
)

const strategistSystemPrompt = `You are a chess strategy AI steering the factions of one side. Each faction (pawn, knight, bishop, rook, queen) follows a standing instruction during its debate phase. Each turn you may rewrite ONE faction's instruction to push a coherent plan: board control, development, king safety, threats.

Respond ONLY with a single JSON object:
{"piece": "<pawn|knight|bishop|rook|queen>", "instruction": "<1-2 sentence instruction>", "reasoning": "<one sentence>"}

Pick a piece type that is still on the board. Keep instructions concise and concrete, e.g. "Fight for d5 and shield the knight on f5."`

// InstructionUpdate is the strategist's single proposed change for a turn.
type InstructionUpdate struct {
	Piece       rules.PieceType
	Instruction string
	Reasoning   string
}

// Strategist proposes instruction updates for one side.
type Strategist struct {
	client *Client
	colour rules.Colour
}

// NewStrategist creates a strategist for the given side.
func NewStrategist(client *Client, colour rules.Colour) *Strategist {
	return &Strategist{client: client, colour: colour}
}

// ProposeUpdate asks for one instruction change given the board and the
// side's current instructions.
func (s *Strategist) ProposeUpdate(ctx context.Context, view engine.BoardView, active []*factions.Faction) (*InstructionUpdate, error) {
	if !s.client.Enabled() {
		return nil, fmt.Errorf("LLM client not configured")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You play %s.\n\n", s.colour)
	fmt.Fprintf(&b, "Board state:\nFEN: %s\n\n%s\n", view.FEN, view.Grid)
	b.WriteString("\nYour active factions and their current instructions:\n")
	for _, f := range active {
		text := f.Instruction
		if text == "" {
			text = "(none)"
		}
		fmt.Fprintf(&b, "* %s: %s\n", f.Piece, text)
	}
	b.WriteString("\nRespond with a single JSON object.")

	resp, err := s.client.Complete(ctx, strategistSystemPrompt, b.String(), 300)
	if err != nil {
		return nil, fmt.Errorf("strategist call (%s): %w", s.colour, err)
	}

	return parseInstructionUpdate(resp)
}

func parseInstructionUpdate(resp string) (*InstructionUpdate, error) {
	jsonStr, err := extractJSONObject(resp)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Piece       string `json:"piece"`
		Instruction string `json:"instruction"`
		Reasoning   string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("parse instruction update: %w", err)
	}

	piece, ok := rules.ParsePieceType(strings.ToLower(strings.TrimSpace(raw.Piece)))
	if !ok || piece == rules.King {
		return nil, fmt.Errorf("invalid piece type: %q", raw.Piece)
	}
	if strings.TrimSpace(raw.Instruction) == "" {
		return nil, fmt.Errorf("empty instruction")
	}

	return &InstructionUpdate{
		Piece:       piece,
		Instruction: strings.TrimSpace(raw.Instruction),
		Reasoning:   raw.Reasoning,
	}, nil
}
