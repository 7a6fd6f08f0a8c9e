package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/courtchess/internal/engine"
	"github.com/talgya/courtchess/internal/factions"
	"github.com/talgya/courtchess/internal/rules"
)

func TestParseDecision(t *testing.T) {
	t.Run("clean JSON", func(t *testing.T) {
		d, err := parseDecision(`{"move": "e4", "reasoning": "centre control"}`)
		require.NoError(t, err)
		assert.Equal(t, "e4", d.Move)
		assert.Equal(t, "centre control", d.Rationale)
	})

	t.Run("prose and fences around the object", func(t *testing.T) {
		resp := "My decree follows.\n```json\n{\"move\": \"Nf3\", \"reasoning\": \"develop\"}\n```\nSo it is written."
		d, err := parseDecision(resp)
		require.NoError(t, err)
		assert.Equal(t, "Nf3", d.Move)
	})

	t.Run("missing move", func(t *testing.T) {
		_, err := parseDecision(`{"reasoning": "hmm"}`)
		require.Error(t, err)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := parseDecision("I shall play pawn to e4, verily.")
		require.Error(t, err)
	})
}

func TestParseCommentary(t *testing.T) {
	t.Run("valid judgement", func(t *testing.T) {
		c, err := parseCommentary(`{"quip": "A jest!", "judgement": "mistake"}`)
		require.NoError(t, err)
		assert.Equal(t, "A jest!", c.Quip)
		assert.Equal(t, engine.JudgementMistake, c.Judgement)
	})

	t.Run("label variants normalize", func(t *testing.T) {
		c, err := parseCommentary(`{"quip": "solid", "judgement": "Good Move"}`)
		require.NoError(t, err)
		assert.Equal(t, engine.JudgementGood, c.Judgement)
	})

	t.Run("unknown judgement rejected", func(t *testing.T) {
		_, err := parseCommentary(`{"quip": "eh", "judgement": "spectacular"}`)
		require.Error(t, err)
	})
}

func TestParseVerdict(t *testing.T) {
	v, err := parseVerdict(`{"allowed": false, "reasoning": "prompt injection attempt"}`)
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, "prompt injection attempt", v.Reasoning)
}

func TestParseInstructionUpdate(t *testing.T) {
	t.Run("valid update", func(t *testing.T) {
		u, err := parseInstructionUpdate(`{"piece": "Knight", "instruction": "Find an outpost on f5.", "reasoning": "activity"}`)
		require.NoError(t, err)
		assert.Equal(t, rules.Knight, u.Piece)
		assert.Equal(t, "Find an outpost on f5.", u.Instruction)
	})

	t.Run("king rejected", func(t *testing.T) {
		_, err := parseInstructionUpdate(`{"piece": "king", "instruction": "castle"}`)
		require.Error(t, err)
	})

	t.Run("empty instruction rejected", func(t *testing.T) {
		_, err := parseInstructionUpdate(`{"piece": "pawn", "instruction": "  "}`)
		require.Error(t, err)
	})
}

func TestDisabledClientFailsFast(t *testing.T) {
	// A nil client degrades every caller without panics; the engine turns
	// these errors into inline fallbacks.
	ctx := context.Background()
	var client *Client

	assert.False(t, client.Enabled())

	f := &factions.Faction{Colour: rules.White, Piece: rules.Pawn, Active: true}
	_, err := NewAdvisor(client).Suggest(ctx, f, engine.BoardView{}, nil)
	assert.Error(t, err)

	_, err = NewArbiter(client).Decide(ctx, "", engine.BoardView{}, nil)
	assert.Error(t, err)

	_, err = NewCommentator(client).Comment(ctx, engine.BoardView{})
	assert.Error(t, err)

	v, err := NewGuardrail(client).Check(ctx, "anything")
	require.NoError(t, err)
	assert.True(t, v.Allowed, "disabled guardrail allows")
}
