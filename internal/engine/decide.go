package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// DecideTurn runs one turn's decision cycle and streams its progress. The
// returned channel yields zero or more status events, exactly one debate
// event per active faction of the side to move (in the pool's fixed order),
// the arbiter's rationale as a further debate event, and at most one final
// move event, then closes.
//
// Advisory calls run strictly one at a time: the transcript the arbiter sees
// is game state, and sequential collection keeps it reproducible even though
// every call is long-latency I/O. Cancelling ctx ends the stream early with
// no side effects; the board is only ever mutated by ApplyMove.
func (g *Game) DecideTurn(ctx context.Context) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		g.decideTurn(ctx, events)
	}()
	return events
}

func (g *Game) decideTurn(ctx context.Context, events chan<- Event) {
	emit := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if g.board.Status().GameOver {
		g.phase = PhaseGameOver
		emit(statusEvent("game over"))
		return
	}

	mover := g.board.Turn()
	legal := g.board.LegalMoves()
	view := g.view()

	if !emit(statusEvent(fmt.Sprintf("deciding move for %s", mover))) {
		return
	}

	// Collect suggestions in the pool's fixed order, one call at a time.
	// One faction failing never aborts the turn.
	g.phase = PhaseCollectingSuggestions
	var transcript []string
	for _, f := range g.pool.Active(mover) {
		if ctx.Err() != nil {
			g.phase = PhaseIdle
			return
		}

		suggestion, err := g.advisor.Suggest(ctx, f, view, legal)
		if err != nil {
			slog.Warn("advisory call failed", "faction", f.Label(), "error", err)
			suggestion = fmt.Sprintf("Error: %v", err)
		}

		transcript = append(transcript, fmt.Sprintf("%s: %s", f.Label(), suggestion))
		if !emit(debateEvent(f.Label(), suggestion)) {
			g.phase = PhaseIdle
			return
		}
	}

	g.phase = PhaseArbitrating
	if !emit(statusEvent("arbiter thinking")) {
		g.phase = PhaseIdle
		return
	}

	decision, err := g.arbiter.Decide(ctx, strings.Join(transcript, "\n"), view, legal)
	if err != nil {
		slog.Warn("arbitration call failed", "error", err)
	} else if !emit(debateEvent("arbiter", decision.Rationale)) {
		g.phase = PhaseIdle
		return
	}

	g.phase = PhaseValidating
	chosen := decision.Move
	if err != nil || !contains(legal, chosen) {
		// Deterministic fallback: first legal move under lexicographic SAN
		// ordering. Sorted here on a copy so the substitution never depends
		// on the board's incidental enumeration order.
		fallback := canonicalFirst(legal)
		if fallback == "" {
			g.phase = PhaseGameOver
			emit(statusEvent("no legal moves available"))
			return
		}
		if err != nil {
			if !emit(statusEvent("arbitration failed, substituting first legal move")) {
				g.phase = PhaseIdle
				return
			}
		} else {
			slog.Warn("arbiter chose illegal move", "move", chosen)
			if !emit(statusEvent(fmt.Sprintf("chosen move %q is illegal, substituting first legal move", chosen))) {
				g.phase = PhaseIdle
				return
			}
		}
		chosen = fallback
	}

	emit(moveEvent(chosen))
	g.phase = PhaseIdle
}

// canonicalFirst returns the lexicographically smallest move.
func canonicalFirst(moves []string) string {
	if len(moves) == 0 {
		return ""
	}
	sorted := make([]string, len(moves))
	copy(sorted, moves)
	sort.Strings(sorted)
	return sorted[0]
}

func contains(moves []string, san string) bool {
	for _, m := range moves {
		if m == san {
			return true
		}
	}
	return false
}
