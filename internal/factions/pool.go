// Package factions tracks the advisory units of the game: one faction per
// (colour, piece type) pair, each speaking for all pieces of that type.
// The king has no faction; it arbitrates rather than advises.
package factions

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/courtchess/internal/rules"
)

// DebateOrder is the fixed enumeration order for active factions. Debate
// transcripts depend on it being stable across turns and processes.
var DebateOrder = []rules.PieceType{
	rules.Pawn,
	rules.Knight,
	rules.Bishop,
	rules.Rook,
	rules.Queen,
}

var (
	// ErrKingFaction is returned for instruction operations on the king.
	ErrKingFaction = errors.New("the king has no faction instruction")

	// ErrUnknownFaction is returned for a (colour, piece) pair with no faction.
	ErrUnknownFaction = errors.New("unknown faction")
)

// Faction is one advisory unit. Created at game start, never destroyed;
// Active flips as the board loses and regains pieces of its type.
type Faction struct {
	Colour      rules.Colour    `json:"colour"`
	Piece       rules.PieceType `json:"piece"`
	Active      bool            `json:"active"`
	Instruction string          `json:"instruction"`
}

// Label returns the faction's display name, e.g. "white knight".
func (f *Faction) Label() string {
	return fmt.Sprintf("%s %s", f.Colour, f.Piece)
}

// Pool holds both sides' factions.
type Pool struct {
	factions map[rules.Colour]map[rules.PieceType]*Faction
}

// NewPool creates all ten factions, active, seeded with per-side instructions.
func NewPool(whiteInstruction, blackInstruction string) *Pool {
	p := &Pool{factions: make(map[rules.Colour]map[rules.PieceType]*Faction, 2)}
	for _, c := range []rules.Colour{rules.White, rules.Black} {
		instruction := whiteInstruction
		if c == rules.Black {
			instruction = blackInstruction
		}
		p.factions[c] = make(map[rules.PieceType]*Faction, len(DebateOrder))
		for _, piece := range DebateOrder {
			p.factions[c][piece] = &Faction{
				Colour:      c,
				Piece:       piece,
				Active:      true,
				Instruction: instruction,
			}
		}
	}
	return p
}

// RefreshStatus updates every faction's Active flag from board truth.
// Transitions are logged; the operation itself cannot fail.
func (p *Pool) RefreshStatus(board rules.Board) {
	for colour, byPiece := range p.factions {
		for piece, f := range byPiece {
			exists := board.HasPiece(colour, piece)
			if exists == f.Active {
				continue
			}
			f.Active = exists
			if exists {
				slog.Info("faction activated", "faction", f.Label())
			} else {
				slog.Info("faction deactivated", "faction", f.Label())
			}
		}
	}
}

// Active returns the colour's active factions in DebateOrder.
func (p *Pool) Active(colour rules.Colour) []*Faction {
	byPiece, ok := p.factions[colour]
	if !ok {
		return nil
	}
	active := make([]*Faction, 0, len(DebateOrder))
	for _, piece := range DebateOrder {
		if f := byPiece[piece]; f != nil && f.Active {
			active = append(active, f)
		}
	}
	return active
}

// All returns every faction of the colour in DebateOrder, active or not.
func (p *Pool) All(colour rules.Colour) []*Faction {
	byPiece, ok := p.factions[colour]
	if !ok {
		return nil
	}
	all := make([]*Faction, 0, len(DebateOrder))
	for _, piece := range DebateOrder {
		if f := byPiece[piece]; f != nil {
			all = append(all, f)
		}
	}
	return all
}

// SetInstruction replaces a faction's instruction text. Idempotent; the king
// and unknown factions are rejected with an error, never a panic.
func (p *Pool) SetInstruction(colour rules.Colour, piece rules.PieceType, text string) error {
	f, err := p.lookup(colour, piece)
	if err != nil {
		return err
	}
	if f.Instruction == text {
		return nil
	}
	f.Instruction = text
	slog.Info("faction instruction updated", "faction", f.Label())
	return nil
}

// Instruction returns a faction's current instruction text.
func (p *Pool) Instruction(colour rules.Colour, piece rules.PieceType) (string, error) {
	f, err := p.lookup(colour, piece)
	if err != nil {
		return "", err
	}
	return f.Instruction, nil
}

func (p *Pool) lookup(colour rules.Colour, piece rules.PieceType) (*Faction, error) {
	if piece == rules.King {
		return nil, ErrKingFaction
	}
	byPiece, ok := p.factions[colour]
	if !ok {
		return nil, ErrUnknownFaction
	}
	f, ok := byPiece[piece]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownFaction, colour, piece)
	}
	return f, nil
}
