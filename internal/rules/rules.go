// Package rules defines the chess-legality contract the rest of the game
// consumes. The game itself never implements chess rules; it talks to a Board,
// and the only Board in the tree delegates to notnil/chess.
package rules

import (
	"encoding/json"
	"fmt"
)

// Colour identifies a side.
type Colour uint8

const (
	White Colour = iota
	Black
)

// Opponent returns the other side.
func (c Colour) Opponent() Colour {
	if c == White {
		return Black
	}
	return White
}

func (c Colour) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ParseColour maps "white"/"black" to a Colour.
func ParseColour(s string) (Colour, bool) {
	switch s {
	case "white":
		return White, true
	case "black":
		return Black, true
	}
	return White, false
}

// MarshalJSON encodes the colour by name.
func (c Colour) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a colour name.
func (c *Colour) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseColour(s)
	if !ok {
		return fmt.Errorf("unknown colour %q", s)
	}
	*c = parsed
	return nil
}

// PieceType identifies a piece kind.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

func (p PieceType) String() string {
	switch p {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "unknown"
}

// ParsePieceType maps a lowercase piece name to a PieceType.
func ParsePieceType(s string) (PieceType, bool) {
	switch s {
	case "pawn":
		return Pawn, true
	case "knight":
		return Knight, true
	case "bishop":
		return Bishop, true
	case "rook":
		return Rook, true
	case "queen":
		return Queen, true
	case "king":
		return King, true
	}
	return Pawn, false
}

// MarshalJSON encodes the piece type by name.
func (p PieceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a piece type name.
func (p *PieceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParsePieceType(s)
	if !ok {
		return fmt.Errorf("unknown piece type %q", s)
	}
	*p = parsed
	return nil
}

// PieceValue is the material value used for health and capture scoring.
// Maximum material for one side is 49.
func PieceValue(p PieceType) int {
	switch p {
	case Pawn:
		return 1
	case Knight, Bishop:
		return 3
	case Rook:
		return 5
	case Queen:
		return 9
	case King:
		return 10
	}
	return 0
}

// Status describes the current game condition.
type Status struct {
	GameOver             bool    `json:"game_over"`
	Checkmate            bool    `json:"checkmate"`
	Stalemate            bool    `json:"stalemate"`
	InsufficientMaterial bool    `json:"insufficient_material"`
	MoveLimitDraw        bool    `json:"move_limit_draw"` // seventy-five move rule
	RepetitionDraw       bool    `json:"repetition_draw"` // fivefold repetition
	InCheck              bool    `json:"in_check"`
	Winner               *Colour `json:"winner,omitempty"`
	Result               string  `json:"result"` // "1-0", "0-1", "1/2-1/2", "*"
}

// Board is the legality engine the game consumes. Implementations must apply
// moves atomically: a rejected move leaves the position untouched, and
// LegalMoves must return a deterministic ordering.
type Board interface {
	// FEN returns the position in Forsyth-Edwards notation.
	FEN() string

	// Render returns a 2D ASCII view of the board for prompts and logs.
	Render() string

	// Turn returns the side to move.
	Turn() Colour

	// LegalMoves returns all legal moves in SAN, sorted lexicographically.
	// Empty once the game is over.
	LegalMoves() []string

	// Apply pushes a SAN move. Illegal or unparseable moves return an error
	// and leave the position unchanged.
	Apply(san string) error

	// Status reports terminal conditions and check state.
	Status() Status

	// HasPiece reports whether the colour still has a piece of the given type.
	HasPiece(c Colour, p PieceType) bool

	// MaterialSum returns the total material value of the colour's pieces.
	MaterialSum(c Colour) int
}
