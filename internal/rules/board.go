package rules

import (
	"fmt"
	"sort"

	"github.com/notnil/chess"
)

// GameBoard implements Board on top of notnil/chess.
type GameBoard struct {
	game *chess.Game
}

// NewBoard creates a board at the standard starting position.
func NewBoard() *GameBoard {
	return &GameBoard{game: chess.NewGame(chess.UseNotation(chess.AlgebraicNotation{}))}
}

// NewBoardFEN creates a board from a FEN string.
func NewBoardFEN(fen string) (*GameBoard, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN %q: %w", fen, err)
	}
	return &GameBoard{game: chess.NewGame(opt, chess.UseNotation(chess.AlgebraicNotation{}))}, nil
}

func (b *GameBoard) FEN() string {
	return b.game.Position().String()
}

func (b *GameBoard) Render() string {
	return b.game.Position().Board().Draw()
}

func (b *GameBoard) Turn() Colour {
	if b.game.Position().Turn() == chess.White {
		return White
	}
	return Black
}

// LegalMoves returns the legal SAN moves sorted lexicographically. The sort
// is the canonical move ordering for the whole game: consumers picking "the
// first legal move" must never depend on notnil/chess's generation order.
func (b *GameBoard) LegalMoves() []string {
	if b.game.Outcome() != chess.NoOutcome {
		return nil
	}
	pos := b.game.Position()
	notation := chess.AlgebraicNotation{}
	moves := b.game.ValidMoves()
	sans := make([]string, 0, len(moves))
	for _, m := range moves {
		sans = append(sans, notation.Encode(pos, m))
	}
	sort.Strings(sans)
	return sans
}

func (b *GameBoard) Apply(san string) error {
	if b.game.Outcome() != chess.NoOutcome {
		return fmt.Errorf("game is already over")
	}
	pos := b.game.Position()
	move, err := chess.AlgebraicNotation{}.Decode(pos, san)
	if err != nil {
		return fmt.Errorf("invalid or illegal move %q: %w", san, err)
	}
	if err := b.game.Move(move); err != nil {
		return fmt.Errorf("illegal move %q: %w", san, err)
	}
	return nil
}

func (b *GameBoard) Status() Status {
	outcome := b.game.Outcome()
	method := b.game.Method()
	pos := b.game.Position()

	st := Status{
		GameOver:             outcome != chess.NoOutcome,
		Checkmate:            method == chess.Checkmate,
		Stalemate:            method == chess.Stalemate,
		InsufficientMaterial: method == chess.InsufficientMaterial,
		MoveLimitDraw:        method == chess.SeventyFiveMoveRule,
		RepetitionDraw:       method == chess.FivefoldRepetition,
		InCheck:              kingAttacked(pos.Board(), pos.Turn()),
		Result:               string(outcome),
	}

	switch outcome {
	case chess.WhiteWon:
		w := White
		st.Winner = &w
	case chess.BlackWon:
		w := Black
		st.Winner = &w
	}

	return st
}

func (b *GameBoard) HasPiece(c Colour, p PieceType) bool {
	want := pieceType(p)
	colour := chessColour(c)
	for _, piece := range b.game.Position().Board().SquareMap() {
		if piece.Color() == colour && piece.Type() == want {
			return true
		}
	}
	return false
}

func (b *GameBoard) MaterialSum(c Colour) int {
	colour := chessColour(c)
	sum := 0
	for _, piece := range b.game.Position().Board().SquareMap() {
		if piece.Color() == colour {
			sum += PieceValue(fromChessPiece(piece.Type()))
		}
	}
	return sum
}

func chessColour(c Colour) chess.Color {
	if c == White {
		return chess.White
	}
	return chess.Black
}

func pieceType(p PieceType) chess.PieceType {
	switch p {
	case Pawn:
		return chess.Pawn
	case Knight:
		return chess.Knight
	case Bishop:
		return chess.Bishop
	case Rook:
		return chess.Rook
	case Queen:
		return chess.Queen
	default:
		return chess.King
	}
}

// kingAttacked reports whether colour's king square is attacked by any
// opposing piece. Raw attacks only: a pinned attacker still gives check.
// notnil/chess tags check on applied moves but exposes no position-level
// query, and a board restored from FEN has no prior move to consult.
func kingAttacked(board *chess.Board, colour chess.Color) bool {
	kingSq := chess.NoSquare
	for sq, piece := range board.SquareMap() {
		if piece.Type() == chess.King && piece.Color() == colour {
			kingSq = sq
			break
		}
	}
	if kingSq == chess.NoSquare {
		return false
	}

	enemy := colour.Other()
	file := int(kingSq) % 8
	rank := int(kingSq) / 8

	at := func(f, r int) chess.Piece {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return chess.NoPiece
		}
		return board.Piece(chess.Square(r*8 + f))
	}
	isEnemy := func(p chess.Piece, types ...chess.PieceType) bool {
		if p == chess.NoPiece || p.Color() != enemy {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}

	// Knights.
	for _, d := range [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}} {
		if isEnemy(at(file+d[0], rank+d[1]), chess.Knight) {
			return true
		}
	}

	// Pawns. White pawns attack toward higher ranks, black toward lower.
	pawnRank := rank - 1
	if enemy == chess.Black {
		pawnRank = rank + 1
	}
	if isEnemy(at(file-1, pawnRank), chess.Pawn) || isEnemy(at(file+1, pawnRank), chess.Pawn) {
		return true
	}

	// Adjacent enemy king. Cannot occur in a legal game, but a hand-written
	// FEN may contain it.
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			if isEnemy(at(file+df, rank+dr), chess.King) {
				return true
			}
		}
	}

	// Sliding pieces: walk each ray to the first occupied square.
	slide := func(df, dr int, types ...chess.PieceType) bool {
		f, r := file+df, rank+dr
		for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			p := at(f, r)
			if p != chess.NoPiece {
				return isEnemy(p, types...)
			}
			f += df
			r += dr
		}
		return false
	}
	for _, d := range [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
		if slide(d[0], d[1], chess.Bishop, chess.Queen) {
			return true
		}
	}
	for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		if slide(d[0], d[1], chess.Rook, chess.Queen) {
			return true
		}
	}

	return false
}

func fromChessPiece(p chess.PieceType) PieceType {
	switch p {
	case chess.Pawn:
		return Pawn
	case chess.Knight:
		return Knight
	case chess.Bishop:
		return Bishop
	case chess.Rook:
		return Rook
	case chess.Queen:
		return Queen
	default:
		return King
	}
}
