package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/courtchess/internal/rules"
)

// fakeBoard reports fixed material sums; everything else is inert.
type fakeBoard struct {
	white, black int
}

func (b *fakeBoard) FEN() string                             { return "" }
func (b *fakeBoard) Render() string                          { return "" }
func (b *fakeBoard) Turn() rules.Colour                      { return rules.White }
func (b *fakeBoard) LegalMoves() []string                    { return nil }
func (b *fakeBoard) Apply(string) error                      { return nil }
func (b *fakeBoard) Status() rules.Status                    { return rules.Status{} }
func (b *fakeBoard) HasPiece(rules.Colour, rules.PieceType) bool { return true }
func (b *fakeBoard) MaterialSum(c rules.Colour) int {
	if c == rules.White {
		return b.white
	}
	return b.black
}

func TestHealthTracksBoard(t *testing.T) {
	tr := NewTracker()
	board := &fakeBoard{white: 49, black: 44}

	white, black := tr.Health(board)
	assert.Equal(t, 49, white)
	assert.Equal(t, 44, black)

	// Health has no cached state: a board change shows up immediately.
	board.black = 39
	_, black = tr.Health(board)
	assert.Equal(t, 39, black)
}

func TestPointsAreMonotonic(t *testing.T) {
	tr := NewTracker()

	prev := 0
	for i := 0; i < 10; i++ {
		tr.AwardTurn(rules.White)
		if i%3 == 0 {
			tr.AwardCapture(rules.White, 3)
		}
		// A non-positive delta must never subtract.
		tr.AwardCapture(rules.White, 0)
		tr.AwardCapture(rules.White, -5)

		now := tr.Points(rules.White)
		assert.GreaterOrEqual(t, now, prev)
		prev = now
	}

	assert.Equal(t, 0, tr.Points(rules.Black), "opponent untouched")
}

func TestCaptureBonus(t *testing.T) {
	tr := NewTracker()
	tr.AwardTurn(rules.Black)
	tr.AwardCapture(rules.Black, 5) // rook

	assert.Equal(t, 6, tr.Points(rules.Black))
}

func TestRestore(t *testing.T) {
	tr := NewTracker()
	tr.Restore(12, 7)
	assert.Equal(t, 12, tr.Points(rules.White))
	assert.Equal(t, 7, tr.Points(rules.Black))
}

func TestEvaluateClamped(t *testing.T) {
	tr := NewTracker()

	assert.Equal(t, 5, tr.Evaluate(&fakeBoard{white: 49, black: 44}))
	assert.Equal(t, -3, tr.Evaluate(&fakeBoard{white: 41, black: 44}))
	assert.Equal(t, 10, tr.Evaluate(&fakeBoard{white: 49, black: 10}))
	assert.Equal(t, -10, tr.Evaluate(&fakeBoard{white: 10, black: 49}))
}

func TestSnapshot(t *testing.T) {
	tr := NewTracker()
	tr.AwardTurn(rules.White)
	tr.AwardTurn(rules.Black)
	tr.AwardCapture(rules.White, 9)

	snap := tr.Snapshot(&fakeBoard{white: 49, black: 40})
	assert.Equal(t, 49, snap.Health["white"])
	assert.Equal(t, 40, snap.Health["black"])
	assert.Equal(t, 10, snap.Points["white"])
	assert.Equal(t, 1, snap.Points["black"])
	assert.Equal(t, 9, snap.Evaluation)
}
