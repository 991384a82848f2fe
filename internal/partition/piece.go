package partition

import (
	"github.com/roach88/mensur/internal/rational"
)

// PieceKind names the part of an event span a piece covers.
type PieceKind int

const (
	// BeatOffset runs from a mid-beat onset to the next beat.
	BeatOffset PieceKind = iota
	// BarOffset runs from a mid-bar position to the bar line.
	BarOffset
	// FullBars covers one or more complete bars.
	FullBars
	// TupletOverhead is the integral part of an irregular remainder.
	TupletOverhead
	// Main is whatever remains.
	Main
)

var pieceKindNames = [...]string{"beat_offset", "bar_offset", "full_bars", "tuplet_overhead", "main"}

func (k PieceKind) String() string {
	if int(k) < len(pieceKindNames) {
		return pieceKindNames[k]
	}
	return "unknown"
}

// Piece is one section of an event span. QPos is the bar-relative
// position where the piece starts.
type Piece struct {
	Kind PieceKind
	QPos rational.Frac
	QIOI rational.Frac
}

// Pieces cuts a span of qioi quarters starting at qpos, in a bar of qper
// quarters, into at most five pieces in the fixed order BeatOffset,
// BarOffset, FullBars, TupletOverhead, Main. A piece is only emitted when
// the span continues past it.
func Pieces(qpos, qioi, qper rational.Frac) []Piece {
	var out []Piece
	pos, rem := qpos, qioi
	advance := func(kind PieceKind, d rational.Frac) {
		out = append(out, Piece{Kind: kind, QPos: pos, QIOI: d})
		pos = pos.Add(d)
		for !pos.Less(qper) {
			pos = pos.Sub(qper)
		}
		rem = rem.Sub(d)
	}

	if !pos.IsInt() {
		d := rational.Min(rational.One.Sub(pos.FracPart()), qper.Sub(pos))
		if d.Sign() > 0 && d.Less(rem) {
			advance(BeatOffset, d)
		}
	}

	if pos.Sign() > 0 && qper.Less(pos.Add(rem)) {
		d := qper.Sub(pos)
		if d.Less(rem) {
			advance(BarOffset, d)
		}
	}

	if n := rem.Div(qper).Floor(); n > 0 {
		advance(FullBars, qper.MulInt(n))
	}

	if _, factor := rational.AnalyseFracDuration(rem); factor != rational.One {
		if n := rem.Floor(); n > 1 {
			advance(TupletOverhead, rational.Int(n))
		}
	}

	if rem.Sign() > 0 {
		out = append(out, Piece{Kind: Main, QPos: pos, QIOI: rem})
	}
	return out
}
