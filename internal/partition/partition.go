package partition

import (
	"github.com/roach88/mensur/internal/duration"
	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/rational"
)

// WholeNote is the longest chunk a piece is split into when a period
// limit applies, and the longest base a chunk may have.
var WholeNote = rational.Int(4)

// Chunk is one atomic fragment of an event.
type Chunk struct {
	Kind PieceKind

	// Offset is the distance from the event onset to the chunk.
	Offset rational.Frac

	// Dur is the real duration in quarter notes.
	Dur rational.Frac

	// Value is the notated chunk in ticks of 1/Unit quarter.
	Value duration.Value
	Unit  int64

	// TupletFactor relates the notated value to Dur.
	TupletFactor rational.Frac

	// Tie is set on every chunk of an event but the last.
	Tie bool
}

// Virtual returns the notated length Dur·TupletFactor.
func (c Chunk) Virtual() rational.Frac {
	return c.Value.Length(c.Unit)
}

// Partitioner splits event spans into atomic chunks.
type Partitioner struct {
	Decomposer duration.Decomposer
}

// Split partitions the span (qpos, qioi) of a bar of length qper into
// tied atomic chunks. The chunks always sum to qioi; a mismatch is a
// SPLIT_INTEGRITY error.
func (p Partitioner) Split(qpos, qioi, qper rational.Frac) ([]Chunk, error) {
	if qioi.Sign() <= 0 {
		return nil, ir.NewInvalidDurationError(qioi, "duration must be positive")
	}
	if qper.Sign() <= 0 {
		return nil, ir.NewInvalidDurationError(qper, "bar length must be positive")
	}
	if qpos.Sign() < 0 || !qpos.Less(qper) {
		return nil, ir.NewStructuralOverflowError("position %s outside bar of %s quarters", qpos, qper)
	}

	var chunks []Chunk
	offset := rational.Zero
	for _, pc := range Pieces(qpos, qioi, qper) {
		lengths := []rational.Frac{pc.QIOI}
		if pc.Kind == FullBars {
			n := pc.QIOI.Div(qper).Floor()
			lengths = make([]rational.Frac, n)
			for i := range lengths {
				lengths[i] = qper
			}
		}
		for _, length := range lengths {
			cs, err := p.chunkPiece(pc, length, offset)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, cs...)
			offset = offset.Add(length)
		}
	}

	sum := rational.Zero
	for i := range chunks {
		sum = sum.Add(chunks[i].Dur)
		chunks[i].Tie = i < len(chunks)-1
	}
	if sum != qioi {
		return nil, ir.NewSplitIntegrityError(qioi, sum)
	}
	return chunks, nil
}

func (p Partitioner) chunkPiece(pc Piece, length, offset rational.Frac) ([]Chunk, error) {
	value, factor := rational.AnalyseFracDuration(length)
	value, factor = checkTupletFactor(pc.QPos, length, value, factor)

	var maxPeriod int64
	switch pc.Kind {
	case Main, FullBars, BarOffset:
		maxPeriod = WholeNote.MulInt(value.Den()).Floor()
	}
	values, err := p.Decomposer.SplitDuration(value.Num(), maxPeriod)
	if err != nil {
		return nil, err
	}

	out := make([]Chunk, 0, len(values))
	for _, v := range values {
		if WholeNote.Less(rational.New(v.Base, value.Den())) {
			return nil, ir.NewInvalidDurationError(length, "notated value longer than a whole note")
		}
		dur := v.Length(value.Den()).Div(factor)
		out = append(out, Chunk{
			Kind:         pc.Kind,
			Offset:       offset,
			Dur:          dur,
			Value:        v,
			Unit:         value.Den(),
			TupletFactor: factor,
		})
		offset = offset.Add(dur)
	}
	return out, nil
}

// checkTupletFactor replaces the factor derived from a piece's own
// denominator when it contradicts the subdivision implied by the piece's
// position: a plain factor at a position inside a tuplet, or a triplet
// factor at a position on a ninth grid. The replacement is only used when
// it yields a notatable value.
func checkTupletFactor(pos, length, value, factor rational.Frac) (rational.Frac, rational.Frac) {
	qden := pos.Den()
	if (factor.Num() == 1 && !rational.IsPowerOfTwo(qden)) || (factor.Num() == 3 && qden%9 == 0) {
		_, posFactor := rational.AnalyseFracDuration(rational.New(1, qden))
		v := length.Mul(posFactor)
		if rational.IsPowerOfTwo(v.Den()) {
			return v, posFactor
		}
	}
	return value, factor
}
