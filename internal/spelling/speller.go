// Package spelling names MIDI pitches the way LilyPond's Dutch input
// language writes them, taking the key signature into account.
package spelling

import (
	"fmt"
	"strings"
)

// Speller turns a MIDI note number into a LilyPond pitch name with
// octave marks.
type Speller interface {
	Spell(midi int) string
}

// Pitch is a spelled pitch. Octave 0 is the octave starting at middle C,
// which LilyPond writes as c'.
type Pitch struct {
	Octave     int
	Notename   int // 0..6 for c..b
	Alteration int // -1 flat, 0 natural, 1 sharp
}

var (
	names     = [7]string{"c", "d", "e", "f", "g", "a", "b"}
	scale     = [7]int{0, 2, 4, 5, 7, 9, 11}
	sharpsOrd = [7]int{3, 0, 4, 1, 5, 2, 6} // f c g d a e b
	flatsOrd  = [7]int{6, 2, 5, 1, 4, 0, 3} // b e a d g c f
)

// Semitone returns the MIDI note number.
func (p Pitch) Semitone() int {
	return 60 + p.Octave*12 + scale[p.Notename] + p.Alteration
}

func (p Pitch) String() string {
	var b strings.Builder
	b.WriteString(names[p.Notename])
	switch {
	case p.Alteration > 0:
		b.WriteString(strings.Repeat("is", p.Alteration))
	case p.Alteration < 0:
		suffix := strings.Repeat("es", -p.Alteration)
		if p.Notename == 2 || p.Notename == 5 {
			// es, as rather than ees, aes
			suffix = suffix[1:]
		}
		b.WriteString(suffix)
	}
	switch {
	case p.Octave >= 0:
		b.WriteString(strings.Repeat("'", p.Octave+1))
	case p.Octave < -1:
		b.WriteString(strings.Repeat(",", -p.Octave-1))
	}
	return b.String()
}

// KeySpeller spells pitches in a major or minor key given by its number
// of fifths: positive for sharps, negative for flats.
type KeySpeller struct {
	Fifths int

	// byClass maps a pitch class to the note name and alteration used
	// for it.
	byClass [12]Pitch
}

// ForKey returns the speller for a key signature with the given number of
// fifths. Values outside -7..7 are clamped.
func ForKey(fifths int) *KeySpeller {
	fifths = max(-7, min(7, fifths))
	k := &KeySpeller{Fifths: fifths}

	var alter [7]int
	for i := 0; i < fifths; i++ {
		alter[sharpsOrd[i]] = 1
	}
	for i := 0; i < -fifths; i++ {
		alter[flatsOrd[i]] = -1
	}

	// Chromatic notes outside the key follow the key's direction.
	for pc := range 12 {
		k.byClass[pc] = chromatic(pc, fifths >= 0)
	}
	// Scale degrees of the key take precedence, which yields ces in
	// G flat major and eis in F sharp major.
	for n := range 7 {
		pc := ((scale[n]+alter[n])%12 + 12) % 12
		k.byClass[pc] = Pitch{Notename: n, Alteration: alter[n]}
	}
	return k
}

func chromatic(pc int, sharps bool) Pitch {
	for n := range 7 {
		if scale[n] == pc {
			return Pitch{Notename: n}
		}
	}
	if sharps {
		for n := range 7 {
			if scale[n]+1 == pc {
				return Pitch{Notename: n, Alteration: 1}
			}
		}
	}
	for n := range 7 {
		if scale[n]-1 == pc {
			return Pitch{Notename: n, Alteration: -1}
		}
	}
	panic(fmt.Sprintf("spelling: no name for pitch class %d", pc))
}

// Pitch returns the spelling of a MIDI note number.
func (k *KeySpeller) Pitch(midi int) Pitch {
	pc := ((midi % 12) + 12) % 12
	p := k.byClass[pc]
	// The octave belongs to the natural note: ces' is B below middle C.
	natural := midi - p.Alteration
	p.Octave = floorDiv(natural, 12) - 5
	return p
}

// Spell implements Speller.
func (k *KeySpeller) Spell(midi int) string {
	return k.Pitch(midi).String()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
