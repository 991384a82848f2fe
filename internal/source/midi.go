package source

import (
	"bytes"
	"cmp"
	"io"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/roach88/mensur/internal/ir"
	"github.com/roach88/mensur/internal/rational"
)

// MIDIOptions selects the voice read from a MIDI file and how it is
// placed in time.
type MIDIOptions struct {
	// Track is the index of the track to read. Negative picks the first
	// track that contains notes.
	Track int

	// Channel restricts notes to one channel (0-15). Negative accepts
	// every channel.
	Channel int

	// Grid snaps onsets and note ends to 1/Grid of a quarter note. Zero
	// keeps exact tick positions.
	Grid int64

	// Key is the key signature in fifths.
	Key int

	// Meter applies when the file has no time signature at tick 0.
	Meter ir.Meter
}

// DefaultMIDIOptions reads the first voiced track on any channel and
// snaps to a twelfth of a quarter, which holds sixteenths and eighth
// and sixteenth triplets.
func DefaultMIDIOptions() MIDIOptions {
	return MIDIOptions{Track: -1, Channel: -1, Grid: 12, Meter: ir.CommonTime}
}

const defaultBPM = 120.0

// ReadMIDI reads a Standard MIDI File. Overlapping notes are made
// monophonic: a new onset cuts the sounding note short, and of two notes
// starting together the higher one is kept. Lyric events at a note's
// onset become its annotation.
func ReadMIDI(path string, opts MIDIOptions) (ir.Melody, error) {
	data, err := readFile(path)
	if err != nil {
		return ir.Melody{}, err
	}
	m, err := ParseMIDI(bytes.NewReader(data), opts)
	if err != nil {
		return ir.Melody{}, err
	}
	m.ID = baseName(path)
	m.Title = baseName(path)
	m.Source = path
	return m, nil
}

type note struct {
	pitch   int
	on, off int64
	lyric   string
}

type meterMark struct {
	tick  int64
	meter ir.Meter
}

type tempoMark struct {
	tick int64
	bpm  float64
}

// ParseMIDI is ReadMIDI on an open reader.
func ParseMIDI(r io.Reader, opts MIDIOptions) (m ir.Melody, err error) {
	// smf panics on some malformed input instead of returning an error.
	defer func() {
		if p := recover(); p != nil {
			err = loadErrorf(ErrCodeMIDI, "malformed MIDI data: %v", p)
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return ir.Melody{}, loadErrorf(ErrCodeMIDI, "parsing MIDI: %v", err)
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return ir.Melody{}, loadErrorf(ErrCodeTimeFormat, "only metric time formats are supported, got %v", s.TimeFormat)
	}
	tpq := int64(ticks.Resolution())
	if tpq <= 0 {
		return ir.Melody{}, loadErrorf(ErrCodeTimeFormat, "invalid resolution %d", tpq)
	}

	meters, tempos := scanMeta(s)
	notes, err := pickNotes(s, opts)
	if err != nil {
		return ir.Melody{}, err
	}

	initial := opts.Meter
	if initial == (ir.Meter{}) {
		initial = ir.CommonTime
	}
	segs, err := meterSegments(meters, tpq, initial)
	if err != nil {
		return ir.Melody{}, err
	}

	toQ := func(tick int64) rational.Frac { return quantize(tick, tpq, opts.Grid) }
	events := placeNotes(notes, toQ, opts.Grid)

	m = ir.Melody{Key: opts.Key, Meter: segs[0].meter}
	running := m.Meter
	for i, n := range events {
		bar, qpos, meter := locate(segs, n.on)
		ev := ir.InputEvent{
			Index:      i,
			Pitch:      n.pitch,
			Onset:      seconds(n.tick, tempos, tpq),
			Bar:        bar,
			QPos:       qpos,
			QIOI:       n.ioi,
			QDur:       n.dur,
			Annotation: n.lyric,
		}
		if meter != running {
			mt := meter
			ev.Meter = &mt
			running = meter
		}
		m.Events = append(m.Events, ev)
	}
	return m, nil
}

// scanMeta collects time signatures and tempo changes from every track.
// Of several marks at the same tick the last one wins.
func scanMeta(s *smf.SMF) ([]meterMark, []tempoMark) {
	var meters []meterMark
	var tempos []tempoMark
	for _, tr := range s.Tracks {
		var tick int64
		for _, ev := range tr {
			tick += int64(ev.Delta)
			var num, denom, cpt, dsqpq uint8
			var bpm float64
			switch {
			case ev.Message.GetMetaTimeSig(&num, &denom, &cpt, &dsqpq):
				meters = append(meters, meterMark{tick: tick, meter: ir.Meter{Num: int(num), Den: int(denom)}})
			case ev.Message.GetMetaTempo(&bpm):
				tempos = append(tempos, tempoMark{tick: tick, bpm: bpm})
			}
		}
	}
	slices.SortStableFunc(meters, func(a, b meterMark) int { return cmp.Compare(a.tick, b.tick) })
	slices.SortStableFunc(tempos, func(a, b tempoMark) int { return cmp.Compare(a.tick, b.tick) })
	return lastPerTick(meters, func(m meterMark) int64 { return m.tick }),
		lastPerTick(tempos, func(t tempoMark) int64 { return t.tick })
}

func lastPerTick[T any](in []T, tick func(T) int64) []T {
	var out []T
	for _, v := range in {
		if len(out) > 0 && tick(out[len(out)-1]) == tick(v) {
			out[len(out)-1] = v
			continue
		}
		out = append(out, v)
	}
	return out
}

func pickNotes(s *smf.SMF, opts MIDIOptions) ([]note, error) {
	if opts.Track >= 0 {
		if opts.Track >= len(s.Tracks) {
			return nil, loadErrorf(ErrCodeNoNotes, "track %d does not exist, the file has %d", opts.Track, len(s.Tracks))
		}
		notes := trackNotes(s.Tracks[opts.Track], opts.Channel)
		if len(notes) == 0 {
			return nil, loadErrorf(ErrCodeNoNotes, "track %d has no notes", opts.Track)
		}
		return notes, nil
	}
	for _, tr := range s.Tracks {
		if notes := trackNotes(tr, opts.Channel); len(notes) > 0 {
			return notes, nil
		}
	}
	return nil, loadErrorf(ErrCodeNoNotes, "no track has notes")
}

func trackNotes(tr smf.Track, channel int) []note {
	var notes []note
	lyrics := map[int64]string{}
	sounding := -1
	var tick int64
	for _, ev := range tr {
		tick += int64(ev.Delta)
		var ch, key, vel uint8
		var text string
		msg := midi.Message(ev.Message)
		switch {
		case ev.Message.GetMetaLyric(&text):
			lyrics[tick] = text
		case msg.GetNoteStart(&ch, &key, &vel):
			if channel >= 0 && int(ch) != channel {
				continue
			}
			if sounding >= 0 {
				cur := &notes[sounding]
				if cur.on == tick {
					cur.pitch = max(cur.pitch, int(key))
					continue
				}
				cur.off = tick
			}
			notes = append(notes, note{pitch: int(key), on: tick, off: -1})
			sounding = len(notes) - 1
		case msg.GetNoteEnd(&ch, &key):
			if channel >= 0 && int(ch) != channel {
				continue
			}
			if sounding >= 0 && notes[sounding].pitch == int(key) {
				notes[sounding].off = tick
				sounding = -1
			}
		}
	}
	if sounding >= 0 {
		notes[sounding].off = tick
	}
	for i := range notes {
		notes[i].lyric = lyrics[notes[i].on]
	}
	return notes
}

// quantize converts a tick to quarter notes, snapped to the nearest
// multiple of 1/grid when grid is positive.
func quantize(tick, tpq, grid int64) rational.Frac {
	if grid <= 0 {
		return rational.New(tick, tpq)
	}
	return rational.New((2*tick*grid+tpq)/(2*tpq), grid)
}

type placed struct {
	pitch    int
	tick     int64
	on       rational.Frac
	ioi, dur rational.Frac
	lyric    string
}

// placeNotes converts notes to onsets and lengths. Notes that collapse
// onto an earlier onset after snapping are dropped; a note snapped to
// zero length gets one grid step.
func placeNotes(notes []note, toQ func(int64) rational.Frac, grid int64) []placed {
	var out []placed
	for _, n := range notes {
		on := toQ(n.on)
		if len(out) > 0 && !out[len(out)-1].on.Less(on) {
			continue
		}
		dur := toQ(n.off).Sub(on)
		if dur.Sign() <= 0 {
			if grid > 0 {
				dur = rational.New(1, grid)
			} else {
				dur = rational.New(1, 1)
			}
		}
		out = append(out, placed{pitch: n.pitch, tick: n.on, on: on, dur: dur, lyric: n.lyric})
	}
	for i := range out {
		if i+1 < len(out) {
			out[i].ioi = out[i+1].on.Sub(out[i].on)
			out[i].dur = rational.Min(out[i].dur, out[i].ioi)
		} else {
			out[i].ioi = out[i].dur
		}
	}
	return out
}

type segment struct {
	start rational.Frac
	meter ir.Meter
	bar   int
}

// meterSegments splits the timeline at time signature changes. Every
// change must fall on a bar line of the preceding meter.
func meterSegments(marks []meterMark, tpq int64, initial ir.Meter) ([]segment, error) {
	segs := []segment{{start: rational.Zero, meter: initial, bar: 1}}
	for _, mk := range marks {
		if err := mk.meter.Validate(); err != nil {
			return nil, loadErrorf(ErrCodeMIDI, "time signature at tick %d: %v", mk.tick, err)
		}
		pos := rational.New(mk.tick, tpq)
		last := &segs[len(segs)-1]
		if pos == last.start {
			last.meter = mk.meter
			continue
		}
		bars := pos.Sub(last.start).Div(last.meter.QPer())
		if !bars.IsInt() {
			return nil, loadErrorf(ErrCodeMeterChange, "time signature %s at tick %d is not on a bar line", mk.meter, mk.tick)
		}
		segs = append(segs, segment{start: pos, meter: mk.meter, bar: last.bar + int(bars.Floor())})
	}
	return segs, nil
}

// locate returns the bar, the position inside it and its meter.
func locate(segs []segment, pos rational.Frac) (int, rational.Frac, ir.Meter) {
	seg := segs[0]
	for _, s := range segs[1:] {
		if pos.Less(s.start) {
			break
		}
		seg = s
	}
	qper := seg.meter.QPer()
	rel := pos.Sub(seg.start)
	n := rel.Div(qper).Floor()
	return seg.bar + int(n), rel.Sub(qper.MulInt(n)), seg.meter
}

// seconds converts a tick to wall-clock time under the tempo map.
func seconds(tick int64, tempos []tempoMark, tpq int64) float64 {
	var secs float64
	at, bpm := int64(0), defaultBPM
	for _, t := range tempos {
		if t.tick >= tick {
			break
		}
		if t.bpm <= 0 {
			continue
		}
		secs += float64(t.tick-at) / float64(tpq) * 60 / bpm
		at, bpm = t.tick, t.bpm
	}
	return secs + float64(tick-at)/float64(tpq)*60/bpm
}
