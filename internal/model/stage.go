package model

import "fmt"

// Stage records which pipeline pass a bar has completed.
type Stage int

const (
	StageBuilt Stage = iota
	StageFilled
	StageVirtual
	StageAtomic
	StageRested
)

var stageNames = [...]string{"built", "fill_up_beats", "set_virtual_durations", "handle_non_atomics", "insert_rests"}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Stage returns the last completed pass.
func (b *Bar) Stage() Stage { return b.stage }

// Enter moves the bar into pass s. Passes must run in order, one step at
// a time; anything else is a programming error and panics.
func (b *Bar) Enter(s Stage) {
	if s != b.stage+1 {
		panic(fmt.Sprintf("model: bar %d: cannot run %s after %s", b.Number, s, b.stage))
	}
	b.stage = s
}
