package kaiku

import (
	"fmt"
	"sort"
	"time"
)

// TicksPerBeat is the fixed timing resolution: 480 ticks per quarter-note
// beat. All musical positions in the project are integer ticks at this
// resolution.
const TicksPerBeat = 480

// MinBPM and MaxBPM bound the tempo; set operations clamp silently to this
// range instead of rejecting the value.
const (
	MinBPM = 20
	MaxBPM = 999
)

type (
	// TempoChange sets a new tempo from the given song tick onwards.
	TempoChange struct {
		Tick int
		BPM  int
	}

	// TempoMap is the list of mid-song tempo changes, sorted by tick. The song
	// BPM applies from tick 0 until the first change. An empty map is the
	// common case and all the conversions have a fast path for it.
	TempoMap []TempoChange
)

func (tm TempoMap) Copy() TempoMap {
	changes := make(TempoMap, len(tm))
	copy(changes, tm)
	return changes
}

func (tm TempoMap) Validate() error {
	for i, c := range tm {
		if c.BPM < MinBPM || c.BPM > MaxBPM {
			return fmt.Errorf("tempo change %d has BPM %d out of range [%d, %d]", i, c.BPM, MinBPM, MaxBPM)
		}
		if c.Tick < 0 {
			return fmt.Errorf("tempo change %d has negative tick %d", i, c.Tick)
		}
		if i > 0 && tm[i-1].Tick >= c.Tick {
			return fmt.Errorf("tempo changes must be in strictly ascending tick order (change %d)", i)
		}
	}
	return nil
}

// BPMAt returns the tempo in effect at the given tick. base is the song BPM
// that applies before the first change.
func (tm TempoMap) BPMAt(tick, base int) int {
	bpm := base
	for _, c := range tm {
		if c.Tick > tick {
			break
		}
		bpm = c.BPM
	}
	return bpm
}

// TimeAt converts a tick position to wall-clock time from the start of the
// song, walking the tempo map segment by segment. base is the song BPM before
// the first change.
func (tm TempoMap) TimeAt(tick, base int) time.Duration {
	if tick <= 0 {
		return 0
	}
	var seconds float64
	prevTick, bpm := 0, base
	for _, c := range tm {
		if c.Tick >= tick {
			break
		}
		seconds += segmentSeconds(c.Tick-prevTick, bpm)
		prevTick, bpm = c.Tick, c.BPM
	}
	seconds += segmentSeconds(tick-prevTick, bpm)
	return time.Duration(seconds * float64(time.Second))
}

// TickAt is the inverse of TimeAt: it converts elapsed time from the song
// start to a tick position, truncating to whole ticks.
func (tm TempoMap) TickAt(d time.Duration, base int) int {
	if d <= 0 {
		return 0
	}
	remaining := d.Seconds()
	prevTick, bpm := 0, base
	for _, c := range tm {
		s := segmentSeconds(c.Tick-prevTick, bpm)
		if s > remaining {
			break
		}
		remaining -= s
		prevTick, bpm = c.Tick, c.BPM
	}
	return prevTick + int(remaining*float64(bpm)/60*TicksPerBeat)
}

// Insert returns a new map with the change applied, replacing an existing
// change at the same tick. The receiver is not modified.
func (tm TempoMap) Insert(change TempoChange) TempoMap {
	change.BPM = ClampBPM(change.BPM)
	ret := make(TempoMap, 0, len(tm)+1)
	for _, c := range tm {
		if c.Tick != change.Tick {
			ret = append(ret, c)
		}
	}
	ret = append(ret, change)
	sort.Slice(ret, func(i, j int) bool { return ret[i].Tick < ret[j].Tick })
	return ret
}

func segmentSeconds(ticks, bpm int) float64 {
	return float64(ticks) / TicksPerBeat * 60 / float64(bpm)
}

// ClampBPM silently limits a tempo to the supported range.
func ClampBPM(bpm int) int {
	if bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

// BarsBeatsTicks splits a tick position for display. Bars and beats are
// 1-based, the tick remainder is 0-based. Pure integer arithmetic, as this
// runs every frame during playback.
func BarsBeatsTicks(ticks, numerator int) (bar, beat, tick int) {
	if ticks < 0 {
		ticks = 0
	}
	if numerator < 1 {
		numerator = 1
	}
	ticksPerBar := TicksPerBeat * numerator
	bar = ticks/ticksPerBar + 1
	beat = ticks%ticksPerBar/TicksPerBeat + 1
	tick = ticks % TicksPerBeat
	return bar, beat, tick
}

// FormatPosition renders a tick position as "bar:beat:ttt" with the tick
// remainder zero-padded to three digits, e.g. tick 0 in 4/4 is "1:1:000".
func FormatPosition(ticks, numerator int) string {
	bar, beat, tick := BarsBeatsTicks(ticks, numerator)
	return fmt.Sprintf("%d:%d:%03d", bar, beat, tick)
}
