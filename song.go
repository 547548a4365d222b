package kaiku

import (
	"errors"
	"fmt"
)

type (
	// Song is the whole project: the arrangement of clips on tracks, the mixer
	// channels and the tempo information. Song and everything inside it are
	// passive values; all the editing logic lives in the studio package, which
	// replaces slices instead of mutating them in place, so a Song copy taken
	// for an undo snapshot stays valid even while the transport is reading the
	// previous version.
	Song struct {
		BPM           int
		TimeSignature TimeSignature
		TempoChanges  TempoMap `yaml:",omitempty,flow"`
		Tracks        []Track
		Mixer         Mixer
	}

	// Track is a named lane of clips. The clips are kept sorted by their start
	// tick; overlapping clips are allowed and resolved by the playback logic
	// (later clip wins).
	Track struct {
		Name  string
		Clips []Clip
	}

	// Clip is a placed pattern: Start and Length are in ticks, the Pattern
	// holds the notes relative to the clip start.
	Clip struct {
		Name    string `yaml:",omitempty"`
		Start   int
		Length  int
		Pattern Pattern `yaml:",flow"`
	}

	// Pattern is the note content of a clip, sorted by the note start tick.
	Pattern []Note

	// Note is a single note event. Tick is relative to the clip start, Key is
	// the MIDI note number and Velocity the MIDI velocity (1-127).
	Note struct {
		Tick     int
		Length   int
		Key      int
		Velocity int
	}

	// TimeSignature is the musical meter of the song. The denominator is kept
	// only for display; all tick math is based on quarter-note beats.
	TimeSignature struct {
		Numerator   int
		Denominator int
	}
)

func (s *Song) Copy() Song {
	tracks := make([]Track, len(s.Tracks))
	for i, t := range s.Tracks {
		tracks[i] = t.Copy()
	}
	return Song{
		BPM:           s.BPM,
		TimeSignature: s.TimeSignature,
		TempoChanges:  s.TempoChanges.Copy(),
		Tracks:        tracks,
		Mixer:         s.Mixer.Copy(),
	}
}

func (t *Track) Copy() Track {
	clips := make([]Clip, len(t.Clips))
	for i, c := range t.Clips {
		clips[i] = c.Copy()
	}
	return Track{Name: t.Name, Clips: clips}
}

func (c *Clip) Copy() Clip {
	return Clip{Name: c.Name, Start: c.Start, Length: c.Length, Pattern: c.Pattern.Copy()}
}

func (p Pattern) Copy() Pattern {
	notes := make(Pattern, len(p))
	copy(notes, p)
	return notes
}

// End returns the first tick after the clip.
func (c *Clip) End() int { return c.Start + c.Length }

// EndTick returns the first tick after the last clip on any track, i.e. the
// length of the song in ticks. A song with no clips has length 0.
func (s *Song) EndTick() int {
	ret := 0
	for _, t := range s.Tracks {
		for _, c := range t.Clips {
			if e := c.End(); e > ret {
				ret = e
			}
		}
	}
	return ret
}

// ClipAt returns the index of the clip sounding at the given song tick, or -1.
// When clips overlap, the last one in the slice wins.
func (t *Track) ClipAt(tick int) int {
	ret := -1
	for i, c := range t.Clips {
		if tick >= c.Start && tick < c.End() {
			ret = i
		}
	}
	return ret
}

// NotesAt yields the notes starting exactly at the given song tick. Used by
// the sequencer to trigger voices while playing.
func (t *Track) NotesAt(tick int, yield func(note Note) bool) {
	for _, c := range t.Clips {
		if tick < c.Start || tick >= c.End() {
			continue
		}
		rel := tick - c.Start
		for _, n := range c.Pattern {
			if n.Tick == rel {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// Validate checks that the song is playable: it has a sane tempo, meter and at
// least one mixer channel per track. Songs loaded from files go through this
// before they replace the current project.
func (s *Song) Validate() error {
	if s.BPM < MinBPM || s.BPM > MaxBPM {
		return fmt.Errorf("BPM %d out of range [%d, %d]", s.BPM, MinBPM, MaxBPM)
	}
	if s.TimeSignature.Numerator < 1 || s.TimeSignature.Denominator < 1 {
		return errors.New("time signature must have positive numerator and denominator")
	}
	if len(s.Mixer.Channels) < len(s.Tracks) {
		return fmt.Errorf("song has %d tracks but only %d mixer channels", len(s.Tracks), len(s.Mixer.Channels))
	}
	for i, t := range s.Tracks {
		for j, c := range t.Clips {
			if c.Start < 0 || c.Length <= 0 {
				return fmt.Errorf("track %d clip %d has invalid placement (start %d, length %d)", i, j, c.Start, c.Length)
			}
			for _, n := range c.Pattern {
				if n.Tick < 0 || n.Tick >= c.Length {
					return fmt.Errorf("track %d clip %d has a note outside the clip (tick %d)", i, j, n.Tick)
				}
				if n.Key < 0 || n.Key > 127 {
					return fmt.Errorf("track %d clip %d has a note with key %d outside 0-127", i, j, n.Key)
				}
			}
		}
	}
	return s.TempoChanges.Validate()
}
