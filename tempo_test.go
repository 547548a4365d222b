package kaiku_test

import (
	"testing"
	"time"

	"github.com/kaiku-audio/kaiku"
)

func TestFormatPosition(t *testing.T) {
	cases := []struct {
		ticks     int
		numerator int
		expected  string
	}{
		{0, 4, "1:1:000"},
		{479, 4, "1:1:479"},
		{480, 4, "1:2:000"},
		{1920, 4, "2:1:000"},
		{1920 + 480 + 7, 4, "2:2:007"},
		{1440, 3, "2:1:000"},
		{-10, 4, "1:1:000"},
		{960, 0, "3:1:000"}, // degenerate meter falls back to 1 beat per bar
	}
	for _, c := range cases {
		if got := kaiku.FormatPosition(c.ticks, c.numerator); got != c.expected {
			t.Errorf("FormatPosition(%d, %d) = %q, expected %q", c.ticks, c.numerator, got, c.expected)
		}
	}
}

func TestTempoMapTimeAt(t *testing.T) {
	var tm kaiku.TempoMap
	if got := tm.TimeAt(2*kaiku.TicksPerBeat, 120); got != time.Second {
		t.Errorf("two beats at 120 BPM = %v, expected 1s", got)
	}
	tm = kaiku.TempoMap{{Tick: 2 * kaiku.TicksPerBeat, BPM: 60}}
	if got := tm.TimeAt(3*kaiku.TicksPerBeat, 120); got != 2*time.Second {
		t.Errorf("tempo map walk gave %v, expected 2s", got)
	}
	if got := tm.TimeAt(-5, 120); got != 0 {
		t.Errorf("negative tick gave %v, expected 0", got)
	}
}

func TestTempoMapTickAt(t *testing.T) {
	var tm kaiku.TempoMap
	if got := tm.TickAt(time.Second, 120); got != 2*kaiku.TicksPerBeat {
		t.Errorf("one second at 120 BPM = %d ticks, expected %d", got, 2*kaiku.TicksPerBeat)
	}
	tm = kaiku.TempoMap{{Tick: 2 * kaiku.TicksPerBeat, BPM: 60}}
	if got := tm.TickAt(2*time.Second, 120); got != 3*kaiku.TicksPerBeat {
		t.Errorf("tempo map walk gave %d ticks, expected %d", got, 3*kaiku.TicksPerBeat)
	}
}

func TestTempoMapRoundtrip(t *testing.T) {
	// both conversions truncate, so the roundtrip may land one tick short
	tm := kaiku.TempoMap{{Tick: 960, BPM: 93}, {Tick: 4800, BPM: 187}}
	for _, tick := range []int{0, 1, 479, 960, 961, 4800, 10000} {
		got := tm.TickAt(tm.TimeAt(tick, 120), 120)
		if got != tick && got != tick-1 {
			t.Errorf("TickAt(TimeAt(%d)) = %d", tick, got)
		}
	}
}

func TestTempoMapInsert(t *testing.T) {
	var tm kaiku.TempoMap
	tm = tm.Insert(kaiku.TempoChange{Tick: 960, BPM: 140})
	tm = tm.Insert(kaiku.TempoChange{Tick: 480, BPM: 60})
	tm = tm.Insert(kaiku.TempoChange{Tick: 960, BPM: 150}) // replaces
	if len(tm) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(tm))
	}
	if tm[0].Tick != 480 || tm[1].Tick != 960 || tm[1].BPM != 150 {
		t.Errorf("unexpected map %v", tm)
	}
	if err := tm.Validate(); err != nil {
		t.Errorf("inserted map does not validate: %v", err)
	}
}

func TestClampBPM(t *testing.T) {
	if got := kaiku.ClampBPM(5); got != kaiku.MinBPM {
		t.Errorf("ClampBPM(5) = %d", got)
	}
	if got := kaiku.ClampBPM(5000); got != kaiku.MaxBPM {
		t.Errorf("ClampBPM(5000) = %d", got)
	}
	if got := kaiku.ClampBPM(128); got != 128 {
		t.Errorf("ClampBPM(128) = %d", got)
	}
}

func TestBPMAt(t *testing.T) {
	tm := kaiku.TempoMap{{Tick: 480, BPM: 60}, {Tick: 960, BPM: 180}}
	cases := []struct{ tick, expected int }{
		{0, 120}, {479, 120}, {480, 60}, {959, 60}, {960, 180}, {99999, 180},
	}
	for _, c := range cases {
		if got := tm.BPMAt(c.tick, 120); got != c.expected {
			t.Errorf("BPMAt(%d) = %d, expected %d", c.tick, got, c.expected)
		}
	}
}
