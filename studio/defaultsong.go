package studio

import "github.com/kaiku-audio/kaiku"

// defaultSong is the project a fresh start opens with: two tracks, a master
// bus and a four bar lead clip so that pressing play does something.
var defaultSong = kaiku.Song{
	BPM:           120,
	TimeSignature: kaiku.TimeSignature{Numerator: 4, Denominator: 4},
	Tracks: []kaiku.Track{
		{Name: "Lead", Clips: []kaiku.Clip{{
			Name:   "Intro",
			Start:  0,
			Length: 4 * 4 * kaiku.TicksPerBeat,
			Pattern: kaiku.Pattern{
				{Tick: 0, Length: kaiku.TicksPerBeat, Key: 60, Velocity: 100},
				{Tick: 1 * kaiku.TicksPerBeat, Length: kaiku.TicksPerBeat, Key: 64, Velocity: 100},
				{Tick: 2 * kaiku.TicksPerBeat, Length: kaiku.TicksPerBeat, Key: 67, Velocity: 100},
				{Tick: 3 * kaiku.TicksPerBeat, Length: kaiku.TicksPerBeat, Key: 72, Velocity: 100},
			},
		}}},
		{Name: "Bass"},
	},
	Mixer: kaiku.Mixer{Channels: []kaiku.Channel{
		{Name: "Lead", Volume: 1},
		{Name: "Bass", Volume: 1},
	}},
}
