package studio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaiku-audio/kaiku"
)

func testSong() kaiku.Song {
	return kaiku.Song{
		BPM:           120,
		TimeSignature: kaiku.TimeSignature{Numerator: 4, Denominator: 4},
		Tracks: []kaiku.Track{{Name: "Lead", Clips: []kaiku.Clip{
			{Name: "a", Start: 0, Length: 8 * kaiku.TicksPerBeat},
		}}},
		Mixer: kaiku.Mixer{Channels: []kaiku.Channel{{Name: "Lead", Volume: 1}}},
	}
}

func newTestTransport() *Transport {
	return NewTransport(NewBroker(), testSong())
}

func TestTransportAdvance(t *testing.T) {
	tr := newTestTransport()
	tr.Play()
	// at 120 BPM one second is two beats
	tr.Advance(time.Second)
	assert.Equal(t, 2*kaiku.TicksPerBeat, tr.Position())
	assert.Equal(t, "1:3:000", tr.PositionString())
}

func TestTransportAdvanceIgnoredWhenPaused(t *testing.T) {
	tr := newTestTransport()
	tr.Advance(time.Second)
	assert.Equal(t, 0, tr.Position())
	tr.Play()
	tr.Advance(time.Second)
	tr.Pause()
	pos := tr.Position()
	tr.Advance(time.Second)
	assert.Equal(t, pos, tr.Position(), "pause freezes the position")
}

func TestTransportStopResets(t *testing.T) {
	tr := newTestTransport()
	tr.Play()
	tr.Advance(time.Second)
	require.NotZero(t, tr.Position())
	tr.Stop()
	assert.False(t, tr.IsPlaying())
	assert.Equal(t, 0, tr.Position(), "stop is a hard reset to zero")
}

func TestTransportPauseResume(t *testing.T) {
	tr := newTestTransport()
	tr.Play()
	tr.Advance(time.Second)
	tr.Pause()
	pos := tr.Position()
	tr.Play()
	tr.Advance(500 * time.Millisecond)
	assert.Equal(t, pos+kaiku.TicksPerBeat, tr.Position(), "resume continues from the paused position")
}

func TestTransportToggle(t *testing.T) {
	tr := newTestTransport()
	tr.Toggle()
	assert.True(t, tr.IsPlaying())
	tr.Toggle()
	assert.False(t, tr.IsPlaying())
}

func TestTransportTempoClamp(t *testing.T) {
	tr := newTestTransport()
	tr.SetTempo(5)
	assert.Equal(t, kaiku.MinBPM, tr.Tempo())
	tr.SetTempo(5000)
	assert.Equal(t, kaiku.MaxBPM, tr.Tempo())
	tr.SetTempo(128)
	assert.Equal(t, 128, tr.Tempo())
}

func TestTransportTempoChangeMidPlayback(t *testing.T) {
	tr := newTestTransport()
	tr.Play()
	tr.Advance(time.Second) // 960 ticks at 120
	tr.SetTempo(60)
	tr.Advance(time.Second) // 480 ticks at 60
	assert.Equal(t, 3*kaiku.TicksPerBeat, tr.Position())
}

func TestTransportNoDrift(t *testing.T) {
	a, b := newTestTransport(), newTestTransport()
	a.Play()
	b.Play()
	for i := 0; i < 1000; i++ {
		a.Advance(time.Millisecond)
	}
	b.Advance(time.Second)
	assert.Equal(t, b.Position(), a.Position(), "many small advances must equal one large advance")
}

func TestTransportScrub(t *testing.T) {
	tr := newTestTransport()
	tr.SetPosition(1234)
	assert.Equal(t, 1234, tr.Position())
	assert.False(t, tr.IsPlaying(), "scrubbing does not start playback")
	tr.Play()
	tr.SetPosition(0)
	assert.True(t, tr.IsPlaying(), "scrubbing does not stop playback")
	tr.SetPosition(-5)
	assert.Equal(t, 0, tr.Position())
}

func TestTransportLoopWrap(t *testing.T) {
	tr := newTestTransport()
	tr.SetLoop(Loop{Start: 0, End: 2 * kaiku.TicksPerBeat, Enabled: true})
	tr.Play()
	tr.Advance(1500 * time.Millisecond) // 3 beats, loop is 2 beats long
	assert.Equal(t, kaiku.TicksPerBeat, tr.Position())
	assert.True(t, tr.IsPlaying())
}

func TestTransportLoopDisabledWhenInverted(t *testing.T) {
	tr := newTestTransport()
	tr.SetLoop(Loop{Start: 960, End: 480, Enabled: true})
	assert.False(t, tr.Loop().Enabled)
}

func TestTransportStopsAtSongEnd(t *testing.T) {
	tr := newTestTransport()
	tr.Play()
	tr.Advance(time.Minute) // way past the 8 beat clip
	assert.False(t, tr.IsPlaying())
	assert.Equal(t, 8*kaiku.TicksPerBeat, tr.Position())
}

func TestTransportRecordingIndependentOfPlayback(t *testing.T) {
	tr := newTestTransport()
	tr.StartRecording()
	assert.True(t, tr.IsRecording())
	assert.False(t, tr.IsPlaying(), "arming the recorder does not start playback")
	tr.Play()
	tr.Pause()
	assert.True(t, tr.IsRecording(), "pausing does not disarm the recorder")
}

func TestTransportRecordingCapture(t *testing.T) {
	broker := NewBroker()
	tr := NewTransport(broker, testSong())
	tr.StartRecording()
	tr.Play()
	tr.noteOn(NoteOnMsg{Track: 0, Key: 60, Velocity: 100})
	tr.Advance(500 * time.Millisecond) // one beat
	tr.noteOff(NoteOffMsg{Track: 0, Key: 60})
	tr.StopRecording()

	msg, ok := TimeoutReceive(broker.ToModel, time.Second)
	require.True(t, ok)
	rec, ok := msg.Data.(Recording)
	require.True(t, ok)
	require.Len(t, rec.Notes, 1)
	assert.Equal(t, kaiku.Note{Tick: 0, Length: kaiku.TicksPerBeat, Key: 60, Velocity: 100}, rec.Notes[0])
}

func TestTransportStopRecordingClosesHeldNotes(t *testing.T) {
	broker := NewBroker()
	tr := NewTransport(broker, testSong())
	tr.StartRecording()
	tr.Play()
	tr.noteOn(NoteOnMsg{Track: 0, Key: 72, Velocity: 90})
	tr.Advance(time.Second)
	tr.StopRecording() // note still held

	msg, ok := TimeoutReceive(broker.ToModel, time.Second)
	require.True(t, ok)
	rec := msg.Data.(Recording)
	require.Len(t, rec.Notes, 1)
	assert.Equal(t, 2*kaiku.TicksPerBeat, rec.Notes[0].Length)
}

func TestTransportMessages(t *testing.T) {
	broker := NewBroker()
	tr := NewTransport(broker, testSong())

	TrySend(broker.ToTransport, any(StartPlayMsg{Tick: 480}))
	tr.ProcessMessages()
	assert.True(t, tr.IsPlaying())
	assert.Equal(t, 480, tr.Position())

	TrySend(broker.ToTransport, any(BPMMsg{60}))
	TrySend(broker.ToTransport, any(PauseMsg{}))
	tr.ProcessMessages()
	assert.Equal(t, 60, tr.Tempo())
	assert.False(t, tr.IsPlaying())

	TrySend(broker.ToTransport, any(StopMsg{}))
	tr.ProcessMessages()
	assert.Equal(t, 0, tr.Position())
}

func TestTransportPositionTimeFollowsTempoMap(t *testing.T) {
	song := testSong()
	song.TempoChanges = kaiku.TempoMap{{Tick: 2 * kaiku.TicksPerBeat, BPM: 60}}
	tr := NewTransport(NewBroker(), song)
	tr.SetPosition(3 * kaiku.TicksPerBeat)
	// two beats at 120 (one second) plus one beat at 60 (one second)
	assert.Equal(t, 2*time.Second, tr.PositionTime())
}
